package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend Configuration - Global defaults
	v.SetDefault("backend.baseURL", "http://localhost:8000")
	v.SetDefault("backend.timeout", 300*time.Second) // AI-backed calls run inference synchronously
	v.SetDefault("backend.quickTimeout", 15*time.Second)

	// Backend rate limit defaults (client side)
	v.SetDefault("backend.rateLimit.enabled", true)
	v.SetDefault("backend.rateLimit.requestsPerMin", 60)
	v.SetDefault("backend.rateLimit.burstCapacity", 10)

	// Backend Configuration - Search operation group defaults
	v.SetDefault("backend.search.timeout", 120*time.Second)
	v.SetDefault("backend.search.circuitBreaker.enabled", true)
	v.SetDefault("backend.search.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.search.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.search.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.search.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.search.circuitBreaker.failureThreshold", 0.6)

	// Backend Configuration - Analyze operation group defaults
	v.SetDefault("backend.analyze.timeout", 300*time.Second) // Longest operation, per-job inference
	v.SetDefault("backend.analyze.circuitBreaker.enabled", true)
	v.SetDefault("backend.analyze.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.analyze.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.analyze.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.analyze.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.analyze.circuitBreaker.failureThreshold", 0.6)

	// Backend Configuration - Report operation group defaults
	v.SetDefault("backend.report.timeout", 180*time.Second)
	v.SetDefault("backend.report.circuitBreaker.enabled", true)
	v.SetDefault("backend.report.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.report.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.report.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.report.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.report.circuitBreaker.failureThreshold", 0.6)

	// Identity provider Configuration
	v.SetDefault("identity.apiKey", "")
	v.SetDefault("identity.endpoint", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("identity.tokenEndpoint", "https://securetoken.googleapis.com/v1")
	v.SetDefault("identity.timeout", 30*time.Second)

	// Session Configuration
	v.SetDefault("session.tokenFile", "$HOME/.jobscout/session.json")
	v.SetDefault("session.watchEnabled", true)
	v.SetDefault("session.debounceDelay", time.Second)

	// Store Configuration
	v.SetDefault("store.path", "$HOME/.jobscout/jobscout.db")

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "csv", "html"})
	v.SetDefault("app.maxResumeSize", 10*1024*1024) // 10MB
	v.SetDefault("app.allowedResumeTypes", []string{".pdf", ".docx"})
	v.SetDefault("app.analysisJobLimit", 5) // Backend analyzes the first 5 ranked jobs
	v.SetDefault("app.defaultCountry", "Pakistan")
	v.SetDefault("app.defaultNumJobs", 20)
	v.SetDefault("app.onboardingRecheck.attempts", 3)
	v.SetDefault("app.onboardingRecheck.delay", 1500*time.Millisecond)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.identityKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobscout")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}
