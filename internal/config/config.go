package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (JOBSCOUT_IDENTITY_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Backend       BackendConfig       `mapstructure:"backend"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Session       SessionConfig       `mapstructure:"session"`
	Store         StoreConfig         `mapstructure:"store"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BackendConfig holds the job-recommendation backend configuration
type BackendConfig struct {
	BaseURL string `mapstructure:"baseURL"`

	// Global/fallback operation settings
	Timeout      time.Duration `mapstructure:"timeout"`      // Long ceiling for AI-backed calls
	QuickTimeout time.Duration `mapstructure:"quickTimeout"` // Ceiling for health/city lookups

	RateLimit ClientRateLimitConfig `mapstructure:"rateLimit"`

	// Operation-group specific configurations
	Search  OperationConfig `mapstructure:"search"`
	Analyze OperationConfig `mapstructure:"analyze"`
	Report  OperationConfig `mapstructure:"report"`
}

// OperationConfig holds per-operation-group backend call configuration
type OperationConfig struct {
	Timeout        *time.Duration       `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ClientRateLimitConfig holds the outbound request rate limit configuration
type ClientRateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
}

// IdentityConfig holds the identity provider configuration
type IdentityConfig struct {
	APIKey        string        `mapstructure:"apiKey"`
	Endpoint      string        `mapstructure:"endpoint"`      // Account endpoints (sign in/up)
	TokenEndpoint string        `mapstructure:"tokenEndpoint"` // Refresh-token exchange endpoint
	Timeout       time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds local session persistence configuration
type SessionConfig struct {
	TokenFile     string        `mapstructure:"tokenFile"`
	WatchEnabled  bool          `mapstructure:"watchEnabled"`  // Watch the token file for external changes
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce for file change events
}

// StoreConfig holds the local profile store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"` // SQLite database path, ":memory:" for tests
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel           string        `mapstructure:"logLevel"`
	DefaultFormat      string        `mapstructure:"defaultFormat"`
	SupportedFormats   []string      `mapstructure:"supportedFormats"`
	MaxResumeSize      int64         `mapstructure:"maxResumeSize"`
	AllowedResumeTypes []string      `mapstructure:"allowedResumeTypes"`
	AnalysisJobLimit   int           `mapstructure:"analysisJobLimit"`
	DefaultCountry     string        `mapstructure:"defaultCountry"`
	DefaultNumJobs     int           `mapstructure:"defaultNumJobs"`
	OnboardingRecheck  RecheckConfig `mapstructure:"onboardingRecheck"`
}

// RecheckConfig bounds the post-sign-in profile re-check that tolerates
// read-after-write lag in the profile store.
type RecheckConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set up environment variable handling
	v.SetEnvPrefix("JOBSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set up config file handling
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jobscout/")
	v.AddConfigPath("$HOME/.jobscout")
	v.AddConfigPath(".")

	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	// Unmarshal the configuration into the Config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply fallback logic and derived values
	config.applyFallbacks()

	// Log configuration sources summary
	config.logConfigurationSources(configFileUsed)

	// Resolve secrets from Vault when enabled
	if err := config.applyVaultSecrets(); err != nil {
		return nil, fmt.Errorf("vault secret resolution failed: %w", err)
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (set JOBSCOUT_BACKEND_BASEURL environment variable)")
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if c.Backend.QuickTimeout <= 0 {
		return fmt.Errorf("backend quick timeout must be positive")
	}

	if c.Identity.APIKey == "" {
		return fmt.Errorf("identity provider API key is required (set JOBSCOUT_IDENTITY_APIKEY environment variable)")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.App.MaxResumeSize <= 0 {
		return fmt.Errorf("max resume size must be positive")
	}

	if c.App.AnalysisJobLimit <= 0 {
		return fmt.Errorf("analysis job limit must be positive")
	}

	return nil
}

// applyOperationDefaults applies global defaults to operation-group configuration
func (c *Config) applyOperationDefaults(opCfg *OperationConfig) {
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.Backend.Timeout
	}
}

// GetSearchConfig returns the backend configuration for the search operation group
func (c *Config) GetSearchConfig() OperationConfig {
	config := c.Backend.Search
	c.applyOperationDefaults(&config)
	return config
}

// GetAnalyzeConfig returns the backend configuration for the analyze operation group
func (c *Config) GetAnalyzeConfig() OperationConfig {
	config := c.Backend.Analyze
	c.applyOperationDefaults(&config)
	return config
}

// GetReportConfig returns the backend configuration for the report operation group
func (c *Config) GetReportConfig() OperationConfig {
	config := c.Backend.Report
	c.applyOperationDefaults(&config)
	return config
}
