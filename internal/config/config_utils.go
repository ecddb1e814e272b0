package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks applies environment variable fallbacks and derived values
func (c *Config) applyFallbacks() {
	c.applyPathExpansions()
	c.applyObservabilityDefaults()

	// Console output follows debug logging unless explicitly configured
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// applyPathExpansions expands $HOME in the local file paths
func (c *Config) applyPathExpansions() {
	c.Session.TokenFile = expandHome(c.Session.TokenFile)
	c.Store.Path = expandHome(c.Store.Path)
}

// expandHome replaces a leading $HOME with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "$HOME") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "$HOME"))
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	// Log config file source
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	// Log environment variables that are set
	envVars := []string{
		"JOBSCOUT_BACKEND_BASEURL",
		"JOBSCOUT_IDENTITY_APIKEY",
		"JOBSCOUT_IDENTITY_ENDPOINT",
		"JOBSCOUT_STORE_PATH",
		"JOBSCOUT_APP_LOGLEVEL",
		"JOBSCOUT_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Mask sensitive values
			if strings.Contains(strings.ToLower(envVar), "apikey") || strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	// Log key configuration values (with sensitive data masked)
	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Backend URL: %s", c.Backend.BaseURL)
	if c.Identity.APIKey != "" {
		log.Println("[CONFIG] Identity API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Identity API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Store Path: %s", c.Store.Path)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
