package gateway

import (
	"testing"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
)

func breakerConfig(maxRequests, minRequests uint32, threshold float64) *config.OperationConfig {
	return &config.OperationConfig{
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      maxRequests,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Each operation group gets its own circuit breaker configuration
	logger, _ := errors.New("error")

	searchCB := NewOperationBreaker("Search", breakerConfig(3, 3, 0.6), logger)
	analyzeCB := NewOperationBreaker("Analyze", breakerConfig(5, 2, 0.7), logger)
	reportCB := NewOperationBreaker("Report", breakerConfig(4, 5, 0.5), logger)

	tests := []struct {
		name    string
		breaker *OperationBreaker
		want    string
	}{
		{"SearchCircuitBreaker", searchCB, "Backend-Search"},
		{"AnalyzeCircuitBreaker", analyzeCB, "Backend-Analyze"},
		{"ReportCircuitBreaker", reportCB, "Backend-Report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.breaker.GetStats()

			name, ok := stats["name"].(string)
			if !ok {
				t.Fatal("Circuit breaker name not found")
			}
			if name != tt.want {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tt.want, name)
			}

			state, ok := stats["state"].(string)
			if !ok {
				t.Fatal("Circuit breaker state not found")
			}
			if state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%s'", state)
			}

			enabled, ok := stats["enabled"].(bool)
			if !ok {
				t.Fatal("Circuit breaker enabled status not found")
			}
			if !enabled {
				t.Error("Circuit breaker should be enabled")
			}
		})
	}

	t.Run("IndependentInstances", func(t *testing.T) {
		if searchCB == analyzeCB || searchCB == reportCB || analyzeCB == reportCB {
			t.Error("Operation breakers should be different instances")
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		for _, tt := range tests {
			if !tt.breaker.IsHealthy() {
				t.Errorf("%s should be healthy initially", tt.name)
			}
		}
	})
}

func TestCircuitBreakerDisabled(t *testing.T) {
	logger, _ := errors.New("error")

	cb := NewOperationBreaker("Search", &config.OperationConfig{
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: false},
	}, logger)

	if cb != nil {
		t.Fatal("Disabled circuit breaker should be nil")
	}

	// A nil breaker passes calls through untouched.
	called := false
	body, err := cb.Execute(func() ([]byte, error) {
		called = true
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called || string(body) != "ok" {
		t.Error("nil breaker should execute the call directly")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("nil breaker stats should report disabled")
	}
	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	logger, _ := errors.New("error")

	cb := NewOperationBreaker("Search", breakerConfig(1, 2, 0.5), logger)

	boom := errors.NewTransientError(errors.ErrCodeBackendUnavailable, "down", nil)
	for range 3 {
		_, _ = cb.Execute(func() ([]byte, error) { return nil, boom })
	}

	if cb.IsHealthy() {
		t.Error("breaker should open after repeated failures")
	}

	stats := cb.GetStats()
	if state, _ := stats["state"].(string); state != "open" {
		t.Errorf("state = %q, want open", state)
	}
}
