package gateway

import (
	"fmt"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// OperationBreaker wraps one backend operation group with circuit breaker
// protection. A nil breaker means the group runs unprotected.
type OperationBreaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

// NewOperationBreaker creates a circuit breaker configured for a backend
// operation group. Returns nil when the breaker is disabled in config.
func NewOperationBreaker(operationGroup string, cfg *config.OperationConfig, logger *errors.Logger) *OperationBreaker {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Backend-%s", operationGroup),
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.CircuitBreaker.MinRequests &&
				failureRatio >= cfg.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_group", operationGroup,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.CircuitBreaker.MaxRequests,
				"failure_threshold", cfg.CircuitBreaker.FailureThreshold)
		},
	}

	return &OperationBreaker{
		cb: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Execute executes the provided call with circuit breaker protection
func (b *OperationBreaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	if b == nil || b.cb == nil {
		// If breaker is disabled/nil, just execute the call directly
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *OperationBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *OperationBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return b.cb.State() == gobreaker.StateClosed
}
