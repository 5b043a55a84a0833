package tasks

import "time"

// RetryConfig configures notification retry behavior
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	Delay       time.Duration `json:"delay"`
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       30 * time.Second,
	}
}

// RetryPolicy implements fixed-delay retry logic. A failed delivery is
// retried after the same delay every time until the attempt cap is hit.
type RetryPolicy struct {
	config RetryConfig
}

// NewRetryPolicy creates a new retry policy
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Delay <= 0 {
		config.Delay = 30 * time.Second
	}

	return &RetryPolicy{
		config: config,
	}
}

// ShouldRetry determines if a delivery should be attempted again
func (p *RetryPolicy) ShouldRetry(attempts int, err error) bool {
	if err == nil {
		return false
	}

	if attempts >= p.config.MaxAttempts {
		return false
	}

	return true
}

// NextDelay returns the fixed delay before the next attempt
func (p *RetryPolicy) NextDelay() time.Duration {
	return p.config.Delay
}

// MaxAttempts returns the attempt cap
func (p *RetryPolicy) MaxAttempts() int {
	return p.config.MaxAttempts
}
