package bedrock

import "time"

// Config holds model invocation settings.
type Config struct {
	// ModelID is the Bedrock model or inference profile identifier.
	ModelID string

	// MaxTokens caps the generated output length (default: 2000).
	MaxTokens int32

	// Temperature controls sampling randomness (default: 0.7).
	Temperature float32

	// MaxAttempts is the number of invocation attempts for throttled
	// calls (default: 3).
	MaxAttempts int

	// InitialDelay is the wait before the first retry; it doubles after
	// each throttled attempt (default: 2s).
	InitialDelay time.Duration
}

// defaults applies default values for unset configuration fields.
func (c *Config) defaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 2 * time.Second
	}
}
