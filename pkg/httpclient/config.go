// pkg/httpclient/config.go

package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Config represents HTTP client configuration options
type Config struct {
	// Basic configuration
	Timeout   time.Duration     `json:"timeout" yaml:"timeout"`
	UserAgent string            `json:"user_agent" yaml:"user_agent"`
	Headers   map[string]string `json:"headers" yaml:"headers"`

	// Retry configuration
	RetryConfig *RetryConfig `json:"retry" yaml:"retry"`

	// Authentication configuration
	AuthConfig *AuthConfig `json:"auth" yaml:"auth"`

	// Rate limiting configuration
	RateLimitConfig *RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Circuit breaker configuration
	BreakerConfig *BreakerConfig `json:"breaker" yaml:"breaker"`

	// Observability configuration
	LogConfig *LogConfig `json:"log" yaml:"log"`

	// Transport overrides the base round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper `json:"-" yaml:"-"`
}

// RetryConfig defines retry behavior for failed requests
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay" yaml:"max_delay"`
	Multiplier      float64       `json:"multiplier" yaml:"multiplier"`
	Jitter          bool          `json:"jitter" yaml:"jitter"`
	RetryableStatus []int         `json:"retryable_status" yaml:"retryable_status"`
}

// AuthConfig defines authentication settings
type AuthConfig struct {
	Type     AuthType `json:"type" yaml:"type"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"-" yaml:"-"`
}

// RateLimitConfig enforces a minimum spacing between requests. A zero
// MinInterval disables limiting.
type RateLimitConfig struct {
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`
}

// BreakerConfig controls the circuit breaker wrapped around every round trip.
type BreakerConfig struct {
	Name                string        `json:"name" yaml:"name"`
	ConsecutiveFailures uint32        `json:"consecutive_failures" yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `json:"open_timeout" yaml:"open_timeout"`
}

// LogConfig defines logging behavior
type LogConfig struct {
	LogRequests  bool `json:"log_requests" yaml:"log_requests"`
	LogResponses bool `json:"log_responses" yaml:"log_responses"`
}

// AuthType represents different authentication methods
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeBasic AuthType = "basic"
)

// DefaultConfig returns a secure default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "agentdedup/1.0",
		Headers:   make(map[string]string),

		RetryConfig: &RetryConfig{
			MaxRetries:      3,
			InitialDelay:    2 * time.Second,
			MaxDelay:        30 * time.Second,
			Multiplier:      2.0,
			Jitter:          true,
			RetryableStatus: []int{429, 500, 502, 503, 504},
		},

		AuthConfig: &AuthConfig{
			Type: AuthTypeNone,
		},

		RateLimitConfig: &RateLimitConfig{
			MinInterval: time.Second,
		},

		BreakerConfig: &BreakerConfig{
			Name:                "vendor-api",
			ConsecutiveFailures: 5,
			OpenTimeout:         60 * time.Second,
		},

		LogConfig: &LogConfig{
			LogRequests:  true,
			LogResponses: false,
		},
	}
}

// TestConfig returns a configuration suitable for testing: no delays, no
// retries, short timeouts.
func TestConfig() *Config {
	config := DefaultConfig()

	config.Timeout = 5 * time.Second
	config.RetryConfig.MaxRetries = 0
	config.RetryConfig.InitialDelay = time.Millisecond
	config.RetryConfig.MaxDelay = 5 * time.Millisecond
	config.RetryConfig.Jitter = false
	config.RateLimitConfig.MinInterval = 0

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Message: "must be positive"}
	}

	if c.RetryConfig != nil {
		if c.RetryConfig.MaxRetries < 0 {
			return &ConfigError{Field: "RetryConfig.MaxRetries", Message: "cannot be negative"}
		}
		if c.RetryConfig.MaxRetries > 0 {
			if c.RetryConfig.InitialDelay <= 0 {
				return &ConfigError{Field: "RetryConfig.InitialDelay", Message: "must be positive"}
			}
			if c.RetryConfig.Multiplier < 1.0 {
				return &ConfigError{Field: "RetryConfig.Multiplier", Message: "must be at least 1.0"}
			}
		}
	}

	if c.RateLimitConfig != nil && c.RateLimitConfig.MinInterval < 0 {
		return &ConfigError{Field: "RateLimitConfig.MinInterval", Message: "cannot be negative"}
	}

	if c.AuthConfig != nil && c.AuthConfig.Type == AuthTypeBasic && c.AuthConfig.Username == "" {
		return &ConfigError{Field: "AuthConfig.Username", Message: "required for basic auth"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Message)
}
