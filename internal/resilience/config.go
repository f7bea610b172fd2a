package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig. maxRetries counts
// retries after the first attempt; negative values keep the default.
func FromRetryConfig(maxRetries, initialBackoffMs, maxBackoffMs, maxJitterMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries >= 0 {
		cfg.MaxAttempts = maxRetries + 1
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if maxJitterMs >= 0 {
		cfg.MaxJitter = time.Duration(maxJitterMs) * time.Millisecond
	}
	return cfg
}

// FromWindowConfig converts config values to a WindowConfig.
func FromWindowConfig(windowSecs, maxRequests, minIntervalMs int) WindowConfig {
	cfg := DefaultWindowConfig()
	if windowSecs > 0 {
		cfg.Window = time.Duration(windowSecs) * time.Second
	}
	if maxRequests >= 0 {
		cfg.MaxRequests = maxRequests
	}
	if minIntervalMs >= 0 {
		cfg.MinInterval = time.Duration(minIntervalMs) * time.Millisecond
	}
	return cfg
}
