package analytics

import (
	"math/rand/v2"
	"strings"
	"time"
)

type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  20 * time.Millisecond,
	maxDelay:   200 * time.Millisecond,
}

// isTransient matches the busy and locked errors of modernc.org/sqlite.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{"SQLITE_BUSY", "SQLITE_LOCKED", "database is locked", "database table is locked"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

// retryOp runs fn with exponential backoff and jitter while it fails transiently.
func retryOp(cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		lastErr = fn()
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < cfg.maxRetries {
			delay := min(cfg.baseDelay<<uint(attempt), cfg.maxDelay)
			time.Sleep(delay + time.Duration(rand.Int64N(int64(cfg.baseDelay))))
		}
	}
	return lastErr
}
