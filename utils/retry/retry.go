// Package retry implements exponential-backoff retrying for transient
// failures, adapted from the original rate-limit retry helper to instead
// recognize transient external-submission errors (connection refused,
// temporarily unavailable schedulers, …) used by utils/submitter.
package retry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// Config holds configuration for retry operations.
type Config struct {
	MaxRetries  int           // Maximum number of retry attempts
	InitialWait time.Duration // Initial wait time before first retry
	MaxWait     time.Duration // Maximum wait time between retries
	Factor      float64       // Exponential backoff factor
}

// DefaultConfig provides sensible defaults for retry operations.
var DefaultConfig = Config{
	MaxRetries:  5,
	InitialWait: 1 * time.Second,
	MaxWait:     60 * time.Second,
	Factor:      2.0,
}

// WithRetry executes operation, retrying it while shouldRetry(err) holds,
// with exponential backoff between attempts.
func WithRetry(operation func() (interface{}, error), shouldRetry func(error) bool, config Config) (interface{}, error) {
	var result interface{}
	var err error
	wait := config.InitialWait

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = operation()

		if err == nil || !shouldRetry(err) {
			return result, err
		}

		if attempt == config.MaxRetries {
			return nil, fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, err)
		}

		retryWait := time.Duration(math.Min(float64(wait), float64(config.MaxWait)))
		config.DebugLog("received retryable error: %v. retrying in %v (attempt %d/%d)",
			err, retryWait, attempt+1, config.MaxRetries)
		wfconfig.Log("transient error, retrying in %v (attempt %d/%d)...", retryWait, attempt+1, config.MaxRetries)

		time.Sleep(retryWait)
		wait = time.Duration(float64(wait) * config.Factor)
	}

	return nil, fmt.Errorf("unexpected error in retry logic")
}

// IsTransientSubmitError reports whether err looks like a transient
// external-scheduler submission failure worth retrying: connection
// refused/reset, a scheduler reporting temporary unavailability, or a
// "try again" message. It matches substrings of err's message only; exit
// codes are not inspected.
func IsTransientSubmitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"temporarily unavailable",
		"resource temporarily unavailable",
		"slurm_load_partitions",
		"try again",
		"too many requests",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// DebugLog logs debug information if verbose mode is enabled.
func (c Config) DebugLog(format string, args ...interface{}) {
	wfconfig.DebugLog("[retry] "+format, args...)
}

// Log prints a message regardless of debug mode.
func (c Config) Log(format string, args ...interface{}) {
	wfconfig.Log(format, args...)
}
