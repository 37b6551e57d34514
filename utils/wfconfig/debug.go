// Package wfconfig holds small cross-cutting configuration helpers shared
// by every engine package: the verbose flag and debug logging.
package wfconfig

import (
	"fmt"
	"log"
	"sync/atomic"
)

var verbose atomic.Bool

// SetVerbose toggles debug logging for the whole process.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Verbose reports whether debug logging is currently enabled.
func Verbose() bool {
	return verbose.Load()
}

// DebugLog logs a message with a "[DEBUG]" prefix, but only when verbose
// mode is enabled.
func DebugLog(format string, args ...interface{}) {
	if verbose.Load() {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Log prints a message regardless of debug mode.
func Log(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Describe renders a value the way job/action descriptions are logged
// throughout the engine: quoted backticks around a name.
func Describe(name string) string {
	return fmt.Sprintf("`%s`", name)
}
