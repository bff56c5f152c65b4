// Package logger holds the process-wide hclog root. Packages that want
// structured logging take a named sub-logger via New; the printf-style
// helpers cover the places where a quick formatted line is enough.
package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.RWMutex
	root = hclog.New(&hclog.LoggerOptions{
		Name:   "kodiview",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// Configure rebuilds the root logger from the given level and format.
// Format "json" switches to JSON output, anything else stays text.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	root = hclog.New(&hclog.LoggerOptions{
		Name:       "kodiview",
		Level:      hclog.LevelFromString(level),
		Output:     os.Stderr,
		JSONFormat: format == "json",
	})
}

// New returns a named sub-logger of the root.
func New(name string) hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if name == "" {
		return root
	}
	return root.Named(name)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	New("").Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	New("").Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	New("").Error(fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	New("").Debug(fmt.Sprintf(format, args...))
}
