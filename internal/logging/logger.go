// Package logging provides a small levelled key/value logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes levelled messages with key-value pairs. A nil *Logger
// discards everything, so callers can disable logging by not creating one.
type Logger struct {
	prefix string
	logger *log.Logger
	debug  bool
}

// New creates a logger writing to w (nil means stdout) with a prefix.
func New(w io.Writer, prefix string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// SetDebug enables or disables Debug output.
func (l *Logger) SetDebug(enabled bool) {
	if l != nil {
		l.debug = enabled
	}
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs. It is silent unless
// SetDebug(true) was called.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	if l == nil {
		return
	}
	var kv strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
