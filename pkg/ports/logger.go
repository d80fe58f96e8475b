// Package ports defines the interfaces the codec pipeline depends on.
package ports

import (
	"fmt"
	"strings"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-frame and per-GOP details from codec components.
	LevelDebug LogLevel = iota
	// LevelInfo is for orchestration-level progress.
	LevelInfo
	// LevelWarn is for recoverable problems, such as a skipped corrupt frame.
	LevelWarn
	// LevelError is for problems that stop processing.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = []string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < LevelDebug || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name, case-insensitively.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (want one of %s)", s, strings.Join(levelNames, ", "))
}

// Logger abstracts logging. The msg parameter is a message key that the
// console logger translates before formatting it with args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name.
	WithComponent(component string) Logger
}
