package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents logging severity
type LogLevel int

const (
	// LogLevelDebug for stage statistics and traversal details
	LogLevelDebug LogLevel = iota
	// LogLevelInfo for general informational messages
	LogLevelInfo
	// LogLevelWarn for warning messages
	LogLevelWarn
	// LogLevelError for failed builds and store operations
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

// Logger is the printf-style logging interface.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger implements Logger using Go's standard log package
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

var _ Logger = (*DefaultLogger)(nil)

const prefix = "[tracegraph] "

// NewDefaultLogger creates a logger writing to stderr
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger creates a logger with custom output
func NewCustomLogger(out io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(out, prefix, log.LstdFlags),
		level:  level,
	}
}

// LevelEnabled reports whether messages at level are written.
func (l *DefaultLogger) LevelEnabled(level LogLevel) bool {
	return l.level <= level && level != LogLevelNone
}

// Debug logs debug messages
func (l *DefaultLogger) Debug(format string, v ...any) {
	if l.LevelEnabled(LogLevelDebug) {
		l.logger.Printf("[DEBUG] "+format, v...)
	}
}

// Info logs informational messages
func (l *DefaultLogger) Info(format string, v ...any) {
	if l.LevelEnabled(LogLevelInfo) {
		l.logger.Printf("[INFO] "+format, v...)
	}
}

// Warn logs warning messages
func (l *DefaultLogger) Warn(format string, v ...any) {
	if l.LevelEnabled(LogLevelWarn) {
		l.logger.Printf("[WARN] "+format, v...)
	}
}

// Error logs error messages
func (l *DefaultLogger) Error(format string, v ...any) {
	if l.LevelEnabled(LogLevelError) {
		l.logger.Printf("[ERROR] "+format, v...)
	}
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// ParseLevel parses a level name such as "debug" or "WARN". The empty
// string yields LogLevelInfo.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off", "disable":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

var (
	mu            sync.RWMutex
	defaultLogger Logger = NewDefaultLogger(LogLevelInfo)
)

// SetDefaultLogger sets the package-level logger
func SetDefaultLogger(logger Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = NoOpLogger{}
	}
	defaultLogger = logger
}

// GetDefaultLogger returns the current package-level logger
func GetDefaultLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetLogLevel replaces the package-level logger with a stderr logger at level
func SetLogLevel(level LogLevel) {
	SetDefaultLogger(NewDefaultLogger(level))
}

// Debug logs a debug message using the package-level logger
func Debug(format string, v ...any) {
	GetDefaultLogger().Debug(format, v...)
}

// Info logs an informational message using the package-level logger
func Info(format string, v ...any) {
	GetDefaultLogger().Info(format, v...)
}

// Warn logs a warning message using the package-level logger
func Warn(format string, v ...any) {
	GetDefaultLogger().Warn(format, v...)
}

// Error logs an error message using the package-level logger
func Error(format string, v ...any) {
	GetDefaultLogger().Error(format, v...)
}
