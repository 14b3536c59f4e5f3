// Package logging provides a single reroutable logging sink for the
// display device engine. Call sites log through the package-level
// Verbose/Debug/Info/Warning/Error/Fatal helpers; a host application can
// redirect all output elsewhere with SetCallback without touching those
// call sites.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the C++ original's Logger::LogLevel: each level implicitly
// includes everything below it.
type Level int

const (
	Verbose Level = iota
	Debug
	Info
	Warning
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Verbose:
		return "verbose"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel parses the lowercase name of a Level, as read from a config
// file or CLI flag.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "verbose":
		return Verbose, true
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warning":
		return Warning, true
	case "error":
		return Error, true
	case "fatal":
		return Fatal, true
	}
	return Info, false
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Verbose, Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Fatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Callback receives a fully-formatted log line; registering one replaces the
// default zap console sink entirely.
type Callback func(level Level, message string)

// Logger is a lazily-initialized, thread-safe singleton re-router, the Go
// analogue of the original's Logger class.
type Logger struct {
	mu           sync.RWMutex
	enabledLevel Level
	callback     Callback
	zapLogger    *zap.Logger
}

var (
	instance     *Logger
	instanceOnce sync.Once
)

// Get returns the process-wide Logger instance, constructing it on first use.
func Get() *Logger {
	instanceOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
		cfg.OutputPaths = []string{"stdout"}
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		zapLogger, err := cfg.Build()
		if err != nil {
			zapLogger = zap.NewNop()
		}
		instance = &Logger{
			enabledLevel: Info,
			zapLogger:    zapLogger,
		}
	})
	return instance
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabledLevel = level
}

// IsLevelEnabled reports whether a message at level would currently be written.
func (l *Logger) IsLevelEnabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.enabledLevel
}

// SetCallback installs a custom sink, or resets to the default zap console
// sink when callback is nil.
func (l *Logger) SetCallback(callback Callback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callback = callback
}

// Write emits value at level if that level is currently enabled.
func (l *Logger) Write(level Level, value string) {
	if !l.IsLevelEnabled(level) {
		return
	}

	l.mu.RLock()
	callback := l.callback
	zapLogger := l.zapLogger
	l.mu.RUnlock()

	if callback != nil {
		callback(level, value)
		return
	}
	zapLogger.Check(level.zapLevel(), value).Write()
}

// Writef formats and writes, short-circuiting the fmt.Sprintf call if the
// level is disabled.
func (l *Logger) Writef(level Level, format string, args ...any) {
	if !l.IsLevelEnabled(level) {
		return
	}
	l.Write(level, fmt.Sprintf(format, args...))
}

func Verbosef(format string, args ...any) { Get().Writef(Verbose, format, args...) }
func Debugf(format string, args ...any)   { Get().Writef(Debug, format, args...) }
func Infof(format string, args ...any)    { Get().Writef(Info, format, args...) }
func Warningf(format string, args ...any) { Get().Writef(Warning, format, args...) }
func Errorf(format string, args ...any)   { Get().Writef(Error, format, args...) }
func Fatalf(format string, args ...any)   { Get().Writef(Fatal, format, args...) }

// SetLevel is a package-level convenience wrapping Get().SetLevel.
func SetLevel(level Level) { Get().SetLevel(level) }

// SetCallback is a package-level convenience wrapping Get().SetCallback.
func SetCallback(callback Callback) { Get().SetCallback(callback) }
