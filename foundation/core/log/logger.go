// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger type: leveled, structured logging with
//              persistent context fields, request IDs, pluggable formatters
//              and integration with the structured error package.
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-18 v0.2.0: Removed async mode and user context
// - 2026-10-18 v0.3.0: Immutable loggers; runtime level changes removed

package log

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	dserror "github.com/msto63/descent/foundation/core/error"
)

// Logger is a structured logger. Loggers are immutable: every With* method
// returns a derived logger that shares the parent's output.
type Logger struct {
	level     Level
	formatter Formatter
	out       *sink
	name      string
	requestID string
	fields    Fields
	caller    bool
}

// sink serialises writes from all loggers derived from one configuration
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(p)
}

// Config represents logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer // defaults to stderr
	Name   string

	// EnableCaller adds file:line of the logging call to every entry
	EnableCaller bool
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		level:     config.Level,
		formatter: GetFormatter(config.Format),
		out:       &sink{w: output},
		name:      config.Name,
		caller:    config.EnableCaller,
	}
}

// Discard returns a logger that drops every entry
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}

func (l *Logger) derive() *Logger {
	clone := *l
	return &clone
}

// WithName returns a copy with the given logger name
func (l *Logger) WithName(name string) *Logger {
	clone := l.derive()
	clone.name = name
	return clone
}

// WithField returns a copy that adds key=value to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.derive()
	clone.fields = make(Fields, len(l.fields)+1)
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	clone.fields[key] = value
	return clone
}

// WithRequestID returns a copy tagged with a request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	clone := l.derive()
	clone.requestID = requestID
	return clone
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	return level.ShouldLog(l.level)
}

// Trace logs a trace level message
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs a debug level message
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs an info level message
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs a warning level message
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs an error level message
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// ErrorWithErr logs message at error level with err attached
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs message at warn level with err attached
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs err at a level chosen from its severity. Rejected input
// (low severity) is reported at info level.
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	dsErr, ok := err.(*dserror.Error)
	if !ok {
		l.log(LevelError, err.Error(), err)
		return
	}

	fields := Fields{
		"error_code":     string(dsErr.Code()),
		"error_severity": dsErr.Severity().String(),
	}
	if op := dsErr.Operation(); op != "" {
		fields["error_operation"] = op
	}
	for k, v := range dsErr.Details() {
		fields["error_"+k] = v
	}

	level := LevelError
	switch dsErr.Severity() {
	case dserror.SeverityLow:
		level = LevelInfo
	case dserror.SeverityMedium:
		level = LevelWarn
	}
	l.log(level, err.Error(), err, fields)
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// log builds and writes one entry. It must be called directly from a
// public logging method for caller reporting to be accurate.
func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !l.Enabled(level) {
		return
	}

	entry := NewEntry(level, message)
	entry.Logger = l.name
	entry.RequestID = l.requestID
	entry.Error = err
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, set := range fields {
		for k, v := range set {
			entry.Fields[k] = v
		}
	}

	if l.caller {
		// runtime.Caller, log, public method
		if pc, file, line, ok := runtime.Caller(2); ok {
			function := "unknown"
			if fn := runtime.FuncForPC(pc); fn != nil {
				function = filepath.Ext(fn.Name())
				if len(function) > 1 {
					function = function[1:]
				}
			}
			entry.WithCaller(function, filepath.Base(file), line)
		}
	}

	formatted, formatErr := l.formatter.Format(entry)
	if formatErr != nil {
		return
	}
	l.out.write(formatted)
}

var (
	defaultLogger   = NewWithConfig(Config{Level: DefaultLevel(), Format: FormatJSON})
	defaultLoggerMu sync.RWMutex
)

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the default logger instance
func SetDefault(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}
