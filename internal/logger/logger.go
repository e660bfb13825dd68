package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARNING:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger represents a configurable logger instance
type Logger struct {
	mu    sync.RWMutex
	level LogLevel
	zl    zerolog.Logger
}

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

func newZerolog(level LogLevel, output io.Writer) zerolog.Logger {
	return zerolog.New(
		zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: output != os.Stdout && output != os.Stderr},
	).Level(level.zerologLevel()).With().Timestamp().Logger()
}

// Init initializes the global logger with the specified level and output
func Init(level LogLevel, output io.Writer) {
	if output == nil {
		output = os.Stdout
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = &Logger{
		level: level,
		zl:    newZerolog(level, output),
	}
}

// ParseLogLevel parses a string log level and returns the corresponding LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	globalMu.Lock()
	l := globalLogger
	globalMu.Unlock()
	if l == nil {
		Init(INFO, os.Stdout)
		globalMu.Lock()
		l = globalLogger
		globalMu.Unlock()
	}
	return l
}

// SetLevel changes the log level of the global logger
func SetLevel(level LogLevel) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.zl = l.zl.Level(level.zerologLevel())
}

// Zerolog exposes the underlying structured logger for callers that want fields.
func (l *Logger) Zerolog() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

func (l *Logger) event(level LogLevel) *zerolog.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return nil
	}
	switch level {
	case DEBUG:
		return l.zl.Debug()
	case INFO:
		return l.zl.Info()
	case WARNING:
		return l.zl.Warn()
	default:
		return l.zl.Error()
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if e := l.event(DEBUG); e != nil {
		e.Msgf(format, v...)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	if e := l.event(INFO); e != nil {
		e.Msgf(format, v...)
	}
}

// Warning logs a warning message
func (l *Logger) Warning(format string, v ...interface{}) {
	if e := l.event(WARNING); e != nil {
		e.Msgf(format, v...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	if e := l.event(ERROR); e != nil {
		e.Msgf(format, v...)
	}
}

// Fatal logs an error message and exits the program
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.mu.RLock()
	zl := l.zl
	l.mu.RUnlock()
	zl.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Global convenience functions
func Debug(format string, v ...interface{}) {
	GetLogger().Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	GetLogger().Info(format, v...)
}

func Warning(format string, v ...interface{}) {
	GetLogger().Warning(format, v...)
}

func Error(format string, v ...interface{}) {
	GetLogger().Error(format, v...)
}

func Fatal(format string, v ...interface{}) {
	GetLogger().Fatal(format, v...)
}

// SetOutput changes the output destination of the global logger
func SetOutput(output io.Writer) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = newZerolog(l.level, output)
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	l := GetLogger()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}
