package component

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// LogLevel is the severity of a Logger entry published to NATS.
type LogLevel string

// LogLevel constants mirror slog's levels for the subset the ctffs
// components emit.
const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// Logger wraps a slog.Logger for local logging and, when a NATS connection
// is supplied, republishes each entry on "ctffs.log.<component>" so an
// operator dashboard can tail plugin activity live. NATS publishing is
// entirely optional: a nil connection makes Logger a thin slog wrapper.
type Logger struct {
	name   string
	nc     *nats.Conn
	logger *slog.Logger
}

// NewLogger creates a Logger for the named component.
func NewLogger(name string, nc *nats.Conn, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{name: name, nc: nc, logger: logger.With("component", name)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.log(LogLevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.log(LogLevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.log(LogLevelWarn, msg, args...) }

// Error logs at error level with the failing error attached.
func (l *Logger) Error(msg string, err error, args ...any) {
	l.log(LogLevelError, msg, append(args, "error", err)...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	switch level {
	case LogLevelDebug:
		l.logger.Debug(msg, args...)
	case LogLevelWarn:
		l.logger.Warn(msg, args...)
	case LogLevelError:
		l.logger.Error(msg, args...)
	default:
		l.logger.Info(msg, args...)
	}

	if l.nc == nil {
		return
	}
	l.publish(level, msg)
}

func (l *Logger) publish(level LogLevel, msg string) {
	entry := struct {
		Timestamp string   `json:"timestamp"`
		Level     LogLevel `json:"level"`
		Component string   `json:"component"`
		Message   string   `json:"message"`
	}{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.name,
		Message:   msg,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = l.nc.Publish("ctffs.log."+l.name, data)
}
