// Package logging provides the key/value logger used across snapkeep,
// backed by zerolog with optional size-rotated file output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/raoulx24/snapkeep/internal/config"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// ZeroLogger adapts a zerolog.Logger to Logger.
type ZeroLogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// New builds a logger from config. Console output goes to stderr; when a
// file is configured it is rotated by lumberjack once it grows past
// MaxSizeMB.
func New(cfg config.LoggingConfig) (*ZeroLogger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var console io.Writer = os.Stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	var closer io.Closer
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	l := NewWriter(zerolog.MultiLevelWriter(writers...), level)
	l.closer = closer
	return l, nil
}

// NewWriter logs JSON lines to w at the given level.
func NewWriter(w io.Writer, level zerolog.Level) *ZeroLogger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &ZeroLogger{zl: zl}
}

// Nop discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

// Close flushes and closes the rotating log file, if any.
func (l *ZeroLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *ZeroLogger) Debug(msg string, kv ...any) { emit(l.zl.Debug(), msg, kv) }
func (l *ZeroLogger) Info(msg string, kv ...any)  { emit(l.zl.Info(), msg, kv) }
func (l *ZeroLogger) Warn(msg string, kv ...any)  { emit(l.zl.Warn(), msg, kv) }
func (l *ZeroLogger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 == len(kv) {
			ev = ev.Str("!BADKEY", key)
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case string:
			ev = ev.Str(key, v)
		case time.Duration:
			ev = ev.Str(key, v.String())
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
