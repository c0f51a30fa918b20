package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type AppLoggerLevel string

const (
	AppLoggerLevelDebug AppLoggerLevel = "debug"
	AppLoggerLevelInfo  AppLoggerLevel = "info"
	AppLoggerLevelWarn  AppLoggerLevel = "warn"
	AppLoggerLevelError AppLoggerLevel = "error"
)

type AppLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, op string, args ...any)
	Warn(msg string, op string, args ...any)
	Error(err error, op string, args ...any)
	InfoContext(ctx context.Context, msg string, op string, args ...any)
	SetLevel(level AppLoggerLevel)
}

type appLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// ParseLevel преобразует строковое значение из окружения в уровень логирования.
// Неизвестные значения трактуются как info.
func ParseLevel(level string) AppLoggerLevel {
	switch AppLoggerLevel(strings.ToLower(strings.TrimSpace(level))) {
	case AppLoggerLevelDebug:
		return AppLoggerLevelDebug
	case AppLoggerLevelWarn:
		return AppLoggerLevelWarn
	case AppLoggerLevelError:
		return AppLoggerLevelError
	default:
		return AppLoggerLevelInfo
	}
}

func getLoggerLevel(level AppLoggerLevel) slog.Level {
	switch level {
	case AppLoggerLevelDebug:
		return slog.LevelDebug
	case AppLoggerLevelInfo:
		return slog.LevelInfo
	case AppLoggerLevelWarn:
		return slog.LevelWarn
	case AppLoggerLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New создает JSON-логгер в stdout и делает его логгером по умолчанию
func New(levelCfg AppLoggerLevel) AppLogger {
	l := NewWithWriter(levelCfg, os.Stdout, "usermanager")
	slog.SetDefault(l.(*appLogger).logger)
	return l
}

// NewWithWriter создает логгер с произвольным приемником.
// Используется CLI (stderr) и тестами (io.Discard).
func NewWithWriter(levelCfg AppLoggerLevel, w io.Writer, service string) AppLogger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(getLoggerLevel(levelCfg))

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: a.Value}
			case slog.LevelKey:
				return slog.Attr{Key: "level", Value: a.Value}
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: a.Value}
			}
			return a
		},
	})

	return &appLogger{
		logger: slog.New(handler).With(slog.String("service", service)),
		level:  levelVar,
	}
}

// Discard логгер без вывода
func Discard() AppLogger {
	return NewWithWriter(AppLoggerLevelError, io.Discard, "test")
}

func (l *appLogger) SetLevel(level AppLoggerLevel) {
	l.level.Set(getLoggerLevel(level))
}

func (l *appLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *appLogger) Info(msg string, op string, args ...any) {
	l.logger.With(slog.String("op", op)).Info(msg, args...)
}

func (l *appLogger) Warn(msg string, op string, args ...any) {
	l.logger.With(slog.String("op", op)).Warn(msg, args...)
}

func (l *appLogger) Error(err error, op string, args ...any) {
	if err == nil {
		return
	}
	l.logger.With(
		slog.String("op", op),
		slog.String("error", err.Error()),
	).Error("operation failed", args...)
}

func (l *appLogger) InfoContext(ctx context.Context, msg string, op string, args ...any) {
	l.logger.With(slog.String("op", op)).InfoContext(ctx, msg, args...)
}
