package util

import (
	"context"
	"io"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFromContext returns a request-specific zerolog instance using the provided context.
// The returned logger will have the request ID as well as some other value predefined.
// If no logger is associated with the context provided, the global zerolog instance
// will be used instead.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		if ShouldDisableLogger(ctx) {
			return l
		}
		l = &log.Logger
	}
	return l
}

// LoggerWithContext attaches logger l to ctx.
func LoggerWithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

type disableLoggerKey struct{}

// DisableLogger marks ctx so LogFromContext returns a disabled logger.
func DisableLogger(ctx context.Context, shouldDisable bool) context.Context {
	return context.WithValue(ctx, disableLoggerKey{}, shouldDisable)
}

// ShouldDisableLogger reports whether DisableLogger was set on ctx.
func ShouldDisableLogger(ctx context.Context) bool {
	s, ok := ctx.Value(disableLoggerKey{}).(bool)
	return ok && s
}

// LogFileConfig configures rotation of the optional log file.
type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ConfigureGlobalLogger sets up the global zerolog logger.
func ConfigureGlobalLogger(level zerolog.Level, prettyPrint bool, caller bool, file LogFileConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if prettyPrint {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	out := console
	if file.Path != "" {
		out = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
		})
	}

	logger := zerolog.New(out).With().Timestamp()
	if caller {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()
}

// LogFromEchoContext returns the request logger of c.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}
