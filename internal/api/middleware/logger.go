package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-hwsigner/internal/util"
)

// LoggerConfig configures the request logger.
type LoggerConfig struct {
	Skipper middleware.Skipper
	Level   zerolog.Level
}

// LoggerWithConfig attaches a zerolog logger carrying the request id to the
// request context and logs every finished request at cfg.Level.
func LoggerWithConfig(cfg LoggerConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = middleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()
			start := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().Str("id", id).Logger()
			c.SetRequest(req.WithContext(util.LoggerWithContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			l.WithLevel(cfg.Level).
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("route", c.Path()).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration_ms", time.Since(start)).
				Msg("Request handled")

			return nil
		}
	}
}
