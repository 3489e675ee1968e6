package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/api/handlers"
	"github/chapool/go-hwsigner/internal/api/middleware"
)

// Init creates the echo instance, its middleware and all routes of s.
func Init(s *api.Server) error {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.Logger.SetOutput(&echoLogger{level: s.Config.Logger.RequestLevel, log: log.With().Str("component", "echo").Logger()})

	s.Echo.HTTPErrorHandler = HTTPErrorHandler

	// ---
	// General middleware
	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(echoMiddleware.Recover())
	} else {
		log.Warn().Msg("Disabling recover middleware due to environment config")
	}

	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(echoMiddleware.RequestID())
	} else {
		log.Warn().Msg("Disabling request ID middleware due to environment config")
	}

	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Level: s.Config.Logger.RequestLevel,
		}))
	} else {
		log.Warn().Msg("Disabling logger middleware due to environment config")
	}

	if s.Config.Echo.EnableMetricsMiddleware {
		mw, err := s.Metrics.Middleware()
		if err != nil {
			return err
		}
		s.Echo.Use(mw)
	}

	s.Router = &api.Router{
		Routes: nil, // will be populated by handlers.AttachAllRoutes(s)

		// Unsecured base group available at /**
		Root: s.Echo.Group(""),

		// Management endpoints, e.g. /-/ready
		Management: s.Echo.Group("/-"),

		// API endpoints talking to the signing device
		APIV1Ledger: s.Echo.Group("/api/v1/ledger"),
	}

	// ---
	// Finally attach our handlers
	handlers.AttachAllRoutes(s)

	return nil
}
