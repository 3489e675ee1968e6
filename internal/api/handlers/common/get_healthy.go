package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/util"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Health check
// Asks the device for its app version. Returns 200 with the version when the
// device answers, StatusNotReady otherwise.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(StatusNotReady, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ProbeReadinessTimeout)
		defer cancel()

		version, err := s.Device.GetVersion(ctx)
		if err != nil {
			util.LogFromEchoContext(c).Warn().Err(err).Msg("Health check failed")
			return c.String(StatusNotReady, fmt.Sprintf("Device unavailable: %v", err))
		}

		return c.String(http.StatusOK, fmt.Sprintf("Device app %s ready.", version))
	}
}
