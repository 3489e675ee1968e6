package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/util"
)

// StatusNotReady is returned by the management probes while the server is
// not able to serve requests.
const StatusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// Readiness check
// This endpoint returns 200 when our Service is ready to serve traffic (i.e. respond to queries).
// Does NOT talk to the device, use /-/healthy for that.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			util.LogFromEchoContext(c).Warn().Msg("Readiness check failed")
			return c.String(StatusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
