package ledger

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util"
)

func GetVersionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/version", getVersionHandler(s))
}

func getVersionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		version, err := s.Device.GetVersion(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to get device version")
			return err
		}

		response := &types.GetLedgerVersionResponse{
			Major:         swag.Int64(int64(version.Major)),
			Minor:         swag.Int64(int64(version.Minor)),
			Patch:         swag.Int64(int64(version.Patch)),
			IsDevelopment: swag.Bool(version.IsDevelopment),
			Version:       swag.String(version.String()),
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
