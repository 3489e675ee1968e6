package ledger

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util"
)

func GetAddressRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/address", getAddressHandler(s))
}

// getAddressHandler derives the address at m/44'/60'/accountId'/0/addressIndex.
// With confirm=true the device shows the address for confirmation first.
func getAddressHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var (
			accountID    int64
			addressIndex int64
			confirm      bool
		)
		if err := echo.QueryParamsBinder(c).
			Int64("accountId", &accountID).
			Int64("addressIndex", &addressIndex).
			Bool("confirm", &confirm).
			BindError(); err != nil {
			return err
		}

		p, err := path.Build(accountID, addressIndex)
		if err != nil {
			return err
		}

		address, err := s.Device.DeriveAddress(ctx, p, confirm)
		if err != nil {
			log.Debug().Err(err).Str("path", p.String()).Msg("Failed to derive address")
			return err
		}

		response := &types.GetLedgerAddressResponse{
			Address: swag.String(address),
			Path:    swag.String(p.String()),
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
