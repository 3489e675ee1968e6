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

func GetAddressesRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/addresses", getAddressesHandler(s))
}

// getAddressesHandler lists count consecutive addresses of an account starting
// at firstIndex without on-device confirmation.
func getAddressesHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var (
			accountID  int64
			firstIndex int64
			count      int64 = 1
		)
		if err := echo.QueryParamsBinder(c).
			Int64("accountId", &accountID).
			Int64("firstIndex", &firstIndex).
			Int64("count", &count).
			BindError(); err != nil {
			return err
		}

		addresses, err := s.Device.ListAddresses(ctx, accountID, firstIndex, count)
		if err != nil {
			log.Debug().Err(err).Int64("account_id", accountID).Msg("Failed to list addresses")
			return err
		}

		response := &types.GetLedgerAddressesResponse{
			Addresses: make([]*types.GetLedgerAddressResponse, 0, len(addresses)),
		}
		for i, address := range addresses {
			p, err := path.Build(accountID, firstIndex+int64(i))
			if err != nil {
				return err
			}
			response.Addresses = append(response.Addresses, &types.GetLedgerAddressResponse{
				Address: swag.String(address),
				Path:    swag.String(p.String()),
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
