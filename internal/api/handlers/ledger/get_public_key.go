package ledger

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util"
)

func GetPublicKeyRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/public-key", getPublicKeyHandler(s))
}

func getPublicKeyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var accountID, addressIndex int64
		if err := echo.QueryParamsBinder(c).
			Int64("accountId", &accountID).
			Int64("addressIndex", &addressIndex).
			BindError(); err != nil {
			return err
		}

		p, err := path.Build(accountID, addressIndex)
		if err != nil {
			return err
		}

		key, err := s.Device.DerivePublicKey(ctx, p)
		if err != nil {
			log.Debug().Err(err).Str("path", p.String()).Msg("Failed to derive public key")
			return err
		}

		response := &types.GetLedgerPublicKeyResponse{
			PublicKey: swag.String(hexutil.Encode(key.PublicKey)),
			ChainKey:  swag.String(hexutil.Encode(key.ChainKey)),
			Path:      swag.String(p.String()),
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
