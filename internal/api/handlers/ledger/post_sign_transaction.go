package ledger

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util"
	"github/chapool/go-hwsigner/internal/wallet/signer"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

func PostSignTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.POST("/sign-transaction", postSignTransactionHandler(s))
}

func postSignTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSignTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		tx, err := unsignedFromPayload(body.Transaction)
		if err != nil {
			return err
		}

		signReq := &signer.SignRequest{
			AccountID:    swag.Int64Value(body.AccountID),
			AddressIndex: swag.Int64Value(body.AddressIndex),
			Tx:           tx,
			FromAddress:  body.FromAddress,
		}

		// Sign transaction, blocks until the user confirmed on the device
		signResp, err := s.Signer.SignTransaction(ctx, signReq)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to sign transaction")
			return err
		}

		signedAt := strfmt.DateTime(s.Clock.Now())
		response := &types.PostSignTransactionResponse{
			RawTransaction: swag.String(hexutil.Encode(signResp.RawTransaction)),
			TxHash:         swag.String(signResp.TxHash.Hex()),
			ChainID:        swag.String(signResp.ChainID.String()),
			From:           swag.String(signResp.From.Hex()),
			Path:           swag.String(signResp.Path.String()),
			V:              swag.String(hexutil.EncodeBig(signResp.V)),
			R:              swag.String(hexutil.EncodeBig(signResp.R)),
			S:              swag.String(hexutil.EncodeBig(signResp.S)),
			SignedAt:       &signedAt,
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}

// unsignedFromPayload decodes the hex fields of the payload. Missing fields
// stay nil and are reported by transaction validation.
func unsignedFromPayload(p *types.PostSignTransactionPayloadTransaction) (*transaction.Unsigned, error) {
	u := &transaction.Unsigned{}

	if p.Nonce != "" {
		nonce, err := hexutil.DecodeUint64(p.Nonce)
		if err != nil {
			return nil, invalidField("nonce", err)
		}
		u.Nonce = (*hexutil.Uint64)(&nonce)
	}

	if p.GasLimit != "" {
		gasLimit, err := hexutil.DecodeUint64(p.GasLimit)
		if err != nil {
			return nil, invalidField("gasLimit", err)
		}
		u.GasLimit = (*hexutil.Uint64)(&gasLimit)
	}

	bigFields := []struct {
		name  string
		value string
		dst   **hexutil.Big
	}{
		{"gasPrice", p.GasPrice, &u.GasPrice},
		{"value", p.Value, &u.Value},
		{"chainId", p.ChainID, &u.ChainID},
	}
	for _, f := range bigFields {
		if f.value == "" {
			continue
		}
		v, err := hexutil.DecodeBig(f.value)
		if err != nil {
			return nil, invalidField(f.name, err)
		}
		*f.dst = (*hexutil.Big)(v)
	}

	if p.To != "" {
		to := common.HexToAddress(p.To)
		u.To = &to
	}

	if p.Data != "" {
		data, err := hexutil.Decode(p.Data)
		if err != nil {
			return nil, invalidField("data", err)
		}
		u.Data = data
	}

	return u, nil
}

func invalidField(field string, err error) error {
	return ledger.NewValidationError(ledger.ErrInvalidInput, field, "%v", err)
}
