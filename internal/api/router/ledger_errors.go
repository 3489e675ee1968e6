package router

import (
	"context"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/api/httperrors"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/wallet/signer"
)

// translateLedgerError maps errors of the signing stack to HTTP errors:
// validation 400, rejection 403, sender mismatch 409, locked device 423,
// other protocol errors 502 and timeouts 504. Unknown errors are returned
// unchanged.
func translateLedgerError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *httperrors.HTTPError
	var httpValidationErr *httperrors.HTTPValidationError
	if errors.As(err, &httpErr) || errors.As(err, &httpValidationErr) {
		return err
	}

	var validationErr *ledger.ValidationError
	if errors.As(err, &validationErr) {
		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidation, http.StatusText(http.StatusBadRequest),
			[]*types.HTTPValidationErrorDetail{
				{
					Key:   swag.String(fieldOrBody(validationErr.Field)),
					In:    swag.String("body"),
					Error: swag.String(validationErr.Kind.Error() + ": " + validationErr.Reason),
				},
			})
	}

	if errors.Is(err, signer.ErrSenderMismatch) {
		return httperrors.NewHTTPErrorWithDetail(http.StatusConflict, types.PublicHTTPErrorTypeSENDERMISMATCH, "Signer does not match from address", err.Error()).Wrap(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return httperrors.NewHTTPErrorWithDetail(http.StatusGatewayTimeout, types.PublicHTTPErrorTypeDEVICETIMEOUT, "Device did not answer in time", err.Error()).Wrap(err)
	}

	if status, ok := ledger.StatusOf(err); ok {
		switch status {
		case ledger.StatusRejectedByUser, ledger.StatusRejectedByPolicy:
			return httperrors.NewHTTPErrorWithDetail(http.StatusForbidden, types.PublicHTTPErrorTypeRejected, "Rejected by device", ledger.StatusMessage(status)).Wrap(err)
		case ledger.StatusDeviceLocked:
			return httperrors.NewHTTPErrorWithDetail(http.StatusLocked, types.PublicHTTPErrorTypeDEVICELOCKED, "Device is locked", ledger.StatusMessage(status)).Wrap(err)
		}
	}

	if errors.Is(err, ledger.ErrTransactionRejectedOrMalformed) {
		return httperrors.NewHTTPErrorWithDetail(http.StatusForbidden, types.PublicHTTPErrorTypeRejected, "Transaction rejected or malformed", err.Error()).Wrap(err)
	}

	var protocolErr *ledger.ProtocolError
	if errors.As(err, &protocolErr) {
		return httperrors.NewHTTPErrorWithDetail(http.StatusBadGateway, types.PublicHTTPErrorTypeDEVICEPROTOCOL, "Device protocol error", protocolErr.Error()).Wrap(err)
	}

	return err
}

func fieldOrBody(field string) string {
	if field == "" {
		return "body"
	}
	return field
}
