package httperrors

import (
	"net/http"

	"github/chapool/go-hwsigner/internal/types"
)

var (
	ErrBadRequestMalformedBody    = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Request body could not be parsed.")
	ErrServiceUnavailableNoDevice = NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeGeneric, "No signing device available.")
)
