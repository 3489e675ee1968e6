package router

import (
	"fmt"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/api/httperrors"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util"
)

// HTTPErrorHandler renders errors returned by handlers as JSON bodies.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	err = translateLedgerError(err)

	var (
		code int
		body interface{}
	)

	var validationErr *httperrors.HTTPValidationError
	var httpErr *httperrors.HTTPError
	var bindErr *echo.BindingError
	var echoErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		code = int(swag.Int64Value(validationErr.Code))
		body = validationErr.HTTPValidationError
	case errors.As(err, &httpErr):
		code = int(swag.Int64Value(httpErr.Code))
		body = httpErr.HTTPError
	case errors.As(err, &bindErr):
		code = bindErr.Code
		body = types.HTTPValidationError{
			HTTPError: types.HTTPError{
				Code:  swag.Int64(int64(code)),
				Type:  swag.String(string(types.PublicHTTPErrorTypeValidation)),
				Title: swag.String(http.StatusText(code)),
			},
			ValidationErrors: []*types.HTTPValidationErrorDetail{
				{
					Key:   swag.String(bindErr.Field),
					In:    swag.String("query"),
					Error: swag.String(fmt.Sprintf("%v", bindErr.Message)),
				},
			},
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		body = types.HTTPError{
			Code:  swag.Int64(int64(code)),
			Type:  swag.String(string(types.PublicHTTPErrorTypeGeneric)),
			Title: swag.String(http.StatusText(code)),
		}
	default:
		code = http.StatusInternalServerError
		body = types.HTTPError{
			Code:  swag.Int64(int64(code)),
			Type:  swag.String(string(types.PublicHTTPErrorTypeGeneric)),
			Title: swag.String(http.StatusText(code)),
		}
	}

	log := util.LogFromEchoContext(c)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", code).Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}
