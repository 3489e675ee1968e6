package util

import (
	"net/http"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/api/httperrors"
	"github/chapool/go-hwsigner/internal/types"
)

// BindAndValidateBody binds the request body to v and validates it against
// its schema.
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		return errors.New("unexpected echo binder")
	}

	if err := binder.BindBody(c, v); err != nil {
		LogFromEchoContext(c).Debug().Err(err).Msg("Failed to bind request body")
		return httperrors.ErrBadRequestMalformedBody.Wrap(err)
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates v against its schema before rendering it as JSON.
func ValidateAndReturn(c echo.Context, code int, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		LogFromEchoContext(c).Error().Err(err).Msg("Response failed to validate against schema")
		return errors.Wrap(err, "invalid response")
	}

	return c.JSON(code, v)
}

func validatePayload(c echo.Context, v runtime.Validatable) error {
	err := v.Validate(strfmt.Default)
	if err == nil {
		return nil
	}

	var compositeError *oaerrors.CompositeError
	if errors.As(err, &compositeError) {
		LogFromEchoContext(c).Debug().Errs("validation_errors", compositeError.Errors).Msg("Payload did not match schema, returning HTTP validation error")

		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidation, http.StatusText(http.StatusBadRequest), formatValidationErrors(compositeError.Errors))
	}

	var validationError *oaerrors.Validation
	if errors.As(err, &validationError) {
		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidation, http.StatusText(http.StatusBadRequest), formatValidationErrors([]error{validationError}))
	}

	LogFromEchoContext(c).Error().Err(err).Msg("Failed to validate payload, returning generic HTTP error")
	return err
}

func formatValidationErrors(errs []error) []*types.HTTPValidationErrorDetail {
	details := make([]*types.HTTPValidationErrorDetail, 0, len(errs))

	for _, err := range errs {
		var compositeError *oaerrors.CompositeError
		if errors.As(err, &compositeError) {
			details = append(details, formatValidationErrors(compositeError.Errors)...)
			continue
		}

		var validationError *oaerrors.Validation
		if errors.As(err, &validationError) {
			details = append(details, &types.HTTPValidationErrorDetail{
				Key:   swag.String(validationError.Name),
				In:    swag.String(validationError.In),
				Error: swag.String(validationError.Error()),
			})
			continue
		}

		details = append(details, &types.HTTPValidationErrorDetail{
			Key:   swag.String("body"),
			In:    swag.String("body"),
			Error: swag.String(err.Error()),
		})
	}

	return details
}
