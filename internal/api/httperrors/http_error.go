package httperrors

import (
	"fmt"
	"strings"

	"github.com/go-openapi/swag"
	"github/chapool/go-hwsigner/internal/types"
)

// HTTPError is an error that is rendered as a JSON body with the given status code.
type HTTPError struct {
	types.HTTPError
	Internal error `json:"-"`
}

// HTTPValidationError is an HTTPError listing the fields that failed validation.
type HTTPValidationError struct {
	types.HTTPValidationError
	Internal error `json:"-"`
}

func NewHTTPError(code int, errorType types.PublicHTTPErrorType, title string) *HTTPError {
	return &HTTPError{
		HTTPError: types.HTTPError{
			Code:  swag.Int64(int64(code)),
			Type:  swag.String(string(errorType)),
			Title: swag.String(title),
		},
	}
}

func NewHTTPErrorWithDetail(code int, errorType types.PublicHTTPErrorType, title string, detail string) *HTTPError {
	return &HTTPError{
		HTTPError: types.HTTPError{
			Code:   swag.Int64(int64(code)),
			Type:   swag.String(string(errorType)),
			Title:  swag.String(title),
			Detail: detail,
		},
	}
}

// Wrap returns a copy of e carrying err as its internal cause.
func (e *HTTPError) Wrap(err error) *HTTPError {
	out := *e
	out.Internal = err
	return &out
}

func (e *HTTPError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTPError %d (%s): %s", *e.Code, *e.Type, *e.Title)

	if len(e.Detail) > 0 {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}
	if e.Internal != nil {
		fmt.Fprintf(&b, ", %v", e.Internal)
	}

	return b.String()
}

// Unwrap returns the internal cause.
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

func NewHTTPValidationError(code int, errorType types.PublicHTTPErrorType, title string, validationErrors []*types.HTTPValidationErrorDetail) *HTTPValidationError {
	return &HTTPValidationError{
		HTTPValidationError: types.HTTPValidationError{
			HTTPError: types.HTTPError{
				Code:  swag.Int64(int64(code)),
				Type:  swag.String(string(errorType)),
				Title: swag.String(title),
			},
			ValidationErrors: validationErrors,
		},
	}
}

func (e *HTTPValidationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTPValidationError %d (%s): %s", *e.Code, *e.Type, *e.Title)

	if len(e.Detail) > 0 {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}
	if e.Internal != nil {
		fmt.Fprintf(&b, ", %v", e.Internal)
	}

	b.WriteString(" - Validation: ")
	for i, ve := range e.ValidationErrors {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (in %s): %s", swag.StringValue(ve.Key), swag.StringValue(ve.In), swag.StringValue(ve.Error))
	}

	return b.String()
}

// Unwrap returns the internal cause.
func (e *HTTPValidationError) Unwrap() error {
	return e.Internal
}
