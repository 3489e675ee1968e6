package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// HTTPError HTTP error
//
// swagger:model httpError
type HTTPError struct {

	// HTTP status code returned for the error
	// Example: 403
	// Required: true
	// Maximum: 599
	// Minimum: 100
	Code *int64 `json:"status"`

	// More detailed, human-readable, optional explanation of the error
	// Example: Device rejected the transaction
	Detail string `json:"detail,omitempty"`

	// Short, human-readable description of the error
	// Example: Forbidden
	// Required: true
	Title *string `json:"title"`

	// Type of error returned, should be used for client-side error handling
	// Example: rejected
	// Required: true
	Type *string `json:"type"`
}

// Validate validates this http error
func (m *HTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateCode(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("type", "body", m.Type); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *HTTPError) validateCode(formats strfmt.Registry) error {

	if err := validate.Required("status", "body", m.Code); err != nil {
		return err
	}

	if err := validate.MinimumInt("status", "body", *m.Code, 100, false); err != nil {
		return err
	}

	if err := validate.MaximumInt("status", "body", *m.Code, 599, false); err != nil {
		return err
	}

	return nil
}

// ContextValidate validates this http error based on context it is used
func (m *HTTPError) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *HTTPError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *HTTPError) UnmarshalBinary(b []byte) error {
	var res HTTPError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
