package types

import (
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// HTTPValidationError HTTP validation error
//
// swagger:model httpValidationError
type HTTPValidationError struct {
	HTTPError

	// List of errors received while validating payload against schema
	// Required: true
	ValidationErrors []*HTTPValidationErrorDetail `json:"validationErrors"`
}

// Validate validates this http validation error
func (m *HTTPValidationError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.HTTPError.Validate(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateValidationErrors(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *HTTPValidationError) validateValidationErrors(formats strfmt.Registry) error {

	if err := validate.Required("validationErrors", "body", m.ValidationErrors); err != nil {
		return err
	}

	for i := 0; i < len(m.ValidationErrors); i++ {
		if swag.IsZero(m.ValidationErrors[i]) { // not required
			continue
		}

		if m.ValidationErrors[i] != nil {
			if err := m.ValidationErrors[i].Validate(formats); err != nil {
				if ve, ok := err.(*errors.Validation); ok {
					return ve.ValidateName("validationErrors" + "." + strconv.Itoa(i))
				}
				return err
			}
		}
	}

	return nil
}

// MarshalBinary interface implementation
func (m *HTTPValidationError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *HTTPValidationError) UnmarshalBinary(b []byte) error {
	var res HTTPValidationError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// HTTPValidationErrorDetail HTTP validation error detail
//
// swagger:model httpValidationErrorDetail
type HTTPValidationErrorDetail struct {

	// Error describing field validation failure
	// Required: true
	Error *string `json:"error"`

	// Indicates how the invalid field was provided
	// Required: true
	In *string `json:"in"`

	// Key of field failing validation
	// Required: true
	Key *string `json:"key"`
}

// Validate validates this http validation error detail
func (m *HTTPValidationErrorDetail) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("error", "body", m.Error); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("in", "body", m.In); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("key", "body", m.Key); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
