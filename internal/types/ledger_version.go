package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// GetLedgerVersionResponse get ledger version response
//
// swagger:model getLedgerVersionResponse
type GetLedgerVersionResponse struct {

	// Development build of the device app
	// Required: true
	IsDevelopment *bool `json:"isDevelopment"`

	// Major version
	// Required: true
	Major *int64 `json:"major"`

	// Minor version
	// Required: true
	Minor *int64 `json:"minor"`

	// Patch version
	// Required: true
	Patch *int64 `json:"patch"`

	// Formatted version
	// Example: 1.4.2
	// Required: true
	Version *string `json:"version"`
}

// Validate validates this get ledger version response
func (m *GetLedgerVersionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("isDevelopment", "body", m.IsDevelopment); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("major", "body", m.Major); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("minor", "body", m.Minor); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("patch", "body", m.Patch); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("version", "body", m.Version); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this get ledger version response based on context it is used
func (m *GetLedgerVersionResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *GetLedgerVersionResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *GetLedgerVersionResponse) UnmarshalBinary(b []byte) error {
	var res GetLedgerVersionResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
