package types

import (
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// GetLedgerAddressResponse get ledger address response
//
// swagger:model getLedgerAddressResponse
type GetLedgerAddressResponse struct {

	// Address derived by the device
	// Example: 0x9858EfFD232B4033E47d90003D41EC34EcaEda94
	// Required: true
	Address *string `json:"address"`

	// Derivation path of the address
	// Example: m/44'/60'/0'/0/0
	// Required: true
	Path *string `json:"path"`
}

// Validate validates this get ledger address response
func (m *GetLedgerAddressResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("address", "body", m.Address); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("path", "body", m.Path); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// MarshalBinary interface implementation
func (m *GetLedgerAddressResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *GetLedgerAddressResponse) UnmarshalBinary(b []byte) error {
	var res GetLedgerAddressResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// GetLedgerAddressesResponse get ledger addresses response
//
// swagger:model getLedgerAddressesResponse
type GetLedgerAddressesResponse struct {

	// Derived addresses in index order
	// Required: true
	// Max Items: 255
	Addresses []*GetLedgerAddressResponse `json:"addresses"`
}

// Validate validates this get ledger addresses response
func (m *GetLedgerAddressesResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateAddresses(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *GetLedgerAddressesResponse) validateAddresses(formats strfmt.Registry) error {

	if err := validate.Required("addresses", "body", m.Addresses); err != nil {
		return err
	}

	iAddressesSize := int64(len(m.Addresses))

	if err := validate.MaxItems("addresses", "body", iAddressesSize, 255); err != nil {
		return err
	}

	for i := 0; i < len(m.Addresses); i++ {
		if swag.IsZero(m.Addresses[i]) { // not required
			continue
		}

		if m.Addresses[i] != nil {
			if err := m.Addresses[i].Validate(formats); err != nil {
				if ve, ok := err.(*errors.Validation); ok {
					return ve.ValidateName("addresses" + "." + strconv.Itoa(i))
				}
				return err
			}
		}
	}

	return nil
}

// MarshalBinary interface implementation
func (m *GetLedgerAddressesResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *GetLedgerAddressesResponse) UnmarshalBinary(b []byte) error {
	var res GetLedgerAddressesResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// GetLedgerPublicKeyResponse get ledger public key response
//
// swagger:model getLedgerPublicKeyResponse
type GetLedgerPublicKeyResponse struct {

	// Chain key (hex)
	// Required: true
	ChainKey *string `json:"chainKey"`

	// Derivation path of the key
	// Required: true
	Path *string `json:"path"`

	// Public key (hex)
	// Required: true
	PublicKey *string `json:"publicKey"`
}

// Validate validates this get ledger public key response
func (m *GetLedgerPublicKeyResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chainKey", "body", m.ChainKey); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("path", "body", m.Path); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("publicKey", "body", m.PublicKey); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
