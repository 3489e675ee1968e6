package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

const (
	hexQuantityPattern = `^0x[0-9a-fA-F]+$`
	hexDataPattern     = `^0x([0-9a-fA-F]{2})*$`
	addressPattern     = `^0x[0-9a-fA-F]{40}$`
)

// PostSignTransactionPayload post sign transaction payload
//
// swagger:model postSignTransactionPayload
type PostSignTransactionPayload struct {

	// Account of the signing key
	// Maximum: 255
	// Minimum: 0
	AccountID *int64 `json:"accountId,omitempty"`

	// Address index of the signing key
	// Maximum: 4294967295
	// Minimum: 0
	AddressIndex *int64 `json:"addressIndex,omitempty"`

	// Expected signer, verified against the signature when set
	// Pattern: ^0x[0-9a-fA-F]{40}$
	FromAddress string `json:"fromAddress,omitempty"`

	// Transaction to sign
	// Required: true
	Transaction *PostSignTransactionPayloadTransaction `json:"transaction"`
}

// Validate validates this post sign transaction payload
func (m *PostSignTransactionPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateAccountID(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateAddressIndex(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateFromAddress(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateTransaction(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *PostSignTransactionPayload) validateAccountID(formats strfmt.Registry) error {
	if swag.IsZero(m.AccountID) { // not required
		return nil
	}

	if err := validate.MinimumInt("accountId", "body", *m.AccountID, 0, false); err != nil {
		return err
	}

	if err := validate.MaximumInt("accountId", "body", *m.AccountID, 255, false); err != nil {
		return err
	}

	return nil
}

func (m *PostSignTransactionPayload) validateAddressIndex(formats strfmt.Registry) error {
	if swag.IsZero(m.AddressIndex) { // not required
		return nil
	}

	if err := validate.MinimumInt("addressIndex", "body", *m.AddressIndex, 0, false); err != nil {
		return err
	}

	if err := validate.MaximumInt("addressIndex", "body", *m.AddressIndex, 4294967295, false); err != nil {
		return err
	}

	return nil
}

func (m *PostSignTransactionPayload) validateFromAddress(formats strfmt.Registry) error {
	if swag.IsZero(m.FromAddress) { // not required
		return nil
	}

	if err := validate.Pattern("fromAddress", "body", m.FromAddress, addressPattern); err != nil {
		return err
	}

	return nil
}

func (m *PostSignTransactionPayload) validateTransaction(formats strfmt.Registry) error {

	if err := validate.Required("transaction", "body", m.Transaction); err != nil {
		return err
	}

	if m.Transaction != nil {
		if err := m.Transaction.Validate(formats); err != nil {
			if ve, ok := err.(*errors.Validation); ok {
				return ve.ValidateName("transaction")
			}
			return err
		}
	}

	return nil
}

// MarshalBinary interface implementation
func (m *PostSignTransactionPayload) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PostSignTransactionPayload) UnmarshalBinary(b []byte) error {
	var res PostSignTransactionPayload
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// PostSignTransactionPayloadTransaction legacy transaction fields as hex quantities
//
// swagger:model PostSignTransactionPayloadTransaction
type PostSignTransactionPayloadTransaction struct {

	// Chain id, the server default is used when missing
	// Pattern: ^0x[0-9a-fA-F]+$
	ChainID string `json:"chainId,omitempty"`

	// Call data
	// Pattern: ^0x([0-9a-fA-F]{2})*$
	Data string `json:"data,omitempty"`

	// Gas limit
	// Pattern: ^0x[0-9a-fA-F]+$
	GasLimit string `json:"gasLimit,omitempty"`

	// Gas price in wei
	// Pattern: ^0x[0-9a-fA-F]+$
	GasPrice string `json:"gasPrice,omitempty"`

	// Nonce
	// Pattern: ^0x[0-9a-fA-F]+$
	Nonce string `json:"nonce,omitempty"`

	// Recipient, empty for contract creation
	// Pattern: ^0x[0-9a-fA-F]{40}$
	To string `json:"to,omitempty"`

	// Value in wei
	// Pattern: ^0x[0-9a-fA-F]+$
	Value string `json:"value,omitempty"`
}

// Validate validates this post sign transaction payload transaction
func (m *PostSignTransactionPayloadTransaction) Validate(formats strfmt.Registry) error {
	var res []error

	quantities := []struct {
		name  string
		value string
	}{
		{"chainId", m.ChainID},
		{"gasLimit", m.GasLimit},
		{"gasPrice", m.GasPrice},
		{"nonce", m.Nonce},
		{"value", m.Value},
	}
	for _, q := range quantities {
		if swag.IsZero(q.value) { // not required
			continue
		}
		if err := validate.Pattern("transaction."+q.name, "body", q.value, hexQuantityPattern); err != nil {
			res = append(res, err)
		}
	}

	if !swag.IsZero(m.Data) {
		if err := validate.Pattern("transaction.data", "body", m.Data, hexDataPattern); err != nil {
			res = append(res, err)
		}
	}

	if !swag.IsZero(m.To) {
		if err := validate.Pattern("transaction.to", "body", m.To, addressPattern); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PostSignTransactionResponse post sign transaction response
//
// swagger:model postSignTransactionResponse
type PostSignTransactionResponse struct {

	// Chain id the transaction was signed for
	// Required: true
	ChainID *string `json:"chainId"`

	// Recovered signer
	// Required: true
	From *string `json:"from"`

	// Derivation path of the signing key
	// Required: true
	Path *string `json:"path"`

	// Signature r value
	// Required: true
	R *string `json:"r"`

	// Serialized signed transaction (hex)
	// Required: true
	RawTransaction *string `json:"rawTransaction"`

	// Signature s value
	// Required: true
	S *string `json:"s"`

	// Time the device returned the signature
	// Required: true
	// Format: date-time
	SignedAt *strfmt.DateTime `json:"signedAt"`

	// Transaction hash
	// Required: true
	TxHash *string `json:"txHash"`

	// Signature v value including the chain id
	// Required: true
	V *string `json:"v"`
}

// Validate validates this post sign transaction response
func (m *PostSignTransactionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	required := []struct {
		name  string
		value *string
	}{
		{"chainId", m.ChainID},
		{"from", m.From},
		{"path", m.Path},
		{"r", m.R},
		{"rawTransaction", m.RawTransaction},
		{"s", m.S},
		{"txHash", m.TxHash},
		{"v", m.V},
	}
	for _, r := range required {
		if err := validate.Required(r.name, "body", r.value); err != nil {
			res = append(res, err)
		}
	}

	if err := m.validateSignedAt(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *PostSignTransactionResponse) validateSignedAt(formats strfmt.Registry) error {

	if err := validate.Required("signedAt", "body", m.SignedAt); err != nil {
		return err
	}

	if err := validate.FormatOf("signedAt", "body", "date-time", m.SignedAt.String(), formats); err != nil {
		return err
	}

	return nil
}

// MarshalBinary interface implementation
func (m *PostSignTransactionResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PostSignTransactionResponse) UnmarshalBinary(b []byte) error {
	var res PostSignTransactionResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
