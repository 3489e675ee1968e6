// Package transaction assembles the bytes streamed to the device for signing
// and rebuilds the signed transaction from the returned signature.
package transaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/ledger"
)

// Unsigned is a legacy transaction waiting for a signature. Either all of
// Nonce, GasPrice, GasLimit and Value are set, or Prebuilt carries an already
// assembled legacy transaction.
type Unsigned struct {
	Nonce    *hexutil.Uint64 `json:"nonce"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	GasLimit *hexutil.Uint64 `json:"gasLimit"`
	To       *common.Address `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
	ChainID  *hexutil.Big    `json:"chainId,omitempty"`

	Prebuilt *types.Transaction `json:"-"`
}

// FromTransaction wraps an assembled legacy transaction.
func FromTransaction(tx *types.Transaction) *Unsigned {
	return &Unsigned{Prebuilt: tx}
}

// Validate checks that every field needed for signing is present.
func (u *Unsigned) Validate() error {
	if u == nil {
		return ledger.NewValidationError(ledger.ErrMissingField, "transaction", "transaction is required")
	}

	if u.Prebuilt != nil {
		if u.Prebuilt.Type() != types.LegacyTxType {
			return ledger.NewValidationError(ledger.ErrInvalidInput, "transaction", "type %d is not a legacy transaction", u.Prebuilt.Type())
		}
		return nil
	}

	switch {
	case u.Nonce == nil:
		return ledger.NewValidationError(ledger.ErrMissingField, "nonce", "nonce is required")
	case u.GasPrice == nil:
		return ledger.NewValidationError(ledger.ErrMissingField, "gasPrice", "gas price is required")
	case u.GasLimit == nil:
		return ledger.NewValidationError(ledger.ErrMissingField, "gasLimit", "gas limit is required")
	case u.Value == nil:
		return ledger.NewValidationError(ledger.ErrMissingField, "value", "value is required")
	}

	if u.GasPrice.ToInt().Sign() < 0 {
		return ledger.NewValidationError(ledger.ErrOutOfRange, "gasPrice", "must not be negative")
	}
	if u.Value.ToInt().Sign() < 0 {
		return ledger.NewValidationError(ledger.ErrOutOfRange, "value", "must not be negative")
	}
	return nil
}

// ResolveChainID returns a copy of the transaction's own chain id, falling
// back to a copy of fallback when it carries none.
func (u *Unsigned) ResolveChainID(fallback *big.Int) *big.Int {
	if u.ChainID != nil {
		return new(big.Int).Set(u.ChainID.ToInt())
	}
	if fallback == nil {
		return nil
	}
	return new(big.Int).Set(fallback)
}

// legacy returns the six core fields as a LegacyTx without signature values.
func (u *Unsigned) legacy() *types.LegacyTx {
	if u.Prebuilt != nil {
		return &types.LegacyTx{
			Nonce:    u.Prebuilt.Nonce(),
			GasPrice: u.Prebuilt.GasPrice(),
			Gas:      u.Prebuilt.Gas(),
			To:       u.Prebuilt.To(),
			Value:    u.Prebuilt.Value(),
			Data:     u.Prebuilt.Data(),
		}
	}

	var to *common.Address
	if u.To != nil {
		addr := *u.To
		to = &addr
	}
	return &types.LegacyTx{
		Nonce:    uint64(*u.Nonce),
		GasPrice: new(big.Int).Set(u.GasPrice.ToInt()),
		Gas:      uint64(*u.GasLimit),
		To:       to,
		Value:    new(big.Int).Set(u.Value.ToInt()),
		Data:     common.CopyBytes(u.Data),
	}
}

// signingPayload is the EIP-155 signing form: the six core fields followed by
// chain id and two empty values.
type signingPayload struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
	Zero1    uint
	Zero2    uint
}

func validateChainID(chainID *big.Int) error {
	if chainID == nil || chainID.Sign() <= 0 {
		return ledger.NewValidationError(ledger.ErrOutOfRange, "chainId", "chain id must be positive")
	}
	return nil
}

// BuildSigningPayload returns the RLP encoding of
// [nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0], the bytes the
// device collects and hashes.
func BuildSigningPayload(u *Unsigned, chainID *big.Int) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := validateChainID(chainID); err != nil {
		return nil, err
	}

	tx := u.legacy()
	payload, err := rlp.EncodeToBytes(&signingPayload{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		Gas:      tx.Gas,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		ChainID:  chainID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signing payload")
	}
	return payload, nil
}

// RecoveryV converts the device's v into the transaction's V value:
// v + chainID*2 + 8. The device reports v as 27 plus the recovery id, so the
// result is the EIP-155 value recid + chainID*2 + 35.
func RecoveryV(v byte, chainID *big.Int) *big.Int {
	out := new(big.Int).Lsh(chainID, 1)
	out.Add(out, big.NewInt(int64(v)+8))
	return out
}

// Signed is a signed legacy transaction in structured and serialized form.
type Signed struct {
	Tx   *types.Transaction
	Raw  []byte
	Hash common.Hash
}

// RawHex returns the serialized transaction as 0x prefixed hex.
func (s *Signed) RawHex() string {
	return hexutil.Encode(s.Raw)
}

// FinalizeSignedTransaction attaches the device signature to u.
func FinalizeSignedTransaction(u *Unsigned, v byte, r, s [32]byte, chainID *big.Int) (*Signed, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := validateChainID(chainID); err != nil {
		return nil, err
	}

	inner := u.legacy()
	inner.V = RecoveryV(v, chainID)
	inner.R = new(big.Int).SetBytes(r[:])
	inner.S = new(big.Int).SetBytes(s[:])

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := types.NewTx(inner)

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal transaction")
	}

	return &Signed{
		Tx:   tx,
		Raw:  raw,
		Hash: tx.Hash(),
	}, nil
}
