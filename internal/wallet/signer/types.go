package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

// Service provides transaction signing functionality
type Service interface {
	// SignTransaction signs a legacy (EIP-155) transaction on the hardware wallet
	SignTransaction(ctx context.Context, req *SignRequest) (*SignResponse, error)
}

// Device is the part of the device protocol the signer needs
type Device interface {
	SignTransaction(ctx context.Context, p path.Path, payload []byte) (*device.Signature, error)
}

// SignRequest represents a request to sign a transaction
type SignRequest struct {
	AccountID    int64                 // BIP44 account (0..255)
	AddressIndex int64                 // BIP44 address index (0..2^32-1)
	Tx           *transaction.Unsigned // Transaction to sign
	FromAddress  string                // Optional expected sender (hex string with 0x prefix)
}

// SignResponse represents a signed transaction
type SignResponse struct {
	RawTransaction []byte         // RLP-encoded signed transaction
	TxHash         common.Hash    // Transaction hash
	ChainID        *big.Int       // Chain ID used for replay protection
	Path           path.Path      // Derivation path the device signed with
	From           common.Address // Recovered sender, zero if recovery failed
	V              *big.Int
	R              *big.Int
	S              *big.Int
}
