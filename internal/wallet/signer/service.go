package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/util"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

type service struct {
	device         Device
	defaultChainID *big.Int
}

// NewService creates a new SignerService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(dev Device, defaultChainID int64) (Service, error) {
	if dev == nil {
		return nil, errors.New("device is required")
	}
	if defaultChainID <= 0 {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "defaultChainId", "chain id must be positive")
	}

	return &service{
		device:         dev,
		defaultChainID: big.NewInt(defaultChainID),
	}, nil
}

// SignTransaction signs a legacy (EIP-155) transaction on the hardware wallet
func (s *service) SignTransaction(ctx context.Context, req *SignRequest) (*SignResponse, error) {
	if req == nil {
		return nil, ledger.NewValidationError(ledger.ErrMissingField, "request", "sign request is required")
	}
	log := util.LogFromContext(ctx)

	// Build derivation path
	p, err := path.Build(req.AccountID, req.AddressIndex)
	if err != nil {
		return nil, err
	}

	if req.FromAddress != "" && !common.IsHexAddress(req.FromAddress) {
		return nil, ledger.NewValidationError(ledger.ErrInvalidInput, "fromAddress", "%q is not an address", req.FromAddress)
	}

	// Validate transaction before talking to the device
	if err := req.Tx.Validate(); err != nil {
		return nil, err
	}
	chainID := req.Tx.ResolveChainID(s.defaultChainID)

	payload, err := transaction.BuildSigningPayload(req.Tx, chainID)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", p.String()).
		Str("chain_id", chainID.String()).
		Int("payload_bytes", len(payload)).
		Msg("Signing transaction on device")

	sig, err := s.device.SignTransaction(ctx, p, payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction on device")
	}

	signed, err := transaction.FinalizeSignedTransaction(req.Tx, sig.V, sig.R, sig.S, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to finalize signed transaction")
	}

	from, err := s.verifySender(ctx, signed, chainID, req.FromAddress)
	if err != nil {
		return nil, err
	}

	v, r, sValue := signed.Tx.RawSignatureValues()
	return &SignResponse{
		RawTransaction: signed.Raw,
		TxHash:         signed.Hash,
		ChainID:        chainID,
		Path:           p,
		From:           from,
		V:              v,
		R:              r,
		S:              sValue,
	}, nil
}
