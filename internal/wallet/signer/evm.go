package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/util"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

// ErrSenderMismatch is returned when the recovered sender differs from the
// expected from address.
var ErrSenderMismatch = errors.New("from address does not match the device signature")

// verifySender recovers the sender of signed. A mismatch with expected, when
// given, is an error; without an expected address a failed recovery only
// leaves the sender empty.
func (s *service) verifySender(ctx context.Context, signed *transaction.Signed, chainID *big.Int, expected string) (common.Address, error) {
	from, err := types.Sender(types.NewEIP155Signer(chainID), signed.Tx)

	if expected == "" {
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to recover transaction sender")
			return common.Address{}, nil
		}
		return from, nil
	}

	// Verify from address matches device key
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover transaction sender")
	}
	if from != common.HexToAddress(expected) {
		return common.Address{}, errors.Wrapf(ErrSenderMismatch, "signed by %s", from.Hex())
	}
	return from, nil
}
