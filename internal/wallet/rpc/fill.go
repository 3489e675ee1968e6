package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

// Node is the subset of Client used to complete a transaction.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// FillTransaction sets the nonce, gas price and chain id of u from node where
// they are missing. The gas limit is never estimated.
func FillTransaction(ctx context.Context, node Node, u *transaction.Unsigned, from common.Address) error {
	if u == nil {
		return errors.New("transaction is required")
	}

	if u.Nonce == nil {
		nonce, err := node.PendingNonceAt(ctx, from)
		if err != nil {
			return err
		}
		u.Nonce = (*hexutil.Uint64)(&nonce)
	}

	if u.GasPrice == nil {
		price, err := node.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		u.GasPrice = (*hexutil.Big)(price)
	}

	if u.ChainID == nil {
		chainID, err := node.ChainID(ctx)
		if err != nil {
			return err
		}
		u.ChainID = (*hexutil.Big)(chainID)
	}

	return nil
}
