package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/path"
	apitypes "github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util/command"
	"github/chapool/go-hwsigner/internal/wallet/rpc"
	"github/chapool/go-hwsigner/internal/wallet/signer"
	"github/chapool/go-hwsigner/internal/wallet/transaction"
)

const (
	txFlag        string = "tx"
	fromFlag      string = "from"
	fillFlag      string = "rpc"
	broadcastFlag string = "broadcast"
	waitFlag      string = "wait"

	receiptPollInterval = 2 * time.Second
)

func newSign() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Signs a legacy transaction on the device",
		Long: `Signs a legacy (EIP-155) transaction with the key at
m/44'/60'/account'/0/index and prints the signed transaction.

The transaction is read as JSON from the file given by --tx, or from stdin
when --tx is "-":

  {"nonce":"0x2","gasPrice":"0x3b9aca00","gasLimit":"0xabe0",
   "to":"0x...","value":"0x0","data":"0x","chainId":"0xfa"}

With --rpc, a missing nonce, gas price or chain id is taken from the nodes in
RPC_URLS. --broadcast sends the signed transaction to these nodes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, addressIndex, err := pathFlags(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			txFile, err := flags.GetString(txFlag)
			if err != nil {
				return err
			}
			from, err := flags.GetString(fromFlag)
			if err != nil {
				return err
			}
			fill, err := flags.GetBool(fillFlag)
			if err != nil {
				return err
			}
			broadcast, err := flags.GetBool(broadcastFlag)
			if err != nil {
				return err
			}
			wait, err := flags.GetDuration(waitFlag)
			if err != nil {
				return err
			}

			tx, err := readTransaction(cmd.InOrStdin(), txFile)
			if err != nil {
				return err
			}

			cfg := deviceConfig()

			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				var client *rpc.Client
				if fill || broadcast {
					client, err = rpc.NewClient(cfg.RPC.URLs)
					if err != nil {
						return errors.Wrap(err, "failed to create rpc client")
					}
					defer client.Close()
				}

				if fill {
					if err := fillTransaction(ctx, s, client, tx, accountID, addressIndex); err != nil {
						return err
					}
				}

				res, err := s.Signer.SignTransaction(ctx, &signer.SignRequest{
					AccountID:    accountID,
					AddressIndex: addressIndex,
					Tx:           tx,
					FromAddress:  from,
				})
				if err != nil {
					return err
				}

				signedAt := strfmt.DateTime(s.Clock.Now())
				if err := printJSON(cmd.OutOrStdout(), &apitypes.PostSignTransactionResponse{
					RawTransaction: swag.String(hexutil.Encode(res.RawTransaction)),
					TxHash:         swag.String(res.TxHash.Hex()),
					ChainID:        swag.String(res.ChainID.String()),
					From:           swag.String(res.From.Hex()),
					Path:           swag.String(res.Path.String()),
					V:              swag.String(hexutil.EncodeBig(res.V)),
					R:              swag.String(hexutil.EncodeBig(res.R)),
					S:              swag.String(hexutil.EncodeBig(res.S)),
					SignedAt:       &signedAt,
				}); err != nil {
					return err
				}

				if !broadcast {
					return nil
				}
				return sendTransaction(ctx, cmd.OutOrStdout(), client, res.RawTransaction, wait)
			})
		},
	}

	addPathFlags(cmd)
	cmd.Flags().StringP(txFlag, "t", "-", `Transaction JSON file, "-" reads stdin.`)
	cmd.Flags().String(fromFlag, "", "Expected sender, signing fails if the device key differs.")
	cmd.Flags().Bool(fillFlag, false, "Fill a missing nonce, gas price or chain id from RPC_URLS.")
	cmd.Flags().Bool(broadcastFlag, false, "Broadcast the signed transaction to RPC_URLS.")
	cmd.Flags().Duration(waitFlag, 0, "With --broadcast, wait this long for the receipt.")

	return cmd
}

func readTransaction(stdin io.Reader, file string) (*transaction.Unsigned, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read transaction")
	}

	var tx transaction.Unsigned
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrap(err, "failed to parse transaction")
	}
	return &tx, nil
}

func fillTransaction(ctx context.Context, s *api.Server, client *rpc.Client, tx *transaction.Unsigned, accountID, addressIndex int64) error {
	p, err := path.Build(accountID, addressIndex)
	if err != nil {
		return err
	}

	from, err := s.Device.DeriveAddress(ctx, p, false)
	if err != nil {
		return errors.Wrap(err, "failed to derive sender")
	}

	if err := rpc.FillTransaction(ctx, client, tx, common.HexToAddress(from)); err != nil {
		return errors.Wrap(err, "failed to fill transaction")
	}

	log.Debug().
		Str("from", from).
		Uint64("nonce", uint64(*tx.Nonce)).
		Str("gas_price", tx.GasPrice.ToInt().String()).
		Str("chain_id", tx.ChainID.ToInt().String()).
		Msg("Filled transaction from rpc")
	return nil
}

func sendTransaction(ctx context.Context, w io.Writer, client *rpc.Client, raw []byte, wait time.Duration) error {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return errors.Wrap(err, "failed to decode signed transaction")
	}

	if err := client.SendTransaction(ctx, &tx); err != nil {
		return errors.Wrap(err, "failed to broadcast transaction")
	}
	fmt.Fprintf(w, "Broadcast %s\n", tx.Hash().Hex())

	if wait <= 0 {
		return nil
	}

	receipt, err := waitForReceipt(ctx, client, tx.Hash(), wait)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Block Number: %s\n", receipt.BlockNumber.String())
	fmt.Fprintf(w, "Block Hash: %s\n", receipt.BlockHash.Hex())
	fmt.Fprintf(w, "Gas Used: %d\n", receipt.GasUsed)
	fmt.Fprintf(w, "Status: %d\n", receipt.Status)

	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}

func waitForReceipt(ctx context.Context, client *rpc.Client, hash common.Hash, wait time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		log.Debug().Err(err).Str("tx_hash", hash.Hex()).Msg("Receipt not available yet")

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "no receipt for %s", hash.Hex())
		case <-ticker.C:
		}
	}
}
