package device

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-openapi/swag"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util/command"
)

func newPublicKey() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Prints the public key and chain code at m/44'/60'/account'/0/index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, addressIndex, err := pathFlags(cmd)
			if err != nil {
				return err
			}

			p, err := path.Build(accountID, addressIndex)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), deviceConfig(), func(ctx context.Context, s *api.Server) error {
				key, err := s.Device.DerivePublicKey(ctx, p)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), &types.GetLedgerPublicKeyResponse{
					PublicKey: swag.String(hexutil.Encode(key.PublicKey)),
					ChainKey:  swag.String(hexutil.Encode(key.ChainKey)),
					Path:      swag.String(p.String()),
				})
			})
		},
	}

	addPathFlags(cmd)

	return cmd
}
