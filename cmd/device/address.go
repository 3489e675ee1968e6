package device

import (
	"context"

	"github.com/go-openapi/swag"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/types"
	"github/chapool/go-hwsigner/internal/util/command"
)

const (
	confirmFlag string = "confirm"
	firstFlag   string = "first"
	countFlag   string = "count"
)

func newAddress() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the address at m/44'/60'/account'/0/index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, addressIndex, err := pathFlags(cmd)
			if err != nil {
				return err
			}
			confirm, err := cmd.Flags().GetBool(confirmFlag)
			if err != nil {
				return err
			}

			p, err := path.Build(accountID, addressIndex)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), deviceConfig(), func(ctx context.Context, s *api.Server) error {
				address, err := s.Device.DeriveAddress(ctx, p, confirm)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), &types.GetLedgerAddressResponse{
					Address: swag.String(address),
					Path:    swag.String(p.String()),
				})
			})
		},
	}

	addPathFlags(cmd)
	cmd.Flags().Bool(confirmFlag, false, "Show the address on the device screen and wait for confirmation.")

	return cmd
}

func newAddresses() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Lists consecutive addresses of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accountID, err := cmd.Flags().GetInt64(accountFlag)
			if err != nil {
				return err
			}
			firstIndex, err := cmd.Flags().GetInt64(firstFlag)
			if err != nil {
				return err
			}
			count, err := cmd.Flags().GetInt64(countFlag)
			if err != nil {
				return err
			}

			return command.WithServer(cmd.Context(), deviceConfig(), func(ctx context.Context, s *api.Server) error {
				addresses, err := s.Device.ListAddresses(ctx, accountID, firstIndex, count)
				if err != nil {
					return err
				}

				response := &types.GetLedgerAddressesResponse{
					Addresses: make([]*types.GetLedgerAddressResponse, 0, len(addresses)),
				}
				for i, address := range addresses {
					p, err := path.Build(accountID, firstIndex+int64(i))
					if err != nil {
						return err
					}
					response.Addresses = append(response.Addresses, &types.GetLedgerAddressResponse{
						Address: swag.String(address),
						Path:    swag.String(p.String()),
					})
				}

				return printJSON(cmd.OutOrStdout(), response)
			})
		},
	}

	cmd.Flags().Int64P(accountFlag, "a", 0, "BIP44 account (0..255).")
	cmd.Flags().Int64(firstFlag, 0, "First address index.")
	cmd.Flags().Int64P(countFlag, "n", 5, "Number of addresses (1..255).")

	return cmd
}
