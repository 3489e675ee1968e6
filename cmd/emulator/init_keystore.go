package emulator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
	"github/chapool/go-hwsigner/internal/util/command"
	"github/chapool/go-hwsigner/internal/wallet"
	"github/chapool/go-hwsigner/internal/wallet/keystore"
)

const (
	importFlag string = "import"
)

func newInitKeystore() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-keystore",
		Short: "Creates the encrypted emulator keystore",
		Long: `Creates the keystore the emulator loads its keys from
(LEDGER_EMULATOR_KEYSTORE).

The mnemonic is taken from LEDGER_EMULATOR_MNEMONIC, prompted for with
--import, or freshly generated and printed once. The password is taken from
LEDGER_EMULATOR_PASSWORD or prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			importMnemonic, err := cmd.Flags().GetBool(importFlag)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()
			command.ConfigureLogger(cfg)

			return initKeystore(cmd.Context(), cmd, cfg.Emulator, importMnemonic)
		},
	}

	cmd.Flags().Bool(importFlag, false, "Prompt for an existing mnemonic instead of generating one.")

	return cmd
}

func initKeystore(ctx context.Context, cmd *cobra.Command, cfg config.Emulator, importMnemonic bool) error {
	keystoreService, err := keystore.NewService(cfg.KeystorePath, nil)
	if err != nil {
		return err
	}

	prompt := wallet.PromptPassword
	if cfg.Password != "" {
		prompt = wallet.StaticPassword(cfg.Password)
	}

	mnemonic := cfg.Mnemonic
	generated := false
	switch {
	case mnemonic != "":
	case importMnemonic:
		mnemonic, err = wallet.PromptPassword("Enter mnemonic: ")
		if err != nil {
			return errors.Wrap(err, "failed to read mnemonic")
		}
		mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	default:
		mnemonic, err = emulator.GenerateMnemonic()
		if err != nil {
			return err
		}
		generated = true
	}

	keyring, err := wallet.InitializeKeystore(ctx, keystoreService, mnemonic, prompt)
	if err != nil {
		return err
	}
	defer keyring.Clear()

	if generated {
		fmt.Fprintf(cmd.ErrOrStderr(), "Write down the generated mnemonic, it is not shown again:\n\n  %s\n\n", mnemonic)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Keystore written to %s\n", cfg.KeystorePath)

	return nil
}
