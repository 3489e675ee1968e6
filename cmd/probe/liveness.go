package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/wallet/keystore"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long: `Checks that the configuration is valid and, when the emulator
reads its keys from a keystore, that the keystore file exists.
Exits with status 1 if a probe fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			errs := runLiveness(cmd.Context(), config.DefaultServiceConfigFromEnv(), verbose)
			if len(errs) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runLiveness(ctx context.Context, cfg config.Server, verbose bool) []error {
	var errs []error

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
		report(verbose, "Config", err)
	} else {
		report(verbose, "Config", nil)
	}

	if cfg.Ledger.Transport == config.TransportEmulator && cfg.Emulator.Mnemonic == "" {
		err := probeKeystore(ctx, cfg.Emulator.KeystorePath)
		if err != nil {
			errs = append(errs, err)
		}
		report(verbose, "Keystore", err)
	}

	return errs
}

func probeKeystore(ctx context.Context, path string) error {
	keystoreService, err := keystore.NewService(path, nil)
	if err != nil {
		return err
	}

	exists, err := keystoreService.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("no keystore at %s", path)
	}
	return nil
}

func report(verbose bool, probe string, err error) {
	switch {
	case err != nil:
		fmt.Printf("%s probe failed: %v\n", probe, err)
	case verbose:
		fmt.Printf("%s probe succeeded.\n", probe)
	}
}
