package env

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env",
		Long: `Prints the currently applied env

Sensitive values (mnemonic, keystore password) are omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			c, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to marshal the env")
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(c))
			return nil
		},
	}
}
