package device

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/util/command"
)

const (
	accountFlag string = "account"
	indexFlag   string = "index"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("device",
		newVersion(),
		newAddress(),
		newAddresses(),
		newPublicKey(),
		newSign(),
	)
}

// deviceConfig is the env config with request logs kept off stdout.
func deviceConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Echo.EnableLoggerMiddleware = false
	return cfg
}

func addPathFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P(accountFlag, "a", 0, "BIP44 account (0..255).")
	cmd.Flags().Int64P(indexFlag, "i", 0, "BIP44 address index.")
}

func pathFlags(cmd *cobra.Command) (int64, int64, error) {
	accountID, err := cmd.Flags().GetInt64(accountFlag)
	if err != nil {
		return 0, 0, err
	}
	addressIndex, err := cmd.Flags().GetInt64(indexFlag)
	if err != nil {
		return 0, 0, err
	}
	return accountID, addressIndex, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
