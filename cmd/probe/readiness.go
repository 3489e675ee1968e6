package probe

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/util/command"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `Opens the configured device and checks that the app answers
within SERVER_MANAGEMENT_PROBE_READINESS_TIMEOUT.
Exits with status 1 if the device is not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()

			err = command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.Management.ProbeReadinessTimeout)
				defer cancel()

				return s.Device.Heartbeat(ctx)
			})
			report(verbose, "Device", err)
			if err != nil {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
