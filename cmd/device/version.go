package device

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/util/command"
)

func newVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of the device app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), deviceConfig(), func(ctx context.Context, s *api.Server) error {
				version, err := s.Device.GetVersion(ctx)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"version":       version.String(),
					"isDevelopment": version.IsDevelopment,
				})
			})
		},
	}
}
