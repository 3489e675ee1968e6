package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/cmd/device"
	"github/chapool/go-hwsigner/cmd/emulator"
	"github/chapool/go-hwsigner/cmd/env"
	"github/chapool/go-hwsigner/cmd/probe"
	"github/chapool/go-hwsigner/cmd/server"
	"github/chapool/go-hwsigner/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Signs EVM transactions on a Ledger hardware wallet, over USB or against
the built-in software emulator. Serves a RESTful JSON signing API.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		device.New(),
		emulator.New(),
		env.New(),
		probe.New(),
		server.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
