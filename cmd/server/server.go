package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/util/command"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the signing API server

Requires configuration through ENV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			if err := cfg.Validate(); err != nil {
				log.Error().Err(err).Msg("Invalid configuration")
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		version, err := s.Device.GetVersion(ctx)
		if err != nil {
			// The device may be unlocked later, /-/healthy reports it meanwhile
			log.Warn().Err(err).Msg("Device did not report its app version")
		} else {
			log.Info().Str("version", version.String()).Bool("dev", version.IsDevelopment).Msg("Device app connected")
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Starting server")
			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Failed to start server")
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
				return errs[0]
			}
			return nil
		})

		return g.Wait()
	})
}
