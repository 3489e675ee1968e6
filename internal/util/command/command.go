package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/api/router"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
	"github/chapool/go-hwsigner/internal/ledger/transport"
	"github/chapool/go-hwsigner/internal/util"
	"github/chapool/go-hwsigner/internal/wallet"
	"github/chapool/go-hwsigner/internal/wallet/keystore"
)

const (
	shutdownTimeout = 10 * time.Second
)

// NewSubcommandGroup returns a command grouping subcommands. Running the group
// itself prints its help.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s related subcommands", use),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// ConfigureLogger applies the logger section of cfg to the global logger.
func ConfigureLogger(cfg config.Server) {
	util.ConfigureGlobalLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole, cfg.Logger.Caller, util.LogFileConfig{
		Path:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.FileMaxSizeMB,
		MaxBackups: cfg.Logger.FileMaxBackups,
		MaxAgeDays: cfg.Logger.FileMaxAgeDays,
	})
}

// OpenExchanger connects to the device selected by LEDGER_TRANSPORT. The
// returned func releases it.
//
//nolint:ireturn
func OpenExchanger(ctx context.Context, cfg config.Server) (transport.Exchanger, func(), error) {
	switch cfg.Ledger.Transport {
	case config.TransportEmulator:
		keyring, err := openKeyring(ctx, cfg.Emulator)
		if err != nil {
			return nil, nil, err
		}

		emu := emulator.New(keyring)
		if cfg.Emulator.Locked {
			emu.Lock()
		}

		log.Warn().Msg("Using the software emulator, keys are held in process memory")
		return emu, keyring.Clear, nil

	case config.TransportUSB:
		usb, err := transport.OpenUSB()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open usb device")
		}

		log.Info().Str("path", usb.Path()).Msg("Opened ledger device")
		return usb, func() {
			if err := usb.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close usb device")
			}
		}, nil

	default:
		return nil, nil, errors.Errorf("unknown ledger transport %q", cfg.Ledger.Transport)
	}
}

func openKeyring(ctx context.Context, cfg config.Emulator) (*emulator.Keyring, error) {
	if cfg.Mnemonic != "" {
		keyring, err := emulator.NewKeyring(cfg.Mnemonic, "")
		if err != nil {
			return nil, errors.Wrap(err, "failed to load emulator mnemonic")
		}
		return keyring, nil
	}

	keystoreService, err := keystore.NewService(cfg.KeystorePath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keystore service")
	}

	prompt := wallet.PromptPassword
	if cfg.Password != "" {
		prompt = wallet.StaticPassword(cfg.Password)
	}

	keyring, err := wallet.UnlockKeystore(ctx, keystoreService, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unlock emulator keystore")
	}
	return keyring, nil
}

// WithServer opens the configured device, initializes a server around it and
// runs f. The server is shut down and the device released once f returns.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	ConfigureLogger(cfg)

	exchanger, release, err := OpenExchanger(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open device")
		return err
	}
	defer release()

	s, err := api.InitNewServer(cfg, exchanger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if err := router.Init(s); err != nil {
		log.Error().Err(err).Msg("Failed to initialize router")
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
			log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		}
	}()

	return f(ctx, s)
}
