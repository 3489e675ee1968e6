package command_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/test"
	"github/chapool/go-hwsigner/internal/util/command"
	"github/chapool/go-hwsigner/internal/wallet"
	"github/chapool/go-hwsigner/internal/wallet/keystore"
)

func emulatorConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Logger.PrettyPrintConsole = false
	cfg.Ledger.Transport = config.TransportEmulator
	cfg.Emulator.Mnemonic = test.TestMnemonic
	cfg.Emulator.Locked = false
	return cfg
}

func TestWithServer(t *testing.T) {
	ctx := t.Context()

	var testError = errors.New("test error")

	resultErr := command.WithServer(ctx, emulatorConfig(), func(ctx context.Context, s *api.Server) error {
		assert.True(t, s.Ready())

		version, err := s.Device.GetVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", version.String())

		return testError
	})

	assert.Equal(t, testError, resultErr)
}

func TestWithServerLocked(t *testing.T) {
	cfg := emulatorConfig()
	cfg.Emulator.Locked = true

	err := command.WithServer(t.Context(), cfg, func(ctx context.Context, s *api.Server) error {
		_, err := s.Device.GetVersion(ctx)
		return err
	})

	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusDeviceLocked, status)
}

func TestOpenExchangerKeystore(t *testing.T) {
	ctx := t.Context()
	keystorePath := filepath.Join(t.TempDir(), "emulator.json")

	ks, err := keystore.NewService(keystorePath, keystore.LightScryptParams())
	require.NoError(t, err)
	_, err = wallet.InitializeKeystore(ctx, ks, test.TestMnemonic, wallet.StaticPassword("password1"))
	require.NoError(t, err)

	cfg := emulatorConfig()
	cfg.Emulator.Mnemonic = ""
	cfg.Emulator.KeystorePath = keystorePath
	cfg.Emulator.Password = "password1"

	exchanger, release, err := command.OpenExchanger(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, exchanger)
	release()

	cfg.Emulator.Password = "password2"
	_, _, err = command.OpenExchanger(ctx, cfg)
	assert.ErrorIs(t, err, keystore.ErrInvalidPassword)
}

func TestOpenExchangerUnknownTransport(t *testing.T) {
	cfg := emulatorConfig()
	cfg.Ledger.Transport = "bluetooth"

	_, _, err := command.OpenExchanger(t.Context(), cfg)
	assert.Error(t, err)
}

func TestNewSubcommandGroup(t *testing.T) {
	group := command.NewSubcommandGroup("device", command.NewSubcommandGroup("inner"))
	assert.Equal(t, "device", group.Use)
	assert.Len(t, group.Commands(), 1)
}
