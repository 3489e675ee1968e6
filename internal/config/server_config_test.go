package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaultServiceConfigFromEnv(t *testing.T) {
	t.Setenv("LEDGER_TRANSPORT", "Emulator")
	t.Setenv("LEDGER_CHUNK_SIZE", "64")
	t.Setenv("LEDGER_EXCHANGE_TIMEOUT", "5s")
	t.Setenv("RPC_URLS", "http://a:8545, http://b:8545,")
	t.Setenv("SERVER_LOGGER_LEVEL", "not-a-level")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, config.TransportEmulator, cfg.Ledger.Transport)
	assert.Equal(t, 64, cfg.Ledger.ChunkSize)
	assert.Equal(t, 5*time.Second, cfg.Ledger.ExchangeTimeout)
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, cfg.RPC.URLs)
	assert.Equal(t, "info", cfg.Logger.Level.String())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := config.Server{
		Ledger: config.Ledger{
			Transport:       config.TransportUSB,
			ChunkSize:       200,
			ExchangeTimeout: time.Second,
			DefaultChainID:  250,
		},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(c *config.Server)
	}{
		{"chunk size zero", func(c *config.Server) { c.Ledger.ChunkSize = 0 }},
		{"chunk size too large", func(c *config.Server) { c.Ledger.ChunkSize = 256 }},
		{"chain id", func(c *config.Server) { c.Ledger.DefaultChainID = 0 }},
		{"timeout", func(c *config.Server) { c.Ledger.ExchangeTimeout = 0 }},
		{"transport", func(c *config.Server) { c.Ledger.Transport = "bluetooth" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.edit(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
