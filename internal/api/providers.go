package api

import (
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/transport"
	"github/chapool/go-hwsigner/internal/metrics"
	"github/chapool/go-hwsigner/internal/wallet/signer"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirement for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewClock returns the real clock, or a mock clock pinned to a fixed date when
// called from a test.
//
//nolint:ireturn // time2.Clock is the injected abstraction
func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if !useMock {
		clock = time2.DefaultClock
	} else {
		clock = time2.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	}

	return clock
}

func NewTransport(cfg config.Server, raw transport.Exchanger, m *metrics.Service) *transport.Transport {
	return transport.New(raw,
		transport.WithTimeout(cfg.Ledger.ExchangeTimeout),
		transport.WithObserver(m),
	)
}

func NewDevice(cfg config.Server, t *transport.Transport, m *metrics.Service) (*device.Device, error) {
	opts := []device.Option{device.WithRecorder(m)}
	if cfg.Ledger.ChunkSize != 0 {
		opts = append(opts, device.WithChunkSize(cfg.Ledger.ChunkSize))
	}
	return device.New(t, opts...)
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func NewSigner(cfg config.Server, d *device.Device) (SignerService, error) {
	return signer.NewService(d, cfg.Ledger.DefaultChainID)
}
