//go:build wireinject

package api

import (
	"testing"

	"github.com/google/wire"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/transport"
	"github/chapool/go-hwsigner/internal/metrics"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	deviceSet,
	NewTransport,
	NewSigner,
	metrics.New,
	NewClock,
)

var deviceSet = wire.NewSet(
	NewDevice,
	wire.Bind(new(LedgerDevice), new(*device.Device)),
)

// InitNewServer returns a new Server instance talking to the device behind raw.
// All the other components are initialized via go wire according to the configuration.
func InitNewServer(
	_ config.Server,
	_ transport.Exchanger,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
