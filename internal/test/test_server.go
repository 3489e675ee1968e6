package test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/api/router"
	"github/chapool/go-hwsigner/internal/config"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
)

// WithTestServer returns a fully configured server backed by an emulated
// device holding TestMnemonic.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerEmulator(t, func(s *api.Server, _ *emulator.Emulator) {
		t.Helper()
		closure(s)
	})
}

// WithTestServerEmulator is WithTestServer with access to the emulator, e.g.
// to lock it. opts configure the emulator.
func WithTestServerEmulator(t *testing.T, closure func(s *api.Server, emu *emulator.Emulator), opts ...emulator.Option) {
	t.Helper()

	WithTestServerConfigurable(t, config.DefaultServiceConfigFromEnv(), closure, opts...)
}

// WithTestServerConfigurable is WithTestServerEmulator with a custom config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server, emu *emulator.Emulator), opts ...emulator.Option) {
	t.Helper()

	cfg.Ledger.Transport = config.TransportEmulator
	cfg.Echo.EnableMetricsMiddleware = true

	emu := NewTestEmulator(t, opts...)

	s, err := api.InitNewServer(cfg, emu, t)
	if err != nil {
		t.Fatalf("Failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("Failed to init router: %v", err)
	}

	closure(s, emu)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("Failed to shutdown server: %v", errs)
	}
}

// PerformRequest runs a request against the server's echo instance.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body io.Reader, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)

	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}
