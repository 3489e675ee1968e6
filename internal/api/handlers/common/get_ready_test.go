package common_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
	"github/chapool/go-hwsigner/internal/test"
)

func TestGetReadyReadiness(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		require.Equal(t, "Ready.", res.Body.String())
	})
}

func TestGetReadyReadinessBroken(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		// forcefully remove an initialized component to check if ready state works
		s.Signer = nil

		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, 521, res.Result().StatusCode)
		require.Equal(t, "Not ready.", res.Body.String())
	})
}

func TestGetHealthy(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, "Device app 1.0.0 ready.", res.Body.String())
	})
}

func TestGetHealthyDeviceLocked(t *testing.T) {
	test.WithTestServerEmulator(t, func(s *api.Server, emu *emulator.Emulator) {
		emu.Lock()

		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, 521, res.Result().StatusCode)
		assert.True(t, strings.HasPrefix(res.Body.String(), "Device unavailable"))
	})
}

func TestGetMetrics(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), "hwsigner_http_requests_total")
	})
}
