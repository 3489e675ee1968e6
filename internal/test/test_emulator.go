package test

import (
	"strings"
	"testing"

	"github/chapool/go-hwsigner/internal/ledger/emulator"
)

// TestMnemonic is the well known BIP39 test vector mnemonic.
//
//nolint:gochecknoglobals
var TestMnemonic = strings.Repeat("abandon ", 11) + "about"

// Addresses derived from TestMnemonic at m/44'/60'/0'/0/i.
const (
	TestAddress0 = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	TestAddress1 = "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"
)

// NewTestEmulator returns an emulated device holding TestMnemonic.
func NewTestEmulator(t *testing.T, opts ...emulator.Option) *emulator.Emulator {
	t.Helper()

	keyring, err := emulator.NewKeyring(TestMnemonic, "")
	if err != nil {
		t.Fatalf("Failed to create test keyring: %v", err)
	}
	t.Cleanup(keyring.Clear)

	return emulator.New(keyring, opts...)
}
