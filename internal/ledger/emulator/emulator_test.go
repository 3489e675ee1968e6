package emulator_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/ledger/transport"
)

var testMnemonic = strings.Repeat("abandon ", 11) + "about"

func newEmulator(t *testing.T, opts ...emulator.Option) *emulator.Emulator {
	t.Helper()
	keyring, err := emulator.NewKeyring(testMnemonic, "")
	require.NoError(t, err)
	return emulator.New(keyring, opts...)
}

func newDevice(t *testing.T, raw transport.Exchanger, opts ...device.Option) *device.Device {
	t.Helper()
	d, err := device.New(transport.New(raw), opts...)
	require.NoError(t, err)
	return d
}

func buildPath(t *testing.T, accountID, index int64) path.Path {
	t.Helper()
	p, err := path.Build(accountID, index)
	require.NoError(t, err)
	return p
}

func testPayload(t *testing.T) []byte {
	t.Helper()
	to := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	payload, err := rlp.EncodeToBytes([]interface{}{
		uint64(2), uint64(1000000000), uint64(44000), to, uint64(1), []byte{0xca, 0xfe},
		uint64(250), uint(0), uint(0),
	})
	require.NoError(t, err)
	return payload
}

func recoverSigner(t *testing.T, payload []byte, sig *device.Signature) common.Address {
	t.Helper()
	raw := make([]byte, 65)
	copy(raw, sig.R[:])
	copy(raw[32:], sig.S[:])
	raw[64] = sig.V - 27
	pub, err := crypto.SigToPub(crypto.Keccak256(payload), raw)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}

func TestKeyringAddresses(t *testing.T) {
	keyring, err := emulator.NewKeyring(testMnemonic, "")
	require.NoError(t, err)

	tests := []struct {
		index int64
		want  string
	}{
		{0, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"},
		{1, "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"},
	}

	for _, tt := range tests {
		key, err := keyring.PrivateKey(buildPath(t, 0, tt.index))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(tt.want), crypto.PubkeyToAddress(key.PublicKey))
	}
}

func TestKeyringPassphrase(t *testing.T) {
	keyring, err := emulator.NewKeyring(testMnemonic, "TREZOR")
	require.NoError(t, err)

	// BIP39 reference vector for the all zero entropy mnemonic
	master, err := keyring.ExtendedKey(nil)
	require.NoError(t, err)
	assert.Equal(t, "xprv9s21ZrQH143K3h3fDYiay8mocZ3afhfULfb5GX8kCBdno77K4HiA15Tg23wpbeF1pLfs1c5SPmYHrEpTuuRhxMwvKDwqdKiGJS9XFKzUsAF", master.String())

	key, err := keyring.PrivateKey(buildPath(t, 0, 0))
	require.NoError(t, err)
	assert.NotEqual(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), crypto.PubkeyToAddress(key.PublicKey))
}

func TestKeyringInvalidMnemonic(t *testing.T) {
	_, err := emulator.NewKeyring("abandon abandon", "")
	assert.Error(t, err)
}

func TestKeyringClear(t *testing.T) {
	keyring, err := emulator.NewKeyring(testMnemonic, "")
	require.NoError(t, err)

	keyring.Clear()
	_, err = keyring.PrivateKey(buildPath(t, 0, 0))
	assert.ErrorIs(t, err, emulator.ErrKeyringCleared)
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := emulator.GenerateMnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 24)

	_, err = emulator.NewKeyring(mnemonic, "secret")
	assert.NoError(t, err)
}

func TestEmulatorVersion(t *testing.T) {
	d := newDevice(t, newEmulator(t, emulator.WithVersion(device.Version{Major: 2, Minor: 1, Patch: 9})))

	version, err := d.GetVersion(t.Context())
	require.NoError(t, err)
	assert.Equal(t, device.Version{Major: 2, Minor: 1, Patch: 9}, *version)
}

func TestEmulatorAddresses(t *testing.T) {
	d := newDevice(t, newEmulator(t))

	address, err := d.DeriveAddress(t.Context(), buildPath(t, 0, 0), true)
	require.NoError(t, err)
	assert.Equal(t, "0x9858effd232b4033e47d90003d41ec34ecaeda94", address)

	addresses, err := d.ListAddresses(t.Context(), 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0x9858effd232b4033e47d90003d41ec34ecaeda94",
		"0x6fac4d18c912343bf86fa7049364dd4e424ab9c0",
	}, addresses)
}

func TestEmulatorAddressRejected(t *testing.T) {
	d := newDevice(t, newEmulator(t, emulator.WithApprover(func(path.Path, []byte) bool { return false })))

	_, err := d.DeriveAddress(t.Context(), buildPath(t, 0, 0), true)
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejectedByUser, status)

	// No confirmation asked when not displayed
	_, err = d.DeriveAddress(t.Context(), buildPath(t, 0, 0), false)
	assert.NoError(t, err)
}

func TestEmulatorPublicKey(t *testing.T) {
	d := newDevice(t, newEmulator(t))

	key, err := d.DerivePublicKey(t.Context(), buildPath(t, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "37b0bb7a8288d38ed49a524b5dc98cff3eb5ca824c9f9dc0dfdb3d9cd600f299", ledger.BufferToHex(key.PublicKey))
	assert.Equal(t, "736094f4f24b67e838a4b3d23d31d229ca03e00c9bb99ce95da6d86e8b3847b5", ledger.BufferToHex(key.ChainKey))
}

func TestEmulatorSign(t *testing.T) {
	d := newDevice(t, newEmulator(t), device.WithChunkSize(16))
	payload := testPayload(t)

	sig, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	require.NoError(t, err)
	assert.Contains(t, []byte{27, 28}, sig.V)
	assert.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), recoverSigner(t, payload, sig))
}

func TestEmulatorSignEarlyFinalize(t *testing.T) {
	e := newEmulator(t)
	payload := testPayload(t)
	padded := append(append([]byte(nil), payload...), make([]byte, 3*len(payload))...)

	var chunks int
	counting := transport.ExchangeFunc(func(ctx context.Context, cmd ledger.Command) ([]byte, error) {
		if cmd.Instruction == ledger.InsSignTransaction && cmd.P1 == 0x01 {
			chunks++
		}
		return e.Exchange(ctx, cmd)
	})
	d := newDevice(t, counting, device.WithChunkSize(len(payload)))

	sig, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), padded)
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), recoverSigner(t, payload, sig))
}

func TestEmulatorSignRejected(t *testing.T) {
	reject := true
	d := newDevice(t, newEmulator(t, emulator.WithApprover(func(path.Path, []byte) bool { return !reject })))
	payload := testPayload(t)

	_, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejectedByUser, status)

	// The rejection leaves the app idle for the next request
	reject = false
	_, err = d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	assert.NoError(t, err)
}

func TestEmulatorSignPolicy(t *testing.T) {
	d := newDevice(t, newEmulator(t, emulator.WithPolicy(func(p path.Path, _ []byte) bool {
		return p.AccountID() == 0
	})))

	_, err := d.SignTransaction(t.Context(), buildPath(t, 1, 0), testPayload(t))
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejectedByPolicy, status)
}

func TestEmulatorSignInvalidPayload(t *testing.T) {
	e := newEmulator(t)
	d := newDevice(t, e)

	_, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), []byte{0x01, 0x02})
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusInvalidData, status)

	// Incomplete transaction: the client resets the app and reports rejection
	payload := testPayload(t)
	_, err = d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload[:len(payload)-1])
	assert.True(t, errors.Is(err, ledger.ErrTransactionRejectedOrMalformed))

	_, err = d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	assert.NoError(t, err)
}

func TestEmulatorLocked(t *testing.T) {
	e := newEmulator(t)
	d := newDevice(t, e)

	e.Lock()
	_, err := d.GetVersion(t.Context())
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusDeviceLocked, status)

	e.Unlock()
	assert.NoError(t, d.Heartbeat(t.Context()))
}

func TestEmulatorInterleavedInit(t *testing.T) {
	e := newEmulator(t)
	initCmd := ledger.NewCommand(ledger.InsSignTransaction, 0x00, 0x00, path.Encode(buildPath(t, 0, 0)))

	reply, err := e.Exchange(t.Context(), initCmd)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0x00}, reply)

	reply, err = e.Exchange(t.Context(), initCmd)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x6e, 0x04}, reply)

	// The conflict put the app back to idle
	reply, err = e.Exchange(t.Context(), initCmd)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0x00}, reply)
}

func TestEmulatorCommandErrors(t *testing.T) {
	e := newEmulator(t)
	encoded := path.Encode(buildPath(t, 0, 0))

	tests := []struct {
		name string
		cmd  ledger.Command
		want uint16
	}{
		{"unknown class", ledger.Command{Class: 0xb0, Instruction: ledger.InsGetVersion}, ledger.StatusUnknownClass},
		{"unknown instruction", ledger.NewCommand(0x42, 0, 0, nil), ledger.StatusUnknownIns},
		{"address display mode", ledger.NewCommand(ledger.InsGetAddress, 0x05, 0, encoded), ledger.StatusInvalidParams},
		{"address bad path", ledger.NewCommand(ledger.InsGetAddress, 0x01, 0, []byte{0x01, 0, 0, 0, 1}), ledger.StatusInvalidData},
		{"collect while idle", ledger.NewCommand(ledger.InsSignTransaction, 0x01, 0, []byte{0xc0}), ledger.StatusInvalidState},
		{"finalize while idle", ledger.NewCommand(ledger.InsSignTransaction, 0x80, 0, nil), ledger.StatusInvalidState},
		{"unknown sign step", ledger.NewCommand(ledger.InsSignTransaction, 0x07, 0, nil), ledger.StatusInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := e.Exchange(t.Context(), tt.cmd)
			require.NoError(t, err)
			_, err = ledger.StripStatus(reply)
			status, ok := ledger.StatusOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestEmulatorSignatureDeterministic(t *testing.T) {
	d := newDevice(t, newEmulator(t))
	payload := testPayload(t)

	first, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	require.NoError(t, err)
	second, err := d.SignTransaction(t.Context(), buildPath(t, 0, 0), payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, bytes.Equal(first.R[:], make([]byte, 32)))
}
