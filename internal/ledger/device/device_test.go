package device_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/ledger/transport"
)

// scriptedDevice answers SIGN_TRANSACTION like the app does and records
// every command it receives.
type scriptedDevice struct {
	mu       sync.Mutex
	commands []ledger.Command
	events   []string

	expected      int // payload length after which the device finalizes, 0 never finalizes
	received      int
	collectStatus uint16
	finalStatus   uint16
	signalByte    byte
	delay         time.Duration
	signature     []byte
	addresses     map[uint32][]byte
}

func newScriptedDevice(expected int) *scriptedDevice {
	sig := make([]byte, device.SignatureLength)
	sig[0] = 0x1b
	for i := 1; i < 33; i++ {
		sig[i] = 0x11
	}
	for i := 33; i < 65; i++ {
		sig[i] = 0x22
	}
	return &scriptedDevice{
		expected:  expected,
		signature: sig,
	}
}

func (d *scriptedDevice) Exchange(_ context.Context, cmd ledger.Command) ([]byte, error) {
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	d.events = append(d.events, "send:"+signLabel(cmd))
	d.mu.Unlock()

	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "reply:"+signLabel(cmd))

	switch cmd.Instruction {
	case ledger.InsGetVersion:
		return []byte{1, 4, 2, 1, 0x90, 0x00}, nil
	case ledger.InsGetAddress:
		p, err := path.Decode(cmd.Data)
		if err != nil {
			return ledger.AppendStatus(nil, ledger.StatusInvalidData), nil
		}
		addr := d.addresses[p.AddressIndex()]
		return ledger.AppendStatus(append([]byte{byte(len(addr))}, addr...), ledger.StatusOK), nil
	case ledger.InsGetPublicKey:
		reply := append([]byte{3}, 0xaa, 0xbb, 0xcc, 0x01, 0x02, 0x03)
		return ledger.AppendStatus(reply, ledger.StatusOK), nil
	}

	switch cmd.P1 {
	case 0x00:
		if cmd.P2 == 0x01 {
			d.received = 0
		}
		return ledger.AppendStatus(nil, ledger.StatusOK), nil
	case 0x01:
		if d.collectStatus != 0 {
			return ledger.AppendStatus(nil, d.collectStatus), nil
		}
		if d.signalByte != 0 {
			return ledger.AppendStatus([]byte{d.signalByte}, ledger.StatusOK), nil
		}
		d.received += len(cmd.Data)
		if d.expected > 0 && d.received >= d.expected {
			return ledger.AppendStatus([]byte{device.SignalFinalize}, ledger.StatusOK), nil
		}
		return ledger.AppendStatus([]byte{device.SignalCollect}, ledger.StatusOK), nil
	case 0x80:
		d.received = 0
		if d.finalStatus != 0 {
			return ledger.AppendStatus(nil, d.finalStatus), nil
		}
		return ledger.AppendStatus(d.signature, ledger.StatusOK), nil
	}
	return ledger.AppendStatus(nil, ledger.StatusInvalidParams), nil
}

func signLabel(cmd ledger.Command) string {
	if cmd.Instruction != ledger.InsSignTransaction {
		return cmd.Instruction.String()
	}
	switch {
	case cmd.P1 == 0x00 && cmd.P2 == 0x01:
		return "reset"
	case cmd.P1 == 0x00:
		return "init"
	case cmd.P1 == 0x01:
		return "collect"
	case cmd.P1 == 0x80:
		return "finalize"
	}
	return "unknown"
}

func (d *scriptedDevice) labels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.commands))
	for _, cmd := range d.commands {
		out = append(out, signLabel(cmd))
	}
	return out
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
	resets   int
}

func (r *countingRecorder) ObserveSign(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ObserveReset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func newDevice(t *testing.T, raw transport.Exchanger, opts ...device.Option) *device.Device {
	t.Helper()
	d, err := device.New(transport.New(raw), opts...)
	require.NoError(t, err)
	return d
}

func testPath(t *testing.T) path.Path {
	t.Helper()
	p, err := path.Build(0, 0)
	require.NoError(t, err)
	return p
}

func TestNewChunkSize(t *testing.T) {
	tr := transport.New(newScriptedDevice(0))

	d, err := device.New(tr)
	require.NoError(t, err)
	assert.Equal(t, device.DefaultChunkSize, d.ChunkSize())

	for _, size := range []int{0, -1, 256} {
		_, err := device.New(tr, device.WithChunkSize(size))
		assert.True(t, errors.Is(err, ledger.ErrValidation), "size %d", size)
	}

	d, err = device.New(tr, device.WithChunkSize(255))
	require.NoError(t, err)
	assert.Equal(t, 255, d.ChunkSize())

	_, err = device.New(nil)
	assert.Error(t, err)
}

func TestGetVersion(t *testing.T) {
	d := newDevice(t, newScriptedDevice(0))

	version, err := d.GetVersion(t.Context())
	require.NoError(t, err)
	assert.Equal(t, device.Version{Major: 1, Minor: 4, Patch: 2, IsDevelopment: true}, *version)
	assert.Equal(t, "1.4.2", version.String())
	assert.NoError(t, d.Heartbeat(t.Context()))
}

func TestGetVersionMalformed(t *testing.T) {
	d := newDevice(t, transport.ExchangeFunc(func(context.Context, ledger.Command) ([]byte, error) {
		return []byte{1, 2, 3, 0x90, 0x00}, nil
	}))

	_, err := d.GetVersion(t.Context())
	assert.True(t, errors.Is(err, ledger.ErrMalformedResponse))
}

func TestDeriveAddress(t *testing.T) {
	var got ledger.Command
	d := newDevice(t, transport.ExchangeFunc(func(_ context.Context, cmd ledger.Command) ([]byte, error) {
		got = cmd
		return []byte{0x03, 0xde, 0xad, 0x01, 0x90, 0x00}, nil
	}))
	p := testPath(t)

	address, err := d.DeriveAddress(t.Context(), p, true)
	require.NoError(t, err)
	assert.Equal(t, "0xdead01", address)
	assert.Equal(t, ledger.InsGetAddress, got.Instruction)
	assert.EqualValues(t, 0x02, got.P1)
	assert.Equal(t, path.Encode(p), got.Data)

	_, err = d.DeriveAddress(t.Context(), p, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0x01, got.P1)
}

func TestDeriveAddressMalformed(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
	}{
		{"empty", []byte{0x90, 0x00}},
		{"zero length", []byte{0x00, 0x90, 0x00}},
		{"short", []byte{0x03, 0xde, 0xad, 0x90, 0x00}},
		{"long", []byte{0x01, 0xde, 0xad, 0x90, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(t, transport.ExchangeFunc(func(context.Context, ledger.Command) ([]byte, error) {
				return tt.reply, nil
			}))
			_, err := d.DeriveAddress(t.Context(), testPath(t), false)
			assert.True(t, errors.Is(err, ledger.ErrMalformedResponse))
		})
	}
}

func TestDeriveAddressInvalidPath(t *testing.T) {
	called := false
	d := newDevice(t, transport.ExchangeFunc(func(context.Context, ledger.Command) ([]byte, error) {
		called = true
		return nil, nil
	}))

	_, err := d.DeriveAddress(t.Context(), path.Path{1, 2, 3}, false)
	assert.True(t, errors.Is(err, ledger.ErrInvalidPath))
	assert.False(t, called)
}

func TestDerivePublicKey(t *testing.T) {
	d := newDevice(t, newScriptedDevice(0))

	key, err := d.DerivePublicKey(t.Context(), testPath(t))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, key.PublicKey)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, key.ChainKey)
}

func TestDerivePublicKeyMalformed(t *testing.T) {
	d := newDevice(t, transport.ExchangeFunc(func(context.Context, ledger.Command) ([]byte, error) {
		return []byte{0x02, 0xaa, 0xbb, 0x01, 0x90, 0x00}, nil
	}))

	_, err := d.DerivePublicKey(t.Context(), testPath(t))
	assert.True(t, errors.Is(err, ledger.ErrMalformedResponse))
}

func TestListAddresses(t *testing.T) {
	raw := newScriptedDevice(0)
	raw.addresses = map[uint32][]byte{
		7: {0x07},
		8: {0x08},
		9: {0x09},
	}
	d := newDevice(t, raw)

	addresses, err := d.ListAddresses(t.Context(), 1, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x07", "0x08", "0x09"}, addresses)

	for i, cmd := range raw.commands {
		assert.EqualValues(t, 0x01, cmd.P1)
		p, err := path.Decode(cmd.Data)
		require.NoError(t, err)
		assert.EqualValues(t, 1, p.AccountID())
		assert.EqualValues(t, 7+i, p.AddressIndex())
	}
}

func TestListAddressesValidation(t *testing.T) {
	raw := newScriptedDevice(0)
	d := newDevice(t, raw)

	tests := []struct {
		name                         string
		accountID, firstIndex, count int64
	}{
		{"zero count", 0, 0, 0},
		{"count too large", 0, 0, 256},
		{"negative index", 0, -1, 1},
		{"index too large", 0, 1 << 32, 1},
		{"range overflow", 0, 1<<32 - 2, 3},
		{"account too large", 256, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.ListAddresses(t.Context(), tt.accountID, tt.firstIndex, tt.count)
			assert.True(t, errors.Is(err, ledger.ErrValidation))
		})
	}
	assert.Empty(t, raw.commands)

	raw.addresses = map[uint32][]byte{1<<32 - 1: {0xff}}
	addresses, err := d.ListAddresses(t.Context(), 0, 1<<32-1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xff"}, addresses)
}

func TestSignTransaction(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5a}, 450)
	raw := newScriptedDevice(len(payload))
	recorder := &countingRecorder{}
	d := newDevice(t, raw, device.WithRecorder(recorder))
	p := testPath(t)

	sig, err := d.SignTransaction(t.Context(), p, payload)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1b, sig.V)
	assert.Equal(t, bytes.Repeat([]byte{0x11}, 32), sig.R[:])
	assert.Equal(t, bytes.Repeat([]byte{0x22}, 32), sig.S[:])

	assert.Equal(t, []string{"init", "collect", "collect", "collect", "finalize"}, raw.labels())

	// Chunks are sent in order and reassemble the payload
	var streamed []byte
	for _, cmd := range raw.commands[1:4] {
		streamed = append(streamed, cmd.Data...)
	}
	assert.Equal(t, payload, streamed)
	assert.Len(t, raw.commands[1].Data, device.DefaultChunkSize)
	assert.Equal(t, path.Encode(p), raw.commands[0].Data)
	assert.Empty(t, raw.commands[4].Data)

	assert.Equal(t, []string{device.SignOutcomeSuccess}, recorder.outcomes)
	assert.Zero(t, recorder.resets)
}

func TestSignTransactionPinnedCommands(t *testing.T) {
	raw := newScriptedDevice(6)
	d := newDevice(t, raw, device.WithChunkSize(4))

	_, err := d.SignTransaction(t.Context(), testPath(t), []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	want := [][]byte{
		{0xe0, 0x20, 0x00, 0x00, 0x15, 0x05, 0x80, 0x00, 0x00, 0x2c, 0x80, 0x00, 0x00, 0x3c, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0xe0, 0x20, 0x01, 0x00, 0x04, 0x01, 0x02, 0x03, 0x04},
		{0xe0, 0x20, 0x01, 0x00, 0x02, 0x05, 0x06},
		{0xe0, 0x20, 0x80, 0x00, 0x00},
	}
	require.Len(t, raw.commands, len(want))
	for i, cmd := range raw.commands {
		b, err := cmd.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, want[i], b, "command %d", i)
	}
}

func TestSignTransactionEarlyFinalize(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 500)
	raw := newScriptedDevice(250)
	d := newDevice(t, raw)

	_, err := d.SignTransaction(t.Context(), testPath(t), payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "collect", "collect", "finalize"}, raw.labels())
}

func TestSignTransactionNeverFinalizes(t *testing.T) {
	raw := newScriptedDevice(0)
	recorder := &countingRecorder{}
	d := newDevice(t, raw, device.WithRecorder(recorder))

	_, err := d.SignTransaction(t.Context(), testPath(t), bytes.Repeat([]byte{0x01}, 450))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrTransactionRejectedOrMalformed))

	var perr *ledger.ProtocolError
	require.True(t, errors.As(err, &perr))

	labels := raw.labels()
	assert.Equal(t, []string{"init", "collect", "collect", "collect", "reset"}, labels)

	reset := raw.commands[len(raw.commands)-1]
	assert.EqualValues(t, 0x00, reset.P1)
	assert.EqualValues(t, 0x01, reset.P2)
	assert.Empty(t, reset.Data)

	assert.Equal(t, 1, recorder.resets)
	assert.Equal(t, []string{device.SignOutcomeRejected}, recorder.outcomes)
}

func TestSignTransactionCollectFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*scriptedDevice)
		target error
	}{
		{"device status", func(d *scriptedDevice) { d.collectStatus = ledger.StatusInvalidData }, ledger.ErrUnexpectedStatus},
		{"unknown signal", func(d *scriptedDevice) { d.signalByte = 0x07 }, ledger.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newScriptedDevice(10)
			tt.setup(raw)
			d := newDevice(t, raw)

			_, err := d.SignTransaction(t.Context(), testPath(t), bytes.Repeat([]byte{0x01}, 10))
			assert.True(t, errors.Is(err, tt.target))
			assert.Equal(t, []string{"init", "collect", "reset"}, raw.labels())
		})
	}
}

func TestSignTransactionTransportErrorSkipsReset(t *testing.T) {
	errUnplugged := errors.New("unplugged")
	calls := 0
	d := newDevice(t, transport.ExchangeFunc(func(_ context.Context, cmd ledger.Command) ([]byte, error) {
		calls++
		if cmd.P1 == 0x01 {
			return nil, errUnplugged
		}
		return []byte{0x90, 0x00}, nil
	}))

	_, err := d.SignTransaction(t.Context(), testPath(t), []byte{0x01})
	assert.True(t, errors.Is(err, errUnplugged))
	assert.Equal(t, 2, calls)
}

func TestSignTransactionRejectedAtFinalize(t *testing.T) {
	raw := newScriptedDevice(1)
	raw.finalStatus = ledger.StatusRejectedByUser
	recorder := &countingRecorder{}
	d := newDevice(t, raw, device.WithRecorder(recorder))

	_, err := d.SignTransaction(t.Context(), testPath(t), []byte{0x01})
	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejectedByUser, status)
	assert.Equal(t, []string{"init", "collect", "finalize"}, raw.labels())
	assert.Equal(t, []string{device.SignOutcomeRejected}, recorder.outcomes)
}

func TestSignTransactionValidation(t *testing.T) {
	raw := newScriptedDevice(1)
	d := newDevice(t, raw)

	_, err := d.SignTransaction(t.Context(), path.Path{1}, []byte{0x01})
	assert.True(t, errors.Is(err, ledger.ErrInvalidPath))

	_, err = d.SignTransaction(t.Context(), testPath(t), nil)
	assert.True(t, errors.Is(err, ledger.ErrMissingField))

	assert.Empty(t, raw.commands)
}

func TestSignTransactionSerialized(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 300)
	raw := newScriptedDevice(len(payload))
	raw.delay = 2 * time.Millisecond
	d := newDevice(t, raw)
	p := testPath(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = d.SignTransaction(context.Background(), p, payload)
		}()
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Every command is answered before the next one is sent and the two
	// signing sessions do not interleave.
	raw.mu.Lock()
	events := append([]string(nil), raw.events...)
	raw.mu.Unlock()

	session := []string{"init", "collect", "collect", "finalize"}
	var want []string
	for range 2 {
		for _, label := range session {
			want = append(want, "send:"+label, "reply:"+label)
		}
	}
	assert.Equal(t, want, events)
}
