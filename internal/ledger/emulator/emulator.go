// Package emulator is a software implementation of the device side of the
// signing app protocol. It plugs into the transport as a raw Exchanger and is
// used for development setups and end-to-end tests.
package emulator

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/device"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/util"
)

// MaxPayloadLength bounds the transaction bytes collected for one signature.
const MaxPayloadLength = 64 * 1024

// legacyV is added to the recovery id reported by the app.
const legacyV = 27

// Approver decides whether a request is confirmed on the emulated screen.
type Approver func(p path.Path, payload []byte) bool

// Option configures an Emulator.
type Option func(*Emulator)

// WithVersion sets the reported app version.
func WithVersion(v device.Version) Option {
	return func(e *Emulator) {
		e.version = v
	}
}

// WithApprover sets the user confirmation behaviour. Denied requests answer
// with the user rejection status.
func WithApprover(a Approver) Option {
	return func(e *Emulator) {
		e.approve = a
	}
}

// WithPolicy sets the signing policy. Transactions it refuses answer with the
// policy rejection status.
func WithPolicy(a Approver) Option {
	return func(e *Emulator) {
		e.policy = a
	}
}

type signState int

const (
	stateIdle signState = iota
	stateCollect
	stateFinalize
)

// Emulator answers commands like the app running on a physical device.
type Emulator struct {
	keyring *Keyring
	version device.Version
	approve Approver
	policy  Approver

	mu       sync.Mutex
	locked   bool
	state    signState
	signPath path.Path
	buffer   []byte
}

// New creates an emulator holding the keys of keyring.
func New(keyring *Keyring, opts ...Option) *Emulator {
	e := &Emulator{
		keyring: keyring,
		version: device.Version{Major: 1, Minor: 0, Patch: 0, IsDevelopment: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lock makes the emulator answer every command with the locked status.
func (e *Emulator) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = true
	e.resetSession()
}

// Unlock reverses Lock.
func (e *Emulator) Unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = false
}

// Exchange implements transport.Exchanger. The command goes through its wire
// encoding so the emulator sees exactly what a device would.
func (e *Emulator) Exchange(ctx context.Context, cmd ledger.Command) ([]byte, error) {
	apdu, err := cmd.MarshalBinary()
	if err != nil {
		return nil, err
	}
	cmd, err = ledger.ParseCommand(apdu)
	if err != nil {
		return ledger.AppendStatus(nil, ledger.StatusBadHeader), nil //nolint:nilerr // reported through the status word
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reply, status := e.handle(cmd)
	util.LogFromContext(ctx).Trace().
		Stringer("ins", cmd.Instruction).
		Uint16("status", status).
		Msg("Emulator handled command")

	return ledger.AppendStatus(reply, status), nil
}

func (e *Emulator) handle(cmd ledger.Command) ([]byte, uint16) {
	if cmd.Class != ledger.Class {
		return nil, ledger.StatusUnknownClass
	}
	if e.locked {
		return nil, ledger.StatusDeviceLocked
	}

	switch cmd.Instruction {
	case ledger.InsGetVersion:
		return e.getVersion()
	case ledger.InsGetAddress:
		return e.getAddress(cmd)
	case ledger.InsGetPublicKey:
		return e.getPublicKey(cmd)
	case ledger.InsSignTransaction:
		return e.signTransaction(cmd)
	default:
		return nil, ledger.StatusUnknownIns
	}
}

func (e *Emulator) getVersion() ([]byte, uint16) {
	var flags byte
	if e.version.IsDevelopment {
		flags |= 0x01
	}
	return []byte{e.version.Major, e.version.Minor, e.version.Patch, flags}, ledger.StatusOK
}

func (e *Emulator) getAddress(cmd ledger.Command) ([]byte, uint16) {
	if e.state != stateIdle {
		return nil, ledger.StatusInvalidState
	}
	if cmd.P1 != 0x01 && cmd.P1 != 0x02 {
		return nil, ledger.StatusInvalidParams
	}
	p, ok := decodePath(cmd.Data)
	if !ok {
		return nil, ledger.StatusInvalidData
	}

	key, err := e.keyring.PrivateKey(p)
	if err != nil {
		return nil, ledger.StatusInvalidData
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	if cmd.P1 == 0x02 && !e.approved(e.approve, p, address.Bytes()) {
		return nil, ledger.StatusRejectedByUser
	}
	return append([]byte{byte(len(address))}, address.Bytes()...), ledger.StatusOK
}

func (e *Emulator) getPublicKey(cmd ledger.Command) ([]byte, uint16) {
	if e.state != stateIdle {
		return nil, ledger.StatusInvalidState
	}
	if cmd.P1 != 0x00 {
		return nil, ledger.StatusInvalidParams
	}
	p, ok := decodePath(cmd.Data)
	if !ok {
		return nil, ledger.StatusInvalidData
	}

	key, err := e.keyring.ExtendedKey(p)
	if err != nil {
		return nil, ledger.StatusInvalidData
	}
	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, ledger.StatusInvalidData
	}

	// x coordinate and chain code are both 32 bytes
	x := privateKey.PublicKey.X.FillBytes(make([]byte, 32))
	reply := append([]byte{byte(len(x))}, x...)
	return append(reply, key.ChainCode...), ledger.StatusOK
}

func (e *Emulator) signTransaction(cmd ledger.Command) ([]byte, uint16) {
	switch {
	case cmd.P1 == 0x00 && cmd.P2 == 0x01:
		e.resetSession()
		return nil, ledger.StatusOK

	case cmd.P1 == 0x00 && cmd.P2 == 0x00:
		if e.state != stateIdle {
			// Interleaved sessions force the app back to idle
			e.resetSession()
			return nil, ledger.StatusInvalidState
		}
		p, ok := decodePath(cmd.Data)
		if !ok {
			return nil, ledger.StatusInvalidData
		}
		e.state = stateCollect
		e.signPath = p
		e.buffer = e.buffer[:0]
		return nil, ledger.StatusOK

	case cmd.P1 == 0x01:
		if e.state != stateCollect {
			return nil, ledger.StatusInvalidState
		}
		if len(cmd.Data) == 0 || len(e.buffer)+len(cmd.Data) > MaxPayloadLength {
			e.resetSession()
			return nil, ledger.StatusInvalidData
		}
		e.buffer = append(e.buffer, cmd.Data...)

		complete, valid := payloadComplete(e.buffer)
		if !valid {
			e.resetSession()
			return nil, ledger.StatusInvalidData
		}
		if complete {
			e.state = stateFinalize
			return []byte{device.SignalFinalize}, ledger.StatusOK
		}
		return []byte{device.SignalCollect}, ledger.StatusOK

	case cmd.P1 == 0x80:
		if e.state != stateFinalize {
			return nil, ledger.StatusInvalidState
		}
		defer e.resetSession()

		if !e.approved(e.policy, e.signPath, e.buffer) {
			return nil, ledger.StatusRejectedByPolicy
		}
		if !e.approved(e.approve, e.signPath, e.buffer) {
			return nil, ledger.StatusRejectedByUser
		}
		return e.sign()

	default:
		return nil, ledger.StatusInvalidParams
	}
}

func (e *Emulator) sign() ([]byte, uint16) {
	key, err := e.keyring.PrivateKey(e.signPath)
	if err != nil {
		return nil, ledger.StatusInvalidData
	}

	// crypto.Sign returns R | S | recid
	sig, err := crypto.Sign(crypto.Keccak256(e.buffer), key)
	if err != nil {
		return nil, ledger.StatusInvalidData
	}

	reply := make([]byte, 0, device.SignatureLength)
	reply = append(reply, sig[64]+legacyV)
	return append(reply, sig[:64]...), ledger.StatusOK
}

func (e *Emulator) approved(a Approver, p path.Path, payload []byte) bool {
	return a == nil || a(p, payload)
}

func (e *Emulator) resetSession() {
	e.state = stateIdle
	e.signPath = nil
	e.buffer = e.buffer[:0]
}

func decodePath(b []byte) (path.Path, bool) {
	p, err := path.Decode(b)
	if err != nil {
		return nil, false
	}
	if err := path.Validate(p); err != nil {
		return nil, false
	}
	return p, true
}

// payloadComplete reports whether buf holds one full RLP list. valid is false
// once buf can no longer become a transaction.
func payloadComplete(buf []byte) (complete bool, valid bool) {
	if buf[0] < 0xc0 {
		return false, false
	}
	kind, _, rest, err := rlp.Split(buf)
	if err != nil {
		// Header or content still incomplete
		return false, true
	}
	if kind != rlp.List || len(rest) != 0 {
		return false, false
	}
	return true, true
}
