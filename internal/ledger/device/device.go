// Package device implements the command protocol of the signing app on top of
// an exclusive transport session.
package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/ledger/transport"
	"github/chapool/go-hwsigner/internal/util"
)

// DefaultChunkSize is the number of payload bytes streamed per COLLECT command.
const DefaultChunkSize = 200

// MaxAddressCount bounds a single ListAddresses call.
const MaxAddressCount = 255

// GET_ADDRESS display modes.
const (
	p1AddressSilent  byte = 0x01
	p1AddressConfirm byte = 0x02
)

// Sign outcomes reported to a Recorder.
const (
	SignOutcomeSuccess  = "success"
	SignOutcomeRejected = "rejected"
	SignOutcomeError    = "error"
)

// Recorder collects signing metrics.
type Recorder interface {
	ObserveSign(outcome string, elapsed time.Duration)
	ObserveReset()
}

// Version is the app version reported by the device.
type Version struct {
	Major         uint8 `json:"major"`
	Minor         uint8 `json:"minor"`
	Patch         uint8 `json:"patch"`
	IsDevelopment bool  `json:"isDevelopment"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// PublicKey is the key pair material returned by GET_PUBLIC_KEY.
type PublicKey struct {
	PublicKey []byte
	ChainKey  []byte
}

// Signature holds the raw signature components returned by the device.
// V is the device's recovery byte before any chain id adjustment.
type Signature struct {
	V byte
	R [32]byte
	S [32]byte
}

// Option configures a Device.
type Option func(*Device)

// WithChunkSize sets the COLLECT chunk size.
func WithChunkSize(size int) Option {
	return func(d *Device) {
		d.chunkSize = size
	}
}

// WithRecorder reports signing results to r.
func WithRecorder(r Recorder) Option {
	return func(d *Device) {
		d.recorder = r
	}
}

// Device speaks the app protocol. Every operation holds an exclusive
// transport session for its whole duration, so concurrent callers queue up
// and their commands never interleave.
type Device struct {
	transport *transport.Transport
	chunkSize int
	recorder  Recorder
}

// New creates a Device on top of t.
func New(t *transport.Transport, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, errors.New("transport is required")
	}

	d := &Device{
		transport: t,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.chunkSize < 1 || d.chunkSize > ledger.MaxDataLength {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "chunkSize", "%d is outside 1..%d", d.chunkSize, ledger.MaxDataLength)
	}
	return d, nil
}

// ChunkSize returns the configured COLLECT chunk size.
func (d *Device) ChunkSize() int {
	return d.chunkSize
}

// GetVersion returns the app version.
func (d *Device) GetVersion(ctx context.Context) (*Version, error) {
	session, err := d.transport.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	reply, err := session.Send(ctx, ledger.InsGetVersion, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(reply) != 4 {
		return nil, ledger.Malformed("version reply has %d bytes, want 4", len(reply))
	}

	return &Version{
		Major:         reply[0],
		Minor:         reply[1],
		Patch:         reply[2],
		IsDevelopment: reply[3]&0x01 != 0,
	}, nil
}

// Heartbeat checks that the device answers.
func (d *Device) Heartbeat(ctx context.Context) error {
	_, err := d.GetVersion(ctx)
	return err
}

// DeriveAddress returns the 0x prefixed address for p, optionally asking the
// user to confirm it on the device screen.
func (d *Device) DeriveAddress(ctx context.Context, p path.Path, confirm bool) (string, error) {
	if err := path.Validate(p); err != nil {
		return "", err
	}

	session, err := d.transport.Session(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	return deriveAddress(ctx, session, p, confirm)
}

func deriveAddress(ctx context.Context, session *transport.Session, p path.Path, confirm bool) (string, error) {
	p1 := p1AddressSilent
	if confirm {
		p1 = p1AddressConfirm
	}

	reply, err := session.Send(ctx, ledger.InsGetAddress, p1, 0, path.Encode(p))
	if err != nil {
		return "", err
	}
	if len(reply) == 0 || reply[0] == 0 {
		return "", ledger.Malformed("address reply is empty")
	}
	if len(reply) != 1+int(reply[0]) {
		return "", ledger.Malformed("address reply has %d bytes, want %d", len(reply), 1+int(reply[0]))
	}
	return "0x" + ledger.BufferToHex(reply[1:]), nil
}

// DerivePublicKey returns the public key and chain key for p.
func (d *Device) DerivePublicKey(ctx context.Context, p path.Path) (*PublicKey, error) {
	if err := path.Validate(p); err != nil {
		return nil, err
	}

	session, err := d.transport.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	reply, err := session.Send(ctx, ledger.InsGetPublicKey, 0, 0, path.Encode(p))
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 || reply[0] == 0 {
		return nil, ledger.Malformed("public key reply is empty")
	}
	n := int(reply[0])
	if len(reply) != 1+2*n {
		return nil, ledger.Malformed("public key reply has %d bytes, want %d", len(reply), 1+2*n)
	}

	return &PublicKey{
		PublicKey: append([]byte(nil), reply[1:1+n]...),
		ChainKey:  append([]byte(nil), reply[1+n:]...),
	}, nil
}

// ListAddresses derives count consecutive addresses of accountID starting at
// firstIndex. The derivations run one after another within a single session
// and the result keeps index order.
func (d *Device) ListAddresses(ctx context.Context, accountID, firstIndex, count int64) ([]string, error) {
	if count < 1 || count > MaxAddressCount {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "count", "%d is outside 1..%d", count, MaxAddressCount)
	}
	if firstIndex < 0 || firstIndex > math.MaxUint32 {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "firstIndex", "%d is outside 0..%d", firstIndex, uint32(math.MaxUint32))
	}
	if firstIndex+count-1 > math.MaxUint32 {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "count", "index range %d+%d exceeds %d", firstIndex, count, uint32(math.MaxUint32))
	}

	paths := make([]path.Path, 0, count)
	for i := int64(0); i < count; i++ {
		p, err := path.Build(accountID, firstIndex+i)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}

	session, err := d.transport.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	addresses := make([]string, 0, count)
	for _, p := range paths {
		address, err := deriveAddress(ctx, session, p, false)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive address %s", p)
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

// SignTransaction streams payload to the device and returns the signature.
//
// The exchange runs INIT (path), then COLLECT (one command per chunk, each
// answered with a collect or finalize signal), then FINALIZE. No chunk is sent
// after the device signals finalize. If the device is still collecting once
// every chunk is sent, or answers a chunk with a device error, the signing
// session is reset on the device before the error is returned.
func (d *Device) SignTransaction(ctx context.Context, p path.Path, payload []byte) (*Signature, error) {
	if err := path.Validate(p); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ledger.NewValidationError(ledger.ErrMissingField, "payload", "transaction payload is empty")
	}

	session, err := d.transport.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	start := time.Now()
	sig, err := d.sign(ctx, session, p, payload)
	d.observeSign(err, start)
	return sig, err
}

func (d *Device) sign(ctx context.Context, session *transport.Session, p path.Path, payload []byte) (*Signature, error) {
	log := util.LogFromContext(ctx).With().Str("path", p.String()).Logger()

	state := StateInit
	reply, err := session.Send(ctx, ledger.InsSignTransaction, p1SignInit, p2SignStart, path.Encode(p))
	if err != nil {
		return nil, err
	}
	if state, err = Transition(state, reply); err != nil {
		return nil, d.abort(ctx, session, err)
	}

	// Stream the payload until the device has what it needs
	chunks := ledger.Chunk(payload, d.chunkSize)
	for i, chunk := range chunks {
		reply, err = session.Send(ctx, ledger.InsSignTransaction, p1SignCollect, p2SignStart, chunk)
		if err != nil {
			return nil, d.abort(ctx, session, err)
		}
		if state, err = Transition(state, reply); err != nil {
			return nil, d.abort(ctx, session, err)
		}
		if state == StateFinalize {
			if i < len(chunks)-1 {
				log.Debug().Int("sent", i+1).Int("chunks", len(chunks)).Msg("Device finalized before the last chunk")
			}
			break
		}
	}

	if state != StateFinalize {
		log.Warn().Int("chunks", len(chunks)).Msg("Device did not finalize the transaction, resetting")
		d.reset(ctx, session)
		return nil, &ledger.ProtocolError{
			Kind:    ledger.ErrTransactionRejectedOrMalformed,
			Message: fmt.Sprintf("device still collecting after %d chunks", len(chunks)),
		}
	}

	reply, err = session.Send(ctx, ledger.InsSignTransaction, p1SignFinalize, p2SignStart, nil)
	if err != nil {
		return nil, err
	}
	if _, err = Transition(state, reply); err != nil {
		return nil, err
	}

	sig := &Signature{V: reply[0]}
	copy(sig.R[:], reply[1:33])
	copy(sig.S[:], reply[33:65])

	log.Debug().Uint8("v", sig.V).Msg("Device signed transaction")
	return sig, nil
}

// abort resets the device after a protocol failure. Transport failures are
// returned untouched since the device may not be reachable at all.
func (d *Device) abort(ctx context.Context, session *transport.Session, err error) error {
	var perr *ledger.ProtocolError
	if errors.As(err, &perr) {
		d.reset(ctx, session)
	}
	return err
}

func (d *Device) reset(ctx context.Context, session *transport.Session) {
	if d.recorder != nil {
		d.recorder.ObserveReset()
	}
	if _, err := session.Send(ctx, ledger.InsSignTransaction, p1SignInit, p2SignReset, nil); err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Failed to reset device signing state")
	}
}

func (d *Device) observeSign(err error, start time.Time) {
	if d.recorder == nil {
		return
	}

	outcome := SignOutcomeSuccess
	if err != nil {
		outcome = SignOutcomeError
		status, ok := ledger.StatusOf(err)
		if errors.Is(err, ledger.ErrTransactionRejectedOrMalformed) ||
			(ok && (status == ledger.StatusRejectedByUser || status == ledger.StatusRejectedByPolicy)) {
			outcome = SignOutcomeRejected
		}
	}
	d.recorder.ObserveSign(outcome, time.Since(start))
}
