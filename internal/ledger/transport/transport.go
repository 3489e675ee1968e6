// Package transport wraps a raw APDU exchange primitive with status-aware
// error translation, per-exchange timeouts and exclusive sessions.
package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/util"
)

// DefaultTimeout bounds a single exchange unless overridden with WithTimeout.
const DefaultTimeout = 30 * time.Second

// ErrSessionClosed is returned when sending on a released session.
var ErrSessionClosed = errors.New("transport: session closed")

// Exchanger is the raw byte channel to the device. Exchange sends one command
// and returns the reply including its trailing status word.
type Exchanger interface {
	Exchange(ctx context.Context, cmd ledger.Command) ([]byte, error)
}

// ExchangeFunc adapts a function to the Exchanger interface.
type ExchangeFunc func(ctx context.Context, cmd ledger.Command) ([]byte, error)

// Exchange implements Exchanger.
func (f ExchangeFunc) Exchange(ctx context.Context, cmd ledger.Command) ([]byte, error) {
	return f(ctx, cmd)
}

// StatusError is returned by raw transports that report a failing status word
// out of band instead of inside the reply.
type StatusError struct {
	Code uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: device returned status 0x%04x", e.Code)
}

// Exchange outcomes reported to an Observer.
const (
	OutcomeOK             = "ok"
	OutcomeDeviceError    = "device_error"
	OutcomeMalformed      = "malformed"
	OutcomeTimeout        = "timeout"
	OutcomeTransportError = "transport_error"
)

// Observer is notified after every exchange.
type Observer interface {
	ObserveExchange(ins ledger.Instruction, outcome string, elapsed time.Duration)
}

// Option configures a Transport.
type Option func(*Transport)

// WithTimeout bounds every exchange by d.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithObserver reports every exchange to o.
func WithObserver(o Observer) Option {
	return func(t *Transport) {
		t.observer = o
	}
}

// Transport owns the device connection. The device processes a single command
// at a time, so every interaction happens inside a Session and at most one
// Session exists at any moment.
type Transport struct {
	raw      Exchanger
	timeout  time.Duration
	observer Observer

	commsLock chan struct{} // Mutex (buf=1) that can be abandoned through a context
}

// New wraps raw into a Transport.
func New(raw Exchanger, opts ...Option) *Transport {
	t := &Transport{
		raw:       raw,
		timeout:   DefaultTimeout,
		commsLock: make(chan struct{}, 1),
	}
	t.commsLock <- struct{}{}

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Timeout returns the per-exchange timeout.
func (t *Transport) Timeout() time.Duration {
	return t.timeout
}

// Session waits for exclusive access to the device. The returned session must
// be closed to release the device for the next caller.
func (t *Transport) Session(ctx context.Context) (*Session, error) {
	select {
	case <-t.commsLock:
		return &Session{transport: t}, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for device")
	}
}

// Session is an exclusive hold on the device.
type Session struct {
	transport *Transport
	closed    atomic.Bool
	once      sync.Once
}

// Close releases the device. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.transport.commsLock <- struct{}{}
	})
}

// Send performs one exchange and returns the reply payload with the status
// word stripped. A failing status word becomes a ledger.ProtocolError; other
// transport failures are returned wrapped and are never retried.
func (s *Session) Send(ctx context.Context, ins ledger.Instruction, p1, p2 byte, data []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if len(data) > ledger.MaxDataLength {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "data", "%d bytes exceed the %d byte frame capacity", len(data), ledger.MaxDataLength)
	}

	log := util.LogFromContext(ctx)
	t := s.transport

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	log.Trace().
		Stringer("ins", ins).
		Uint8("p1", p1).
		Uint8("p2", p2).
		Hex("data", data).
		Msg("Sending command to device")

	start := time.Now()
	reply, err := t.raw.Exchange(ctx, ledger.NewCommand(ins, p1, p2, data))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			t.observe(ins, OutcomeDeviceError, start)
			return nil, ledger.NewStatusError(statusErr.Code)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.observe(ins, OutcomeTimeout, start)
		} else {
			t.observe(ins, OutcomeTransportError, start)
		}
		log.Debug().Err(err).Stringer("ins", ins).Msg("Device exchange failed")
		return nil, errors.Wrapf(err, "failed to exchange %s", ins)
	}

	payload, err := ledger.StripStatus(reply)
	if err != nil {
		if errors.Is(err, ledger.ErrUnexpectedStatus) {
			t.observe(ins, OutcomeDeviceError, start)
		} else {
			t.observe(ins, OutcomeMalformed, start)
		}
		log.Debug().Err(err).Stringer("ins", ins).Msg("Device replied with an error")
		return nil, err
	}

	t.observe(ins, OutcomeOK, start)
	log.Trace().Stringer("ins", ins).Hex("reply", payload).Msg("Device replied")
	return payload, nil
}

func (t *Transport) observe(ins ledger.Instruction, outcome string, start time.Time) {
	if t.observer != nil {
		t.observer.ObserveExchange(ins, outcome, time.Since(start))
	}
}
