package device

import (
	"fmt"

	"github/chapool/go-hwsigner/internal/ledger"
)

// State is a phase of the transaction signing exchange.
type State int

const (
	StateInit State = iota
	StateCollect
	StateFinalize
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateCollect:
		return "COLLECT"
	case StateFinalize:
		return "FINALIZE"
	case StateSuccess:
		return "SUCCESS"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Signals sent back by the device for every collected chunk.
const (
	SignalCollect  byte = 0x02
	SignalFinalize byte = 0x04
)

// SIGN_TRANSACTION parameters.
const (
	p1SignInit     byte = 0x00
	p1SignCollect  byte = 0x01
	p1SignFinalize byte = 0x80

	p2SignStart byte = 0x00
	p2SignReset byte = 0x01
)

// SignatureLength is the size of the finalize reply: v | r | s.
const SignatureLength = 65

// Transition returns the state following a successful reply received in
// state. A reply that does not fit the state's contract moves to StateFailed
// with a ledger.ProtocolError of kind ErrMalformedResponse.
func Transition(state State, reply []byte) (State, error) {
	switch state {
	case StateInit:
		if len(reply) != 0 {
			return StateFailed, ledger.Malformed("init reply carries %d unexpected bytes", len(reply))
		}
		return StateCollect, nil

	case StateCollect:
		if len(reply) != 1 {
			return StateFailed, ledger.Malformed("collect reply has %d bytes, want 1", len(reply))
		}
		switch reply[0] {
		case SignalCollect:
			return StateCollect, nil
		case SignalFinalize:
			return StateFinalize, nil
		default:
			return StateFailed, ledger.Malformed("unknown collect signal 0x%02x", reply[0])
		}

	case StateFinalize:
		if len(reply) != SignatureLength {
			return StateFailed, ledger.Malformed("signature reply has %d bytes, want %d", len(reply), SignatureLength)
		}
		return StateSuccess, nil

	default:
		return StateFailed, ledger.Malformed("no transition out of state %s", state)
	}
}
