package ledger

import "fmt"

// Class is the instruction class shared by every command of the app.
const Class byte = 0xE0

// Instruction is an enumeration of the commands understood by the device app.
type Instruction byte

const (
	InsGetVersion      Instruction = 0x01 // Returns the app version and flags
	InsGetPublicKey    Instruction = 0x10 // Returns the public key and chain key for a BIP 32 path
	InsGetAddress      Instruction = 0x11 // Returns the address for a BIP 32 path, optionally confirmed on screen
	InsSignTransaction Instruction = 0x20 // Multi-step transaction signing
)

func (i Instruction) String() string {
	switch i {
	case InsGetVersion:
		return "GET_VERSION"
	case InsGetPublicKey:
		return "GET_PUBLIC_KEY"
	case InsGetAddress:
		return "GET_ADDRESS"
	case InsSignTransaction:
		return "SIGN_TRANSACTION"
	default:
		return fmt.Sprintf("INS_0x%02x", byte(i))
	}
}

// MaxDataLength is the largest payload a single command can carry (Lc is one byte).
const MaxDataLength = 255

// commandHeaderLength is CLA, INS, P1, P2 and Lc.
const commandHeaderLength = 5

// Command is a single request unit sent to the device.
//
//	CLA | INS | P1 | P2 | Lc | DATA
//	----+-----+----+----+----+------------
//	 E0 | xx  | xx | xx | n  | n bytes
type Command struct {
	Class       byte
	Instruction Instruction
	P1          byte
	P2          byte
	Data        []byte
}

// NewCommand creates a command of the app's class.
func NewCommand(ins Instruction, p1, p2 byte, data []byte) Command {
	return Command{
		Class:       Class,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
	}
}

// MarshalBinary encodes the command into its APDU byte form.
func (c Command) MarshalBinary() ([]byte, error) {
	if len(c.Data) > MaxDataLength {
		return nil, NewValidationError(ErrOutOfRange, "data", "%d bytes exceed the %d byte frame capacity", len(c.Data), MaxDataLength)
	}
	out := make([]byte, commandHeaderLength, commandHeaderLength+len(c.Data))
	out[0] = c.Class
	out[1] = byte(c.Instruction)
	out[2] = c.P1
	out[3] = c.P2
	out[4] = byte(len(c.Data))
	return append(out, c.Data...), nil
}

// ParseCommand decodes an APDU produced by MarshalBinary.
func ParseCommand(b []byte) (Command, error) {
	if len(b) < commandHeaderLength {
		return Command{}, NewValidationError(ErrInvalidInput, "apdu", "%d bytes is shorter than the header", len(b))
	}
	if int(b[4]) != len(b)-commandHeaderLength {
		return Command{}, NewValidationError(ErrInvalidInput, "apdu", "length byte %d does not match %d data bytes", b[4], len(b)-commandHeaderLength)
	}
	data := make([]byte, len(b)-commandHeaderLength)
	copy(data, b[commandHeaderLength:])

	return Command{
		Class:       b[0],
		Instruction: Instruction(b[1]),
		P1:          b[2],
		P2:          b[3],
		Data:        data,
	}, nil
}
