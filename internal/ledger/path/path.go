// Package path validates, builds and encodes the BIP-44 derivation paths the
// device app accepts.
package path

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github/chapool/go-hwsigner/internal/ledger"
)

// Hardened marks a path element as hardened.
const Hardened uint32 = 0x80000000

const (
	// Length is the only path length the device app accepts.
	Length = 5

	purpose  = Hardened | 44
	coinType = Hardened | 60

	maxAccountID = math.MaxUint8
)

// Path is the computer friendly version of a derivation path:
// [purpose', coin_type', account', change, address_index].
type Path []uint32

// Validate fails with a ledger.ValidationError unless p has the shape
// m/44'/60'/account'/change/index.
func Validate(p []uint32) error {
	if len(p) != Length {
		return ledger.NewValidationError(ledger.ErrInvalidPath, "path", "expected %d elements, got %d", Length, len(p))
	}
	if p[0] != purpose {
		return ledger.NewValidationError(ledger.ErrInvalidPath, "path", "purpose must be 44'")
	}
	if p[1] != coinType {
		return ledger.NewValidationError(ledger.ErrInvalidPath, "path", "coin type must be 60'")
	}
	if p[2] < Hardened {
		return ledger.NewValidationError(ledger.ErrInvalidPath, "path", "account must be hardened")
	}
	return nil
}

// Build returns m/44'/60'/accountID'/0/addressIndex.
func Build(accountID, addressIndex int64) (Path, error) {
	if accountID < 0 || accountID > maxAccountID {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "accountId", "%d is not in [0, %d]", accountID, maxAccountID)
	}
	if addressIndex < 0 || addressIndex > math.MaxUint32 {
		return nil, ledger.NewValidationError(ledger.ErrOutOfRange, "addressIndex", "%d is not in [0, %d]", addressIndex, uint32(math.MaxUint32))
	}

	p := Path{purpose, coinType, Hardened | uint32(accountID), 0, uint32(addressIndex)}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode flattens p into the request layout:
//
//	Description                         | Length
//	------------------------------------+--------
//	Number of BIP 32 derivations        | 1 byte
//	First derivation index (big endian) | 4 bytes
//	...                                 | 4 bytes
//	Last derivation index (big endian)  | 4 bytes
//
// The path must have been validated by the caller.
func Encode(p Path) []byte {
	out := make([]byte, 1+4*len(p))
	out[0] = byte(len(p))
	for i, component := range p {
		binary.BigEndian.PutUint32(out[1+4*i:], component)
	}
	return out
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Path, error) {
	if len(b) == 0 {
		return nil, ledger.NewValidationError(ledger.ErrInvalidPath, "path", "empty encoding")
	}
	n := int(b[0])
	if len(b) != 1+4*n {
		return nil, ledger.NewValidationError(ledger.ErrInvalidPath, "path", "length byte %d does not match %d bytes", n, len(b))
	}
	p := make(Path, n)
	for i := range p {
		p[i] = binary.BigEndian.Uint32(b[1+4*i:])
	}
	return p, nil
}

// Parse parses a BIP-44 path string such as m/44'/60'/0'/0/7 and validates it.
// Hardened elements may be marked with ', h or H.
func Parse(s string) (Path, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, ledger.NewValidationError(ledger.ErrInvalidPath, "path", "%q must start with m/", s)
	}

	p := make(Path, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := false
		if n := len(part); n > 0 && (part[n-1] == '\'' || part[n-1] == 'h' || part[n-1] == 'H') {
			hardened = true
			part = part[:n-1]
		}

		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, ledger.NewValidationError(ledger.ErrInvalidPath, "path", "invalid segment %q", part)
		}
		component := uint32(index)
		if hardened {
			if component >= Hardened {
				return nil, ledger.NewValidationError(ledger.ErrInvalidPath, "path", "segment %q overflows when hardened", part)
			}
			component |= Hardened
		}
		p = append(p, component)
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// String renders p in m/44'/60'/0'/0/0 form.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, component := range p {
		if component >= Hardened {
			fmt.Fprintf(&b, "/%d'", component-Hardened)
		} else {
			fmt.Fprintf(&b, "/%d", component)
		}
	}
	return b.String()
}

// AccountID returns the unhardened account element of a validated path.
func (p Path) AccountID() uint32 {
	return p[2] &^ Hardened
}

// AddressIndex returns the last element of a validated path.
func (p Path) AddressIndex() uint32 {
	return p[Length-1]
}
