package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// statusLength is the size of the status word trailing every reply.
const statusLength = 2

// BufferToHex encodes b as lowercase hex without a 0x prefix.
func BufferToHex(b []byte) string {
	return common.Bytes2Hex(b)
}

// HexToBuffer decodes a hex string, with or without a 0x prefix.
func HexToBuffer(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, NewValidationError(ErrInvalidInput, "hex", "%v", err)
	}
	return b, nil
}

// StripStatus splits the trailing status word off a raw reply and returns the
// payload, failing unless the status signals success.
func StripStatus(resp []byte) ([]byte, error) {
	if len(resp) < statusLength {
		return nil, Malformed("reply of %d bytes lacks a status word", len(resp))
	}
	split := len(resp) - statusLength
	if status := binary.BigEndian.Uint16(resp[split:]); status != StatusOK {
		return nil, NewStatusError(status)
	}
	return resp[:split], nil
}

// AppendStatus appends a status word to payload, producing a raw reply.
func AppendStatus(payload []byte, status uint16) []byte {
	out := make([]byte, len(payload), len(payload)+statusLength)
	copy(out, payload)
	return binary.BigEndian.AppendUint16(out, status)
}

// Chunk splits payload into ceil(len/size) consecutive slices, none longer
// than size. The slices alias payload.
func Chunk(payload []byte, size int) [][]byte {
	if size <= 0 {
		panic("ledger: chunk size must be positive")
	}
	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for len(payload) > 0 {
		n := size
		if n > len(payload) {
			n = len(payload)
		}
		chunks = append(chunks, payload[:n])
		payload = payload[n:]
	}
	return chunks
}
