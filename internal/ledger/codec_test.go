package ledger_test

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/ledger"
)

func TestBufferToHex(t *testing.T) {
	assert.Equal(t, "", ledger.BufferToHex(nil))
	assert.Equal(t, "000fa0ff", ledger.BufferToHex([]byte{0x00, 0x0f, 0xa0, 0xff}))
}

func TestHexToBuffer(t *testing.T) {
	b, err := ledger.HexToBuffer("0xDEADbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	b, err = ledger.HexToBuffer("0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, b)

	_, err = ledger.HexToBuffer("0x123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))
}

func TestStripStatus(t *testing.T) {
	payload, err := ledger.StripStatus([]byte{0x01, 0x02, 0x90, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, payload)

	payload, err = ledger.StripStatus([]byte{0x90, 0x00})
	require.NoError(t, err)
	assert.Empty(t, payload)

	_, err = ledger.StripStatus([]byte{0x90})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrMalformedResponse))

	_, err = ledger.StripStatus([]byte{0xaa, 0x6e, 0x07})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "rejected by user")

	status, ok := ledger.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejectedByUser, status)
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "device is locked", ledger.StatusMessage(ledger.StatusDeviceLocked))
	assert.Equal(t, "unknown error 0x6a80, please consult the manual", ledger.StatusMessage(0x6a80))

	for status := ledger.StatusBadHeader; status <= ledger.StatusDeviceLocked; status++ {
		assert.NotContains(t, ledger.StatusMessage(status), "unknown error", "status 0x%04x", status)
	}
}

func TestChunk(t *testing.T) {
	assert.Empty(t, ledger.Chunk(nil, 4))

	chunks := ledger.Chunk([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, 4)
	require.Len(t, chunks, 3)
	assert.Equal(t, []byte{1, 2, 3, 4}, chunks[0])
	assert.Equal(t, []byte{5, 6, 7, 8}, chunks[1])
	assert.Equal(t, []byte{9}, chunks[2])

	chunks = ledger.Chunk([]byte{1, 2, 3, 4}, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, []byte{3, 4}, chunks[1])

	assert.Panics(t, func() { ledger.Chunk([]byte{1}, 0) })
}

func TestCodecProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("success status is stripped", prop.ForAll(
		func(payload []byte) bool {
			got, err := ledger.StripStatus(ledger.AppendStatus(payload, ledger.StatusOK))
			return err == nil && bytes.Equal(got, payload)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("failure status is carried", prop.ForAll(
		func(payload []byte, status uint16) bool {
			_, err := ledger.StripStatus(ledger.AppendStatus(payload, status))
			got, ok := ledger.StatusOf(err)
			return ok && got == status
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt16().SuchThat(func(v uint16) bool { return v != ledger.StatusOK }),
	))

	properties.Property("hex round trip", prop.ForAll(
		func(payload []byte) bool {
			decoded, err := ledger.HexToBuffer(ledger.BufferToHex(payload))
			return err == nil && bytes.Equal(decoded, payload)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("chunks reassemble", prop.ForAll(
		func(payload []byte, size int) bool {
			chunks := ledger.Chunk(payload, size)
			if len(chunks) != (len(payload)+size-1)/size {
				return false
			}
			var joined []byte
			for _, c := range chunks {
				if len(c) == 0 || len(c) > size {
					return false
				}
				joined = append(joined, c...)
			}
			return bytes.Equal(joined, payload)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(1, 300),
	))

	properties.TestingRun(t)
}
