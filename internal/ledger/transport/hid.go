package transport

import (
	"context"
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/ledger"
)

const (
	hidReportSize = 64
	hidChannel    = 0x0101
	hidTagAPDU    = 0x05

	hidHeaderSize = 5 // channel (2) | tag (1) | sequence (2)
	hidLengthSize = 2 // total APDU length, first frame only
)

// errHIDReplyInvalidHeader is returned if the device replies with a
// mismatching header. This usually means the device is in browser mode.
var errHIDReplyInvalidHeader = errors.New("hid: invalid reply header")

// errHIDDesynchronized is set once an exchange has been abandoned. A late
// reply would otherwise be read as the answer to the next command.
var errHIDDesynchronized = errors.New("hid: exchange abandoned, reopen the device")

// HID implements Exchanger over a HID report stream using the Ledger framing:
//
//	Channel | Tag  | Sequence | Payload
//	--------+------+----------+--------------------------------------
//	 01 01  |  05  |  00 00   | APDU length (2 bytes) | APDU bytes...
//	 01 01  |  05  |  00 01   | APDU bytes...
//
// Each report is padded to 64 bytes. Replies use the same framing and carry
// the reply data followed by the status word.
type HID struct {
	device  io.ReadWriter
	mu      sync.Mutex
	failure error
}

// NewHID creates an Exchanger on top of an opened HID device.
func NewHID(device io.ReadWriter) *HID {
	return &HID{device: device}
}

// Exchange implements Exchanger. Blocking I/O runs in a separate goroutine so
// the exchange can be abandoned when ctx expires; the transport is unusable
// afterwards.
func (h *HID) Exchange(ctx context.Context, cmd ledger.Command) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failure != nil {
		return nil, h.failure
	}
	apdu, err := cmd.MarshalBinary()
	if err != nil {
		return nil, err
	}

	type result struct {
		reply []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := h.roundTrip(apdu)
		done <- result{reply, err}
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-ctx.Done():
		h.failure = errHIDDesynchronized
		return nil, errors.Wrap(ctx.Err(), "hid exchange abandoned")
	}
}

func (h *HID) roundTrip(apdu []byte) ([]byte, error) {
	// Prefix the total length, then stream the message in 64 byte reports
	message := make([]byte, hidLengthSize, hidLengthSize+len(apdu))
	binary.BigEndian.PutUint16(message, uint16(len(apdu)))
	message = append(message, apdu...)

	report := make([]byte, hidReportSize)

	for seq := 0; len(message) > 0; seq++ {
		clear(report)
		binary.BigEndian.PutUint16(report[0:], hidChannel)
		report[2] = hidTagAPDU
		binary.BigEndian.PutUint16(report[3:], uint16(seq))

		n := copy(report[hidHeaderSize:], message)
		message = message[n:]

		if _, err := h.device.Write(report); err != nil {
			return nil, errors.Wrap(err, "failed to write hid report")
		}
	}

	// Stream the reply back in 64 byte reports
	var reply []byte
	for seq := 0; ; seq++ {
		if _, err := io.ReadFull(h.device, report); err != nil {
			return nil, errors.Wrap(err, "failed to read hid report")
		}
		if binary.BigEndian.Uint16(report[0:]) != hidChannel || report[2] != hidTagAPDU {
			return nil, errHIDReplyInvalidHeader
		}
		if got := binary.BigEndian.Uint16(report[3:]); int(got) != seq {
			return nil, errors.Errorf("hid: unexpected reply sequence %d, want %d", got, seq)
		}

		payload := report[hidHeaderSize:]
		if seq == 0 {
			reply = make([]byte, 0, int(binary.BigEndian.Uint16(payload)))
			payload = payload[hidLengthSize:]
		}
		if left := cap(reply) - len(reply); left > len(payload) {
			reply = append(reply, payload...)
		} else {
			return append(reply, payload[:left]...), nil
		}
	}
}
