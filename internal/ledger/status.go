package ledger

import "fmt"

// Status words returned in the last two bytes of every device reply.
const (
	StatusOK               uint16 = 0x9000
	StatusBadHeader        uint16 = 0x6E01
	StatusUnknownClass     uint16 = 0x6E02
	StatusUnknownIns       uint16 = 0x6E03
	StatusInvalidState     uint16 = 0x6E04
	StatusInvalidParams    uint16 = 0x6E05
	StatusInvalidData      uint16 = 0x6E06
	StatusRejectedByUser   uint16 = 0x6E07
	StatusRejectedByPolicy uint16 = 0x6E08
	StatusDeviceLocked     uint16 = 0x6E09
)

var statusMessages = map[uint16]string{
	StatusOK:               "success",
	StatusBadHeader:        "bad request header",
	StatusUnknownClass:     "unknown instruction class",
	StatusUnknownIns:       "unknown instruction",
	StatusInvalidState:     "invalid state, the device app is busy with another operation",
	StatusInvalidParams:    "invalid request parameters",
	StatusInvalidData:      "invalid request data",
	StatusRejectedByUser:   "action rejected by user",
	StatusRejectedByPolicy: "action rejected by device policy",
	StatusDeviceLocked:     "device is locked",
}

// StatusMessage returns a human readable message for a status word.
func StatusMessage(status uint16) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error 0x%04x, please consult the manual", status)
}
