package transport

import (
	"github.com/karalabe/hid"
	"github.com/pkg/errors"
)

const (
	ledgerVendorID  = 0x2c97
	ledgerUsagePage = 0xffa0 // Windows and macOS match on the usage page
	ledgerInterface = 0      // Linux matches on the interface
)

// Device definitions taken from
// https://github.com/LedgerHQ/ledger-live/blob/develop/libs/ledgerjs/packages/devices/src/index.ts
var ledgerProductIDs = []uint16{
	0x0000, /* Ledger Blue */
	0x0001, /* Ledger Nano S */
	0x0004, /* Ledger Nano X */
	0x0005, /* Ledger Nano S Plus */
	0x0006, /* Ledger Nano FTS */

	0x0015, /* HID + U2F + WebUSB Ledger Blue */
	0x1015, /* HID + U2F + WebUSB Ledger Nano S */
	0x4015, /* HID + U2F + WebUSB Ledger Nano X */
	0x5015, /* HID + U2F + WebUSB Ledger Nano S Plus */
	0x6015, /* HID + U2F + WebUSB Ledger Nano FTS */

	0x0011, /* HID + WebUSB Ledger Blue */
	0x1011, /* HID + WebUSB Ledger Nano S */
	0x4011, /* HID + WebUSB Ledger Nano X */
	0x5011, /* HID + WebUSB Ledger Nano S Plus */
	0x6011, /* HID + WebUSB Ledger Nano FTS */
}

var (
	// ErrUSBUnsupported is returned on platforms built without hidapi.
	ErrUSBUnsupported = errors.New("usb: hid is not supported on this platform")

	// ErrNoDevice is returned when no Ledger device is connected.
	ErrNoDevice = errors.New("usb: no ledger device found")
)

// USB is a Ledger device connected over USB HID.
type USB struct {
	*HID

	info   hid.DeviceInfo
	device hid.Device
}

// OpenUSB opens the first connected Ledger device.
func OpenUSB() (*USB, error) {
	if !hid.Supported() {
		return nil, ErrUSBUnsupported
	}

	infos, err := hid.Enumerate(ledgerVendorID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate usb devices")
	}

	for _, info := range infos {
		if !isLedgerInterface(info) {
			continue
		}
		device, err := info.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open usb device %s", info.Path)
		}
		return &USB{
			HID:    NewHID(device),
			info:   info,
			device: device,
		}, nil
	}
	return nil, ErrNoDevice
}

func isLedgerInterface(info hid.DeviceInfo) bool {
	for _, id := range ledgerProductIDs {
		if info.ProductID == id && (info.UsagePage == ledgerUsagePage || info.Interface == ledgerInterface) {
			return true
		}
	}
	return false
}

// Path returns the platform specific device path.
func (u *USB) Path() string {
	return u.info.Path
}

// Close releases the USB device.
func (u *USB) Close() error {
	return u.device.Close()
}
