// Package uinputdevice builds and drives the synthetic uinput devices that
// republish translated events, per spec.md §6's virtual device identity.
// There are two: Device, the combined keyboard/mouse device every run
// creates, and TabletDevice (tablet.go), a second EV_ABS-capable device
// opened only once a grabbed input source turns out to be a tablet —
// see internal/device's isTablet and internal/device/loop.go.
package uinputdevice

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/xremap-go/xremap/internal/keys"
)

const (
	evSyn     = 0x00
	evKey     = 0x01
	evRel     = 0x02
	synReport = 0
)

// DefaultBusType is the bus type both virtual devices fall back to.
// spec.md §6 asks for "bus type inherited from a representative grabbed
// device"; Device.Open is called before any device is grabbed, so it
// always uses this default, while OpenTablet (called lazily, after a
// tablet source is already grabbed) accepts the caller's choice and
// internal/device/loop.go falls back to this same constant when it has
// no better signal. See DESIGN.md.
const DefaultBusType uint16 = 0x03 // BUS_USB

// Identity fields for the virtual device, fixed by spec.md §6: the same
// vendor/product/version triad the original tool uses, taken from
// evdev's own default virtual-device convention.
const (
	vendorID  = 0x1234
	productID = 0x5678
	versionID = 0x111
	busUSB    = DefaultBusType

	uinputMaxNameSize = 80
	uinputPath        = "/dev/uinput"
)

// keyBitMax bounds the scancodes this device declares support for:
// KEY_RESERVED (0) up to, not including, BTN_TRIGGER_HAPPY40 (0x2e7), matching the range
// the original tool sweeps when building its capability bitmap. Rather
// than name-filter within that range (this package's keys table isn't an
// exhaustive mirror of every linux/input-event-codes.h entry), every code
// in it is declared: a uinput capability bit that's never emitted is
// harmless, so the superset costs nothing.
const keyBitMax = 0x2e7

// The 20 mouse buttons (BTN_MISC..BTN_TASK, 0x100-0x117) and the 17
// tablet buttons (BTN_0..BTN_9 plus the stylus codes in 0x140-0x14c, see
// tabletBtns in tablet.go) named in
// spec.md §6 both already fall inside [0, keyBitMax); they're declared by
// the sweep below rather than enumerated separately.

// relAxes are the relative axes the device reports, per spec.md §6:
// REL_X, REL_Y, REL_HWHEEL, REL_WHEEL, REL_MISC.
var relAxes = []uint16{
	uint16(keys.RelX),
	uint16(keys.RelY),
	uint16(keys.RelHWheel),
	uint16(keys.RelWheel),
	uint16(keys.RelMisc),
}

// inputID mirrors linux/input.h's struct input_id.
type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputSetup mirrors linux/uinput.h's struct uinput_setup.
type uinputSetup struct {
	ID         inputID
	Name       [uinputMaxNameSize]byte
	EffectsMax uint32
}

// inputEvent mirrors linux/input.h's struct input_event on a 64-bit
// kernel: a 16-byte timeval followed by type/code/value, 24 bytes total.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Device is the synthetic output device. It is not safe for concurrent
// use; the output dispatcher owns it from a single goroutine, matching
// spec.md §5's single-writer model.
type Device struct {
	file *os.File
}

// Open creates and registers the virtual device with the kernel, naming
// it "xremap pid=<pid>" per spec.md §6 so the device-selection pass in
// internal/device can recognize and exclude its own output.
func Open() (*Device, error) {
	file, err := os.OpenFile(uinputPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", uinputPath, err)
	}

	d := &Device{file: file}
	if err := d.setBits(); err != nil {
		file.Close()
		return nil, err
	}
	if err := d.setup(fmt.Sprintf("xremap pid=%d", os.Getpid())); err != nil {
		file.Close()
		return nil, err
	}
	if err := d.create(); err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) setBits() error {
	if err := d.ioctlInt(uiSetEVBit, evKey); err != nil {
		return fmt.Errorf("UI_SET_EVBIT EV_KEY: %w", err)
	}
	if err := d.ioctlInt(uiSetEVBit, evRel); err != nil {
		return fmt.Errorf("UI_SET_EVBIT EV_REL: %w", err)
	}

	for code := 0; code < keyBitMax; code++ {
		if err := d.ioctlInt(uiSetKeyBit, code); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}
	for _, axis := range relAxes {
		if err := d.ioctlInt(uiSetRelBit, int(axis)); err != nil {
			return fmt.Errorf("UI_SET_RELBIT %d: %w", axis, err)
		}
	}
	return nil
}

func (d *Device) ioctlInt(cmd uintptr, value int) error {
	return ioctlInt(d.file, cmd, value)
}

func (d *Device) setup(name string) error {
	return uinputSetupDevice(d.file, name, busUSB)
}

func (d *Device) create() error {
	return uinputCreateDevice(d.file)
}

// ioctlInt issues a plain integer-argument ioctl against file, the shape
// every UI_SET_*BIT call and UI_DEV_CREATE share.
func ioctlInt(file *os.File, cmd uintptr, value int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), cmd, uintptr(value))
	if errno != 0 {
		return errno
	}
	return nil
}

// uinputSetupDevice issues UI_DEV_SETUP, naming the device and filling in
// spec.md §6's fixed vendor/product/version triad with the given bus type.
func uinputSetupDevice(file *os.File, name string, busType uint16) error {
	var setup uinputSetup
	setup.ID = inputID{BusType: busType, Vendor: vendorID, Product: productID, Version: versionID}
	copy(setup.Name[:], name)

	cmd := uiDevSetupCmd(unsafe.Sizeof(setup))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), cmd, uintptr(unsafe.Pointer(&setup))) //nolint:gosec // required for ioctl syscall
	if errno != 0 {
		return fmt.Errorf("UI_DEV_SETUP: %w", errno)
	}
	return nil
}

func uinputCreateDevice(file *os.File) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uiDevCreate, 0)
	if errno != 0 {
		return fmt.Errorf("UI_DEV_CREATE: %w", errno)
	}
	return nil
}

// KeyEvent writes a single EV_KEY event followed by its SYN_REPORT.
func (d *Device) KeyEvent(key keys.KeyCode, value keys.Value) error {
	if err := d.write(evKey, uint16(key), int32(value)); err != nil {
		return err
	}
	return d.syn()
}

// RelEvents writes a batch of EV_REL motions as one atomic submission,
// followed by a single trailing SYN_REPORT, per spec.md §4.6's mouse
// motion batching invariant: the kernel (and any listener) observes all
// axes of one wake-up as a single coalesced motion frame.
func (d *Device) RelEvents(axis []uint16, value []int32) error {
	for i := range axis {
		if err := d.write(evRel, axis[i], value[i]); err != nil {
			return err
		}
	}
	return d.syn()
}

func (d *Device) syn() error {
	return writeEvent(d.file, evSyn, synReport, 0)
}

func (d *Device) write(evType, code uint16, value int32) error {
	return writeEvent(d.file, evType, code, value)
}

// writeEvent writes one input_event to file. Shared by Device and
// TabletDevice: both are plain uinput character devices once created.
func writeEvent(file *os.File, evType, code uint16, value int32) error {
	now := time.Now()
	ev := inputEvent{
		Sec:   now.Unix(),
		Usec:  int64(now.Nanosecond() / 1000),
		Type:  evType,
		Code:  code,
		Value: value,
	}
	buf := make([]byte, unsafe.Sizeof(ev))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ev.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ev.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))

	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("writing input_event: %w", err)
	}
	return nil
}

// Close destroys the virtual device and releases its file descriptor.
func (d *Device) Close() error {
	return uinputDestroyDevice(d.file)
}

func uinputDestroyDevice(file *os.File) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uiDevDestroy, 0)
	closeErr := file.Close()
	if errno != 0 {
		return fmt.Errorf("UI_DEV_DESTROY: %w", errno)
	}
	return closeErr
}
