package uinputdevice

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/xremap-go/xremap/internal/keys"
)

// Tablet-specific event type/code constants, from linux/input-event-codes.h.
// These aren't declared alongside evKey/evRel above because only
// TabletDevice ever sets them.
const (
	evAbs = 0x03
	evMsc = 0x04

	mscScan = 0x04

	absX        = 0x00
	absY        = 0x01
	absPressure = 0x18
	absTiltX    = 0x1a
	absTiltY    = 0x1b

	propPointer = 0x00 // INPUT_PROP_POINTER
)

// tabletBtns mirrors original_source/src/device.rs's TABLET_BTNS exactly:
// the stylus tool/button codes plus BTN_0..BTN_9, a much narrower set than
// the full KEY_* sweep Device.setBits declares for the combined device.
var tabletBtns = []uint16{
	uint16(keys.BtnToolPen),
	uint16(keys.BtnToolAirbrush),
	uint16(keys.BtnToolBrush),
	uint16(keys.BtnToolPencil),
	uint16(keys.BtnTouch),
	uint16(keys.BtnStylus),
	uint16(keys.BtnStylus2),
	0x100, 0x101, 0x102, 0x103, 0x104, 0x105, 0x106, 0x107, 0x108, 0x109, // BTN_0..BTN_9
}

// inputAbsInfo mirrors linux/input.h's struct input_absinfo.
type inputAbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// uinputAbsSetup mirrors linux/uinput.h's struct uinput_abs_setup. The
// two bytes after Code are required padding: absinfo is a run of __s32
// fields and the C struct aligns it to a 4-byte boundary.
type uinputAbsSetup struct {
	Code    uint16
	_       uint16
	AbsInfo inputAbsInfo
}

// tabletAxisDefaults gives every ABS axis the tablet device declares an
// input_absinfo. original_source/src/config/absconfig.rs (the source of
// the original tool's per-tablet axis ranges) isn't present in this
// retrieval pack, so these are generic Wacom-class defaults rather than
// values ported from the original: 0-32767 for X/Y, a signed +/-64 tilt
// range, and 0-2047 pressure are the commonly documented ranges for this
// class of device. A real deployment calibrating against one exact model
// would want these sourced from the physical device instead; see
// DESIGN.md.
var tabletAxisDefaults = []struct {
	code uint16
	info inputAbsInfo
}{
	{absX, inputAbsInfo{Minimum: 0, Maximum: 32767, Resolution: 100}},
	{absY, inputAbsInfo{Minimum: 0, Maximum: 32767, Resolution: 100}},
	{absTiltX, inputAbsInfo{Minimum: -64, Maximum: 63}},
	{absTiltY, inputAbsInfo{Minimum: -64, Maximum: 63}},
	{absPressure, inputAbsInfo{Minimum: 0, Maximum: 2047}},
}

// TabletDevice is the second synthetic device spec.md §6 names: a
// distinct EV_ABS-capable device ("xremap tablet pid=<pid>") carrying
// stylus position/tilt/pressure samples verbatim, never through the
// modmap/keymap translation the combined Device's KEY/REL stream goes
// through (spec.md's Non-goals: "ABS is passed through for tablets").
// It is opened lazily, the first time internal/device/loop.go grabs a
// source internal/device's isTablet classifies as a tablet.
type TabletDevice struct {
	file *os.File
}

// OpenTablet creates and registers the tablet uinput device. busType
// should be the bus type of the grabbed tablet source per spec.md §6's
// "bus type inherited from a representative grabbed device"; callers
// with nothing better fall back to busUSB, original_source/device.rs's
// own default.
func OpenTablet(busType uint16) (*TabletDevice, error) {
	file, err := os.OpenFile(uinputPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", uinputPath, err)
	}

	t := &TabletDevice{file: file}
	if err := t.setBits(); err != nil {
		file.Close()
		return nil, err
	}
	if err := uinputSetupDevice(file, fmt.Sprintf("xremap tablet pid=%d", os.Getpid()), busType); err != nil {
		file.Close()
		return nil, err
	}
	if err := uinputCreateDevice(file); err != nil {
		file.Close()
		return nil, err
	}
	return t, nil
}

func (t *TabletDevice) setBits() error {
	for _, bit := range []int{evKey, evAbs, evMsc} {
		if err := ioctlInt(t.file, uiSetEVBit, bit); err != nil {
			return fmt.Errorf("UI_SET_EVBIT %d: %w", bit, err)
		}
	}
	for _, code := range tabletBtns {
		if err := ioctlInt(t.file, uiSetKeyBit, int(code)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}
	if err := ioctlInt(t.file, uiSetMscBit, mscScan); err != nil {
		return fmt.Errorf("UI_SET_MSCBIT MSC_SCAN: %w", err)
	}
	if err := ioctlInt(t.file, uiSetPropBit, propPointer); err != nil {
		return fmt.Errorf("UI_SET_PROPBIT INPUT_PROP_POINTER: %w", err)
	}
	for _, axis := range tabletAxisDefaults {
		if err := ioctlInt(t.file, uiSetAbsBit, int(axis.code)); err != nil {
			return fmt.Errorf("UI_SET_ABSBIT %d: %w", axis.code, err)
		}
		if err := t.absSetup(axis.code, axis.info); err != nil {
			return err
		}
	}
	return nil
}

func (t *TabletDevice) absSetup(code uint16, info inputAbsInfo) error {
	setup := uinputAbsSetup{Code: code, AbsInfo: info}
	cmd := uiAbsSetupCmd(unsafe.Sizeof(setup))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, t.file.Fd(), cmd, uintptr(unsafe.Pointer(&setup))) //nolint:gosec // required for ioctl syscall
	if errno != 0 {
		return fmt.Errorf("UI_ABS_SETUP code %d: %w", code, errno)
	}
	return nil
}

// AbsEvent writes a single EV_ABS sample followed by its SYN_REPORT. It
// is a pure passthrough write: the caller (internal/output.Dispatcher)
// never remaps an axis value, only forwards it.
func (t *TabletDevice) AbsEvent(axis uint16, value int32) error {
	if err := writeEvent(t.file, evAbs, axis, value); err != nil {
		return err
	}
	return writeEvent(t.file, evSyn, synReport, 0)
}

// Close destroys the tablet virtual device and releases its descriptor.
func (t *TabletDevice) Close() error {
	return uinputDestroyDevice(t.file)
}
