package uinputdevice

// uinput ioctl request codes, from linux/uinput.h. These aren't exposed by
// golang.org/x/sys/unix, so they're derived here the same way
// internal/device's capability probe derives EVIOCGBIT: _IOC(dir, type,
// nr, size) encoded by hand.
const (
	iocNrUIDevCreate  = 1
	iocNrUIDevDestroy = 2
	iocNrUIDevSetup   = 3
	iocNrUIAbsSetup   = 4
	iocNrUISetEVBit   = 100
	iocNrUISetKeyBit  = 101
	iocNrUISetRelBit  = 102
	iocNrUISetAbsBit  = 103
	iocNrUISetMscBit  = 104
	iocNrUISetPropBit = 110
)

const (
	iocNone  = 0
	iocWrite = 1
	iocType  = 'U'

	intSize = 4 // sizeof(int), the argument type of every UI_SET_*BIT
)

func ioc(dir, nr, size uintptr) uintptr {
	return (dir << 30) | (size << 16) | (uintptr(iocType) << 8) | nr
}

var (
	uiDevCreate  = ioc(iocNone, iocNrUIDevCreate, 0)
	uiDevDestroy = ioc(iocNone, iocNrUIDevDestroy, 0)
	uiSetEVBit   = ioc(iocWrite, iocNrUISetEVBit, intSize)
	uiSetKeyBit  = ioc(iocWrite, iocNrUISetKeyBit, intSize)
	uiSetRelBit  = ioc(iocWrite, iocNrUISetRelBit, intSize)
	uiSetAbsBit  = ioc(iocWrite, iocNrUISetAbsBit, intSize)
	uiSetMscBit  = ioc(iocWrite, iocNrUISetMscBit, intSize)
	uiSetPropBit = ioc(iocWrite, iocNrUISetPropBit, intSize)
)

// uiDevSetup's ioctl number is parameterized by the size of uinputSetup,
// computed in device.go where that type is defined.
func uiDevSetupCmd(size uintptr) uintptr {
	return ioc(iocWrite, iocNrUIDevSetup, size)
}

// uiAbsSetupCmd's ioctl number is parameterized by the size of
// uinputAbsSetup, computed in tablet.go where that type is defined.
func uiAbsSetupCmd(size uintptr) uintptr {
	return ioc(iocWrite, iocNrUIAbsSetup, size)
}
