package uinputdevice

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Opening the real device requires /dev/uinput and CAP_SYS_ADMIN, so these
// tests only cover the parts that don't need a kernel device: the ioctl
// number derivation and the wire encoding of input_event.

func TestIoctlNumbersAreDistinct(t *testing.T) {
	seen := map[uintptr]string{
		uiDevCreate:  "UI_DEV_CREATE",
		uiDevDestroy: "UI_DEV_DESTROY",
		uiSetEVBit:   "UI_SET_EVBIT",
		uiSetKeyBit:  "UI_SET_KEYBIT",
		uiSetRelBit:  "UI_SET_RELBIT",
	}
	require.Len(t, seen, 5)
}

func TestUIDevSetupCmdEncodesSize(t *testing.T) {
	small := uiDevSetupCmd(4)
	large := uiDevSetupCmd(8)
	require.NotEqual(t, small, large)

	// direction bits must mark this as a write ioctl.
	require.Equal(t, uintptr(iocWrite), (small>>30)&0x3)
}

func TestWriteEncodesLittleEndianInputEvent(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	d := &Device{file: w}
	require.NoError(t, d.write(evKey, 30, 1))
	w.Close()

	buf := make([]byte, 24)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)

	require.Equal(t, uint16(evKey), uint16(buf[16])|uint16(buf[17])<<8)
	require.Equal(t, uint16(30), uint16(buf[18])|uint16(buf[19])<<8)
	require.Equal(t, int32(1), int32(uint32(buf[20])|uint32(buf[21])<<8|uint32(buf[22])<<16|uint32(buf[23])<<24))
}
