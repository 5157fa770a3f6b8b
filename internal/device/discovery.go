// Package device discovers, grabs, and reads evdev character devices, and
// drives the hot-plug/config-reload watchers, per spec.md §4.8 and §6.
package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gvalkov/golang-evdev"

	"github.com/xremap-go/xremap/internal/logger"
)

// ownDevicePrefix and ownTabletDevicePrefix are the name prefixes
// internal/uinputdevice gives its two virtual devices; discovery must
// never re-grab either as an input source.
const (
	ownDevicePrefix       = "xremap pid="
	ownTabletDevicePrefix = "xremap tablet pid="
)

// Candidate describes one enumerated /dev/input/event* node before
// selection filtering.
type Candidate struct {
	Path string
	Name string
	dev  *evdev.InputDevice
}

// Enumerate opens every /dev/input/event* node once to read its name and
// capabilities, used both for selection and for printing the device list
// spec.md §6 asks the CLI to show on startup.
func Enumerate() ([]Candidate, error) {
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("listing input devices: %w", err)
	}

	out := make([]Candidate, 0, len(devices))
	for _, d := range devices {
		out = append(out, Candidate{Path: d.Fn, Name: d.Name, dev: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// isOwnDevice reports whether c is this process's own virtual output
// device, by name prefix (the pid suffix makes an exact match pointless
// across restarts, but the prefix alone is enough to never regrab it).
func (c Candidate) isOwnDevice() bool {
	return strings.HasPrefix(c.Name, ownDevicePrefix) || strings.HasPrefix(c.Name, ownTabletDevicePrefix)
}

// matches reports whether c matches any selector in filter: an exact path
// or device-name match, the eventNN shorthand for /dev/input/eventNN, or
// a substring of the device name.
func (c Candidate) matches(filter []string) bool {
	for _, sel := range filter {
		if c.Path == sel || c.Name == sel {
			return true
		}
		if strings.HasPrefix(sel, "event") && strings.HasSuffix(c.Path, "/"+sel) {
			return true
		}
		if strings.Contains(c.Name, sel) {
			return true
		}
	}
	return false
}

// isKeyboard reports whether c looks like a keyboard: it reports the
// alphabet range and space, and isn't also a mouse (xkeysnail's
// heuristic, carried from original_source/src/device.rs's is_keyboard).
func (c Candidate) isKeyboard() bool {
	keyCodes, ok := c.dev.CapabilitiesFlat[evdev.EV_KEY]
	if !ok {
		return false
	}
	var hasSpace, hasA, hasZ, hasBtnLeft bool
	for _, k := range keyCodes {
		switch k {
		case evdev.KEY_SPACE:
			hasSpace = true
		case evdev.KEY_A:
			hasA = true
		case evdev.KEY_Z:
			hasZ = true
		case evdev.BTN_LEFT:
			hasBtnLeft = true
		}
	}
	return hasSpace && hasA && hasZ && !hasBtnLeft
}

// isMouse reports whether c reports BTN_LEFT, the xkeysnail/original
// heuristic for "has mouse buttons".
func (c Candidate) isMouse() bool {
	keyCodes, ok := c.dev.CapabilitiesFlat[evdev.EV_KEY]
	if !ok {
		return false
	}
	for _, k := range keyCodes {
		if k == evdev.BTN_LEFT {
			return true
		}
	}
	return false
}

// isTablet reports whether c looks like a graphics tablet: it reports
// both ABS_X and ABS_Y, and the two key capabilities every stylus
// reports (xkeysnail/original_source/src/device.rs's is_tablet).
// Tablets are never auto-selected (see Select) — like the original
// tool, remapping one requires naming it explicitly via --device.
func (c Candidate) isTablet() bool {
	absCodes, ok := c.dev.CapabilitiesFlat[evdev.EV_ABS]
	if !ok {
		return false
	}
	var hasAbsX, hasAbsY bool
	for _, a := range absCodes {
		switch a {
		case evdev.ABS_X:
			hasAbsX = true
		case evdev.ABS_Y:
			hasAbsY = true
		}
	}
	if !hasAbsX || !hasAbsY {
		return false
	}

	keyCodes, ok := c.dev.CapabilitiesFlat[evdev.EV_KEY]
	if !ok {
		return false
	}
	var hasToolPen, hasTouch bool
	for _, k := range keyCodes {
		switch k {
		case evdev.BTN_TOOL_PEN:
			hasToolPen = true
		case evdev.BTN_TOUCH:
			hasTouch = true
		}
	}
	return hasToolPen && hasTouch
}

// Select filters Enumerate's output down to the devices the process
// should grab, per spec.md §6: explicit --device selectors if given
// (minus --ignore matches), else an automatic keyboard (+ mouse if
// mouseAlso) selection, always excluding the process's own virtual
// device.
func Select(candidates []Candidate, deviceOpts, ignoreOpts []string, mouseAlso bool) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.isOwnDevice() {
			continue
		}
		if len(ignoreOpts) > 0 && c.matches(ignoreOpts) {
			continue
		}

		var want bool
		if len(deviceOpts) > 0 {
			want = c.matches(deviceOpts)
		} else {
			want = c.isKeyboard() || (mouseAlso && c.isMouse())
		}
		if want {
			out = append(out, c)
		}
	}
	return out
}

// PrintList logs the enumerated device list the way the original tool
// does on startup, for operators choosing --device selectors.
func PrintList(candidates []Candidate) {
	logger.Info("available input devices")
	for _, c := range candidates {
		logger.Infof("  %-24s %s", c.Path, c.Name)
	}
}
