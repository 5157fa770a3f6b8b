package device

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/gvalkov/golang-evdev"

	"github.com/xremap-go/xremap/internal/handler"
	"github.com/xremap-go/xremap/internal/keys"
)

// Source is one grabbed input device, read from its own goroutine and fed
// into the main loop's event channel.
type Source struct {
	Path string
	Name string
	dev  *evdev.InputDevice
}

// Open opens and exclusively grabs the device at path (EVIOCGRAB via the
// evdev library's Grab), per spec.md §6's "exclusive grab" contract: once
// grabbed, no other process observes this device's events until Close.
func Open(path string) (*Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		dev.File.Close()
		return nil, fmt.Errorf("grabbing %s: %w", path, err)
	}
	return &Source{Path: path, Name: dev.Name, dev: dev}, nil
}

// ErrDeviceGone distinguishes a device physically removed mid-read
// (ENODEV) from other I/O errors, per spec.md §7: the former triggers a
// reselect pass (Loop.handleSourceError) rather than a fatal exit.
var ErrDeviceGone = errors.New("input device gone")

// Read blocks for the next batch of raw events from the device, coalesced
// the way evdev.Read() returns anything queued at the kernel between two
// SYN_REPORT boundaries. Key and relative-axis events are translated to
// handler.Event; anything else (EV_SYN, EV_MSC, LED feedback) is dropped.
func (s *Source) Read() ([]handler.Event, error) {
	raw, err := s.dev.Read()
	if err != nil {
		if errors.Is(err, syscall.ENODEV) {
			return nil, ErrDeviceGone
		}
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	var out []handler.Event
	for _, ev := range raw {
		switch ev.Type {
		case evdev.EV_KEY:
			out = append(out, handler.NewKeyEvent(keys.KeyCode(ev.Code), keys.Value(ev.Value)))
		case evdev.EV_REL:
			out = append(out, handler.NewRelativeEvent(keys.RelAxis(ev.Code), ev.Value))
		case evdev.EV_ABS:
			out = append(out, handler.NewAbsoluteEvent(uint16(ev.Code), ev.Value))
		}
	}
	return out, nil
}

// Fd exposes the underlying file descriptor for the main loop's poll set.
func (s *Source) Fd() uintptr {
	return s.dev.File.Fd()
}

// Close ungrabs and closes the device.
func (s *Source) Close() error {
	if err := s.dev.Release(); err != nil {
		return fmt.Errorf("releasing grab on %s: %w", s.Path, err)
	}
	return s.dev.File.Close()
}
