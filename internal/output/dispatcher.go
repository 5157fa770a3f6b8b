// Package output turns the handler's Action stream into real input_event
// writes on the synthetic uinput device, per spec.md §4.6.
package output

import (
	"fmt"
	"time"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/keys"
	"github.com/xremap-go/xremap/internal/logger"
)

// Device is the subset of *uinputdevice.Device the dispatcher needs,
// narrowed to an interface so it can be driven by a fake in tests.
type Device interface {
	KeyEvent(key keys.KeyCode, value keys.Value) error
	RelEvents(axis []uint16, value []int32) error
}

// TabletDevice is the subset of *uinputdevice.TabletDevice the
// dispatcher needs to forward ABS passthrough samples. It is set only
// once internal/device/loop.go has grabbed a tablet-classified source;
// until then KindAbsoluteEvent actions are dropped (logged once).
type TabletDevice interface {
	AbsEvent(axis uint16, value int32) error
}

// Dispatcher writes a Handler's Action stream to a Device in order,
// translating the handful of non-key action kinds (delay, mouse batch,
// with-mark expansion) into their wire form. SetMode/SetMark/
// EscapeNextKey/Launch carry no output of their own beyond the handler
// having already acted on them — they pass through here only as no-ops;
// SetMode and SetMark are logged at debug level for observability.
type Dispatcher struct {
	dev    Device
	tablet TabletDevice // nil until a tablet source is grabbed
	sleep  func(time.Duration)

	warnedNoTablet bool

	// pressed tracks every key this dispatcher has written a Press for
	// and not yet written a matching Release, so ReleaseAll can
	// synthesize the releases spec.md §4.6's "terminal releases"
	// invariant requires on config reload and shutdown.
	pressed map[keys.KeyCode]bool
}

// New wraps dev for dispatch.
func New(dev Device) *Dispatcher {
	return &Dispatcher{dev: dev, sleep: time.Sleep, pressed: make(map[keys.KeyCode]bool)}
}

// SetTabletDevice installs the tablet output device once
// internal/device/loop.go has opened one, so subsequent
// KindAbsoluteEvent actions have somewhere to go.
func (d *Dispatcher) SetTabletDevice(tablet TabletDevice) {
	d.tablet = tablet
}

// Dispatch writes every action in order, stopping and returning the first
// write error (a uinput write failure is the one case in this system that
// bubbles up as an error per spec.md §7).
func (d *Dispatcher) Dispatch(actions []action.Action) error {
	for _, a := range actions {
		if err := d.dispatchOne(a); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll synthesizes a Release for every key currently tracked as
// pressed, per spec.md §4.6's terminal-releases requirement: a physical
// key held through a config reload or process shutdown must never get
// stuck down on the synthetic device. Callers are internal/device.Loop's
// reloadConfig (before installing the new config) and its shutdown path.
func (d *Dispatcher) ReleaseAll() error {
	for key := range d.pressed {
		if err := d.keyEvent(key, keys.Release); err != nil {
			return err
		}
	}
	return nil
}

// keyEvent writes a key event to the device and updates pressed so
// ReleaseAll stays accurate. Every write of a KindKeyEvent action, and
// every press/release dispatchWithMark performs, must go through this
// rather than d.dev.KeyEvent directly.
func (d *Dispatcher) keyEvent(key keys.KeyCode, value keys.Value) error {
	if err := d.dev.KeyEvent(key, value); err != nil {
		return err
	}
	switch value {
	case keys.Press:
		d.pressed[key] = true
	case keys.Release:
		delete(d.pressed, key)
	}
	return nil
}

func (d *Dispatcher) dispatchOne(a action.Action) error {
	switch a.Kind {
	case action.KindKeyEvent:
		return d.keyEvent(a.Key.Key, a.Key.Value)
	case action.KindDelay:
		if a.Delay > 0 {
			d.sleep(a.Delay)
		}
		return nil
	case action.KindMouseMovement:
		return d.dispatchMouseMovement(a.Motions)
	case action.KindAbsoluteEvent:
		return d.dispatchAbsoluteEvent(a.AbsAxis, a.AbsValue)
	case action.KindWithMark:
		return d.dispatchWithMark(a.WithKey)
	case action.KindSetMode:
		logger.Debugf("mode changed to %s", a.Mode)
		return nil
	case action.KindSetMark:
		logger.Debugf("mark set to %t", a.Mark)
		return nil
	case action.KindEscapeNextKey:
		return nil
	case action.KindLaunch:
		// The handler has already spawned the process synchronously; this
		// action is dispatched for observability only.
		return nil
	default:
		return fmt.Errorf("unhandled action kind %s", a.Kind)
	}
}

// dispatchMouseMovement writes every axis sample of one HandleEvents batch
// as a single uinput submission, so the kernel (and anything reading the
// device) observes one coalesced motion frame per spec.md §4.6/§9, never
// an interleaving of this batch's axes with a later one's.
func (d *Dispatcher) dispatchMouseMovement(motions []action.RelMotion) error {
	if len(motions) == 0 {
		return nil
	}
	axes := make([]uint16, len(motions))
	values := make([]int32, len(motions))
	for i, m := range motions {
		axes[i] = uint16(m.Axis)
		values[i] = m.Value
	}
	return d.dev.RelEvents(axes, values)
}

// dispatchAbsoluteEvent forwards one ABS sample to the tablet device
// unmodified. If no tablet device has been opened yet (no tablet source
// has been grabbed), the sample is dropped; this is logged once rather
// than per-sample to avoid flooding the log on a tablet whose
// EV_ABS-producing source was never selected for grab.
func (d *Dispatcher) dispatchAbsoluteEvent(axis uint16, value int32) error {
	if d.tablet == nil {
		if !d.warnedNoTablet {
			logger.Warnf("dropping ABS samples: no tablet output device open")
			d.warnedNoTablet = true
		}
		return nil
	}
	return d.tablet.AbsEvent(axis, value)
}

// dispatchWithMark expands a resolved KeyPress into a concrete chord:
// press every required modifier, press and release the key, then release
// the modifiers in reverse order. kp.Modifiers already has mark's Shift
// augmentation folded in by the handler (see internal/handler/dispatch.go
// executeKeymapAction), so the dispatcher does no modifier-state bookkeeping
// of its own here.
func (d *Dispatcher) dispatchWithMark(kp keys.KeyPress) error {
	var pressed []keys.KeyCode
	for _, m := range modifierOrder {
		side, ok := kp.Modifiers[m]
		if !ok {
			continue
		}
		if side == keys.SideEither {
			side = keys.SideLeft
		}
		key := keyForSide(m, side)
		if err := d.keyEvent(key, keys.Press); err != nil {
			return err
		}
		pressed = append(pressed, key)
	}

	if err := d.keyEvent(kp.Key, keys.Press); err != nil {
		return err
	}
	if err := d.keyEvent(kp.Key, keys.Release); err != nil {
		return err
	}

	for i := len(pressed) - 1; i >= 0; i-- {
		if err := d.keyEvent(pressed[i], keys.Release); err != nil {
			return err
		}
	}
	return nil
}

var modifierOrder = []keys.Modifier{keys.ModShift, keys.ModControl, keys.ModAlt, keys.ModSuper}

func keyForSide(m keys.Modifier, side keys.Side) keys.KeyCode {
	if side == keys.SideRight {
		return keys.RightKeyFor(m)
	}
	return keys.LeftKeyFor(m)
}
