// Package handler implements the event translation core: modifier
// tracking, modmap/keymap resolution, nested override dispatch, modifier
// shadowing, and mouse-motion batching. It is the direct analogue of
// spec.md §4.4–§4.7.
package handler

import "github.com/xremap-go/xremap/internal/keys"

// EventKind discriminates the variants of a raw input Event.
type EventKind int

const (
	EventKey EventKind = iota
	EventRelative
	EventAbsolute
)

// Event is a single raw input sample, as read from a grabbed device
// before any translation.
type Event struct {
	Kind EventKind

	Key   keys.KeyCode
	Value keys.Value

	Axis     keys.RelAxis
	RelValue int32

	// AbsAxis/AbsValue hold an EventAbsolute sample: a raw linux ABS_*
	// code (not a keys.RelAxis — ABS and REL are separate code spaces)
	// and its value, read from a tablet source. See spec.md's Non-goals
	// on ABS passthrough.
	AbsAxis  uint16
	AbsValue int32
}

func NewKeyEvent(key keys.KeyCode, value keys.Value) Event {
	return Event{Kind: EventKey, Key: key, Value: value}
}

func NewRelativeEvent(axis keys.RelAxis, value int32) Event {
	return Event{Kind: EventRelative, Axis: axis, RelValue: value}
}

func NewAbsoluteEvent(axis uint16, value int32) Event {
	return Event{Kind: EventAbsolute, AbsAxis: axis, AbsValue: value}
}
