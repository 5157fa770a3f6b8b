// Package action defines the closed vocabulary of actions the translation
// handler emits and the output dispatcher consumes. An Action is a tagged
// union: exactly one of its typed fields is populated, selected by Kind.
package action

import (
	"fmt"
	"time"

	"github.com/xremap-go/xremap/internal/keys"
)

// Kind discriminates the variant held by an Action.
type Kind int

const (
	KindKeyEvent Kind = iota
	KindDelay
	KindSetMode
	KindSetMark
	KindWithMark
	KindEscapeNextKey
	KindLaunch
	KindMouseMovement
	KindAbsoluteEvent
)

func (k Kind) String() string {
	switch k {
	case KindKeyEvent:
		return "key_event"
	case KindDelay:
		return "delay"
	case KindSetMode:
		return "set_mode"
	case KindSetMark:
		return "set_mark"
	case KindWithMark:
		return "with_mark"
	case KindEscapeNextKey:
		return "escape_next_key"
	case KindLaunch:
		return "launch"
	case KindMouseMovement:
		return "mouse_movement"
	case KindAbsoluteEvent:
		return "absolute_event"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KeyEvent carries a single key press/release/repeat.
type KeyEvent struct {
	Key   keys.KeyCode
	Value keys.Value
}

// RelMotion is one axis sample inside a MouseMovementEventCollection.
type RelMotion struct {
	Axis  keys.RelAxis
	Value int32
}

// Action is a single emitted step of the translation pipeline. Construct
// one with the matching New* function rather than populating fields
// directly.
type Action struct {
	Kind Kind

	Key     KeyEvent // KindKeyEvent
	Delay   time.Duration
	Mode    string // KindSetMode
	Mark    bool   // KindSetMark, KindEscapeNextKey
	WithKey keys.KeyPress // KindWithMark: the chord to expand, Shift-augmented if mark_set
	Command []string      // KindLaunch

	Motions []RelMotion // KindMouseMovement

	// AbsAxis/AbsValue carry one EV_ABS sample (KindAbsoluteEvent),
	// forwarded verbatim from a grabbed tablet source: per spec.md's
	// Non-goals, ABS is passed through for tablets, never remapped, so
	// unlike KeyEvent there is no modifier/chord resolution upstream of
	// this action.
	AbsAxis  uint16
	AbsValue int32
}

func NewKeyEvent(key keys.KeyCode, value keys.Value) Action {
	return Action{Kind: KindKeyEvent, Key: KeyEvent{Key: key, Value: value}}
}

func NewDelay(d time.Duration) Action {
	return Action{Kind: KindDelay, Delay: d}
}

func NewSetMode(mode string) Action {
	return Action{Kind: KindSetMode, Mode: mode}
}

func NewSetMark(set bool) Action {
	return Action{Kind: KindSetMark, Mark: set}
}

func NewWithMark(kp keys.KeyPress) Action {
	return Action{Kind: KindWithMark, WithKey: kp}
}

func NewEscapeNextKey(set bool) Action {
	return Action{Kind: KindEscapeNextKey, Mark: set}
}

func NewLaunch(command ...string) Action {
	return Action{Kind: KindLaunch, Command: command}
}

func NewMouseMovement(motions ...RelMotion) Action {
	return Action{Kind: KindMouseMovement, Motions: motions}
}

func NewAbsoluteEvent(axis uint16, value int32) Action {
	return Action{Kind: KindAbsoluteEvent, AbsAxis: axis, AbsValue: value}
}

func (a Action) String() string {
	switch a.Kind {
	case KindKeyEvent:
		return fmt.Sprintf("KeyEvent(%d, %s)", a.Key.Key, a.Key.Value)
	case KindDelay:
		return fmt.Sprintf("Delay(%s)", a.Delay)
	case KindSetMode:
		return fmt.Sprintf("SetMode(%s)", a.Mode)
	case KindSetMark:
		return fmt.Sprintf("SetMark(%t)", a.Mark)
	case KindWithMark:
		return fmt.Sprintf("WithMark(%s)", a.WithKey)
	case KindEscapeNextKey:
		return "EscapeNextKey"
	case KindLaunch:
		return fmt.Sprintf("Launch(%v)", a.Command)
	case KindMouseMovement:
		return fmt.Sprintf("MouseMovement(%d axes)", len(a.Motions))
	case KindAbsoluteEvent:
		return fmt.Sprintf("AbsoluteEvent(%d, %d)", a.AbsAxis, a.AbsValue)
	default:
		return a.Kind.String()
	}
}
