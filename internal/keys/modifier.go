package keys

import "fmt"

// Modifier is a logical modifier, independent of which physical side is
// held.
type Modifier int

const (
	ModShift Modifier = iota
	ModControl
	ModAlt
	ModSuper
)

func (m Modifier) String() string {
	switch m {
	case ModShift:
		return "Shift"
	case ModControl:
		return "Control"
	case ModAlt:
		return "Alt"
	case ModSuper:
		return "Super"
	default:
		return fmt.Sprintf("Modifier(%d)", int(m))
	}
}

// Side is the physical variant of a modifier a chord requires or emits.
type Side int

const (
	SideEither Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	default:
		return "Either"
	}
}

// LeftKeyFor and RightKeyFor return the physical key code for a logical
// modifier's left/right variant. Super maps to KeyLeftMeta/KeyRightMeta.
func LeftKeyFor(m Modifier) KeyCode {
	switch m {
	case ModShift:
		return KeyLeftShift
	case ModControl:
		return KeyLeftCtrl
	case ModAlt:
		return KeyLeftAlt
	case ModSuper:
		return KeyLeftMeta
	default:
		return KeyReserved
	}
}

func RightKeyFor(m Modifier) KeyCode {
	switch m {
	case ModShift:
		return KeyRightShift
	case ModControl:
		return KeyRightCtrl
	case ModAlt:
		return KeyRightAlt
	case ModSuper:
		return KeyRightMeta
	default:
		return KeyReserved
	}
}

// ModifierForKey reports the logical modifier (and side) a physical key
// code represents, if any.
func ModifierForKey(key KeyCode) (m Modifier, side Side, ok bool) {
	switch key {
	case KeyLeftShift:
		return ModShift, SideLeft, true
	case KeyRightShift:
		return ModShift, SideRight, true
	case KeyLeftCtrl:
		return ModControl, SideLeft, true
	case KeyRightCtrl:
		return ModControl, SideRight, true
	case KeyLeftAlt:
		return ModAlt, SideLeft, true
	case KeyRightAlt:
		return ModAlt, SideRight, true
	case KeyLeftMeta:
		return ModSuper, SideLeft, true
	case KeyRightMeta:
		return ModSuper, SideRight, true
	default:
		return 0, SideEither, false
	}
}

// ModifierKeyPress pairs a logical modifier with the side a chord
// requires or an emission should prefer.
type ModifierKeyPress struct {
	Modifier Modifier
	Side     Side
}

// ModifierSet is the set of logical modifiers a chord requires, each with
// its required side. Order is insignificant; equality compares as sets.
type ModifierSet map[Modifier]Side

// NewModifierSet builds a ModifierSet from a list of (modifier, side) pairs.
func NewModifierSet(pairs ...ModifierKeyPress) ModifierSet {
	set := make(ModifierSet, len(pairs))
	for _, p := range pairs {
		set[p.Modifier] = p.Side
	}
	return set
}

// Equal reports whether s and other require exactly the same modifiers
// with the same sides.
func (s ModifierSet) Equal(other ModifierSet) bool {
	if len(s) != len(other) {
		return false
	}
	for m, side := range s {
		if other[m] != side {
			return false
		}
	}
	return true
}

// IsSubsetOf reports whether every modifier in s is also required (with a
// compatible side) by held.
func (s ModifierSet) IsSubsetOf(held PressedModifiers) bool {
	for m, side := range s {
		if !held.Satisfies(m, side) {
			return false
		}
	}
	return true
}

// PressedModifiers tracks which physical modifier keys the handler
// believes are currently held, per logical modifier and side.
type PressedModifiers map[Modifier]map[Side]bool

// NewPressedModifiers returns an empty tracker.
func NewPressedModifiers() PressedModifiers {
	return make(PressedModifiers)
}

// Press records that the given physical side of a modifier is held.
func (p PressedModifiers) Press(m Modifier, side Side) {
	if p[m] == nil {
		p[m] = make(map[Side]bool, 2)
	}
	p[m][side] = true
}

// Release records that the given physical side of a modifier is no
// longer held.
func (p PressedModifiers) Release(m Modifier, side Side) {
	if p[m] == nil {
		return
	}
	delete(p[m], side)
	if len(p[m]) == 0 {
		delete(p, m)
	}
}

// Held reports whether either side of m is currently pressed.
func (p PressedModifiers) Held(m Modifier) bool {
	return len(p[m]) > 0
}

// HeldSide reports whether the specific side of m is pressed.
func (p PressedModifiers) HeldSide(m Modifier, side Side) bool {
	return p[m] != nil && p[m][side]
}

// Satisfies reports whether the held state satisfies a chord's
// requirement of modifier m on the given side: Either matches if any
// side is held, Left/Right match only that exact side.
func (p PressedModifiers) Satisfies(m Modifier, side Side) bool {
	switch side {
	case SideLeft:
		return p.HeldSide(m, SideLeft)
	case SideRight:
		return p.HeldSide(m, SideRight)
	default:
		return p.Held(m)
	}
}

// AsSet snapshots the currently held modifiers as a ModifierSet: SideLeft
// or SideRight for a modifier held on only that side, SideEither for one
// held on both sides.
func (p PressedModifiers) AsSet() ModifierSet {
	set := make(ModifierSet, len(p))
	for m, sides := range p {
		if len(sides) == 0 {
			continue
		}
		if sides[SideLeft] && sides[SideRight] {
			set[m] = SideEither
		} else if sides[SideLeft] {
			set[m] = SideLeft
		} else if sides[SideRight] {
			set[m] = SideRight
		}
	}
	return set
}

// PreferredSide returns the side to use when emitting a press for
// modifier m: the side currently held, if any, else Left.
func (p PressedModifiers) PreferredSide(m Modifier) Side {
	if p.HeldSide(m, SideLeft) {
		return SideLeft
	}
	if p.HeldSide(m, SideRight) {
		return SideRight
	}
	return SideLeft
}

// KeyPress is a trigger: a key code plus the modifier set required to be
// held for it to match.
type KeyPress struct {
	Key       KeyCode
	Modifiers ModifierSet
}

func (kp KeyPress) String() string {
	return fmt.Sprintf("KeyPress{key=%d, mods=%v}", kp.Key, kp.Modifiers)
}
