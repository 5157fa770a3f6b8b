package handler

import (
	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/keys"
)

// modifierOrder fixes the iteration order used whenever a ModifierSet is
// walked to emit actions, so the action stream is deterministic.
var modifierOrder = []keys.Modifier{keys.ModShift, keys.ModControl, keys.ModAlt, keys.ModSuper}

func orderedModifiers(set keys.ModifierSet) []keys.Modifier {
	var out []keys.Modifier
	for _, m := range modifierOrder {
		if _, ok := set[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func sideKeyFor(m keys.Modifier, side keys.Side) keys.KeyCode {
	if side == keys.SideRight {
		return keys.RightKeyFor(m)
	}
	return keys.LeftKeyFor(m)
}

type modKeyPair struct {
	mod  keys.Modifier
	side keys.Side
	key  keys.KeyCode
}

// dispatchEntry executes a matched KeymapEntry's action list, per
// spec.md §4.5: augment modifiers the actions require but aren't
// currently held (checked against actual physical state, so a modifier
// already down from an outer prefix is never re-pressed), shadow
// (release) modifiers the matched chord itself declared that are both
// actually held and not also needed by the action, run the actions,
// then restore in reverse: re-press shadowed modifiers, delay, release
// augmented modifiers. An incidentally-held modifier the chord never
// declared is never shadowed.
func (h *Handler) dispatchEntry(entry *config.KeymapEntry) []action.Action {
	consumed := entry.Modifiers
	required := unionModifiers(entry.Actions, h.markSet)

	var out []action.Action

	// Augment whatever the action needs that isn't already physically
	// held, regardless of whether the matched chord itself declared it.
	var augmented []modKeyPair
	for _, m := range orderedModifiers(required) {
		if h.pressed.Held(m) {
			continue
		}
		side := required[m]
		if side == keys.SideEither {
			side = h.pressed.PreferredSide(m)
		}
		key := sideKeyFor(m, side)
		h.pressed.Press(m, side)
		out = append(out, action.NewKeyEvent(key, keys.Press))
		augmented = append(augmented, modKeyPair{m, side, key})
	}

	// Shadow only modifiers the matched chord itself declared (not the
	// full physically-held state) that are both actually held and not
	// also needed by the action: an incidentally-held, undeclared
	// modifier is left untouched.
	var shadowed []modKeyPair
	for _, m := range orderedModifiers(consumed) {
		if _, ok := required[m]; ok {
			continue
		}
		for side, held := range h.pressed[m] {
			if !held {
				continue
			}
			key := sideKeyFor(m, side)
			h.pressed.Release(m, side)
			out = append(out, action.NewKeyEvent(key, keys.Release))
			h.shadowed.Press(m, side)
			shadowed = append(shadowed, modKeyPair{m, side, key})
		}
	}

	for _, ka := range entry.Actions {
		out = h.executeKeymapAction(ka, out)
	}

	out = append(out, action.NewDelay(h.cfg.KeypressDelay()))

	for _, sk := range shadowed {
		h.pressed.Press(sk.mod, sk.side)
		h.shadowed.Release(sk.mod, sk.side)
		out = append(out, action.NewKeyEvent(sk.key, keys.Press))
	}

	out = append(out, action.NewDelay(h.cfg.KeypressDelay()))

	for _, ak := range augmented {
		h.pressed.Release(ak.mod, ak.side)
		out = append(out, action.NewKeyEvent(ak.key, keys.Release))
	}

	return out
}

// unionModifiers collects the modifier set an action list requires:
// every KeyEvent chord's modifiers, plus a WithMark's key (Shift-
// augmented if markSet is already set at dispatch time).
func unionModifiers(actions []config.KeymapAction, markSet bool) keys.ModifierSet {
	out := keys.ModifierSet{}
	for _, ka := range actions {
		switch ka.Kind {
		case action.KindKeyEvent:
			for m, side := range ka.Chord.Modifiers {
				out[m] = side
			}
		case action.KindWithMark:
			for m, side := range ka.WithKey.Modifiers {
				out[m] = side
			}
			if markSet {
				out[keys.ModShift] = keys.SideEither
			}
		}
	}
	return out
}

// executeKeymapAction applies ka's state-changing side effects (if any)
// and appends its corresponding Action to out. KeyEvent actions emit a
// full Press+Release pair.
func (h *Handler) executeKeymapAction(ka config.KeymapAction, out []action.Action) []action.Action {
	switch ka.Kind {
	case action.KindKeyEvent:
		out = append(out, action.NewKeyEvent(ka.Chord.Key, keys.Press))
		out = append(out, action.NewKeyEvent(ka.Chord.Key, keys.Release))
	case action.KindSetMode:
		h.mode = ka.Mode
		out = append(out, action.NewSetMode(ka.Mode))
	case action.KindSetMark:
		h.markSet = ka.Mark
		out = append(out, action.NewSetMark(ka.Mark))
	case action.KindWithMark:
		effective := ka.WithKey
		if h.markSet {
			effective.Modifiers = withShift(effective.Modifiers)
		}
		out = append(out, action.NewWithMark(effective))
	case action.KindEscapeNextKey:
		h.escapeNextKey = ka.Mark
		out = append(out, action.NewEscapeNextKey(ka.Mark))
	case action.KindLaunch:
		h.spawn(ka.Command)
		out = append(out, action.NewLaunch(ka.Command...))
	}
	return out
}

// armKeymapAction is executeKeymapAction's press-only counterpart, used
// when a modmap "held" action is first engaged: a KeyEvent fires only
// its Press half, since the key stays logically down until the modmap
// trigger key itself is released.
func (h *Handler) armKeymapAction(ka config.KeymapAction, out []action.Action) []action.Action {
	if ka.Kind == action.KindKeyEvent {
		return append(out, action.NewKeyEvent(ka.Chord.Key, keys.Press))
	}
	return h.executeKeymapAction(ka, out)
}

// releaseKeymapAction is armKeymapAction's counterpart, run when the
// modmap trigger key that engaged a "held" action is released.
func (h *Handler) releaseKeymapAction(ka config.KeymapAction, out []action.Action) []action.Action {
	if ka.Kind == action.KindKeyEvent {
		return append(out, action.NewKeyEvent(ka.Chord.Key, keys.Release))
	}
	return out
}

func withShift(set keys.ModifierSet) keys.ModifierSet {
	out := make(keys.ModifierSet, len(set)+1)
	for m, s := range set {
		out[m] = s
	}
	out[keys.ModShift] = keys.SideEither
	return out
}
