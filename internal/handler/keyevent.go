package handler

import (
	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/keys"
)

// modmapHold tracks one dual-role modmap key between its press and
// release, for the held/pressed/alone disambiguation.
type modmapHold struct {
	entry       *config.CompiledModmapEntry
	heldFired   bool
	otherPressed bool
}

// handleKeyEvent runs one physical key press or release through
// modifier tracking, the modmap pass, escape bypass and keymap
// resolution, per spec.md §4.4.
func (h *Handler) handleKeyEvent(key keys.KeyCode, value keys.Value) []action.Action {
	var out []action.Action

	// (a) Modifier tracking. Continues regardless — modifier keys may
	// themselves be remapped below.
	h.trackModifier(key, value)

	// (b) Modmap pass.
	if handled, acts := h.modmapPass(key, value); handled {
		return acts
	}

	// (d) Escape bypass.
	if h.escapeNextKey {
		h.escapeNextKey = false
		return []action.Action{action.NewKeyEvent(key, value)}
	}

	// Any other key's release: if it was the trigger of a previously
	// dispatched action list, the macro's own release already ran
	// synchronously at press time, so this physical release is swallowed
	// ("replays the original remap's release sequence", which for a
	// fully-synchronous macro is nothing further). Repeats of such a
	// trigger are swallowed too. Otherwise pass the event straight through.
	if value != keys.Press {
		if h.consumedTriggers != nil && h.consumedTriggers[key] {
			if value == keys.Release {
				delete(h.consumedTriggers, key)
			}
			return nil
		}
		return []action.Action{action.NewKeyEvent(key, value)}
	}

	// (e) Keymap resolution — press only.
	return h.resolveKeymap(key)
}

func (h *Handler) trackModifier(key keys.KeyCode, value keys.Value) {
	if mod, side, ok := keys.ModifierForKey(key); ok {
		switch value {
		case keys.Press:
			h.pressed.Press(mod, side)
		case keys.Release:
			h.pressed.Release(mod, side)
		}
		return
	}
	if h.cfg.VirtualMods[key] {
		// Virtual modifiers have no physical side; track them as Left.
		switch value {
		case keys.Press:
			h.pressed.Press(virtualModifierFor(key), keys.SideLeft)
		case keys.Release:
			h.pressed.Release(virtualModifierFor(key), keys.SideLeft)
		}
	}
}

// virtualModifierFor assigns a stable pseudo-modifier slot for a
// user-declared virtual modifier key, keyed by its own key code so
// distinct virtual modifiers never collide with each other or with a
// physical Shift/Control/Alt/Super.
func virtualModifierFor(key keys.KeyCode) keys.Modifier {
	return keys.Modifier(1000 + int(key))
}

// modmapPass looks up key in the compiled modmap table. A match fully
// replaces the rest of the pipeline for this event, per spec.md §4.4(b)
// ("substitute the key ... instead of the original event").
func (h *Handler) modmapPass(key keys.KeyCode, value keys.Value) (bool, []action.Action) {
	entries, ok := h.cfg.ModmapTable[key]
	if !ok {
		return false, nil
	}
	class, known := h.focusedApplication()
	for _, entry := range entries {
		if !entry.Application.Matches(class, known) || !entry.HasMode(h.mode) {
			continue
		}
		if entry.Actions == nil {
			return true, h.modmapSubstitute(key, value, entry.SubstituteKey)
		}
		return true, h.modmapDualRole(key, value, entry)
	}
	return false, nil
}

func (h *Handler) modmapSubstitute(original keys.KeyCode, value keys.Value, sub keys.KeyCode) []action.Action {
	if mod, side, ok := keys.ModifierForKey(sub); ok {
		switch value {
		case keys.Press:
			h.pressed.Press(mod, side)
		case keys.Release:
			h.pressed.Release(mod, side)
		}
	}
	return []action.Action{action.NewKeyEvent(sub, value)}
}

// modmapDualRole implements a key configured with held/pressed/alone
// actions: pressed actions fire immediately on press; held actions fire
// (once) the first time another key is pressed while this one is still
// down; alone actions fire on release if no other key was pressed in
// between.
func (h *Handler) modmapDualRole(key keys.KeyCode, value keys.Value, entry *config.CompiledModmapEntry) []action.Action {
	if h.modmapHolds == nil {
		h.modmapHolds = make(map[keys.KeyCode]*modmapHold)
	}

	var out []action.Action
	switch value {
	case keys.Press:
		h.modmapHolds[key] = &modmapHold{entry: entry}
		for other, hold := range h.modmapHolds {
			if other == key {
				continue
			}
			hold.otherPressed = true
		}
		for _, ka := range entry.Actions.Pressed {
			out = h.executeKeymapAction(ka, out)
		}
	case keys.Release:
		hold, tracked := h.modmapHolds[key]
		delete(h.modmapHolds, key)
		if !tracked {
			return out
		}
		if !hold.otherPressed {
			for _, ka := range entry.Actions.Alone {
				out = h.executeKeymapAction(ka, out)
			}
		} else if hold.heldFired {
			for _, ka := range entry.Actions.Held {
				out = h.releaseKeymapAction(ka, out)
			}
		}
	}

	// Mark other concurrently held dual-role keys as "combined with
	// another key" and fire their held actions lazily, on the first
	// other key seen.
	if value == keys.Press {
		for other, hold := range h.modmapHolds {
			if other == key || hold.heldFired || !hold.otherPressed {
				continue
			}
			hold.heldFired = true
			for _, ka := range hold.entry.Actions.Held {
				out = h.armKeymapAction(ka, out)
			}
		}
	}
	return out
}

// resolveKeymap runs the exact-match then loose-match passes against the
// active override table (if any) or the top-level keymap table.
func (h *Handler) resolveKeymap(key keys.KeyCode) []action.Action {
	table := h.cfg.KeymapTable
	exactOnly := false
	if h.overrideArmed {
		table = h.overrideTable
		exactOnly = h.overrideExactMatch
	}

	entries, ok := table[key]
	if !ok {
		// Key absent from the active table entirely: the override (if
		// any) is left armed, untouched, waiting for a future key.
		return []action.Action{action.NewKeyEvent(key, keys.Press)}
	}

	class, known := h.focusedApplication()
	matched := h.matchEntry(entries, class, known, exactOnly)
	if matched == nil {
		if h.overrideArmed {
			h.clearOverride()
		}
		return []action.Action{action.NewKeyEvent(key, keys.Press)}
	}

	// A hit consumes the one-shot override; a nested hit re-arms it below.
	if h.overrideArmed {
		h.clearOverride()
	}

	if matched.Nested != nil {
		h.armOverride(key, matched)
		return nil
	}

	h.recordConsumedTrigger(key)
	return h.dispatchEntry(matched)
}

func (h *Handler) matchEntry(entries []*config.KeymapEntry, class string, known bool, forceExactOnly bool) *config.KeymapEntry {
	for _, e := range entries {
		if !e.Application.Matches(class, known) || !e.HasMode(h.mode) {
			continue
		}
		if isExactMatch(e.Modifiers, h.pressed) {
			return e
		}
	}
	if forceExactOnly {
		return nil
	}
	for _, e := range entries {
		if e.ExactMatch {
			continue
		}
		if !e.Application.Matches(class, known) || !e.HasMode(h.mode) {
			continue
		}
		if isLooseMatch(e.Modifiers, h.pressed) {
			return e
		}
	}
	return nil
}

// isExactMatch reports whether required equals the held modifier state:
// same cardinality and required is a subset of held. Comparing
// cardinality (rather than a literal set Equal) lets an Either-side
// requirement match whichever physical side is actually down.
func isExactMatch(required keys.ModifierSet, held keys.PressedModifiers) bool {
	return len(required) == len(held) && required.IsSubsetOf(held)
}

// isLooseMatch reports whether required is a subset of held, regardless
// of any additional modifiers also held.
func isLooseMatch(required keys.ModifierSet, held keys.PressedModifiers) bool {
	return required.IsSubsetOf(held)
}

func (h *Handler) armOverride(triggerKey keys.KeyCode, entry *config.KeymapEntry) {
	h.overrideTable = config.BuildOverrideTable(entry.Nested, entry.NestedOrder)
	h.overrideArmed = true
	h.overrideTriggerKey = triggerKey
	h.overrideExactMatch = entry.ExactMatch
	h.overrideDeadline = h.nowFn().Add(overrideTimeout)
}

func (h *Handler) recordConsumedTrigger(key keys.KeyCode) {
	if h.consumedTriggers == nil {
		h.consumedTriggers = make(map[keys.KeyCode]bool)
	}
	h.consumedTriggers[key] = true
}

// focusedApplication returns the WM-reported focused window class,
// cached for the lifetime of one HandleEvents invocation (spec.md
// §4.4(f)).
func (h *Handler) focusedApplication() (string, bool) {
	if h.appCache.valid {
		return h.appCache.class, h.appCache.known
	}
	class, known := h.wm.CurrentApplication()
	h.appCache.valid = true
	h.appCache.class = class
	h.appCache.known = known
	return class, known
}
