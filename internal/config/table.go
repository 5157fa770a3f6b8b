package config

import (
	"github.com/xremap-go/xremap/internal/keys"
)

// KeymapEntry is the compiled, trigger-keyed form of one chord -> action
// binding, carrying along the filters from its owning Keymap.
type KeymapEntry struct {
	Name        string
	Modifiers   keys.ModifierSet
	Actions     []KeymapAction
	Nested      map[string]*Entry // non-nil: this entry installs an override table
	NestedOrder []string          // Nested's keys in document order
	Application *ApplicationFilter
	Mode        []string
	ExactMatch  bool
}

// HasMode reports whether mode is eligible for this entry: entries with
// no mode filter match any mode.
func (e *KeymapEntry) HasMode(mode string) bool {
	if len(e.Mode) == 0 {
		return true
	}
	for _, m := range e.Mode {
		if m == mode {
			return true
		}
	}
	return false
}

// BuildTables compiles Config.Keymap into Config.KeymapTable, mirroring
// the original build_keymap_table: entries append in source order under
// their trigger key, preserving insertion order for later tie-breaking.
//
// One addition beyond a literal append: when two entries under the same
// trigger key have an identical modifier set and are BOTH nested remaps,
// their override tables are merged (earlier keymap's sub-chords take
// priority on conflict) into the first entry, and the later duplicate is
// dropped. This is what makes two keymaps independently binding `C-x …`
// both reachable by their respective suffixes (see spec.md §8 scenario 8).
func BuildTables(cfg *Config) {
	table := make(map[keys.KeyCode][]*KeymapEntry)

	for _, km := range cfg.Keymap {
		var mode []string
		if km.Mode != nil {
			mode = km.Mode.Values
		}
		for _, chord := range km.RemapOrder {
			entry := km.Remap[chord]
			kp, err := ParseChord(chord)
			if err != nil {
				continue // invalid chords are rejected at validate-time, not here
			}
			compiled := &KeymapEntry{
				Name:        km.Name,
				Modifiers:   kp.Modifiers,
				Actions:     entry.Actions,
				Nested:      entry.Nested,
				NestedOrder: entry.NestedOrder,
				Application: km.Application,
				Mode:        mode,
				ExactMatch:  km.ExactMatch,
			}

			if merged := mergeWithExistingRemap(table[kp.Key], compiled); merged {
				continue
			}
			table[kp.Key] = append(table[kp.Key], compiled)
		}
	}

	cfg.KeymapTable = table
	cfg.ModmapTable = buildModmapTable(cfg)
}

// mergeWithExistingRemap looks for a prior entry under the same key with
// an identical modifier set that is also a nested remap, and if found,
// merges compiled's sub-chords into it (existing entries win on
// conflict) instead of appending a new entry. Returns true if a merge
// happened.
func mergeWithExistingRemap(existing []*KeymapEntry, compiled *KeymapEntry) bool {
	if compiled.Nested == nil {
		return false
	}
	for _, prior := range existing {
		if prior.Nested == nil || !prior.Modifiers.Equal(compiled.Modifiers) {
			continue
		}
		for _, chord := range compiled.NestedOrder {
			if _, exists := prior.Nested[chord]; !exists {
				prior.Nested[chord] = compiled.Nested[chord]
				prior.NestedOrder = append(prior.NestedOrder, chord)
			}
		}
		return true
	}
	return false
}

// CompiledModmapEntry is the trigger-keyed form of one modmap binding.
type CompiledModmapEntry struct {
	Name          string
	SubstituteKey keys.KeyCode
	HasSubstitute bool
	Actions       *ModmapActions
	Application   *ApplicationFilter
	Mode          []string
}

// HasMode reports whether mode is eligible for this entry.
func (e *CompiledModmapEntry) HasMode(mode string) bool {
	if len(e.Mode) == 0 {
		return true
	}
	for _, m := range e.Mode {
		if m == mode {
			return true
		}
	}
	return false
}

// buildModmapTable compiles Config.Modmap into a trigger-keyed table,
// in source order, for the same insertion-order first-hit-wins
// resolution the keymap table uses.
func buildModmapTable(cfg *Config) map[keys.KeyCode][]*CompiledModmapEntry {
	table := make(map[keys.KeyCode][]*CompiledModmapEntry)
	for _, mm := range cfg.Modmap {
		var mode []string
		if mm.Mode != nil {
			mode = mm.Mode.Values
		}
		for _, keyName := range mm.RemapOrder {
			entry := mm.Remap[keyName]
			key, ok := keys.KeyByName(keyName)
			if !ok {
				continue
			}
			compiled := &CompiledModmapEntry{
				Name:          mm.Name,
				Application:   mm.Application,
				Mode:          mode,
				Actions:       entry.Actions,
				HasSubstitute: entry.Actions == nil,
				SubstituteKey: entry.SubstituteKey,
			}
			table[key] = append(table[key], compiled)
		}
	}
	return table
}

// BuildOverrideTable compiles a nested remap block (installed after a
// prefix chord fires) into the same trigger-keyed shape as the top-level
// table, but without application/mode filters (overrides are one-shot
// and already gated by the time they're installed). order must be the
// remap's keys in document order (Entry.NestedOrder) so that two chords
// under the same trigger key resolve earlier-defined-first, matching
// BuildTables.
func BuildOverrideTable(remap map[string]*Entry, order []string) map[keys.KeyCode][]*KeymapEntry {
	table := make(map[keys.KeyCode][]*KeymapEntry, len(remap))
	for _, chord := range order {
		entry := remap[chord]
		kp, err := ParseChord(chord)
		if err != nil {
			continue
		}
		table[kp.Key] = append(table[kp.Key], &KeymapEntry{
			Modifiers:   kp.Modifiers,
			Actions:     entry.Actions,
			Nested:      entry.Nested,
			NestedOrder: entry.NestedOrder,
		})
	}
	return table
}
