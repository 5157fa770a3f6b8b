package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/keys"
)

func TestParseChord(t *testing.T) {
	cases := []struct {
		chord   string
		key     keys.KeyCode
		mods    keys.ModifierSet
		wantErr bool
	}{
		{chord: "a", key: keys.KeyA, mods: keys.ModifierSet{}},
		{chord: "f1", key: keys.KeyF1, mods: keys.ModifierSet{}},
		{chord: "C-f", key: keys.KeyF, mods: keys.NewModifierSet(keys.ModifierKeyPress{Modifier: keys.ModControl, Side: keys.SideEither})},
		{chord: "M-f", key: keys.KeyF, mods: keys.NewModifierSet(keys.ModifierKeyPress{Modifier: keys.ModAlt, Side: keys.SideEither})},
		{
			chord: "C-M-f",
			key:   keys.KeyF,
			mods: keys.NewModifierSet(
				keys.ModifierKeyPress{Modifier: keys.ModControl, Side: keys.SideEither},
				keys.ModifierKeyPress{Modifier: keys.ModAlt, Side: keys.SideEither},
			),
		},
		{
			chord: "C_L-x",
			key:   keys.KeyX,
			mods:  keys.NewModifierSet(keys.ModifierKeyPress{Modifier: keys.ModControl, Side: keys.SideLeft}),
		},
		{chord: "bogus-key-name", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.chord, func(t *testing.T) {
			kp, err := ParseChord(tc.chord)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.key, kp.Key)
			require.True(t, kp.Modifiers.Equal(tc.mods))
		})
	}
}

func TestLoadBasicModmap(t *testing.T) {
	cfg := mustLoad(t, `
modmap:
  - remap:
      a: b
`)
	require.Len(t, cfg.Modmap, 1)
	entry := cfg.Modmap[0].Remap["a"]
	require.NotNil(t, entry)
	require.Equal(t, keys.KeyB, entry.SubstituteKey)

	table := cfg.ModmapTable[keys.KeyA]
	require.Len(t, table, 1)
	require.Equal(t, keys.KeyB, table[0].SubstituteKey)
}

func TestLoadKeymapChordAction(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - remap:
      M-f: C-right
`)
	entries := cfg.KeymapTable[keys.KeyF]
	require.Len(t, entries, 1)
	require.False(t, entries[0].ExactMatch)
	require.Len(t, entries[0].Actions, 1)
	require.Equal(t, action.KindKeyEvent, entries[0].Actions[0].Kind)
	require.Equal(t, keys.KeyRight, entries[0].Actions[0].Chord.Key)
}

func TestLoadExactMatch(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - exact_match: true
    remap:
      M-f: C-right
`)
	entries := cfg.KeymapTable[keys.KeyF]
	require.Len(t, entries, 1)
	require.True(t, entries[0].ExactMatch)
}

func TestLoadNestedRemap(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - remap:
      C-x:
        remap:
          h: C-a
`)
	entries := cfg.KeymapTable[keys.KeyX]
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Nested)
	require.Contains(t, entries[0].Nested, "h")
}

func TestLoadApplicationFilter(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - name: firefox
    application:
      only: [firefox]
    remap:
      a: C-c
  - name: generic
    remap:
      a: C-b
`)
	entries := cfg.KeymapTable[keys.KeyA]
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Application)
	require.Equal(t, []string{"firefox"}, entries[0].Application.Only)
	require.True(t, entries[0].Application.Matches("firefox", true))
	require.False(t, entries[0].Application.Matches("other", true))
	require.False(t, entries[0].Application.Matches("", false))
	require.Nil(t, entries[1].Application)
}

func TestMergeRemaps(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - remap:
      C-x:
        remap:
          h: C-a
  - remap:
      C-x:
        remap:
          k: C-w
`)
	entries := cfg.KeymapTable[keys.KeyX]
	require.Len(t, entries, 1, "both C-x bindings should merge into one override table")
	require.Contains(t, entries[0].Nested, "h")
	require.Contains(t, entries[0].Nested, "k")
}

func TestMergeRemapsConflictEarlierWins(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - remap:
      C-x:
        remap:
          h: C-a
  - remap:
      C-x:
        remap:
          h: C-b
          c: C-q
`)
	entries := cfg.KeymapTable[keys.KeyX]
	require.Len(t, entries, 1)
	hAction := entries[0].Nested["h"].Actions[0]
	require.Equal(t, keys.KeyA, hAction.Chord.Key, "earlier keymap's h binding must win")
	cAction := entries[0].Nested["c"].Actions[0]
	require.Equal(t, keys.KeyQ, cAction.Chord.Key, "later keymap's unique c binding must still be reachable")
}

func TestSameBlockDifferentChordsSameTriggerEarlierWins(t *testing.T) {
	// a and C-a both resolve to trigger key KeyA, declared in the same
	// keymap block's remap section. BuildTables must append them in
	// document order, not Go's randomized map-iteration order, so the
	// loose-match loop in matchEntry tries "a" (the no-modifier binding
	// declared first) ahead of "C-a" whenever both could apply.
	cfg := mustLoad(t, `
keymap:
  - remap:
      a: C-p
      C-a: C-n
`)
	entries := cfg.KeymapTable[keys.KeyA]
	require.Len(t, entries, 2)
	require.Empty(t, entries[0].Modifiers, "a must be compiled before C-a")
	require.Equal(t, keys.KeyP, entries[0].Actions[0].Chord.Key)
	require.NotEmpty(t, entries[1].Modifiers)
	require.Equal(t, keys.KeyN, entries[1].Actions[0].Chord.Key)
}

func TestLoadActionForms(t *testing.T) {
	cfg := mustLoad(t, `
keymap:
  - remap:
      a:
        - launch: ["notify-send", "hi"]
      b:
        set_mode: insert
      c:
        set_mark: true
      d:
        with_mark: right
`)
	launch := cfg.KeymapTable[keys.KeyA][0].Actions[0]
	require.Equal(t, action.KindLaunch, launch.Kind)
	require.Equal(t, []string{"notify-send", "hi"}, launch.Command)

	setMode := cfg.KeymapTable[keys.KeyB][0].Actions[0]
	require.Equal(t, action.KindSetMode, setMode.Kind)
	require.Equal(t, "insert", setMode.Mode)

	setMark := cfg.KeymapTable[keys.KeyC][0].Actions[0]
	require.Equal(t, action.KindSetMark, setMark.Kind)
	require.True(t, setMark.Mark)

	withMark := cfg.KeymapTable[keys.KeyD][0].Actions[0]
	require.Equal(t, action.KindWithMark, withMark.Kind)
	require.Equal(t, keys.KeyRight, withMark.WithKey.Key)
}

func TestDefaultModeNormalized(t *testing.T) {
	cfg := mustLoad(t, `modmap: []`)
	require.Equal(t, "default", cfg.DefaultMode)
}

func TestVirtualModifiers(t *testing.T) {
	cfg := mustLoad(t, `
virtual_modifiers: [capslock]
`)
	require.True(t, cfg.VirtualMods[keys.KeyCapsLock])
}

func mustLoad(t *testing.T, yamlText string) *Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg
}
