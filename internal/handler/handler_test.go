package handler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/keys"
	"github.com/xremap-go/xremap/internal/wm"
)

// staticClient is a test double for wm.Client reporting a fixed class.
type staticClient struct {
	class string
	known bool
}

func (s *staticClient) Supported() bool { return s.known }
func (s *staticClient) CurrentApplication() (string, bool) {
	return s.class, s.known
}

func noApp() wm.Client { return &staticClient{} }

func mustLoadConfig(t *testing.T, yamlText string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func keyAction(key keys.KeyCode, value keys.Value) action.Action {
	return action.NewKeyEvent(key, value)
}

// 1. Basic modmap.
func TestBasicModmap(t *testing.T) {
	cfg := mustLoadConfig(t, `
modmap:
  - remap:
      a: b
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyA, keys.Press),
		NewKeyEvent(keys.KeyA, keys.Release),
		NewKeyEvent(keys.KeyA, keys.Press),
		NewKeyEvent(keys.KeyA, keys.Release),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyB, keys.Press),
		keyAction(keys.KeyB, keys.Release),
		keyAction(keys.KeyB, keys.Press),
		keyAction(keys.KeyB, keys.Release),
	}, got)
}

// 2. Relative-as-key.
func TestRelativeAsKey(t *testing.T) {
	cfg := mustLoadConfig(t, `
modmap:
  - remap:
      xrightcursor: b
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewRelativeEvent(keys.RelX, 1),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyB, keys.Press),
		keyAction(keys.KeyB, keys.Release),
	}, got)
}

// 3. Mouse batching.
func TestMouseBatching(t *testing.T) {
	cfg := mustLoadConfig(t, `modmap: []`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewRelativeEvent(keys.RelX, 1),
		NewRelativeEvent(keys.RelY, 1),
	})

	require.Equal(t, []action.Action{
		action.NewMouseMovement(
			action.RelMotion{Axis: keys.RelX, Value: 1},
			action.RelMotion{Axis: keys.RelY, Value: 1},
		),
	}, got)
}

// ABS passthrough: a tablet source's EV_ABS samples carry straight through
// as KindAbsoluteEvent, with no modmap/keymap resolution, and flush any
// pending mouse-motion batch first so the two streams stay in read order.
func TestAbsolutePassthrough(t *testing.T) {
	cfg := mustLoadConfig(t, `modmap: []`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewRelativeEvent(keys.RelX, 1),
		NewAbsoluteEvent(0x00, 12345),
	})

	require.Equal(t, []action.Action{
		action.NewMouseMovement(
			action.RelMotion{Axis: keys.RelX, Value: 1},
		),
		action.NewAbsoluteEvent(0x00, 12345),
	}, got)
}

// 4. Interleave modifiers.
func TestInterleaveModifiers(t *testing.T) {
	cfg := mustLoadConfig(t, `
keymap:
  - remap:
      M-f: C-right
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyLeftAlt, keys.Press),
		NewKeyEvent(keys.KeyF, keys.Press),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftAlt, keys.Press),
		keyAction(keys.KeyLeftCtrl, keys.Press),
		keyAction(keys.KeyLeftAlt, keys.Release),
		keyAction(keys.KeyRight, keys.Press),
		keyAction(keys.KeyRight, keys.Release),
		action.NewDelay(0),
		keyAction(keys.KeyLeftAlt, keys.Press),
		action.NewDelay(0),
		keyAction(keys.KeyLeftCtrl, keys.Release),
	}, got)
}

// 5. Exact-match true: extra modifier defeats the binding.
func TestExactMatchTrueDefeatedByExtraModifier(t *testing.T) {
	cfg := mustLoadConfig(t, `
keymap:
  - exact_match: true
    remap:
      M-f: C-right
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyLeftAlt, keys.Press),
		NewKeyEvent(keys.KeyLeftShift, keys.Press),
		NewKeyEvent(keys.KeyF, keys.Press),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftAlt, keys.Press),
		keyAction(keys.KeyLeftShift, keys.Press),
		keyAction(keys.KeyF, keys.Press),
	}, got)
}

// 6. Nested prefix, exact_match=true: the prefix is consumed but the
// nested chord falls through when the held modifiers don't exactly
// match any override entry.
func TestNestedPrefixExactMatchFallsThrough(t *testing.T) {
	cfg := mustLoadConfig(t, `
keymap:
  - exact_match: true
    remap:
      C-x:
        remap:
          h: C-a
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyLeftCtrl, keys.Press),
		NewKeyEvent(keys.KeyX, keys.Press),
		NewKeyEvent(keys.KeyX, keys.Release),
		NewKeyEvent(keys.KeyLeftCtrl, keys.Release),
		NewKeyEvent(keys.KeyLeftShift, keys.Press),
		NewKeyEvent(keys.KeyH, keys.Press),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftCtrl, keys.Press),
		// X-press matched the prefix and installed the override: it is
		// consumed, emitting nothing.
		keyAction(keys.KeyX, keys.Release),
		keyAction(keys.KeyLeftCtrl, keys.Release),
		keyAction(keys.KeyLeftShift, keys.Press),
		keyAction(keys.KeyH, keys.Press),
	}, got)
}

// 7. Per-application override.
func TestPerApplicationOverride(t *testing.T) {
	cfg := mustLoadConfig(t, `
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

	h := New(cfg, &staticClient{known: false})
	got := h.HandleEvents([]Event{NewKeyEvent(keys.KeyA, keys.Press)})
	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftCtrl, keys.Press),
		keyAction(keys.KeyB, keys.Press),
		keyAction(keys.KeyB, keys.Release),
		action.NewDelay(0),
		action.NewDelay(0),
		keyAction(keys.KeyLeftCtrl, keys.Release),
	}, got)

	h2 := New(cfg, &staticClient{class: "firefox", known: true})
	got2 := h2.HandleEvents([]Event{NewKeyEvent(keys.KeyA, keys.Press)})
	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftCtrl, keys.Press),
		keyAction(keys.KeyC, keys.Press),
		keyAction(keys.KeyC, keys.Release),
		action.NewDelay(0),
		action.NewDelay(0),
		keyAction(keys.KeyLeftCtrl, keys.Release),
	}, got2)
}

// 8. Merged same-prefix keymaps: two keymaps independently binding
// `C-x ...` must both be reachable by their respective suffixes.
func TestMergedSamePrefixKeymaps(t *testing.T) {
	cfg := mustLoadConfig(t, `
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
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyLeftCtrl, keys.Press),
		NewKeyEvent(keys.KeyX, keys.Press),
		NewKeyEvent(keys.KeyK, keys.Press),
	})

	require.Equal(t, []action.Action{
		keyAction(keys.KeyLeftCtrl, keys.Press),
		// X-press installs the merged override, consumed.
		keyAction(keys.KeyW, keys.Press),
		keyAction(keys.KeyW, keys.Release),
		action.NewDelay(0),
		action.NewDelay(0),
	}, got)
}

// Override timeout replays the original trigger key.
func TestOverrideTimeoutReplaysTrigger(t *testing.T) {
	cfg := mustLoadConfig(t, `
keymap:
  - remap:
      C-x:
        remap:
          h: C-a
`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyLeftCtrl, keys.Press),
		NewKeyEvent(keys.KeyX, keys.Press),
	})
	require.Equal(t, []action.Action{keyAction(keys.KeyLeftCtrl, keys.Press)}, got)
	require.True(t, h.overrideArmed)

	h.overrideDeadline = h.nowFn()
	timeoutActions := h.TimeoutOverride()
	require.Equal(t, []action.Action{keyAction(keys.KeyX, keys.Press)}, timeoutActions)
	require.False(t, h.overrideArmed)
}

// Round-trip: an unmapped key produces an identical action stream.
func TestRoundTripUnmappedKey(t *testing.T) {
	cfg := mustLoadConfig(t, `modmap: []`)
	h := New(cfg, noApp())

	got := h.HandleEvents([]Event{
		NewKeyEvent(keys.KeyQ, keys.Press),
		NewKeyEvent(keys.KeyQ, keys.Release),
	})
	require.Equal(t, []action.Action{
		keyAction(keys.KeyQ, keys.Press),
		keyAction(keys.KeyQ, keys.Release),
	}, got)
}
