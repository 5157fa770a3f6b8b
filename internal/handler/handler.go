package handler

import (
	"time"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/keys"
	"github.com/xremap-go/xremap/internal/logger"
	"github.com/xremap-go/xremap/internal/wm"
)

// overrideTimeout is the one-shot window a nested remap stays installed
// waiting for its next chord, per spec.md §4.4(e).
const overrideTimeout = 1 * time.Second

// Handler is the translation state machine. It is invoked from exactly
// one goroutine and is never re-entered, so — per spec.md §5 — no
// internal locking is required.
type Handler struct {
	cfg    *config.Config
	wm     wm.Client
	nowFn  func() time.Time
	spawn  func(command []string)

	pressed  keys.PressedModifiers
	shadowed keys.PressedModifiers

	overrideTable      map[keys.KeyCode][]*config.KeymapEntry
	overrideExactMatch bool
	overrideTriggerKey keys.KeyCode
	overrideArmed      bool
	overrideDeadline   time.Time

	mode          string
	escapeNextKey bool
	markSet       bool

	// consumedTriggers marks physical keys whose press just dispatched a
	// keymap action list: the matching physical release is swallowed
	// rather than re-resolved, since the macro already ran synchronously.
	consumedTriggers map[keys.KeyCode]bool

	// modmapHolds tracks dual-role modmap keys (held/pressed/alone)
	// between their press and release.
	modmapHolds map[keys.KeyCode]*modmapHold

	pendingMouse []action.RelMotion

	appCache struct {
		valid bool
		class string
		known bool
	}
}

// New builds a Handler for cfg, using client to resolve the focused
// application for per-application filters.
func New(cfg *config.Config, client wm.Client) *Handler {
	if client == nil {
		client = wm.NewNoneClient()
	}
	return &Handler{
		cfg:      cfg,
		wm:       client,
		nowFn:    time.Now,
		spawn:    defaultSpawn,
		pressed:  keys.NewPressedModifiers(),
		shadowed: keys.NewPressedModifiers(),
		mode:     cfg.DefaultMode,
	}
}

// Mode returns the handler's current mode.
func (h *Handler) Mode() string { return h.mode }

// Reload installs a new config. pressed_modifiers survive the reload;
// any active override and the one-tick application cache are cleared and
// mode resets to the new config's default, per spec.md §3 Lifecycles and
// §9's hot-reload-mid-chord note. Reload itself has no notion of
// downstream-pressed keys — spec.md §4.6's terminal-releases requirement
// is handled one layer up, by internal/device.Loop's reloadConfig calling
// output.Dispatcher.ReleaseAll before Reload runs.
func (h *Handler) Reload(cfg *config.Config) {
	h.cfg = cfg
	h.clearOverride()
	h.mode = cfg.DefaultMode
	h.appCache.valid = false
}

// HandleEvents translates a batch of raw events read from one input
// device readiness wake-up (spec.md's "single handler invocation" for
// the purpose of mouse-motion batching) into an ordered Action stream.
func (h *Handler) HandleEvents(events []Event) []action.Action {
	h.appCache.valid = false // one-tick cache, per spec.md §4.4(f)

	var out []action.Action
	for _, ev := range events {
		switch ev.Kind {
		case EventKey:
			out = h.flushMouseBatch(out)
			out = append(out, h.handleKeyEvent(ev.Key, ev.Value)...)
		case EventRelative:
			out = h.handleRelativeEvent(out, ev.Axis, ev.RelValue)
		case EventAbsolute:
			// No modmap/keymap resolution applies to ABS: spec.md's
			// Non-goals pass it through for tablets unmodified. Flush
			// any pending REL batch first so the two streams interleave
			// in the order they were actually read.
			out = h.flushMouseBatch(out)
			out = append(out, action.NewAbsoluteEvent(ev.AbsAxis, ev.AbsValue))
		}
	}
	return h.flushMouseBatch(out)
}

// TimeoutOverride is invoked by the main loop's timer; if an override is
// still armed and has passed its deadline, it clears the override and
// replays the original trigger key as a normal press, per spec.md
// §4.4(e) and §4.7.
func (h *Handler) TimeoutOverride() []action.Action {
	if !h.overrideArmed || h.nowFn().Before(h.overrideDeadline) {
		return nil
	}
	trigger := h.overrideTriggerKey
	h.clearOverride()
	return []action.Action{action.NewKeyEvent(trigger, keys.Press)}
}

func (h *Handler) clearOverride() {
	h.overrideTable = nil
	h.overrideArmed = false
	h.overrideTriggerKey = 0
}

func (h *Handler) flushMouseBatch(out []action.Action) []action.Action {
	if len(h.pendingMouse) == 0 {
		return out
	}
	motions := h.pendingMouse
	h.pendingMouse = nil
	return append(out, action.NewMouseMovement(motions...))
}

func (h *Handler) handleRelativeEvent(out []action.Action, axis keys.RelAxis, value int32) []action.Action {
	disguised := keys.DisguisedKeyFor(axis, value < 0)
	if h.referencesDisguisedKey(disguised) {
		out = h.flushMouseBatch(out)
		out = append(out, h.handleKeyEvent(disguised, keys.Press)...)
		out = append(out, h.handleKeyEvent(disguised, keys.Release)...)
		return out
	}
	h.pendingMouse = append(h.pendingMouse, action.RelMotion{Axis: axis, Value: value})
	return out
}

func (h *Handler) referencesDisguisedKey(key keys.KeyCode) bool {
	if _, ok := h.cfg.ModmapTable[key]; ok {
		return true
	}
	if _, ok := h.cfg.KeymapTable[key]; ok {
		return true
	}
	return false
}

func defaultSpawn(command []string) {
	if len(command) == 0 {
		return
	}
	if err := runDetached(command); err != nil {
		logger.Warnf("launch %v failed: %v", command, err)
	}
}
