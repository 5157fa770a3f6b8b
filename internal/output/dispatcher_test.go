package output

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/keys"
)

type recordedEvent struct {
	key   keys.KeyCode
	value keys.Value
}

type fakeDevice struct {
	events     []recordedEvent
	relBatches [][]int32
	failAfter  int
}

func (f *fakeDevice) KeyEvent(key keys.KeyCode, value keys.Value) error {
	if f.failAfter > 0 && len(f.events) >= f.failAfter {
		return errors.New("boom")
	}
	f.events = append(f.events, recordedEvent{key, value})
	return nil
}

func (f *fakeDevice) RelEvents(axis []uint16, value []int32) error {
	f.relBatches = append(f.relBatches, append([]int32(nil), value...))
	return nil
}

func newTestDispatcher(dev Device) *Dispatcher {
	d := New(dev)
	d.sleep = func(time.Duration) {} // don't actually block test runs
	return d
}

func TestDispatchKeyEvents(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	require.NoError(t, d.Dispatch([]action.Action{
		action.NewKeyEvent(keys.KeyA, keys.Press),
		action.NewKeyEvent(keys.KeyA, keys.Release),
	}))

	require.Equal(t, []recordedEvent{
		{keys.KeyA, keys.Press},
		{keys.KeyA, keys.Release},
	}, dev.events)
}

func TestDispatchMouseMovementBatchesAsOneSubmission(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	require.NoError(t, d.Dispatch([]action.Action{
		action.NewMouseMovement(
			action.RelMotion{Axis: keys.RelX, Value: 3},
			action.RelMotion{Axis: keys.RelY, Value: -2},
		),
	}))

	require.Len(t, dev.relBatches, 1)
	require.Equal(t, []int32{3, -2}, dev.relBatches[0])
}

func TestDispatchWithMarkExpandsChordInOrder(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	kp := keys.KeyPress{
		Key:       keys.KeyF,
		Modifiers: keys.NewModifierSet(keys.ModifierKeyPress{Modifier: keys.ModShift, Side: keys.SideEither}),
	}
	require.NoError(t, d.Dispatch([]action.Action{action.NewWithMark(kp)}))

	require.Equal(t, []recordedEvent{
		{keys.KeyLeftShift, keys.Press},
		{keys.KeyF, keys.Press},
		{keys.KeyF, keys.Release},
		{keys.KeyLeftShift, keys.Release},
	}, dev.events)
}

func TestDispatchStopsOnFirstError(t *testing.T) {
	dev := &fakeDevice{failAfter: 1}
	d := newTestDispatcher(dev)

	err := d.Dispatch([]action.Action{
		action.NewKeyEvent(keys.KeyA, keys.Press),
		action.NewKeyEvent(keys.KeyA, keys.Release),
	})
	require.Error(t, err)
	require.Len(t, dev.events, 1)
}

func TestReleaseAllReleasesOnlyHeldKeys(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	require.NoError(t, d.Dispatch([]action.Action{
		action.NewKeyEvent(keys.KeyA, keys.Press),
		action.NewKeyEvent(keys.KeyB, keys.Press),
		action.NewKeyEvent(keys.KeyB, keys.Release),
		action.NewKeyEvent(keys.KeyC, keys.Press),
	}))
	dev.events = nil // only care about ReleaseAll's own writes below

	require.NoError(t, d.ReleaseAll())
	require.Len(t, dev.events, 2)
	for _, ev := range dev.events {
		require.Equal(t, keys.Release, ev.value)
	}

	var released []keys.KeyCode
	for _, ev := range dev.events {
		released = append(released, ev.key)
	}
	require.ElementsMatch(t, []keys.KeyCode{keys.KeyA, keys.KeyC}, released)

	// idempotent: nothing left pressed, so a second call is a no-op.
	dev.events = nil
	require.NoError(t, d.ReleaseAll())
	require.Empty(t, dev.events)
}

func TestDispatchWithMarkDoesNotLeaveModifierTrackedAsHeld(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	kp := keys.KeyPress{
		Key:       keys.KeyF,
		Modifiers: keys.NewModifierSet(keys.ModifierKeyPress{Modifier: keys.ModShift, Side: keys.SideEither}),
	}
	require.NoError(t, d.Dispatch([]action.Action{action.NewWithMark(kp)}))
	dev.events = nil

	require.NoError(t, d.ReleaseAll())
	require.Empty(t, dev.events, "with_mark presses and releases synchronously, nothing should remain held")
}

func TestDispatchModeAndMarkActionsAreNoOps(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestDispatcher(dev)

	require.NoError(t, d.Dispatch([]action.Action{
		action.NewSetMode("nav"),
		action.NewSetMark(true),
		action.NewEscapeNextKey(true),
		action.NewLaunch("true"),
	}))
	require.Empty(t, dev.events)
}
