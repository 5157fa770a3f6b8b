package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidateIsOwnDevice(t *testing.T) {
	own := Candidate{Path: "/dev/input/event9", Name: "xremap pid=1234"}
	require.True(t, own.isOwnDevice())

	other := Candidate{Path: "/dev/input/event3", Name: "AT Translated Set 2 keyboard"}
	require.False(t, other.isOwnDevice())
}

func TestCandidateMatchesExactPathOrName(t *testing.T) {
	c := Candidate{Path: "/dev/input/event3", Name: "AT Translated Set 2 keyboard"}

	require.True(t, c.matches([]string{"/dev/input/event3"}))
	require.True(t, c.matches([]string{"AT Translated Set 2 keyboard"}))
	require.False(t, c.matches([]string{"/dev/input/event4"}))
}

func TestCandidateMatchesEventShorthand(t *testing.T) {
	c := Candidate{Path: "/dev/input/event3", Name: "some keyboard"}
	require.True(t, c.matches([]string{"event3"}))
	require.False(t, c.matches([]string{"event4"}))
}

func TestCandidateMatchesNameSubstring(t *testing.T) {
	c := Candidate{Path: "/dev/input/event3", Name: "Logitech USB Receiver"}
	require.True(t, c.matches([]string{"Logitech"}))
	require.False(t, c.matches([]string{"Razer"}))
}

func TestSelectExplicitDeviceOptsExcludesOwnDevice(t *testing.T) {
	candidates := []Candidate{
		{Path: "/dev/input/event1", Name: "keyboard"},
		{Path: "/dev/input/event9", Name: "xremap pid=1"},
	}

	selected := Select(candidates, []string{"event1", "event9"}, nil, false)
	require.Len(t, selected, 1)
	require.Equal(t, "/dev/input/event1", selected[0].Path)
}

func TestSelectHonorsIgnoreEvenWithExplicitDeviceOpts(t *testing.T) {
	candidates := []Candidate{
		{Path: "/dev/input/event1", Name: "keyboard"},
		{Path: "/dev/input/event2", Name: "another keyboard"},
	}

	selected := Select(candidates, []string{"event1", "event2"}, []string{"event2"}, false)
	require.Len(t, selected, 1)
	require.Equal(t, "/dev/input/event1", selected[0].Path)
}

func TestSelectExcludesOwnDeviceEvenInAutoMode(t *testing.T) {
	// isOwnDevice is checked before the isKeyboard/isMouse classification
	// that needs a populated evdev handle, so this path is exercisable
	// without one.
	candidates := []Candidate{{Path: "/dev/input/event9", Name: "xremap pid=1"}}
	selected := Select(candidates, nil, nil, false)
	require.Empty(t, selected)
}
