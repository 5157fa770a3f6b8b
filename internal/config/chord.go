package config

import (
	"fmt"
	"strings"

	"github.com/xremap-go/xremap/internal/keys"
)

// ParseChord parses a chord string such as "C-M-f", "Super-space", or
// "C_L-x" into a KeyPress. Modifier prefixes are case-insensitive and may
// be combined in any order; the bare key name is matched last.
func ParseChord(chord string) (keys.KeyPress, error) {
	parts := strings.Split(chord, "-")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return keys.KeyPress{}, fmt.Errorf("empty chord %q", chord)
	}

	keyName := parts[len(parts)-1]
	mods := keys.ModifierSet{}
	for _, tok := range parts[:len(parts)-1] {
		mod, side, ok := parseModifierToken(tok)
		if !ok {
			return keys.KeyPress{}, fmt.Errorf("unknown modifier prefix %q in chord %q", tok, chord)
		}
		mods[mod] = side
	}

	key, ok := keys.KeyByName(keyName)
	if !ok {
		return keys.KeyPress{}, fmt.Errorf("unknown key name %q in chord %q", keyName, chord)
	}

	return keys.KeyPress{Key: key, Modifiers: mods}, nil
}

func parseModifierToken(tok string) (keys.Modifier, keys.Side, bool) {
	switch strings.ToLower(tok) {
	case "c":
		return keys.ModControl, keys.SideEither, true
	case "c_l":
		return keys.ModControl, keys.SideLeft, true
	case "c_r":
		return keys.ModControl, keys.SideRight, true
	case "m", "alt":
		return keys.ModAlt, keys.SideEither, true
	case "m_l", "alt_l":
		return keys.ModAlt, keys.SideLeft, true
	case "m_r", "alt_r":
		return keys.ModAlt, keys.SideRight, true
	case "shift":
		return keys.ModShift, keys.SideEither, true
	case "shift_l":
		return keys.ModShift, keys.SideLeft, true
	case "shift_r":
		return keys.ModShift, keys.SideRight, true
	case "super", "win", "mod4":
		return keys.ModSuper, keys.SideEither, true
	case "super_l", "win_l":
		return keys.ModSuper, keys.SideLeft, true
	case "super_r", "win_r":
		return keys.ModSuper, keys.SideRight, true
	default:
		return 0, keys.SideEither, false
	}
}
