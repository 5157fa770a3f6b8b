package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/xremap-go/xremap/internal/action"
	"github.com/xremap-go/xremap/internal/keys"
)

// KeymapAction is one leaf action parsed from a chord's remap value:
// either a bare chord to emit as a key event, or one of the structured
// map forms (launch, set_mode, set_mark, with_mark). Nested remap blocks
// are not a KeymapAction — see Entry.
type KeymapAction struct {
	Kind action.Kind

	Chord   keys.KeyPress // KindKeyEvent
	Command []string      // KindLaunch
	Mode    string        // KindSetMode
	Mark    bool          // KindSetMark
	WithKey keys.KeyPress // KindWithMark
}

// UnmarshalYAML accepts a bare chord string or a one-key map selecting
// launch/set_mode/set_mark/with_mark.
func (a *KeymapAction) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var chord string
		if err := node.Decode(&chord); err != nil {
			return err
		}
		kp, err := ParseChord(chord)
		if err != nil {
			return err
		}
		a.Kind = action.KindKeyEvent
		a.Chord = kp
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("action map must have exactly one key, got %d", len(node.Content)/2)
		}
		key := node.Content[0].Value
		val := node.Content[1]
		switch key {
		case "launch":
			var cmd []string
			if err := val.Decode(&cmd); err != nil {
				return fmt.Errorf("launch: %w", err)
			}
			a.Kind = action.KindLaunch
			a.Command = cmd
		case "set_mode":
			var mode string
			if err := val.Decode(&mode); err != nil {
				return fmt.Errorf("set_mode: %w", err)
			}
			a.Kind = action.KindSetMode
			a.Mode = mode
		case "set_mark":
			var mark bool
			if err := val.Decode(&mark); err != nil {
				return fmt.Errorf("set_mark: %w", err)
			}
			a.Kind = action.KindSetMark
			a.Mark = mark
		case "with_mark":
			var chord string
			if err := val.Decode(&chord); err != nil {
				return fmt.Errorf("with_mark: %w", err)
			}
			kp, err := ParseChord(chord)
			if err != nil {
				return err
			}
			a.Kind = action.KindWithMark
			a.WithKey = kp
		default:
			return fmt.Errorf("unknown action key %q (or misplaced remap — remap blocks must sit directly under a chord)", key)
		}
		return nil

	default:
		return fmt.Errorf("unsupported action node kind %v", node.Kind)
	}
}

// Entry is the value bound to one chord inside a remap block: either a
// leaf action-or-sequence, or a nested remap table (prefix dispatch).
type Entry struct {
	Actions []KeymapAction
	Nested  map[string]*Entry // non-nil iff this chord installs an override table

	// NestedOrder holds Nested's keys in the document order they were
	// declared in, since ranging a map gives no such guarantee. Kept
	// alongside Nested rather than folded into it so callers that don't
	// care about order (tests building Entry literals) aren't forced to
	// populate it.
	NestedOrder []string
}

func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		e.Actions = make([]KeymapAction, len(node.Content))
		for i, child := range node.Content {
			if err := e.Actions[i].UnmarshalYAML(child); err != nil {
				return err
			}
		}
		return nil

	case yaml.MappingNode:
		if len(node.Content) == 2 && node.Content[0].Value == "remap" {
			nested, order, err := decodeRemapNode(node.Content[1])
			if err != nil {
				return fmt.Errorf("remap: %w", err)
			}
			e.Nested = nested
			e.NestedOrder = order
			return nil
		}
		var a KeymapAction
		if err := a.UnmarshalYAML(node); err != nil {
			return err
		}
		e.Actions = []KeymapAction{a}
		return nil

	default:
		var a KeymapAction
		if err := a.UnmarshalYAML(node); err != nil {
			return err
		}
		e.Actions = []KeymapAction{a}
		return nil
	}
}

// decodeRemapNode decodes a YAML mapping of chord-string -> Entry. It
// returns both the map and a parallel slice of its keys in document
// order: a Go map gives no iteration-order guarantee, so callers that
// need earlier-defined-wins tie-breaking (BuildTables, buildModmapTable,
// BuildOverrideTable) must walk the order slice rather than range the
// map.
func decodeRemapNode(node *yaml.Node) (map[string]*Entry, []string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("remap must be a mapping, got %v", node.Kind)
	}
	out := make(map[string]*Entry, len(node.Content)/2)
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		chord := node.Content[i].Value
		entry := &Entry{}
		if err := entry.UnmarshalYAML(node.Content[i+1]); err != nil {
			return nil, nil, fmt.Errorf("chord %q: %w", chord, err)
		}
		if _, exists := out[chord]; !exists {
			order = append(order, chord)
		}
		out[chord] = entry
	}
	return out, order, nil
}
