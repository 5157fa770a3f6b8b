// Package config parses the YAML configuration file into the typed
// modmap/keymap tree and compiles the trigger-keyed dispatch tables the
// handler consults at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xremap-go/xremap/internal/keys"
)

// ApplicationFilter gates a keymap entry by the focused window's class.
type ApplicationFilter struct {
	Only []string `yaml:"only"`
	Not  []string `yaml:"not"`
}

// Matches reports whether the filter passes for the given focused
// application class (empty string / not-ok means no application known).
func (f *ApplicationFilter) Matches(class string, known bool) bool {
	if f == nil {
		return true
	}
	if len(f.Only) > 0 {
		if !known {
			return false
		}
		return containsString(f.Only, class)
	}
	if len(f.Not) > 0 {
		if !known {
			return true
		}
		return !containsString(f.Not, class)
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Keymap is one top-level `keymap:` list entry.
type Keymap struct {
	Name        string             `yaml:"name"`
	Remap       map[string]*Entry  `yaml:"-"`
	RemapOrder  []string           `yaml:"-"` // Remap's keys in document order
	RawRemap    yaml.Node          `yaml:"remap"`
	Application *ApplicationFilter `yaml:"application"`
	Mode        *StringOrList      `yaml:"mode"`
	ExactMatch  bool               `yaml:"exact_match"`
}

// UnmarshalYAML is implemented manually only to keep RawRemap decoding
// deferred: the remap map must be decoded with decodeRemapNode so that
// document order is preserved for insertion-order tie-breaking.
func (k *Keymap) UnmarshalYAML(node *yaml.Node) error {
	type rawKeymap Keymap
	var raw rawKeymap
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*k = Keymap(raw)
	remap, order, err := decodeRemapNode(&k.RawRemap)
	if err != nil {
		return fmt.Errorf("keymap %q: %w", k.Name, err)
	}
	k.Remap = remap
	k.RemapOrder = order
	return nil
}

// StringOrList decodes either a bare string or a YAML sequence of
// strings into a slice (used for `mode:`).
type StringOrList struct {
	Values []string
}

func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		s.Values = []string{v}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&s.Values)
	default:
		return fmt.Errorf("mode must be a string or list of strings")
	}
}

// ModmapActions holds the held/pressed/alone dispatch an entry may
// configure in place of a flat key substitution.
type ModmapActions struct {
	Held    []KeymapAction `yaml:"held"`
	Pressed []KeymapAction `yaml:"pressed"`
	Alone   []KeymapAction `yaml:"alone"`
}

// Modmap is one top-level `modmap:` list entry: a literal per-key
// substitution table applied before keymap resolution.
type Modmap struct {
	Name        string                  `yaml:"name"`
	Remap       map[string]*ModmapEntry `yaml:"-"`
	RemapOrder  []string                `yaml:"-"` // Remap's keys in document order
	RawRemap    yaml.Node               `yaml:"remap"`
	Application *ApplicationFilter      `yaml:"application"`
	Mode        *StringOrList           `yaml:"mode"`
}

// ModmapEntry is the value bound to one key under a modmap's remap
// block: either a literal key substitution or per-phase actions.
type ModmapEntry struct {
	SubstituteKey keys.KeyCode
	Actions       *ModmapActions
}

func (e *ModmapEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		key, ok := keys.KeyByName(name)
		if !ok {
			return fmt.Errorf("unknown key name %q", name)
		}
		e.SubstituteKey = key
		return nil
	case yaml.MappingNode:
		var acts ModmapActions
		if err := node.Decode(&acts); err != nil {
			return err
		}
		e.Actions = &acts
		return nil
	default:
		return fmt.Errorf("unsupported modmap entry node kind %v", node.Kind)
	}
}

func (m *Modmap) UnmarshalYAML(node *yaml.Node) error {
	type rawModmap Modmap
	var raw rawModmap
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*m = Modmap(raw)
	if m.RawRemap.Kind == 0 {
		return nil
	}
	if m.RawRemap.Kind != yaml.MappingNode {
		return fmt.Errorf("modmap %q: remap must be a mapping", m.Name)
	}
	out := make(map[string]*ModmapEntry, len(m.RawRemap.Content)/2)
	order := make([]string, 0, len(m.RawRemap.Content)/2)
	for i := 0; i < len(m.RawRemap.Content); i += 2 {
		name := m.RawRemap.Content[i].Value
		entry := &ModmapEntry{}
		if err := entry.UnmarshalYAML(m.RawRemap.Content[i+1]); err != nil {
			return fmt.Errorf("modmap %q, key %q: %w", m.Name, name, err)
		}
		if _, exists := out[name]; !exists {
			order = append(order, name)
		}
		out[name] = entry
	}
	m.Remap = out
	m.RemapOrder = order
	return nil
}

// Config is the top-level parsed configuration tree.
type Config struct {
	Modmap            []*Modmap `yaml:"modmap"`
	Keymap            []*Keymap `yaml:"keymap"`
	DefaultMode       string    `yaml:"default_mode"`
	KeypressDelayMs   int       `yaml:"keypress_delay_ms"`
	VirtualModifiers  []string  `yaml:"virtual_modifiers"`

	// Derived indices, populated by BuildTables after decode.
	KeymapTable map[keys.KeyCode][]*KeymapEntry           `yaml:"-"`
	ModmapTable map[keys.KeyCode][]*CompiledModmapEntry   `yaml:"-"`
	VirtualMods map[keys.KeyCode]bool                     `yaml:"-"`
	ModifyTime  time.Time                                 `yaml:"-"`
}

// KeypressDelay returns the configured inter-action delay.
func (c *Config) KeypressDelay() time.Duration {
	return time.Duration(c.KeypressDelayMs) * time.Millisecond
}

const defaultMode = "default"

// Load reads and parses the config file at path, then compiles its
// derived tables. An empty default_mode is normalized to "default".
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.DefaultMode == "" {
		cfg.DefaultMode = defaultMode
	}

	cfg.VirtualMods = make(map[keys.KeyCode]bool, len(cfg.VirtualModifiers))
	for _, name := range cfg.VirtualModifiers {
		key, ok := keys.KeyByName(name)
		if !ok {
			return nil, fmt.Errorf("config %s: unknown virtual_modifiers key %q", path, name)
		}
		cfg.VirtualMods[key] = true
	}

	if info, err := os.Stat(path); err == nil {
		cfg.ModifyTime = info.ModTime()
	}

	BuildTables(&cfg)
	return &cfg, nil
}
