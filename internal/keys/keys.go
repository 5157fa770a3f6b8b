// Package keys defines the canonical key codes and the modifier model
// shared by config parsing, the translation handler, and the output
// dispatcher.
package keys

import "fmt"

// KeyCode is a Linux evdev key/button scancode (linux/input-event-codes.h).
type KeyCode uint16

// Value is the value field of a KEY input_event.
type Value int32

const (
	Release Value = 0
	Press   Value = 1
	Repeat  Value = 2
)

func (v Value) String() string {
	switch v {
	case Release:
		return "release"
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	default:
		return fmt.Sprintf("Value(%d)", int32(v))
	}
}

// Key codes actually referenced by the handler, config grammar, and tests.
// The set mirrors linux/input-event-codes.h; it is not exhaustive, but
// every code a config's chord grammar can name resolves through KeyByName.
const (
	KeyReserved   KeyCode = 0
	KeyEsc        KeyCode = 1
	Key1          KeyCode = 2
	Key2          KeyCode = 3
	Key3          KeyCode = 4
	Key4          KeyCode = 5
	Key5          KeyCode = 6
	Key6          KeyCode = 7
	Key7          KeyCode = 8
	Key8          KeyCode = 9
	Key9          KeyCode = 10
	Key0          KeyCode = 11
	KeyMinus      KeyCode = 12
	KeyEqual      KeyCode = 13
	KeyBackspace  KeyCode = 14
	KeyTab        KeyCode = 15
	KeyQ          KeyCode = 16
	KeyW          KeyCode = 17
	KeyE          KeyCode = 18
	KeyR          KeyCode = 19
	KeyT          KeyCode = 20
	KeyY          KeyCode = 21
	KeyU          KeyCode = 22
	KeyI          KeyCode = 23
	KeyO          KeyCode = 24
	KeyP          KeyCode = 25
	KeyLeftBrace  KeyCode = 26
	KeyRightBrace KeyCode = 27
	KeyEnter      KeyCode = 28
	KeyLeftCtrl   KeyCode = 29
	KeyA          KeyCode = 30
	KeyS          KeyCode = 31
	KeyD          KeyCode = 32
	KeyF          KeyCode = 33
	KeyG          KeyCode = 34
	KeyH          KeyCode = 35
	KeyJ          KeyCode = 36
	KeyK          KeyCode = 37
	KeyL          KeyCode = 38
	KeySemicolon  KeyCode = 39
	KeyApostrophe KeyCode = 40
	KeyGrave      KeyCode = 41
	KeyLeftShift  KeyCode = 42
	KeyBackslash  KeyCode = 43
	KeyZ          KeyCode = 44
	KeyX          KeyCode = 45
	KeyC          KeyCode = 46
	KeyV          KeyCode = 47
	KeyB          KeyCode = 48
	KeyN          KeyCode = 49
	KeyM          KeyCode = 50
	KeyComma      KeyCode = 51
	KeyDot        KeyCode = 52
	KeySlash      KeyCode = 53
	KeyRightShift KeyCode = 54
	KeyKPAsterisk KeyCode = 55
	KeyLeftAlt    KeyCode = 56
	KeySpace      KeyCode = 57
	KeyCapsLock   KeyCode = 58
	KeyF1         KeyCode = 59
	KeyF2         KeyCode = 60
	KeyF3         KeyCode = 61
	KeyF4         KeyCode = 62
	KeyF5         KeyCode = 63
	KeyF6         KeyCode = 64
	KeyF7         KeyCode = 65
	KeyF8         KeyCode = 66
	KeyF9         KeyCode = 67
	KeyF10        KeyCode = 68
	KeyNumLock    KeyCode = 69
	KeyScrollLock KeyCode = 70
	KeyKP7        KeyCode = 71
	KeyKP8        KeyCode = 72
	KeyKP9        KeyCode = 73
	KeyKPMinus    KeyCode = 74
	KeyKP4        KeyCode = 75
	KeyKP5        KeyCode = 76
	KeyKP6        KeyCode = 77
	KeyKPPlus     KeyCode = 78
	KeyKP1        KeyCode = 79
	KeyKP2        KeyCode = 80
	KeyKP3        KeyCode = 81
	KeyKP0        KeyCode = 82
	KeyKPDot      KeyCode = 83
	KeyF11        KeyCode = 87
	KeyF12        KeyCode = 88
	KeyKPEnter    KeyCode = 96
	KeyRightCtrl  KeyCode = 97
	KeyKPSlash    KeyCode = 98
	KeySysrq      KeyCode = 99
	KeyRightAlt   KeyCode = 100
	KeyHome       KeyCode = 102
	KeyUp         KeyCode = 103
	KeyPageUp     KeyCode = 104
	KeyLeft       KeyCode = 105
	KeyRight      KeyCode = 106
	KeyEnd        KeyCode = 107
	KeyDown       KeyCode = 108
	KeyPageDown   KeyCode = 109
	KeyInsert     KeyCode = 110
	KeyDelete     KeyCode = 111
	KeyPause      KeyCode = 119
	KeyLeftMeta   KeyCode = 125
	KeyRightMeta  KeyCode = 126

	// Mouse buttons.
	BtnLeft    KeyCode = 0x110
	BtnRight   KeyCode = 0x111
	BtnMiddle  KeyCode = 0x112
	BtnSide    KeyCode = 0x113
	BtnExtra   KeyCode = 0x114
	BtnForward KeyCode = 0x115
	BtnBack    KeyCode = 0x116
	BtnTask    KeyCode = 0x117

	// Tablet tool/button range.
	BtnToolPen      KeyCode = 0x140
	BtnToolRubber   KeyCode = 0x141
	BtnToolBrush    KeyCode = 0x142
	BtnToolPencil   KeyCode = 0x143
	BtnToolAirbrush KeyCode = 0x144
	BtnToolFinger   KeyCode = 0x145
	BtnToolMouse    KeyCode = 0x146
	BtnToolLens     KeyCode = 0x147
	BtnTouch        KeyCode = 0x14a
	BtnStylus       KeyCode = 0x14b
	BtnStylus2      KeyCode = 0x14c
)

// RelAxis is an EV_REL axis code.
type RelAxis uint16

// Axes 0-12, as enumerated in spec.md §3 (REL_X .. REL_HWHEEL_HI_RES).
const (
	RelX RelAxis = iota
	RelY
	RelZ
	RelRX
	RelRY
	RelRZ
	RelHWheel
	RelDial
	RelWheel
	RelMisc
	RelReserved
	RelWheelHiRes
	RelHWheelHiRes
)

// NumRelAxes is the count of axes the disguise offsetter covers.
const NumRelAxes = RelHWheelHiRes + 1

// DisguisedEventOffsetter is the base key code synthesized relative-axis
// "disguise" key events start at. It must be greater than the largest
// scancode in use (0x2e7 at the time xremap picked this constant) and
// leave room for NumRelAxes*2-1 codes above it without overflowing
// uint16. See spec.md §3 and §9.
const DisguisedEventOffsetter KeyCode = 0x2f0

// DisguisedKeyFor returns the synthetic key code used to represent a
// relative-axis motion of the given sign as a key event.
func DisguisedKeyFor(axis RelAxis, negative bool) KeyCode {
	offset := KeyCode(axis) * 2
	if negative {
		offset++
	}
	return DisguisedEventOffsetter + offset
}

// IsDisguisedKey reports whether code was synthesized by DisguisedKeyFor,
// and if so, which axis/sign it represents.
func IsDisguisedKey(code KeyCode) (axis RelAxis, negative bool, ok bool) {
	if code < DisguisedEventOffsetter {
		return 0, false, false
	}
	offset := code - DisguisedEventOffsetter
	if offset >= KeyCode(NumRelAxes)*2 {
		return 0, false, false
	}
	return RelAxis(offset / 2), offset%2 == 1, true
}

var nameToKey = map[string]KeyCode{
	"esc": KeyEsc, "1": Key1, "2": Key2, "3": Key3, "4": Key4, "5": Key5,
	"6": Key6, "7": Key7, "8": Key8, "9": Key9, "0": Key0,
	"minus": KeyMinus, "equal": KeyEqual, "backspace": KeyBackspace,
	"tab": KeyTab, "q": KeyQ, "w": KeyW, "e": KeyE, "r": KeyR, "t": KeyT,
	"y": KeyY, "u": KeyU, "i": KeyI, "o": KeyO, "p": KeyP,
	"leftbrace": KeyLeftBrace, "rightbrace": KeyRightBrace,
	"enter": KeyEnter, "leftctrl": KeyLeftCtrl,
	"a": KeyA, "s": KeyS, "d": KeyD, "f": KeyF, "g": KeyG, "h": KeyH,
	"j": KeyJ, "k": KeyK, "l": KeyL,
	"semicolon": KeySemicolon, "apostrophe": KeyApostrophe, "grave": KeyGrave,
	"leftshift": KeyLeftShift, "backslash": KeyBackslash,
	"z": KeyZ, "x": KeyX, "c": KeyC, "v": KeyV, "b": KeyB, "n": KeyN, "m": KeyM,
	"comma": KeyComma, "dot": KeyDot, "slash": KeySlash,
	"rightshift": KeyRightShift, "kpasterisk": KeyKPAsterisk,
	"leftalt": KeyLeftAlt, "space": KeySpace, "capslock": KeyCapsLock,
	"f1": KeyF1, "f2": KeyF2, "f3": KeyF3, "f4": KeyF4, "f5": KeyF5,
	"f6": KeyF6, "f7": KeyF7, "f8": KeyF8, "f9": KeyF9, "f10": KeyF10,
	"numlock": KeyNumLock, "scrolllock": KeyScrollLock,
	"kp7": KeyKP7, "kp8": KeyKP8, "kp9": KeyKP9, "kpminus": KeyKPMinus,
	"kp4": KeyKP4, "kp5": KeyKP5, "kp6": KeyKP6, "kpplus": KeyKPPlus,
	"kp1": KeyKP1, "kp2": KeyKP2, "kp3": KeyKP3, "kp0": KeyKP0, "kpdot": KeyKPDot,
	"f11": KeyF11, "f12": KeyF12, "kpenter": KeyKPEnter,
	"rightctrl": KeyRightCtrl, "kpslash": KeyKPSlash, "sysrq": KeySysrq,
	"rightalt": KeyRightAlt, "home": KeyHome, "up": KeyUp, "pageup": KeyPageUp,
	"left": KeyLeft, "right": KeyRight, "end": KeyEnd, "down": KeyDown,
	"pagedown": KeyPageDown, "insert": KeyInsert, "delete": KeyDelete,
	"pause": KeyPause, "leftmeta": KeyLeftMeta, "rightmeta": KeyRightMeta,
	"btnleft": BtnLeft, "btnright": BtnRight, "btnmiddle": BtnMiddle,
	"btnside": BtnSide, "btnextra": BtnExtra, "btnforward": BtnForward,
	"btnback": BtnBack, "btntask": BtnTask,
}

var keyToName map[KeyCode]string

func init() {
	keyToName = make(map[KeyCode]string, len(nameToKey))
	for name, code := range nameToKey {
		keyToName[code] = name
	}
}

// KeyByName resolves a bare key name from the chord grammar (spec.md §6)
// to its KeyCode, case-insensitively, accepting both "a" and "KEY_A"
// style spellings.
func KeyByName(name string) (KeyCode, bool) {
	code, ok := nameToKey[normalizeKeyName(name)]
	return code, ok
}

// NameForKey returns the canonical lowercase name for a key code, or
// false if the code has no registered name.
func NameForKey(code KeyCode) (string, bool) {
	name, ok := keyToName[code]
	return name, ok
}

func normalizeKeyName(name string) string {
	out := make([]byte, 0, len(name))
	const prefix = "key_"
	s := name
	if len(s) >= len(prefix) {
		lower := toLower(s[:len(prefix)])
		if lower == prefix {
			s = s[len(prefix):]
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
