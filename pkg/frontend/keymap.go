// Package frontend connects the machine to a terminal: keyboard to keypad
// mapping, key release emulation and rendering of the display with tcell.
package frontend

import (
	"unicode"
)

// Keymap translates keyboard characters into keypad keys
type Keymap map[rune]uint8

// DefaultKeymap is the usual layout of the hex keypad over the left side of a
// QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  <-  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var DefaultKeymap = Keymap{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// NewKeymap returns the default layout with the given overrides applied
func NewKeymap(overrides map[rune]uint8) Keymap {
	keymap := make(Keymap, len(DefaultKeymap)+len(overrides))

	for r, key := range DefaultKeymap {
		keymap[r] = key
	}
	for r, key := range overrides {
		keymap[unicode.ToLower(r)] = key
	}

	return keymap
}

// Lookup returns the keypad key for a keyboard character. Letters match
// regardless of case so caps lock doesn't break input
func (k Keymap) Lookup(r rune) (uint8, bool) {
	key, ok := k[unicode.ToLower(r)]
	return key, ok
}
