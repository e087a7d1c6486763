package io

import (
	"fmt"
	"iter"
	"maps"
)

// KEYBOARD_ADDRESS is the default location of the keyboard state bytes.
const KEYBOARD_ADDRESS = 0x9000

// Key is a directional key.
type Key int

const (
	KEY_UP    = Key(0) // up
	KEY_DOWN  = Key(1) // down
	KEY_LEFT  = Key(2) // left
	KEY_RIGHT = Key(3) // right
)

var _key_names = [...]string{"up", "down", "left", "right"}

func (key Key) String() string {
	if key < 0 || int(key) >= len(_key_names) {
		return fmt.Sprintf("Key(%d)", int(key))
	}
	return _key_names[key]
}

// Keyboard maps the directional keys to two signed state bytes.
// Address+0 holds the vertical axis (-1 up, 1 down), Address+1 the
// horizontal axis (-1 left, 1 right). A released axis reads 0.
type Keyboard struct {
	Address uint32

	Vertical   int8
	Horizontal int8
}

var _ Device = (*Keyboard)(nil)

// Defines returns the keyboard equates.
func (kb *Keyboard) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"KEYBOARD_ADDRESS": fmt.Sprintf("0x%x", kb.Address),
	})
}

// Rewind releases all keys.
func (kb *Keyboard) Rewind() {
	kb.Vertical = 0
	kb.Horizontal = 0
}

// Press sets the axis of key.
func (kb *Keyboard) Press(key Key) {
	switch key {
	case KEY_UP:
		kb.Vertical = -1
	case KEY_DOWN:
		kb.Vertical = 1
	case KEY_LEFT:
		kb.Horizontal = -1
	case KEY_RIGHT:
		kb.Horizontal = 1
	}
}

// Release clears the axis of key.
func (kb *Keyboard) Release(key Key) {
	switch key {
	case KEY_UP, KEY_DOWN:
		kb.Vertical = 0
	case KEY_LEFT, KEY_RIGHT:
		kb.Horizontal = 0
	}
}

// Sync writes the axis state to the bus.
func (kb *Keyboard) Sync(bus Bus) error {
	return bus.Store(kb.Address, []byte{byte(kb.Vertical), byte(kb.Horizontal)})
}
