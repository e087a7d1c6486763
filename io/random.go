package io

import (
	"fmt"
	"iter"
	"maps"
	"math/rand/v2"
)

// RANDOM_ADDRESS is the default location of the random byte.
const RANDOM_ADDRESS = 0x9002

// Random stores a fresh random byte at Address on every sync.
type Random struct {
	Address uint32
	Source  *rand.Rand // If nil, the global source is used.

	Last byte // Last byte written.
}

var _ Device = (*Random)(nil)

// Defines returns the random byte equates.
func (rnd *Random) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"RANDOM_ADDRESS": fmt.Sprintf("0x%x", rnd.Address),
	})
}

// Rewind forgets the last value.
func (rnd *Random) Rewind() {
	rnd.Last = 0
}

// Sync writes the next random byte.
func (rnd *Random) Sync(bus Bus) (err error) {
	var value uint32
	if rnd.Source != nil {
		value = rnd.Source.Uint32()
	} else {
		value = rand.Uint32()
	}

	err = bus.Store(rnd.Address, []byte{byte(value)})
	if err != nil {
		return
	}

	rnd.Last = byte(value)
	return
}
