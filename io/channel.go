// Package io provides the memory bus and the memory mapped peripherals of
// the rv32i host. It includes the flat byte Memory used as the CPU bus,
// the directional Keyboard state bytes, the Random byte source and the
// text rendering Screen framebuffer.
package io

import (
	"iter"
)

// Bus is the byte addressable memory the CPU fetches, loads and stores
// through. An access either transfers all of data or none of it.
type Bus interface {
	// Load copies len(data) bytes starting at addr into data.
	Load(addr uint32, data []byte) error
	// Store copies data into memory starting at addr.
	Store(addr uint32, data []byte) error
}

// Device defines the interface for all memory mapped peripherals.
// The host synchronizes every device with the bus between CPU steps.
type Device interface {
	// Rewind resets the device to its initial state.
	Rewind()
	// Sync exchanges device state with its mapped addresses.
	Sync(bus Bus) error
	// Defines returns the assembler equates describing the device.
	Defines() iter.Seq2[string, string]
}
