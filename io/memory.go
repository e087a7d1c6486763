package io

import (
	"fmt"
	"iter"
	"maps"
)

// Memory is a flat, host owned byte array.
type Memory []byte

var _ Bus = (Memory)(nil)

// NewMemory allocates a zeroed memory of size bytes.
func NewMemory(size int) Memory {
	return make(Memory, size)
}

// check validates that [addr, addr+width) fits in the memory.
func (mem Memory) check(addr uint32, width int) (err error) {
	if uint64(addr)+uint64(width) > uint64(len(mem)) {
		err = ErrAddress{Addr: addr, Width: width}
	}
	return
}

// Load copies len(data) bytes from addr.
func (mem Memory) Load(addr uint32, data []byte) (err error) {
	err = mem.check(addr, len(data))
	if err != nil {
		return
	}

	copy(data, mem[addr:])
	return
}

// Store copies data to addr.
func (mem Memory) Store(addr uint32, data []byte) (err error) {
	err = mem.check(addr, len(data))
	if err != nil {
		return
	}

	copy(mem[addr:], data)
	return
}

// Image copies a program image to the start of memory.
func (mem Memory) Image(image []byte) (err error) {
	if len(image) > len(mem) {
		err = ErrImageSize
		return
	}

	copy(mem, image)
	return
}

// Clear zeroes all of memory.
func (mem Memory) Clear() {
	clear(mem)
}

// Defines returns the memory size equate.
func (mem Memory) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("0x%x", len(mem)),
	})
}
