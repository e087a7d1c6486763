package io

import (
	"errors"

	"github.com/ezrec/rv32i/translate"
)

var f = translate.From

var (
	// Bus errors
	ErrRange = errors.New(f("address out of range"))

	// Image errors
	ErrImageSize = errors.New(f("image larger than memory"))
)

// ErrAddress reports a bus access that does not fit in memory.
type ErrAddress struct {
	Addr  uint32
	Width int
}

func (err ErrAddress) Error() string {
	return f("address 0x%08x width %v out of range", err.Addr, err.Width)
}

func (err ErrAddress) Unwrap() error {
	return ErrRange
}
