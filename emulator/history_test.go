package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_Push(t *testing.T) {
	assert := assert.New(t)

	h := &History{}
	assert.True(h.Empty())
	assert.False(h.Full())

	_, ok := h.Peek()
	assert.False(ok)

	h.Push(0x100)
	assert.False(h.Empty())
	pc, ok := h.Peek()
	assert.True(ok)
	assert.Equal(uint32(0x100), pc)
}

func TestHistory_Full(t *testing.T) {
	assert := assert.New(t)

	h := &History{}
	for n := range HISTORY_LIMIT + 3 {
		h.Push(uint32(4 * n))
	}

	assert.True(h.Full())
	assert.Len(h.Data, HISTORY_LIMIT)
	assert.Equal(uint32(12), h.Data[0])

	pc, ok := h.Peek()
	assert.True(ok)
	assert.Equal(uint32(4*(HISTORY_LIMIT+2)), pc)

	h.Reset()
	assert.True(h.Empty())
}
