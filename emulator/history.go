package emulator

const (
	HISTORY_LIMIT = 16 // Retired program counters kept.
)

// History is a bounded record of retired program counters, oldest first.
type History struct {
	Data []uint32
}

// Push records pc, forgetting the oldest entry when full.
func (h *History) Push(pc uint32) {
	if h.Full() {
		h.Data = append(h.Data[:0], h.Data[1:]...)
	}
	h.Data = append(h.Data, pc)
}

func (h *History) Empty() bool {
	return len(h.Data) == 0
}

func (h *History) Full() bool {
	return len(h.Data) == HISTORY_LIMIT
}

// Peek returns the most recently retired program counter.
func (h *History) Peek() (pc uint32, ok bool) {
	if h.Empty() {
		return
	}

	return h.Data[len(h.Data)-1], true
}

func (h *History) Reset() {
	if len(h.Data) > 0 {
		h.Data = h.Data[:0]
	}
}
