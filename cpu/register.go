package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

// Register indexes with a fixed role.
const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
	REG_GP   = 3
	REG_TP   = 4

	REG_COUNT = 32
)

// ABI register names, by index.
var _register_names = [REG_COUNT]string{
	"zero",
	"ra",
	"sp",
	"gp",
	"tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

var _register_index = map[string]uint8{
	"fp": 8,
}

func init() {
	for n, name := range _register_names {
		_register_index[name] = uint8(n)
	}
}

// RegisterName returns the ABI name of a register index.
func RegisterName(index uint8) string {
	if int(index) >= len(_register_names) {
		return fmt.Sprintf("x%d", index)
	}
	return _register_names[index]
}

// RegisterIndex parses an ABI name, "fp" or "x0".."x31".
func RegisterIndex(name string) (index uint8, ok bool) {
	index, ok = _register_index[name]
	if ok {
		return
	}

	num, found := strings.CutPrefix(name, "x")
	if !found {
		return
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil || n >= REG_COUNT {
		return
	}

	return uint8(n), true
}
