package cpu

import (
	"encoding/binary"
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo int
	Pc     uint32
	Words  []string
	Codes  []Code
	Label  string // Label defined on this line, if any.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source of an instruction.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the opcode that generated the word at pc. The Opcode
// is nil when pc is outside the program.
func (prog *Program) Debug(pc uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= op.Pc && pc < op.Pc+4*uint32(len(op.Codes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc-op.Pc) / 4,
			}
			break
		}
	}

	return
}

// Binary returns the little-endian memory image of the program, starting
// at address 0.
func (prog *Program) Binary() (image []byte) {
	for pc, code := range prog.Codes() {
		end := int(pc) + 4
		if end > len(image) {
			image = append(image, make([]byte, end-len(image))...)
		}
		binary.LittleEndian.PutUint32(image[pc:], uint32(code))
	}

	return
}

// Codes iterates the program's words by address.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(pc uint32, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Pc+4*uint32(n), code) {
					return
				}
			}
		}
	}
}
