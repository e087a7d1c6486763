package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32i/io"
)

// Bus is the memory interface the CPU fetches, loads and stores through.
type Bus io.Bus

// DIRTY_NONE marks that no register was written by the last instruction.
const DIRTY_NONE = -1

// Cpu is the simulation context for a single RV32I hart.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Bus Bus // Borrowed reference to the host memory.

	Pc       uint32            // Program counter.
	Register [REG_COUNT]uint32 // Register file. Register[0] always reads 0.
	Dirty    int               // Last register written, or DIRTY_NONE.

	Ticks int // Instructions retired since reset.
}

// NewCpu creates a new CPU attached to a host owned bus.
func NewCpu(bus Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus:   bus,
		Dirty: DIRTY_NONE,
	}

	return
}

// String returns the register file as two columns of ABI names, with
// the dirty register marked by '*', followed by the program counter.
func (cpu *Cpu) String() (text string) {
	half := REG_COUNT / 2
	for i := range half {
		for _, reg := range []int{i, i + half} {
			mark := " "
			if reg == cpu.Dirty {
				mark = "*"
			}
			text += fmt.Sprintf("%-4s =%s%08x   ", RegisterName(uint8(reg)), mark, cpu.Register[reg])
		}
		text = strings.TrimRight(text, " ") + "\n"
	}
	text += fmt.Sprintf("%-4s = %08x\n", "pc", cpu.Pc)

	return
}

// Reset zeroes the register file and clears the dirty marker.
// The program counter and stack pointer are left for the host to set.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		logrus.Info("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Dirty = DIRTY_NONE
	cpu.Ticks = 0
}

// Fetch reads the little-endian instruction word at the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	var word [4]byte
	err = cpu.Bus.Load(cpu.Pc, word[:])
	if err != nil {
		err = errors.Join(ErrMemoryFetch, err)
		return
	}

	code = Code(binary.LittleEndian.Uint32(word[:]))
	return
}

// Step fetches and executes the instruction at the program counter.
func (cpu *Cpu) Step() (err error) {
	cpu.Dirty = DIRTY_NONE

	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	return
}

// Execute executes a single instruction word. On error the register
// file, memory and program counter are left untouched.
func (cpu *Cpu) Execute(code Code) (err error) {
	cpu.Dirty = DIRTY_NONE

	inst, err := code.Instruction()
	if err != nil {
		return
	}

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("%08x", cpu.Pc),
			"code": fmt.Sprintf("%08x", uint32(code)),
		}).Infof("cpu: %v", code.Disassemble())
	}

	cpu.Register[REG_ZERO] = 0

	pc := cpu.Pc
	next_pc := pc + 4
	src1 := cpu.Register[inst.Rs1]
	src2 := cpu.Register[inst.Rs2]

	var value uint32
	writes := true

	switch inst.Op.Class() {
	case CLASS_LUI:
		value = inst.Imm
	case CLASS_AUIPC:
		value = pc + inst.Imm
	case CLASS_JAL:
		value = pc + 4
		next_pc = pc + inst.Imm
	case CLASS_JALR:
		value = pc + 4
		// The target keeps bit 0; it is not masked off.
		next_pc = src1 + inst.Imm
	case CLASS_BRANCH:
		writes = false
		if doBranch(inst.Op, src1, src2) {
			next_pc = pc + inst.Imm
		}
	case CLASS_LOAD:
		value, err = cpu.load(inst.Op, src1+inst.Imm)
		if err != nil {
			return
		}
	case CLASS_STORE:
		writes = false
		err = cpu.store(inst.Op, src1+inst.Imm, src2)
		if err != nil {
			return
		}
	case CLASS_ALUI:
		value = doAlu(inst.Op, src1, inst.Imm)
	case CLASS_ALU:
		value = doAlu(inst.Op, src1, src2)
	}

	if writes {
		cpu.setRegister(inst.Rd, value)
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// setRegister writes a register and marks it dirty. Writes to
// register 0 are discarded.
func (cpu *Cpu) setRegister(index uint8, value uint32) {
	if index != REG_ZERO {
		cpu.Register[index] = value
	}
	cpu.Dirty = int(index)
}

// load reads and extends the width selected by op.
func (cpu *Cpu) load(op CodeOp, addr uint32) (value uint32, err error) {
	var data [4]byte

	var width int
	switch op {
	case OP_LB, OP_LBU:
		width = 1
	case OP_LH, OP_LHU:
		width = 2
	case OP_LW:
		width = 4
	}

	err = cpu.Bus.Load(addr, data[:width])
	if err != nil {
		err = errors.Join(ErrMemoryLoad, err)
		return
	}

	switch op {
	case OP_LB:
		value = uint32(int32(int8(data[0])))
	case OP_LBU:
		value = uint32(data[0])
	case OP_LH:
		value = uint32(int32(int16(binary.LittleEndian.Uint16(data[:]))))
	case OP_LHU:
		value = uint32(binary.LittleEndian.Uint16(data[:]))
	case OP_LW:
		value = binary.LittleEndian.Uint32(data[:])
	}

	return
}

// store writes the low order bytes of value selected by op.
func (cpu *Cpu) store(op CodeOp, addr uint32, value uint32) (err error) {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)

	var width int
	switch op {
	case OP_SB:
		width = 1
	case OP_SH:
		width = 2
	case OP_SW:
		width = 4
	}

	err = cpu.Bus.Store(addr, data[:width])
	if err != nil {
		err = errors.Join(ErrMemoryStore, err)
	}

	return
}

// doBranch evaluates the branch condition.
func doBranch(op CodeOp, a uint32, b uint32) (taken bool) {
	switch op {
	case OP_BEQ:
		taken = a == b
	case OP_BNE:
		taken = a != b
	case OP_BLT:
		taken = int32(a) < int32(b)
	case OP_BGE:
		taken = int32(a) >= int32(b)
	case OP_BLTU:
		taken = a < b
	case OP_BGEU:
		taken = a >= b
	}

	return
}

// doAlu performs the requested ALU action, and returns the output value.
func doAlu(op CodeOp, input uint32, value uint32) (output uint32) {
	shift := value & 0x1f

	switch op {
	case OP_ADD, OP_ADDI:
		output = input + value
	case OP_SUB:
		output = input - value
	case OP_SLL, OP_SLLI:
		output = input << shift
	case OP_SLT, OP_SLTI:
		if int32(input) < int32(value) {
			output = 1
		}
	case OP_SLTU, OP_SLTIU:
		if input < value {
			output = 1
		}
	case OP_XOR, OP_XORI:
		output = input ^ value
	case OP_SRL, OP_SRLI:
		output = input >> shift
	case OP_SRA, OP_SRAI:
		output = uint32(int32(input) >> shift)
	case OP_OR, OP_ORI:
		output = input | value
	case OP_AND, OP_ANDI:
		output = input & value
	}

	return
}
