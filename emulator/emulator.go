// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator hosts an RV32I CPU: it owns the memory, maps the
// peripherals into it and drives the CPU one instruction at a time.
package emulator

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32i/cpu"
	"github.com/ezrec/rv32i/internal"
	rvio "github.com/ezrec/rv32i/io"
)

const (
	MEMORY_SIZE   = 0x100000 // 1MiB of memory.
	STACK_POINTER = 0x20000  // Initial sp after reset.
)

var _emulator_defines = map[string]string{
	"STACK_POINTER": fmt.Sprintf("0x%x", STACK_POINTER),
}

// Emulator state. CPU + memory + memory mapped devices.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Image    []byte       // Raw memory image, used when Program is empty.

	Memory   rvio.Memory   // Host owned memory.
	Keyboard rvio.Keyboard // Keyboard state bytes.
	Random   rvio.Random   // Random byte.
	Screen   rvio.Screen   // Framebuffer.

	History History // Recently retired program counters.

	devices []rvio.Device
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
		Memory:  rvio.NewMemory(MEMORY_SIZE),
	}

	emu.Cpu = cpu.NewCpu(emu.Memory)

	emu.Keyboard.Address = rvio.KEYBOARD_ADDRESS
	emu.Random.Address = rvio.RANDOM_ADDRESS
	emu.Screen = rvio.Screen{
		Address: rvio.SCREEN_ADDRESS,
		Width:   rvio.SCREEN_WIDTH,
		Height:  rvio.SCREEN_HEIGHT,
	}

	emu.devices = []rvio.Device{&emu.Keyboard, &emu.Random, &emu.Screen}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	seqs := []iter.Seq2[string, string]{
		maps.All(_emulator_defines),
		emu.Memory.Defines(),
	}
	for _, dev := range emu.devices {
		seqs = append(seqs, dev.Defines())
	}

	return internal.IterSeq2Concat(seqs...)
}

// Assembler returns an assembler with the memory map predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	return
}

// Reset the emulator state.
// - Reloads memory from the program (or raw image).
// - Clears the registers and devices.
// - Sets pc to 0 and sp to STACK_POINTER.
func (emu *Emulator) Reset() (err error) {
	image := emu.Image
	if emu.Program != nil && len(emu.Program.Opcodes) != 0 {
		image = emu.Program.Binary()
	}

	emu.Memory.Clear()
	err = emu.Memory.Image(image)
	if err != nil {
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Cpu.Pc = 0
	emu.Cpu.Register[cpu.REG_SP] = STACK_POINTER

	for _, dev := range emu.devices {
		dev.Rewind()
	}

	emu.History.Reset()

	if emu.Verbose {
		logrus.WithField("image", len(image)).Info("emulator: reset")
	}

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick synchronizes the devices and performs a single CPU step.
// It is done when the instruction jumped to itself.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	for _, dev := range emu.devices {
		err = dev.Sync(emu.Memory)
		if err != nil {
			return
		}
	}

	err = emu.Cpu.Step()
	if err != nil {
		return
	}

	emu.History.Push(pc)
	done = emu.Cpu.Pc == pc
	return
}

// Run ticks until done, an error, or limit ticks (when limit > 0).
func (emu *Emulator) Run(limit int) (ticks int, done bool, err error) {
	for limit <= 0 || ticks < limit {
		done, err = emu.Tick()
		if err != nil {
			return
		}
		ticks++
		if done {
			return
		}
	}

	return
}

// Disassemble returns the listing line of the word at addr.
func (emu *Emulator) Disassemble(addr uint32) (line string, err error) {
	var word [4]byte
	err = emu.Memory.Load(addr, word[:])
	if err != nil {
		return
	}

	code := cpu.Code(binary.LittleEndian.Uint32(word[:]))
	line = fmt.Sprintf("%08x: %08x  %v", addr, uint32(code), code)
	return
}

// Window disassembles the words within span instructions of pc. The
// current instruction is marked with '>'.
func (emu *Emulator) Window(span int) (lines []string) {
	for n := -span; n <= span; n++ {
		addr := int64(emu.Cpu.Pc) + int64(n)*4
		if addr < 0 || addr > 0xffffffff {
			continue
		}
		line, err := emu.Disassemble(uint32(addr))
		if err != nil {
			continue
		}

		mark := " "
		if n == 0 {
			mark = ">"
		}
		lines = append(lines, mark+line)
	}

	return
}

// Backtrace disassembles the recently retired instructions, oldest first.
func (emu *Emulator) Backtrace() (lines []string) {
	for _, pc := range emu.History.Data {
		line, err := emu.Disassemble(pc)
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}

	return
}

// RenderScreen writes the framebuffer as text.
func (emu *Emulator) RenderScreen(out io.Writer) error {
	return emu.Screen.Render(emu.Memory, out)
}
