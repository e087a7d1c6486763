package emulator

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rv32i/cpu"
	rvio "github.com/ezrec/rv32i/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Len(emu.Memory, MEMORY_SIZE)
	assert.Equal(uint32(rvio.SCREEN_ADDRESS), emu.Screen.Address)
	assert.Equal(rvio.SCREEN_WIDTH, emu.Screen.Width)
	assert.Equal(uint32(rvio.KEYBOARD_ADDRESS), emu.Keyboard.Address)
	assert.Equal(uint32(rvio.RANDOM_ADDRESS), emu.Random.Address)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := maps.Collect(emu.Defines())

	assert.Equal(map[string]string{
		"STACK_POINTER":    "0x20000",
		"MEMORY_SIZE":      "0x100000",
		"KEYBOARD_ADDRESS": "0x9000",
		"RANDOM_ADDRESS":   "0x9002",
		"SCREEN_ADDRESS":   "0x10000",
		"SCREEN_WIDTH":     "32",
		"SCREEN_HEIGHT":    "16",
	}, defines)
}

// assemble loads a program into the emulator and resets it.
func assemble(emu *Emulator, program []string, t *testing.T) {
	asm := emu.Assembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatalf("%v", err)
	}

	emu.Program = prog
	err = emu.Reset()
	if err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"	addi a0, zero, 5",
		"loop:",
		"	addi a0, a0, -1",
		"	bne a0, zero, loop",
		"	lui t0, $(SCREEN_ADDRESS >> 12)",
		"	addi t1, zero, 255",
		"	sb t1, 0(t0)",
		"	sb t1, $(SCREEN_WIDTH + 1)(t0)",
		"	lui t2, $(KEYBOARD_ADDRESS >> 12)",
		"	lb a1, 0(t2)",
		"	sw t1, -4(sp)",
		"done:",
		"	j done",
	}

	emu := NewEmulator()
	assemble(emu, program, t)

	assert.Equal(uint32(0), emu.Cpu.Pc)
	assert.Equal(uint32(STACK_POINTER), emu.Cpu.Register[cpu.REG_SP])
	assert.Equal(1, emu.LineNo())

	emu.Keyboard.Press(rvio.KEY_UP)

	ticks, done, err := emu.Run(100)
	assert.NoError(err)
	assert.True(done)
	assert.Equal(19, ticks)
	assert.Equal(19, emu.Cpu.Ticks)
	assert.Equal(13, emu.LineNo())

	assert.Equal(uint32(0), emu.Cpu.Register[10])
	assert.Equal(uint32(0xffffffff), emu.Cpu.Register[11])
	assert.Equal([]byte{0xff, 0, 0, 0}, []byte(emu.Memory[STACK_POINTER-4:STACK_POINTER]))

	var out strings.Builder
	assert.NoError(emu.RenderScreen(&out))
	lines := strings.Split(out.String(), "\n")
	assert.Len(lines, rvio.SCREEN_HEIGHT+1)
	assert.Equal("@"+strings.Repeat(" ", 31), lines[0])
	assert.Equal(" @"+strings.Repeat(" ", 30), lines[1])
	assert.Equal(strings.Repeat(" ", 32), lines[2])

	// Reset reloads the program and clears the machine.
	assert.NoError(emu.Reset())
	assert.Equal(uint32(0), emu.Cpu.Pc)
	assert.Equal(0, emu.Cpu.Ticks)
	assert.Equal(uint32(0), emu.Cpu.Register[11])
	assert.Equal(byte(0), emu.Memory[rvio.SCREEN_ADDRESS])
	assert.Equal(int8(0), emu.Keyboard.Vertical)
}

func TestEmulator_RunLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(emu, []string{
		"loop: addi a0, a0, 1",
		"	j loop",
	}, t)

	ticks, done, err := emu.Run(10)
	assert.NoError(err)
	assert.False(done)
	assert.Equal(10, ticks)
	assert.Equal(uint32(5), emu.Cpu.Register[10])
	assert.Len(emu.History.Data, 10)

	pc, ok := emu.History.Peek()
	assert.True(ok)
	assert.Equal(uint32(4), pc)

	assert.NoError(emu.Reset())
	assert.True(emu.History.Empty())
}

func TestEmulator_Random(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(emu, []string{
		"	lui t0, $(RANDOM_ADDRESS >> 12)",
		"	lbu a0, $(RANDOM_ADDRESS & 0xfff)(t0)",
	}, t)

	_, err := emu.Tick()
	assert.NoError(err)
	_, err = emu.Tick()
	assert.NoError(err)
	assert.Equal(uint32(emu.Random.Last), emu.Cpu.Register[10])
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(emu, []string{
		"	nop",
		"	.word 0x02208333",
	}, t)

	_, done, err := emu.Run(0)
	assert.False(done)
	assert.ErrorIs(err, cpu.ErrOpcode(0))
	assert.ErrorIs(err, cpu.ErrOpcodeFunct7)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(uint32(4), rt.Pc)
		assert.Equal(2, rt.LineNo)
		assert.Contains(rt.Error(), "line 2")
	}
	assert.Equal(uint32(4), emu.Cpu.Pc)
	assert.Equal([]string{"00000000: 00000013  addi zero, zero, 0"}, emu.Backtrace())

	emu.Cpu.Pc = MEMORY_SIZE
	_, err = emu.Tick()
	assert.ErrorIs(err, cpu.ErrMemoryFetch)
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(0, rt.LineNo)
		assert.NotContains(rt.Error(), "line")
	}
}

func TestEmulator_Image(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Image = []byte{0x13, 0x05, 0x15, 0x00} // addi a0, a0, 1
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.LineNo())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint32(1), emu.Cpu.Register[10])

	line, err := emu.Disassemble(0)
	assert.NoError(err)
	assert.Equal("00000000: 00150513  addi a0, a0, 1", line)

	_, err = emu.Disassemble(MEMORY_SIZE - 2)
	assert.ErrorIs(err, rvio.ErrRange)

	emu.Image = make([]byte, MEMORY_SIZE+1)
	assert.ErrorIs(emu.Reset(), rvio.ErrImageSize)
}

func TestEmulator_Window(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(emu, []string{"nop", "nop", "nop"}, t)

	lines := emu.Window(1)
	assert.Equal([]string{
		">00000000: 00000013  addi zero, zero, 0",
		" 00000004: 00000013  addi zero, zero, 0",
	}, lines)

	_, err := emu.Tick()
	assert.NoError(err)

	lines = emu.Window(1)
	assert.Len(lines, 3)
	assert.True(strings.HasPrefix(lines[1], ">00000004:"))
}
