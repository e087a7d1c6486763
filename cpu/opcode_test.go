package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func imm(value int32) uint32 {
	return uint32(value)
}

func TestDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		code     Code
		format   CodeFormat
		expected Decoded
	}){
		{"r", MakeCodeR(CLASS_ALU, 0x20, 0b101, 31, 17, 3), FORMAT_R,
			Decoded{Format: FORMAT_R, Funct7: 0x20, Funct3: 0b101, Rd: 31, Rs1: 17, Rs2: 3}},
		{"i_pos", MakeCodeI(CLASS_ALUI, 0b000, 5, 6, 2047), FORMAT_I,
			Decoded{Format: FORMAT_I, Rd: 5, Rs1: 6, Imm: 2047}},
		{"i_neg", MakeCodeI(CLASS_LOAD, 0b010, 10, 2, imm(-2048)), FORMAT_I,
			Decoded{Format: FORMAT_I, Funct3: 0b010, Rd: 10, Rs1: 2, Imm: 0xfffff800}},
		{"s_pos", MakeCodeS(CLASS_STORE, 0b001, 2, 11, 2047), FORMAT_S,
			Decoded{Format: FORMAT_S, Funct3: 0b001, Rs1: 2, Rs2: 11, Imm: 2047}},
		{"s_neg", MakeCodeS(CLASS_STORE, 0b010, 2, 11, imm(-1)), FORMAT_S,
			Decoded{Format: FORMAT_S, Funct3: 0b010, Rs1: 2, Rs2: 11, Imm: 0xffffffff}},
		{"b_pos", MakeCodeB(CLASS_BRANCH, 0b111, 1, 2, 4094), FORMAT_B,
			Decoded{Format: FORMAT_B, Funct3: 0b111, Rs1: 1, Rs2: 2, Imm: 4094}},
		{"b_neg", MakeCodeB(CLASS_BRANCH, 0b000, 1, 2, imm(-4096)), FORMAT_B,
			Decoded{Format: FORMAT_B, Rs1: 1, Rs2: 2, Imm: 0xfffff000}},
		{"b_bit11", MakeCodeB(CLASS_BRANCH, 0b001, 3, 4, 0x800), FORMAT_B,
			Decoded{Format: FORMAT_B, Funct3: 0b001, Rs1: 3, Rs2: 4, Imm: 0x800}},
		{"u", MakeCodeU(CLASS_LUI, 7, 0xfffff000), FORMAT_U,
			Decoded{Format: FORMAT_U, Rd: 7, Imm: 0xfffff000}},
		{"j_pos", MakeCodeJ(CLASS_JAL, 1, 1048574), FORMAT_J,
			Decoded{Format: FORMAT_J, Rd: 1, Imm: 1048574}},
		{"j_neg", MakeCodeJ(CLASS_JAL, 1, imm(-1048576)), FORMAT_J,
			Decoded{Format: FORMAT_J, Rd: 1, Imm: 0xfff00000}},
		{"j_bit11", MakeCodeJ(CLASS_JAL, 0, 0x800), FORMAT_J,
			Decoded{Format: FORMAT_J, Imm: 0x800}},
	}

	for _, entry := range table {
		format, ok := entry.code.Format()
		assert.True(ok, entry.name)
		assert.Equal(entry.format, format, entry.name)
		assert.Equal(entry.expected, entry.code.Decode(format), entry.name)
	}
}

func TestDecodeKnownWords(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word uint32
		op   CodeOp
		rd   uint8
		rs1  uint8
		rs2  uint8
		imm  uint32
	}){
		{0x00208333, OP_ADD, 6, 1, 2, 0},
		{0x123452b7, OP_LUI, 5, 0, 0, 0x12345000},
		{0x008000ef, OP_JAL, 1, 0, 0, 8},
		{0x004100e7, OP_JALR, 1, 2, 0, 4},
		{0xfeb50ce3, OP_BEQ, 0, 10, 11, imm(-8)},
		{0xffc12503, OP_LW, 10, 2, 0, imm(-4)},
		{0x00b12423, OP_SW, 0, 2, 11, 8},
		{0x4032d293, OP_SRAI, 5, 5, 0, 0x403},
		{0xfff50513, OP_ADDI, 10, 10, 0, imm(-1)},
	}

	for _, entry := range table {
		inst, err := Code(entry.word).Instruction()
		assert.NoError(err)
		assert.Equal(entry.op, inst.Op, entry.op.String())
		assert.Equal(entry.rd, inst.Rd, entry.op.String())
		assert.Equal(entry.rs1, inst.Rs1, entry.op.String())
		assert.Equal(entry.rs2, inst.Rs2, entry.op.String())
		assert.Equal(entry.imm, inst.Imm, entry.op.String())
	}
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Code(0x00208333), MakeCode(OP_ADD, 6, 1, 2, 0))
	assert.Equal(Code(0x123452b7), MakeCode(OP_LUI, 5, 0, 0, 0x12345000))
	assert.Equal(Code(0xfeb50ce3), MakeCode(OP_BEQ, 0, 10, 11, imm(-8)))
	assert.Equal(Code(0x00b12423), MakeCode(OP_SW, 0, 2, 11, 8))
	assert.Equal(Code(0x4032d293), MakeCode(OP_SRAI, 5, 5, 0, 3))

	// Every operation encodes to a word that resolves back to itself.
	for op := range op_count {
		code := MakeCode(op, 1, 2, 3, 4)
		inst, err := code.Instruction()
		assert.NoError(err, op.String())
		assert.Equal(op, inst.Op, op.String())
	}
}

func TestInstructionErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		code   Code
		class  error
		reason error
	}){
		{"unknown", Code(0x00000000), ErrOpcodeDecode, nil},
		{"system", Code(0x00000073), ErrOpcodeDecode, nil},
		{"jalr_funct3", MakeCodeI(CLASS_JALR, 0b001, 1, 2, 4), ErrOpcodeJalr, ErrOpcodeFunct3},
		{"branch_funct3", MakeCodeB(CLASS_BRANCH, 0b010, 1, 2, 8), ErrOpcodeBranch, ErrOpcodeFunct3},
		{"load_funct3", MakeCodeI(CLASS_LOAD, 0b011, 1, 2, 0), ErrOpcodeLoad, ErrOpcodeFunct3},
		{"store_funct3", MakeCodeS(CLASS_STORE, 0b100, 1, 2, 0), ErrOpcodeStore, ErrOpcodeFunct3},
		{"alu_funct7", MakeCodeR(CLASS_ALU, 0b0000001, 0b000, 5, 6, 7), ErrOpcodeAlu, ErrOpcodeFunct7},
		{"alu_alt_funct3", MakeCodeR(CLASS_ALU, 0b0100000, 0b001, 5, 6, 7), ErrOpcodeAlu, ErrOpcodeFunct3},
		{"alui_shift_funct7", MakeCodeI(CLASS_ALUI, 0b101, 5, 6, 0x7e3), ErrOpcodeAlu, ErrOpcodeFunct7},
		{"alui_slli_alt", MakeCodeI(CLASS_ALUI, 0b001, 5, 6, 0x403), ErrOpcodeAlu, ErrOpcodeFunct3},
	}

	for _, entry := range table {
		_, err := entry.code.Instruction()
		assert.Error(err, entry.name)
		assert.ErrorIs(err, ErrOpcode(0), entry.name)
		assert.ErrorIs(err, entry.class, entry.name)
		if entry.reason != nil {
			assert.ErrorIs(err, entry.reason, entry.name)
		}

		var eo ErrOpcode
		assert.True(errors.As(err, &eo), entry.name)
		assert.Equal(entry.code, Code(eo), entry.name)
	}
}

func TestInstructionImmediateAlu(t *testing.T) {
	assert := assert.New(t)

	// A negative addi immediate has imm[11:5] set; it is not a funct7.
	inst, err := MakeCode(OP_ADDI, 5, 6, 0, imm(-1)).Instruction()
	assert.NoError(err)
	assert.Equal(OP_ADDI, inst.Op)
	assert.Equal(uint8(0), inst.Funct7)

	inst, err = MakeCode(OP_SRLI, 5, 6, 0, 31).Instruction()
	assert.NoError(err)
	assert.Equal(OP_SRLI, inst.Op)
}

func TestLookupOp(t *testing.T) {
	assert := assert.New(t)

	op, ok := LookupOp("sltiu")
	assert.True(ok)
	assert.Equal(OP_SLTIU, op)
	assert.Equal(CLASS_ALUI, op.Class())

	_, ok = LookupOp("mul")
	assert.False(ok)

	assert.Equal("branch", CLASS_BRANCH.String())
	assert.Equal("J", FORMAT_J.String())
	assert.Equal("CodeOp(99)", CodeOp(99).String())
}
