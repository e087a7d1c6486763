package cpu

import (
	"errors"
	"fmt"
)

// CodeClass is the 7-bit major opcode of an instruction word.
type CodeClass uint8

const (
	CLASS_LOAD   = CodeClass(0b0000011) // load
	CLASS_ALUI   = CodeClass(0b0010011) // op-imm
	CLASS_AUIPC  = CodeClass(0b0010111) // auipc
	CLASS_STORE  = CodeClass(0b0100011) // store
	CLASS_ALU    = CodeClass(0b0110011) // op
	CLASS_LUI    = CodeClass(0b0110111) // lui
	CLASS_BRANCH = CodeClass(0b1100011) // branch
	CLASS_JALR   = CodeClass(0b1100111) // jalr
	CLASS_JAL    = CodeClass(0b1101111) // jal

	CLASS_MASK = 0b1111111
)

var _class_names = map[CodeClass]string{
	CLASS_LOAD:   "load",
	CLASS_ALUI:   "op-imm",
	CLASS_AUIPC:  "auipc",
	CLASS_STORE:  "store",
	CLASS_ALU:    "op",
	CLASS_LUI:    "lui",
	CLASS_BRANCH: "branch",
	CLASS_JALR:   "jalr",
	CLASS_JAL:    "jal",
}

func (class CodeClass) String() string {
	name, ok := _class_names[class]
	if !ok {
		return fmt.Sprintf("CodeClass(0b%07b)", uint8(class))
	}
	return name
}

// CodeFormat is one of the six instruction encoding formats.
type CodeFormat int

const (
	FORMAT_R = CodeFormat(0) // R
	FORMAT_I = CodeFormat(1) // I
	FORMAT_S = CodeFormat(2) // S
	FORMAT_B = CodeFormat(3) // B
	FORMAT_U = CodeFormat(4) // U
	FORMAT_J = CodeFormat(5) // J
)

var _format_names = [...]string{"R", "I", "S", "B", "U", "J"}

func (format CodeFormat) String() string {
	if format < 0 || int(format) >= len(_format_names) {
		return fmt.Sprintf("CodeFormat(%d)", int(format))
	}
	return _format_names[format]
}

var _class_format = map[CodeClass]CodeFormat{
	CLASS_LOAD:   FORMAT_I,
	CLASS_ALUI:   FORMAT_I,
	CLASS_AUIPC:  FORMAT_U,
	CLASS_STORE:  FORMAT_S,
	CLASS_ALU:    FORMAT_R,
	CLASS_LUI:    FORMAT_U,
	CLASS_BRANCH: FORMAT_B,
	CLASS_JALR:   FORMAT_I,
	CLASS_JAL:    FORMAT_J,
}

// Format returns the encoding format of the opcode class.
func (class CodeClass) Format() (format CodeFormat, ok bool) {
	format, ok = _class_format[class]
	return
}

// CodeOp is a fully resolved RV32I operation.
type CodeOp int

const (
	OP_LUI = CodeOp(iota)
	OP_AUIPC
	OP_JAL
	OP_JALR
	OP_BEQ
	OP_BNE
	OP_BLT
	OP_BGE
	OP_BLTU
	OP_BGEU
	OP_LB
	OP_LH
	OP_LW
	OP_LBU
	OP_LHU
	OP_SB
	OP_SH
	OP_SW
	OP_ADDI
	OP_SLLI
	OP_SLTI
	OP_SLTIU
	OP_XORI
	OP_SRLI
	OP_SRAI
	OP_ORI
	OP_ANDI
	OP_ADD
	OP_SUB
	OP_SLL
	OP_SLT
	OP_SLTU
	OP_XOR
	OP_SRL
	OP_SRA
	OP_OR
	OP_AND
	op_count
)

// opInfo is the encoding of an operation.
type opInfo struct {
	name   string
	class  CodeClass
	funct3 uint8
	funct7 uint8
}

const funct7Alt = 0b0100000

var _op_info = [op_count]opInfo{
	OP_LUI:   {"lui", CLASS_LUI, 0, 0},
	OP_AUIPC: {"auipc", CLASS_AUIPC, 0, 0},
	OP_JAL:   {"jal", CLASS_JAL, 0, 0},
	OP_JALR:  {"jalr", CLASS_JALR, 0b000, 0},
	OP_BEQ:   {"beq", CLASS_BRANCH, 0b000, 0},
	OP_BNE:   {"bne", CLASS_BRANCH, 0b001, 0},
	OP_BLT:   {"blt", CLASS_BRANCH, 0b100, 0},
	OP_BGE:   {"bge", CLASS_BRANCH, 0b101, 0},
	OP_BLTU:  {"bltu", CLASS_BRANCH, 0b110, 0},
	OP_BGEU:  {"bgeu", CLASS_BRANCH, 0b111, 0},
	OP_LB:    {"lb", CLASS_LOAD, 0b000, 0},
	OP_LH:    {"lh", CLASS_LOAD, 0b001, 0},
	OP_LW:    {"lw", CLASS_LOAD, 0b010, 0},
	OP_LBU:   {"lbu", CLASS_LOAD, 0b100, 0},
	OP_LHU:   {"lhu", CLASS_LOAD, 0b101, 0},
	OP_SB:    {"sb", CLASS_STORE, 0b000, 0},
	OP_SH:    {"sh", CLASS_STORE, 0b001, 0},
	OP_SW:    {"sw", CLASS_STORE, 0b010, 0},
	OP_ADDI:  {"addi", CLASS_ALUI, 0b000, 0},
	OP_SLLI:  {"slli", CLASS_ALUI, 0b001, 0},
	OP_SLTI:  {"slti", CLASS_ALUI, 0b010, 0},
	OP_SLTIU: {"sltiu", CLASS_ALUI, 0b011, 0},
	OP_XORI:  {"xori", CLASS_ALUI, 0b100, 0},
	OP_SRLI:  {"srli", CLASS_ALUI, 0b101, 0},
	OP_SRAI:  {"srai", CLASS_ALUI, 0b101, funct7Alt},
	OP_ORI:   {"ori", CLASS_ALUI, 0b110, 0},
	OP_ANDI:  {"andi", CLASS_ALUI, 0b111, 0},
	OP_ADD:   {"add", CLASS_ALU, 0b000, 0},
	OP_SUB:   {"sub", CLASS_ALU, 0b000, funct7Alt},
	OP_SLL:   {"sll", CLASS_ALU, 0b001, 0},
	OP_SLT:   {"slt", CLASS_ALU, 0b010, 0},
	OP_SLTU:  {"sltu", CLASS_ALU, 0b011, 0},
	OP_XOR:   {"xor", CLASS_ALU, 0b100, 0},
	OP_SRL:   {"srl", CLASS_ALU, 0b101, 0},
	OP_SRA:   {"sra", CLASS_ALU, 0b101, funct7Alt},
	OP_OR:    {"or", CLASS_ALU, 0b110, 0},
	OP_AND:   {"and", CLASS_ALU, 0b111, 0},
}

// opKey selects an operation from the decoded fields.
type opKey struct {
	class  CodeClass
	funct3 uint8
	funct7 uint8
}

var (
	_op_lookup = map[opKey]CodeOp{}
	_op_names  = map[string]CodeOp{}
	// Classes with at least one operation for a funct7 value.
	_op_funct7 = map[opKey]bool{}
)

func init() {
	for op, info := range _op_info {
		_op_lookup[opKey{info.class, info.funct3, info.funct7}] = CodeOp(op)
		_op_names[info.name] = CodeOp(op)
		_op_funct7[opKey{class: info.class, funct7: info.funct7}] = true
	}
}

// LookupOp returns the operation with the given mnemonic.
func LookupOp(name string) (op CodeOp, ok bool) {
	op, ok = _op_names[name]
	return
}

func (op CodeOp) String() string {
	if op < 0 || op >= op_count {
		return fmt.Sprintf("CodeOp(%d)", int(op))
	}
	return _op_info[op].name
}

// Class returns the opcode class of the operation.
func (op CodeOp) Class() CodeClass {
	return _op_info[op].class
}

// isShiftImmediate is true for the op-imm funct3 values that carry a
// funct7 field in imm[11:5].
func isShiftImmediate(class CodeClass, funct3 uint8) bool {
	return class == CLASS_ALUI && (funct3 == 0b001 || funct3 == 0b101)
}

// Code is a single 32-bit instruction word.
type Code uint32

// Decoded is the field set extracted from an instruction word.
type Decoded struct {
	Format CodeFormat
	Funct7 uint8
	Funct3 uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Imm    uint32
}

// Instruction is a decoded word resolved to its operation.
type Instruction struct {
	Decoded
	Op CodeOp
}

// bits extracts the unsigned field [hi:lo].
func (code Code) bits(hi, lo int) uint32 {
	return (uint32(code) >> lo) & ((1 << (hi - lo + 1)) - 1)
}

// sbits extracts the field [hi:lo], sign extended from bit hi.
func (code Code) sbits(hi, lo int) uint32 {
	return uint32(int32(uint32(code)<<(31-hi)) >> (31 - hi + lo))
}

// Class returns the opcode class from the instruction word.
func (code Code) Class() CodeClass {
	return CodeClass(code & CLASS_MASK)
}

// Format returns the encoding format selected by the opcode.
func (code Code) Format() (format CodeFormat, ok bool) {
	return code.Class().Format()
}

// Decode extracts the fields of the instruction word for the given format.
func (code Code) Decode(format CodeFormat) (dec Decoded) {
	dec.Format = format

	switch format {
	case FORMAT_R:
		dec.Funct7 = uint8(code.bits(31, 25))
		dec.Funct3 = uint8(code.bits(14, 12))
		dec.Rd = uint8(code.bits(11, 7))
		dec.Rs1 = uint8(code.bits(19, 15))
		dec.Rs2 = uint8(code.bits(24, 20))
	case FORMAT_I:
		dec.Funct3 = uint8(code.bits(14, 12))
		dec.Rd = uint8(code.bits(11, 7))
		dec.Rs1 = uint8(code.bits(19, 15))
		dec.Imm = code.sbits(31, 20)
	case FORMAT_S:
		dec.Funct3 = uint8(code.bits(14, 12))
		dec.Rs1 = uint8(code.bits(19, 15))
		dec.Rs2 = uint8(code.bits(24, 20))
		dec.Imm = code.sbits(31, 25)<<5 | code.bits(11, 7)
	case FORMAT_B:
		dec.Funct3 = uint8(code.bits(14, 12))
		dec.Rs1 = uint8(code.bits(19, 15))
		dec.Rs2 = uint8(code.bits(24, 20))
		dec.Imm = code.sbits(31, 31)<<12 |
			code.bits(30, 25)<<5 |
			code.bits(11, 8)<<1 |
			code.bits(7, 7)<<11
	case FORMAT_U:
		dec.Rd = uint8(code.bits(11, 7))
		dec.Imm = code.bits(31, 12) << 12
	case FORMAT_J:
		dec.Rd = uint8(code.bits(11, 7))
		dec.Imm = code.sbits(31, 31)<<20 |
			code.bits(30, 21)<<1 |
			code.bits(19, 12)<<12 |
			code.bits(20, 20)<<11
	}

	return
}

// classError is the classification sentinel of each opcode class.
var classError = map[CodeClass]error{
	CLASS_JALR:   ErrOpcodeJalr,
	CLASS_BRANCH: ErrOpcodeBranch,
	CLASS_LOAD:   ErrOpcodeLoad,
	CLASS_STORE:  ErrOpcodeStore,
	CLASS_ALUI:   ErrOpcodeAlu,
	CLASS_ALU:    ErrOpcodeAlu,
}

// Instruction decodes the word and resolves its operation.
// Undefined opcodes and funct3/funct7 combinations return an
// ErrOpcode joined with the reason.
func (code Code) Instruction() (inst Instruction, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	class := code.Class()
	format, ok := class.Format()
	if !ok {
		err = ErrOpcodeDecode
		return
	}

	inst.Decoded = code.Decode(format)

	funct7 := inst.Funct7
	if isShiftImmediate(class, inst.Funct3) {
		funct7 = uint8(code.bits(31, 25))
	}

	op, ok := _op_lookup[opKey{class, inst.Funct3, funct7}]
	if !ok {
		reason := ErrOpcodeFunct3
		if !_op_funct7[opKey{class: class, funct7: funct7}] {
			reason = ErrOpcodeFunct7
		}
		err = errors.Join(classError[class], reason)
		return
	}

	inst.Op = op
	return
}

// MakeCodeR creates an R-format instruction.
func MakeCodeR(class CodeClass, funct7, funct3, rd, rs1, rs2 uint8) Code {
	return Code(uint32(funct7&0x7f)<<25 |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(funct3&0x7)<<12 |
		uint32(rd&0x1f)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCodeI creates an I-format instruction from the low 12 bits of imm.
func MakeCodeI(class CodeClass, funct3, rd, rs1 uint8, imm uint32) Code {
	return Code((imm&0xfff)<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(funct3&0x7)<<12 |
		uint32(rd&0x1f)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCodeS creates an S-format instruction from the low 12 bits of imm.
func MakeCodeS(class CodeClass, funct3, rs1, rs2 uint8, imm uint32) Code {
	return Code(((imm>>5)&0x7f)<<25 |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(funct3&0x7)<<12 |
		(imm&0x1f)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCodeB creates a B-format instruction from bits [12:1] of imm.
func MakeCodeB(class CodeClass, funct3, rs1, rs2 uint8, imm uint32) Code {
	return Code(((imm>>12)&1)<<31 |
		((imm>>5)&0x3f)<<25 |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(funct3&0x7)<<12 |
		((imm>>1)&0xf)<<8 |
		((imm>>11)&1)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCodeU creates a U-format instruction from bits [31:12] of imm.
func MakeCodeU(class CodeClass, rd uint8, imm uint32) Code {
	return Code(imm&0xfffff000 |
		uint32(rd&0x1f)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCodeJ creates a J-format instruction from bits [20:1] of imm.
func MakeCodeJ(class CodeClass, rd uint8, imm uint32) Code {
	return Code(((imm>>20)&1)<<31 |
		((imm>>1)&0x3ff)<<21 |
		((imm>>11)&1)<<20 |
		((imm>>12)&0xff)<<12 |
		uint32(rd&0x1f)<<7 |
		uint32(class&CLASS_MASK))
}

// MakeCode encodes an operation. Fields the operation's format does not
// carry are ignored. For the immediate shifts only imm[4:0] is used.
func MakeCode(op CodeOp, rd, rs1, rs2 uint8, imm uint32) Code {
	info := _op_info[op]
	format, _ := info.class.Format()

	switch format {
	case FORMAT_R:
		return MakeCodeR(info.class, info.funct7, info.funct3, rd, rs1, rs2)
	case FORMAT_I:
		if isShiftImmediate(info.class, info.funct3) {
			imm = uint32(info.funct7)<<5 | (imm & 0x1f)
		}
		return MakeCodeI(info.class, info.funct3, rd, rs1, imm)
	case FORMAT_S:
		return MakeCodeS(info.class, info.funct3, rs1, rs2, imm)
	case FORMAT_B:
		return MakeCodeB(info.class, info.funct3, rs1, rs2, imm)
	case FORMAT_U:
		return MakeCodeU(info.class, rd, imm)
	default:
		return MakeCodeJ(info.class, rd, imm)
	}
}
