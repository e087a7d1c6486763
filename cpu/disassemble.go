package cpu

import (
	"fmt"
)

// BAD_INSTRUCTION is the disassembly of an undefined encoding.
const BAD_INSTRUCTION = "bad instruction"

// Disassemble returns the mnemonic text of an instruction word.
func Disassemble(word uint32) string {
	return Code(word).Disassemble()
}

// Disassemble returns the mnemonic text of the instruction.
// Undefined encodings yield BAD_INSTRUCTION rather than an error.
func (code Code) Disassemble() (text string) {
	inst, err := code.Instruction()
	if err != nil {
		return BAD_INSTRUCTION
	}

	name := inst.Op.String()
	rd := RegisterName(inst.Rd)
	rs1 := RegisterName(inst.Rs1)
	rs2 := RegisterName(inst.Rs2)
	imm := int32(inst.Imm)

	switch inst.Op.Class() {
	case CLASS_LUI, CLASS_AUIPC:
		text = fmt.Sprintf("%v %v, 0x%x", name, rd, inst.Imm>>12)
	case CLASS_JAL:
		text = fmt.Sprintf("%v %v, %d", name, rd, imm)
	case CLASS_JALR, CLASS_LOAD:
		text = fmt.Sprintf("%v %v, %d(%v)", name, rd, imm, rs1)
	case CLASS_BRANCH:
		text = fmt.Sprintf("%v %v, %v, %d", name, rs1, rs2, imm)
	case CLASS_STORE:
		text = fmt.Sprintf("%v %v, %d(%v)", name, rs2, imm, rs1)
	case CLASS_ALUI:
		if isShiftImmediate(CLASS_ALUI, inst.Funct3) {
			imm &= 0x1f
		}
		text = fmt.Sprintf("%v %v, %v, %d", name, rd, rs1, imm)
	case CLASS_ALU:
		text = fmt.Sprintf("%v %v, %v, %v", name, rd, rs1, rs2)
	}

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	return code.Disassemble()
}
