// Package cpu implements the RV32I instruction engine and assembler.
//
// The CPU consists of a program counter, thirty-two 32-bit registers
// (x0-x31, x0 hardwired to zero) and a borrowed reference to a host owned
// memory bus. The host drives it one instruction at a time with Step or
// Execute. Every word is resolved through Code.Instruction, so the
// executor and the disassembler agree on which encodings are valid.
//
// The assembler accepts the disassembler's syntax, plus labels, equates
// and compile-time $(...) expression evaluation.
package cpu
