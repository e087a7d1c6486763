package cpu

import (
	"errors"

	"github.com/ezrec/rv32i/translate"
)

var f = translate.From

var (
	// Instruction decode errors
	ErrOpcodeDecode = errors.New(f("opcode unknown"))
	ErrOpcodeJalr   = errors.New(f("jalr"))
	ErrOpcodeBranch = errors.New(f("branch"))
	ErrOpcodeLoad   = errors.New(f("load"))
	ErrOpcodeStore  = errors.New(f("store"))
	ErrOpcodeAlu    = errors.New(f("alu"))
	ErrOpcodeFunct3 = errors.New(f("funct3"))
	ErrOpcodeFunct7 = errors.New(f("funct7"))

	// Memory access errors
	ErrMemoryFetch = errors.New(f("fetch"))
	ErrMemoryLoad  = errors.New(f("load"))
	ErrMemoryStore = errors.New(f("store"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelSyntax        = errors.New(f("label syntax"))
	ErrWordSyntax         = errors.New(f(".word syntax"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissingArgs  = errors.New(f("missing arguments"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrAddressInvalid     = errors.New(f("address operand invalid"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrImmediateAlignment = errors.New(f("immediate misaligned"))
)

// ErrOpcode is a malformed instruction word.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad instruction 0x%08x", uint32(eo))
}

// Is matches any ErrOpcode, so errors.Is(err, ErrOpcode(0)) detects
// every malformed instruction.
func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}
