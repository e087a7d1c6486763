// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two pass assembler for RV32I, accepting the syntax
// produced by the disassembler.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]uint32 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// sourceLine is an instruction line waiting for its operands to be encoded.
type sourceLine struct {
	lineno   int
	text     string
	mnemonic string
	operands string
	label    string
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a number, character, equate or label.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	return asm.valueOfDepth(word, 0)
}

func (asm *Assembler) valueOfDepth(word string, depth int) (value int64, err error) {
	if len(word) == 3 && word[0] == '\'' && word[2] == '\'' {
		value = int64(word[1])
		return
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err == nil {
		return
	}
	err = nil

	equate, ok := asm.Equate[word]
	if ok && depth < 16 {
		return asm.valueOfDepth(equate, depth+1)
	}

	label, ok := asm.Label[word]
	if ok {
		value = int64(label)
		return
	}

	err = ErrParseNumber(word)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeUint64(uint64(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// expand replaces every $(...) in text with its decimal value.
// Parentheses inside the expression may nest.
func (asm *Assembler) expand(text string) (out string, err error) {
	for {
		start := strings.Index(text, "$(")
		if start < 0 {
			out += text
			return
		}

		depth := 0
		end := -1
		for n := start + 1; n < len(text); n++ {
			switch text[n] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				end = n
				break
			}
		}
		if end < 0 {
			err = ErrParseExpression(text[start+2:])
			return
		}

		var value int64
		value, err = asm.parenEval(text[start+2 : end])
		if err != nil {
			return
		}

		out += text[:start] + fmt.Sprintf("%d", value)
		text = text[end+1:]
	}
}

var labelRegexp = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]uint32, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	var pending []sourceLine
	var label string

	// Pass 1: labels, equates and addresses.
	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1
		line = text

		if asm.Verbose {
			logrus.Infof("asm: %v: %v", lineno, text)
		}

		if cut := strings.IndexAny(text, ";#"); cut >= 0 {
			text = text[:cut]
		}
		text = strings.TrimSpace(strings.ReplaceAll(text, "\t", " "))

		for {
			head, rest, found := strings.Cut(text, ":")
			if !found || strings.ContainsAny(head, " \t,(") {
				break
			}
			if !labelRegexp.MatchString(head) {
				err = ErrLabelSyntax
				return
			}
			_, ok := asm.Label[head]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[head] = 4 * uint32(len(pending))
			label = head
			text = strings.TrimSpace(rest)
		}

		if len(text) == 0 {
			continue
		}

		mnemonic, operands, _ := strings.Cut(text, " ")
		mnemonic = strings.ToLower(mnemonic)
		operands = strings.TrimSpace(operands)

		// .equ CONST VALUE
		if mnemonic == ".equ" {
			name, expr, _ := strings.Cut(strings.Replace(operands, ",", " ", 1), " ")
			expr = strings.TrimSpace(expr)
			if len(name) == 0 || len(expr) == 0 || (strings.ContainsAny(expr, " \t") && !strings.HasPrefix(expr, "$(")) {
				err = ErrEquateSyntax
				return
			}
			_, ok := asm.Equate[name]
			if ok {
				err = ErrEquateDuplicate
				return
			}
			var value string
			value, err = asm.expand(expr)
			if err != nil {
				return
			}
			asm.Equate[name] = value
			continue
		}

		pending = append(pending, sourceLine{
			lineno:   lineno,
			text:     line,
			mnemonic: mnemonic,
			operands: operands,
			label:    label,
		})
		label = ""
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Pass 2: operand encoding.
	for n, src := range pending {
		lineno = src.lineno
		line = src.text
		asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

		pc := uint32(4 * n)

		var operands string
		operands, err = asm.expand(src.operands)
		if err != nil {
			return
		}

		words := []string{src.mnemonic}
		for _, arg := range strings.Split(operands, ",") {
			arg = strings.TrimSpace(arg)
			if len(arg) > 0 {
				words = append(words, arg)
			}
		}

		var code Code
		code, err = asm.encode(pc, words)
		if err != nil {
			return
		}

		op := Opcode{
			LineNo: lineno,
			Pc:     pc,
			Words:  words,
			Codes:  []Code{code},
			Label:  src.label,
		}
		asm.Opcode = append(asm.Opcode, op)
	}

	prog = &Program{Opcodes: asm.Opcode}

	return
}

// register parses a register operand.
func (asm *Assembler) register(word string) (index uint8, err error) {
	index, ok := RegisterIndex(strings.ToLower(word))
	if !ok {
		value, ok := asm.Equate[word]
		if ok {
			index, ok = RegisterIndex(value)
		}
		if !ok {
			err = ErrRegisterInvalid
		}
	}
	return
}

// immediate parses a value that must fit in [lo, hi].
func (asm *Assembler) immediate(word string, lo, hi int64) (imm uint32, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < lo || value > hi {
		err = ErrImmediateRange
		return
	}

	imm = uint32(value)
	return
}

// target parses a branch or jump target. Labels are converted to a
// pc relative offset, numbers are taken as the offset itself.
func (asm *Assembler) target(pc uint32, word string, bits int) (imm uint32, err error) {
	var offset int64

	label, ok := asm.Label[word]
	if ok {
		offset = int64(label) - int64(pc)
	} else {
		offset, err = asm.valueOf(word)
		if err != nil {
			if labelRegexp.MatchString(word) {
				err = ErrLabelMissing(word)
			}
			return
		}
	}

	limit := int64(1) << (bits - 1)
	if offset < -limit || offset >= limit {
		err = ErrImmediateRange
		return
	}
	if offset&1 != 0 {
		err = ErrImmediateAlignment
		return
	}

	imm = uint32(offset)
	return
}

var addressRegexp = regexp.MustCompile(`^(.*)\(\s*([A-Za-z0-9_]+)\s*\)$`)

// address parses an 'imm(reg)' operand.
func (asm *Assembler) address(word string) (imm uint32, reg uint8, err error) {
	match := addressRegexp.FindStringSubmatch(word)
	if match == nil {
		err = ErrAddressInvalid
		return
	}

	reg, err = asm.register(match[2])
	if err != nil {
		return
	}

	offset := strings.TrimSpace(match[1])
	if len(offset) == 0 {
		return
	}

	imm, err = asm.immediate(offset, -2048, 2047)
	return
}

// pseudo expands the supported pseudo instructions.
func pseudo(words []string) []string {
	switch {
	case words[0] == "nop" && len(words) == 1:
		return []string{"addi", "zero", "zero", "0"}
	case words[0] == "ret" && len(words) == 1:
		return []string{"jalr", "zero", "0(ra)"}
	case words[0] == "j" && len(words) == 2:
		return []string{"jal", "zero", words[1]}
	case words[0] == "jal" && len(words) == 2:
		return []string{"jal", "ra", words[1]}
	case words[0] == "mv" && len(words) == 3:
		return []string{"addi", words[1], words[2], "0"}
	}

	return words
}

// operandCount is the number of operands of each opcode class.
var operandCount = map[CodeClass]int{
	CLASS_LUI:    2,
	CLASS_AUIPC:  2,
	CLASS_JAL:    2,
	CLASS_JALR:   2,
	CLASS_BRANCH: 3,
	CLASS_LOAD:   2,
	CLASS_STORE:  2,
	CLASS_ALUI:   3,
	CLASS_ALU:    3,
}

// encode assembles a single instruction or .word directive.
func (asm *Assembler) encode(pc uint32, words []string) (code Code, err error) {
	words = pseudo(words)

	if words[0] == ".word" {
		if len(words) != 2 {
			err = ErrWordSyntax
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < -(1<<31) || value > 0xffffffff {
			err = ErrImmediateRange
			return
		}
		code = Code(uint32(value))
		return
	}

	op, ok := LookupOp(words[0])
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	class := op.Class()
	args := words[1:]
	switch {
	case len(args) > operandCount[class]:
		err = ErrOpcodeExtraArgs
		return
	case len(args) < operandCount[class]:
		err = ErrOpcodeMissingArgs
		return
	}

	var rd, rs1, rs2 uint8
	var imm uint32

	switch class {
	case CLASS_LUI, CLASS_AUIPC:
		if rd, err = asm.register(args[0]); err != nil {
			return
		}
		if imm, err = asm.immediate(args[1], -(1 << 19), 0xfffff); err != nil {
			return
		}
		imm <<= 12
	case CLASS_JAL:
		if rd, err = asm.register(args[0]); err != nil {
			return
		}
		if imm, err = asm.target(pc, args[1], 21); err != nil {
			return
		}
	case CLASS_JALR, CLASS_LOAD:
		if rd, err = asm.register(args[0]); err != nil {
			return
		}
		if imm, rs1, err = asm.address(args[1]); err != nil {
			return
		}
	case CLASS_BRANCH:
		if rs1, err = asm.register(args[0]); err != nil {
			return
		}
		if rs2, err = asm.register(args[1]); err != nil {
			return
		}
		if imm, err = asm.target(pc, args[2], 13); err != nil {
			return
		}
	case CLASS_STORE:
		if rs2, err = asm.register(args[0]); err != nil {
			return
		}
		if imm, rs1, err = asm.address(args[1]); err != nil {
			return
		}
	case CLASS_ALUI:
		if rd, err = asm.register(args[0]); err != nil {
			return
		}
		if rs1, err = asm.register(args[1]); err != nil {
			return
		}
		lo, hi := int64(-2048), int64(2047)
		if isShiftImmediate(class, _op_info[op].funct3) {
			lo, hi = 0, 31
		}
		if imm, err = asm.immediate(args[2], lo, hi); err != nil {
			return
		}
	case CLASS_ALU:
		if rd, err = asm.register(args[0]); err != nil {
			return
		}
		if rs1, err = asm.register(args[1]); err != nil {
			return
		}
		if rs2, err = asm.register(args[2]); err != nil {
			return
		}
	}

	code = MakeCode(op, rd, rs1, rs2, imm)
	return
}
