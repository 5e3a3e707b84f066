package instructions

import (
	"fmt"
	"strings"

	"github.com/Manu343726/chip8/pkg/utils"
)

// Instruction is a decoded instruction word
type Instruction struct {
	// Raw instruction word
	Word uint16
	// Descriptor of the matched instruction
	Descriptor *InstructionDescriptor

	// Operand fields. All of them are extracted regardless of the instruction,
	// the descriptor operands tell which ones are meaningful
	X   uint8
	Y   uint8
	N   uint8
	NN  uint8
	NNN uint16
}

// Decode splits an instruction word into its opcode and operand fields
func Decode(word uint16) Instruction {
	view := utils.CreateBitView(&word)

	return Instruction{
		Word:       word,
		Descriptor: Instructions.Lookup(word),
		X:          uint8(view.Nibble(2)),
		Y:          uint8(view.Nibble(1)),
		N:          uint8(view.Nibble(0)),
		NN:         uint8(view.Read(0, 8)),
		NNN:        view.Read(0, 12),
	}
}

// Returns the instruction opcode
func (i Instruction) OpCode() OpCode {
	if i.Descriptor == nil {
		return OpCode_UNKNOWN
	}

	return i.Descriptor.OpCode
}

// Returns true if the word does not encode any known instruction
func (i Instruction) Unknown() bool {
	return i.OpCode() == OpCode_UNKNOWN
}

// Returns the address a JP or CALL instruction transfers control to
func (i Instruction) Target() (uint16, bool) {
	switch i.OpCode() {
	case OpCode_JP, OpCode_CALL:
		return i.NNN, true
	default:
		return 0, false
	}
}

// Returns the assembly representation of the instruction, like "ADD V1, 0x05"
func (i Instruction) String() string {
	descriptor := i.Descriptor
	if descriptor == nil {
		descriptor = Instructions.Instruction(OpCode_UNKNOWN)
	}

	return strings.NewReplacer(
		"{x}", fmt.Sprintf("%X", i.X),
		"{y}", fmt.Sprintf("%X", i.Y),
		"{nnn}", utils.FormatUintHex(uint64(i.NNN), 3),
		"{nn}", utils.FormatUintHex(uint64(i.NN), 2),
		"{n}", fmt.Sprint(i.N),
		"{word}", utils.FormatUintHex(uint64(i.Word), 4),
	).Replace(descriptor.Syntax)
}

// Encode builds the instruction word for the given opcode and operand values.
// Operands the instruction does not use must be zero
func Encode(op OpCode, x, y uint8, imm uint16) (uint16, error) {
	descriptor := Instructions.Instruction(op)
	if descriptor.OpCode == OpCode_UNKNOWN {
		return 0, fmt.Errorf("cannot encode opcode %d", op)
	}

	word := descriptor.match
	used := map[OperandKind]bool{}

	for _, operand := range descriptor.Operands {
		used[operand] = true
	}

	if x > 0xF || y > 0xF {
		return 0, fmt.Errorf("%v: register operands must be in range [0, 15], got V%d and V%d", descriptor.Name, x, y)
	}
	if (x != 0 && !used[OperandKind_X]) || (y != 0 && !used[OperandKind_Y]) {
		return 0, fmt.Errorf("%v takes operands %v", descriptor.Name, utils.FormatSlice(descriptor.Operands, ", "))
	}

	// Fields of absent operands hold fixed opcode nibbles
	view := utils.CreateBitView(&word)
	if used[OperandKind_X] {
		view.Write(uint16(x), OperandKind_X.EncodingPosition(), OperandKind_X.EncodingBits())
	}
	if used[OperandKind_Y] {
		view.Write(uint16(y), OperandKind_Y.EncodingPosition(), OperandKind_Y.EncodingBits())
	}

	immKind, hasImm := descriptor.Immediate()
	switch {
	case hasImm:
		if imm > utils.AllOnes[uint16](immKind.EncodingBits()) {
			return 0, fmt.Errorf("%v: immediate %v does not fit in %v bits", descriptor.Name, imm, immKind.EncodingBits())
		}
		view.Write(imm, immKind.EncodingPosition(), immKind.EncodingBits())
	case imm != 0:
		return 0, fmt.Errorf("%v takes no immediate operand", descriptor.Name)
	}

	return word, nil
}
