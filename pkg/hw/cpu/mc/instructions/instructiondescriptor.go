package instructions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/chip8/pkg/utils"
)

// How an instruction affects the flow of execution
type Flow uint

const (
	// Execution continues with the next instruction
	Flow_Sequential Flow = iota
	// Unconditional jump to an immediate address
	Flow_Jump
	// Jump to an address computed at runtime
	Flow_IndirectJump
	// Subroutine call to an immediate address
	Flow_Call
	// Return from subroutine
	Flow_Return
	// Conditionally skips the next instruction
	Flow_Skip
	// Stops until a key is pressed
	Flow_Wait
)

// Contains information describing an instruction
type InstructionDescriptor struct {
	// Instruction opcode
	OpCode OpCode
	// Encoding pattern, hex digits are fixed and X, Y, N are operand fields. For example "8XY4"
	Pattern string
	// Name used in documentation and in the OpCode String() method
	Name string
	// Assembly syntax. {x}, {y}, {n}, {nn}, {nnn} and {word} are replaced by operand values
	Syntax string
	// Instruction description (for documentation and debugging)
	Description string
	// Effect on control flow
	Flow Flow
	// Whether the instruction overwrites VF as a side effect
	WritesFlag bool

	// Operand fields, filled from the pattern
	Operands []OperandKind

	mask  uint16
	match uint16
}

// Returns a human readable string representation of the instruction
func (d *InstructionDescriptor) String() string {
	return fmt.Sprintf("%v (%v)", d.Name, d.Pattern)
}

// Returns whether the given word encodes this instruction
func (d *InstructionDescriptor) Matches(word uint16) bool {
	return word&d.mask == d.match
}

// Computes mask, match value and operand list out of the pattern
func (d *InstructionDescriptor) compile() error {
	if len(d.Pattern) != 4 {
		return fmt.Errorf("instruction %v: pattern '%v' must be 4 hex digits long", d.Name, d.Pattern)
	}

	d.mask, d.match, d.Operands = 0, 0, nil

	for i, digit := range strings.ToUpper(d.Pattern) {
		shift := uint(12 - 4*i)

		switch digit {
		case 'X':
			d.Operands = append(d.Operands, OperandKind_X)
		case 'Y':
			d.Operands = append(d.Operands, OperandKind_Y)
		case 'N':
			// consecutive N digits form a single immediate field
		default:
			value, err := strconv.ParseUint(string(digit), 16, 8)
			if err != nil {
				return fmt.Errorf("instruction %v: invalid pattern digit '%c'", d.Name, digit)
			}

			d.mask |= 0xF << shift
			d.match |= uint16(value) << shift
		}
	}

	switch n := strings.Count(strings.ToUpper(d.Pattern), "N"); n {
	case 0:
	case 1:
		d.Operands = append(d.Operands, OperandKind_N)
	case 2:
		d.Operands = append(d.Operands, OperandKind_NN)
	case 3:
		d.Operands = append(d.Operands, OperandKind_NNN)
	default:
		return fmt.Errorf("instruction %v: invalid immediate in pattern '%v'", d.Name, d.Pattern)
	}

	return nil
}

// Splits the instruction word into documentation fields, least significant first
func (d *InstructionDescriptor) fields() []utils.AsciiFrameField {
	var fields []utils.AsciiFrameField
	pattern := strings.ToUpper(d.Pattern)

	for i := len(pattern) - 1; i >= 0; {
		digit := pattern[i]
		begin := (len(pattern) - 1 - i) * 4
		j := i

		if isFixedDigit(digit) {
			for j >= 0 && isFixedDigit(pattern[j]) {
				j--
			}

			value, _ := strconv.ParseUint(pattern[j+1:i+1], 16, 16)
			width := (i - j) * 4
			fields = append(fields, utils.AsciiFrameField{
				Name:  utils.FormatUintBinary(value, width),
				Begin: begin,
				Width: width,
			})
		} else {
			for j >= 0 && pattern[j] == digit {
				j--
			}

			fields = append(fields, utils.AsciiFrameField{
				Name:  strings.ToLower(pattern[j+1 : i+1]),
				Begin: begin,
				Width: (i - j) * 4,
			})
		}

		i = j
	}

	return fields
}

func isFixedDigit(digit byte) bool {
	return digit != 'X' && digit != 'Y' && digit != 'N'
}

// Returns full documentation for the instruction
func (d *InstructionDescriptor) Documentation(leftpad int) (string, error) {
	var builder strings.Builder
	leftpad_str := strings.Repeat(" ", leftpad)

	builder.WriteString(leftpad_str)
	builder.WriteString(fmt.Sprintf("%v    %v\n\n", d.Pattern, d.Syntax))

	leftpad_str += "  "
	leftpad += 2

	builder.WriteString(leftpad_str)
	builder.WriteString("Description:\n\n  ")
	builder.WriteString(leftpad_str)
	builder.WriteString(d.Description)
	builder.WriteString("\n\n")
	builder.WriteString(leftpad_str)
	builder.WriteString("Encoding:\n\n")

	asciiFrame, err := utils.AsciiFrame(d.fields(), InstructionBits, "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad+2)
	if err != nil {
		return "", fmt.Errorf("error generating documentation for instruction %v: %w", d.Name, err)
	}

	builder.WriteString(asciiFrame)

	if d.WritesFlag {
		builder.WriteString("\n")
		builder.WriteString(leftpad_str)
		builder.WriteString("Writes VF after the result\n")
	}

	return builder.String(), nil
}

// Returns the immediate operand of the instruction, if any
func (d *InstructionDescriptor) Immediate() (OperandKind, bool) {
	for _, operand := range d.Operands {
		switch operand {
		case OperandKind_N, OperandKind_NN, OperandKind_NNN:
			return operand, true
		}
	}

	return 0, false
}
