package mc

import (
	"fmt"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/chip8/pkg/utils"
)

// Line is one entry of a program listing
type Line struct {
	// Address of the first byte of the line
	Address uint16
	// Raw word. Data lines hold a single trailing byte in the low 8 bits
	Word uint16
	// True if the line is a trailing byte that does not form a full instruction
	Data bool
	// Decoded instruction, meaningless for data lines
	Instruction instructions.Instruction
}

// Size of the line in bytes
func (l *Line) Size() int {
	if l.Data {
		return 1
	}

	return instructions.InstructionBytes
}

// Returns the assembly text of the line, without address or label
func (l *Line) Text() string {
	if l.Data {
		return fmt.Sprintf("DB %v", utils.FormatUintHex(uint64(l.Word), 2))
	}

	return l.Instruction.String()
}

// Program represents a sequence of instructions laid out from a base address
type Program struct {
	// Address of the first line
	Base uint16
	// Lines in address order
	Lines []Line
	// Names given to jump and call targets within the program
	Labels map[uint16]string
}

// NewProgram creates a new empty program starting at the given address
func NewProgram(base uint16) *Program {
	return &Program{
		Base:   base,
		Lines:  make([]Line, 0),
		Labels: make(map[uint16]string),
	}
}

// Disassemble decodes a ROM image as if loaded at base. Every 2 bytes form a
// word, an odd trailing byte is listed as data. Unknown words are kept as DW lines
func Disassemble(rom []byte, base uint16) *Program {
	p := NewProgram(base)

	for offset := 0; offset < len(rom); offset += instructions.InstructionBytes {
		if offset+1 >= len(rom) {
			p.Lines = append(p.Lines, Line{
				Address: base + uint16(offset),
				Word:    uint16(rom[offset]),
				Data:    true,
			})
			break
		}

		p.Add(uint16(rom[offset])<<8 | uint16(rom[offset+1]))
	}

	p.resolveLabels()
	return p
}

// Add appends an instruction word to the program
func (p *Program) Add(word uint16) *Program {
	p.Lines = append(p.Lines, Line{
		Address:     p.End(),
		Word:        word,
		Instruction: instructions.Decode(word),
	})
	return p
}

// Len returns the number of lines in the program
func (p *Program) Len() int {
	return len(p.Lines)
}

// End returns the address past the last line
func (p *Program) End() uint16 {
	if len(p.Lines) == 0 {
		return p.Base
	}

	last := &p.Lines[len(p.Lines)-1]
	return last.Address + uint16(last.Size())
}

// Returns the line starting at the given address
func (p *Program) At(address uint16) (*Line, bool) {
	if address < p.Base || address >= p.End() {
		return nil, false
	}

	index := int(address-p.Base) / instructions.InstructionBytes
	if index >= len(p.Lines) || p.Lines[index].Address != address {
		return nil, false
	}

	return &p.Lines[index], true
}

func (p *Program) resolveLabels() {
	for i := range p.Lines {
		line := &p.Lines[i]
		if line.Data {
			continue
		}

		target, ok := line.Instruction.Target()
		if !ok {
			continue
		}
		if _, inside := p.At(target); !inside {
			continue
		}

		if line.Instruction.OpCode() == instructions.OpCode_CALL {
			p.Labels[target] = fmt.Sprintf("sub_%03X", target)
		} else if _, named := p.Labels[target]; !named {
			p.Labels[target] = fmt.Sprintf("L_%03X", target)
		}
	}
}

// TargetLabel returns the label of the line jump or call target, if any
func (p *Program) TargetLabel(line *Line) string {
	if line.Data {
		return ""
	}

	target, ok := line.Instruction.Target()
	if !ok {
		return ""
	}

	return p.Labels[target]
}

// String returns a human-readable listing of the program
func (p *Program) String() string {
	var builder strings.Builder

	for i := range p.Lines {
		line := &p.Lines[i]

		if label, ok := p.Labels[line.Address]; ok {
			builder.WriteString(label)
			builder.WriteString(":\n")
		}

		raw := utils.FormatUintHex(uint64(line.Word), 4)
		if line.Data {
			raw = utils.FormatUintHex(uint64(line.Word), 2)
		}

		builder.WriteString(fmt.Sprintf("  %v  %-6v  %v", utils.FormatUintHex(uint64(line.Address), 3), raw, line.Text()))

		if label := p.TargetLabel(line); label != "" {
			builder.WriteString(fmt.Sprintf("  ; %v", label))
		}

		builder.WriteString("\n")
	}

	return builder.String()
}

// Encode encodes the program to a big-endian ROM image
func (p *Program) Encode() []byte {
	result := make([]byte, 0, len(p.Lines)*instructions.InstructionBytes)

	for _, line := range p.Lines {
		if line.Data {
			result = append(result, byte(line.Word))
			continue
		}

		result = append(result, byte(line.Word>>8), byte(line.Word))
	}

	return result
}
