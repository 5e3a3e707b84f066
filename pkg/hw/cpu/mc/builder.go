package mc

import (
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
)

// InstructionBuilder provides a fluent interface for building instruction words
type InstructionBuilder struct {
	opcode instructions.OpCode
	x, y   uint8
	imm    uint16
}

// Instr creates an instruction builder for the given opcode
func Instr(opcode instructions.OpCode) *InstructionBuilder {
	return &InstructionBuilder{
		opcode: opcode,
	}
}

// X sets the first register operand
func (b *InstructionBuilder) X(reg uint8) *InstructionBuilder {
	b.x = reg
	return b
}

// Y sets the second register operand
func (b *InstructionBuilder) Y(reg uint8) *InstructionBuilder {
	b.y = reg
	return b
}

// Imm sets the immediate operand (n, nn or nnn depending on the instruction)
func (b *InstructionBuilder) Imm(value uint16) *InstructionBuilder {
	b.imm = value
	return b
}

// Build encodes the instruction word, validating operands
func (b *InstructionBuilder) Build() (uint16, error) {
	return instructions.Encode(b.opcode, b.x, b.y, b.imm)
}

// MustBuild encodes the instruction word, panicking on error
func (b *InstructionBuilder) MustBuild() uint16 {
	word, err := b.Build()
	if err != nil {
		panic(err)
	}
	return word
}

// Convenience functions for common instructions

// Cls creates a CLS instruction
func Cls() uint16 {
	return Instr(instructions.OpCode_CLS).MustBuild()
}

// Ret creates a RET instruction
func Ret() uint16 {
	return Instr(instructions.OpCode_RET).MustBuild()
}

// Jp creates a JP instruction
func Jp(address uint16) uint16 {
	return Instr(instructions.OpCode_JP).Imm(address).MustBuild()
}

// Call creates a CALL instruction
func Call(address uint16) uint16 {
	return Instr(instructions.OpCode_CALL).Imm(address).MustBuild()
}

// Ld creates a LD Vx, nn instruction
func Ld(x uint8, value uint8) uint16 {
	return Instr(instructions.OpCode_LD_IMM).X(x).Imm(uint16(value)).MustBuild()
}

// Add creates an ADD Vx, nn instruction
func Add(x uint8, value uint8) uint16 {
	return Instr(instructions.OpCode_ADD_IMM).X(x).Imm(uint16(value)).MustBuild()
}

// LdI creates a LD I, nnn instruction
func LdI(address uint16) uint16 {
	return Instr(instructions.OpCode_LD_I).Imm(address).MustBuild()
}

// Alu creates one of the 8XYn register to register instructions
func Alu(op instructions.OpCode, x, y uint8) uint16 {
	return Instr(op).X(x).Y(y).MustBuild()
}

// Drw creates a DRW Vx, Vy, n instruction
func Drw(x, y uint8, height uint8) uint16 {
	return Instr(instructions.OpCode_DRW).X(x).Y(y).Imm(uint16(height)).MustBuild()
}

// Assemble packs instruction words into a big-endian ROM image
func Assemble(words ...uint16) []byte {
	p := NewProgram(0)
	for _, word := range words {
		p.Add(word)
	}
	return p.Encode()
}
