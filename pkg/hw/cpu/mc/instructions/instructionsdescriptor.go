package instructions

import (
	"fmt"
)

// Number of bits of an instruction word
const InstructionBits = 16

// Number of bytes of an instruction word
const InstructionBytes = InstructionBits / 8

// Constains information about all implemented instructions
type InstructionsDescriptor struct {
	instructions [TOTAL_OPCODES]*InstructionDescriptor
}

// Returns all implemented instructions in opcode order, excluding the unknown instruction placeholder
func (d *InstructionsDescriptor) AllInstructions() []*InstructionDescriptor {
	return d.instructions[OpCode_UNKNOWN+1:]
}

// Returns the instruction corresponding to the given opcode
func (d *InstructionsDescriptor) Instruction(op OpCode) *InstructionDescriptor {
	if op >= TOTAL_OPCODES {
		return d.instructions[OpCode_UNKNOWN]
	}

	return d.instructions[op]
}

// Returns the descriptor of the instruction encoded by the word. Words not matching
// any pattern get the unknown instruction descriptor
func (d *InstructionsDescriptor) Lookup(word uint16) *InstructionDescriptor {
	for _, instruction := range d.AllInstructions() {
		if instruction.Matches(word) {
			return instruction
		}
	}

	return d.instructions[OpCode_UNKNOWN]
}

// Initializes an instructions descriptor with all the given instructions
func NewInstructionsDescriptor(instructions []*InstructionDescriptor) InstructionsDescriptor {
	d := InstructionsDescriptor{}

	for _, instr := range instructions {
		if instr.OpCode >= TOTAL_OPCODES {
			panic(fmt.Errorf("instruction %v has invalid opcode %d", instr.Name, instr.OpCode))
		}
		if d.instructions[instr.OpCode] != nil {
			panic(fmt.Errorf("opcode %d described twice (%v and %v)", instr.OpCode, d.instructions[instr.OpCode].Name, instr.Name))
		}
		if instr.OpCode != OpCode_UNKNOWN {
			if err := instr.compile(); err != nil {
				panic(err)
			}
		}

		d.instructions[instr.OpCode] = instr
	}

	for op, instr := range d.instructions {
		if instr == nil {
			panic(fmt.Errorf("opcode %d has no descriptor", op))
		}
	}

	return d
}

var Instructions InstructionsDescriptor = NewInstructionsDescriptor([]*InstructionDescriptor{
	{
		OpCode:      OpCode_UNKNOWN,
		Name:        "UNKNOWN",
		Syntax:      "DW {word}",
		Description: "Word not matching any instruction. Executing it only advances the program counter",
	},
	{
		OpCode:      OpCode_CLS,
		Pattern:     "00E0",
		Name:        "CLS",
		Syntax:      "CLS",
		Description: "Clears the display",
	},
	{
		OpCode:      OpCode_RET,
		Pattern:     "00EE",
		Name:        "RET",
		Syntax:      "RET",
		Description: "Pops the return address of the current subroutine into PC. Fails if the stack is empty",
		Flow:        Flow_Return,
	},
	{
		OpCode:      OpCode_JP,
		Pattern:     "1NNN",
		Name:        "JP",
		Syntax:      "JP {nnn}",
		Description: "Jumps to address nnn",
		Flow:        Flow_Jump,
	},
	{
		OpCode:      OpCode_CALL,
		Pattern:     "2NNN",
		Name:        "CALL",
		Syntax:      "CALL {nnn}",
		Description: "Pushes the address of the next instruction and jumps to nnn. Fails if the stack is full",
		Flow:        Flow_Call,
	},
	{
		OpCode:      OpCode_SE_IMM,
		Pattern:     "3XNN",
		Name:        "SE_IMM",
		Syntax:      "SE V{x}, {nn}",
		Description: "Skips the next instruction if VX equals nn",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_SNE_IMM,
		Pattern:     "4XNN",
		Name:        "SNE_IMM",
		Syntax:      "SNE V{x}, {nn}",
		Description: "Skips the next instruction if VX does not equal nn",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_SE_REG,
		Pattern:     "5XY0",
		Name:        "SE_REG",
		Syntax:      "SE V{x}, V{y}",
		Description: "Skips the next instruction if VX equals VY",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_LD_IMM,
		Pattern:     "6XNN",
		Name:        "LD_IMM",
		Syntax:      "LD V{x}, {nn}",
		Description: "Sets VX to nn",
	},
	{
		OpCode:      OpCode_ADD_IMM,
		Pattern:     "7XNN",
		Name:        "ADD_IMM",
		Syntax:      "ADD V{x}, {nn}",
		Description: "Adds nn to VX, wrapping around. VF is not modified",
	},
	{
		OpCode:      OpCode_LD_REG,
		Pattern:     "8XY0",
		Name:        "LD_REG",
		Syntax:      "LD V{x}, V{y}",
		Description: "Sets VX to VY",
	},
	{
		OpCode:      OpCode_OR,
		Pattern:     "8XY1",
		Name:        "OR",
		Syntax:      "OR V{x}, V{y}",
		Description: "Sets VX to VX OR VY",
	},
	{
		OpCode:      OpCode_AND,
		Pattern:     "8XY2",
		Name:        "AND",
		Syntax:      "AND V{x}, V{y}",
		Description: "Sets VX to VX AND VY",
	},
	{
		OpCode:      OpCode_XOR,
		Pattern:     "8XY3",
		Name:        "XOR",
		Syntax:      "XOR V{x}, V{y}",
		Description: "Sets VX to VX XOR VY",
	},
	{
		OpCode:      OpCode_ADD_REG,
		Pattern:     "8XY4",
		Name:        "ADD_REG",
		Syntax:      "ADD V{x}, V{y}",
		Description: "Adds VY to VX. VF is set to 1 if the sum exceeds 255, 0 otherwise",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SUB,
		Pattern:     "8XY5",
		Name:        "SUB",
		Syntax:      "SUB V{x}, V{y}",
		Description: "Subtracts VY from VX. VF is set to 1 if VX >= VY (no borrow), 0 otherwise",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SHR,
		Pattern:     "8XY6",
		Name:        "SHR",
		Syntax:      "SHR V{x}, V{y}",
		Description: "Shifts the source right by one and stores it in VX. VF is set to the bit shifted out. The source is VX, or VY with the shift quirk enabled",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SUBN,
		Pattern:     "8XY7",
		Name:        "SUBN",
		Syntax:      "SUBN V{x}, V{y}",
		Description: "Sets VX to VY minus VX. VF is set to 1 if VY >= VX (no borrow), 0 otherwise",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SHL,
		Pattern:     "8XYE",
		Name:        "SHL",
		Syntax:      "SHL V{x}, V{y}",
		Description: "Shifts the source left by one and stores it in VX. VF is set to the bit shifted out. The source is VX, or VY with the shift quirk enabled",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SNE_REG,
		Pattern:     "9XY0",
		Name:        "SNE_REG",
		Syntax:      "SNE V{x}, V{y}",
		Description: "Skips the next instruction if VX does not equal VY",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_LD_I,
		Pattern:     "ANNN",
		Name:        "LD_I",
		Syntax:      "LD I, {nnn}",
		Description: "Sets I to nnn",
	},
	{
		OpCode:      OpCode_JP_V0,
		Pattern:     "BNNN",
		Name:        "JP_V0",
		Syntax:      "JP V0, {nnn}",
		Description: "Jumps to nnn plus V0",
		Flow:        Flow_IndirectJump,
	},
	{
		OpCode:      OpCode_RND,
		Pattern:     "CXNN",
		Name:        "RND",
		Syntax:      "RND V{x}, {nn}",
		Description: "Sets VX to a uniformly distributed random byte AND nn",
	},
	{
		OpCode:      OpCode_DRW,
		Pattern:     "DXYN",
		Name:        "DRW",
		Syntax:      "DRW V{x}, V{y}, {n}",
		Description: "XORs the n bytes sprite at I onto the display at (VX, VY), wrapping around the edges. VF is set to 1 if any set pixel was turned off, 0 otherwise",
		WritesFlag:  true,
	},
	{
		OpCode:      OpCode_SKP,
		Pattern:     "EX9E",
		Name:        "SKP",
		Syntax:      "SKP V{x}",
		Description: "Skips the next instruction if the key VX is pressed",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_SKNP,
		Pattern:     "EXA1",
		Name:        "SKNP",
		Syntax:      "SKNP V{x}",
		Description: "Skips the next instruction if the key VX is not pressed",
		Flow:        Flow_Skip,
	},
	{
		OpCode:      OpCode_LD_VX_DT,
		Pattern:     "FX07",
		Name:        "LD_VX_DT",
		Syntax:      "LD V{x}, DT",
		Description: "Sets VX to the delay timer",
	},
	{
		OpCode:      OpCode_LD_VX_K,
		Pattern:     "FX0A",
		Name:        "LD_VX_K",
		Syntax:      "LD V{x}, K",
		Description: "Stops execution until a key is pressed and stores the key in VX. The program counter stays on this instruction while waiting",
		Flow:        Flow_Wait,
	},
	{
		OpCode:      OpCode_LD_DT_VX,
		Pattern:     "FX15",
		Name:        "LD_DT_VX",
		Syntax:      "LD DT, V{x}",
		Description: "Sets the delay timer to VX",
	},
	{
		OpCode:      OpCode_LD_ST_VX,
		Pattern:     "FX18",
		Name:        "LD_ST_VX",
		Syntax:      "LD ST, V{x}",
		Description: "Sets the sound timer to VX. The tone plays while the sound timer is not zero",
	},
	{
		OpCode:      OpCode_ADD_I,
		Pattern:     "FX1E",
		Name:        "ADD_I",
		Syntax:      "ADD I, V{x}",
		Description: "Adds VX to I, wrapping around at 16 bits. VF is not modified",
	},
	{
		OpCode:      OpCode_LD_F,
		Pattern:     "FX29",
		Name:        "LD_F",
		Syntax:      "LD F, V{x}",
		Description: "Sets I to the address of the built-in glyph for the digit in VX (VX * 5)",
	},
	{
		OpCode:      OpCode_LD_B,
		Pattern:     "FX33",
		Name:        "LD_B",
		Syntax:      "LD B, V{x}",
		Description: "Stores the hundreds, tens and units of VX at I, I+1 and I+2",
	},
	{
		OpCode:      OpCode_LD_MEM_VX,
		Pattern:     "FX55",
		Name:        "LD_MEM_VX",
		Syntax:      "LD [I], V{x}",
		Description: "Stores V0 to VX inclusive at I to I+X",
	},
	{
		OpCode:      OpCode_LD_VX_MEM,
		Pattern:     "FX65",
		Name:        "LD_VX_MEM",
		Syntax:      "LD V{x}, [I]",
		Description: "Loads V0 to VX inclusive from I to I+X",
	},
})
