package instructions

// Identifies an instruction of the machine
type OpCode uint

const (
	// Any word not matching a known instruction pattern
	OpCode_UNKNOWN OpCode = iota
	// 00E0: clear the display
	OpCode_CLS
	// 00EE: return from subroutine
	OpCode_RET
	// 1NNN: jump
	OpCode_JP
	// 2NNN: call subroutine
	OpCode_CALL
	// 3XNN: skip if VX == NN
	OpCode_SE_IMM
	// 4XNN: skip if VX != NN
	OpCode_SNE_IMM
	// 5XY0: skip if VX == VY
	OpCode_SE_REG
	// 6XNN: VX = NN
	OpCode_LD_IMM
	// 7XNN: VX += NN, no carry
	OpCode_ADD_IMM
	// 8XY0: VX = VY
	OpCode_LD_REG
	// 8XY1: VX |= VY
	OpCode_OR
	// 8XY2: VX &= VY
	OpCode_AND
	// 8XY3: VX ^= VY
	OpCode_XOR
	// 8XY4: VX += VY, VF = carry
	OpCode_ADD_REG
	// 8XY5: VX -= VY, VF = no borrow
	OpCode_SUB
	// 8XY6: shift right, VF = shifted out bit
	OpCode_SHR
	// 8XY7: VX = VY - VX, VF = no borrow
	OpCode_SUBN
	// 8XYE: shift left, VF = shifted out bit
	OpCode_SHL
	// 9XY0: skip if VX != VY
	OpCode_SNE_REG
	// ANNN: I = NNN
	OpCode_LD_I
	// BNNN: jump to NNN + V0
	OpCode_JP_V0
	// CXNN: VX = random & NN
	OpCode_RND
	// DXYN: draw sprite
	OpCode_DRW
	// EX9E: skip if key VX is pressed
	OpCode_SKP
	// EXA1: skip if key VX is not pressed
	OpCode_SKNP
	// FX07: VX = delay timer
	OpCode_LD_VX_DT
	// FX0A: wait for a key press, store it in VX
	OpCode_LD_VX_K
	// FX15: delay timer = VX
	OpCode_LD_DT_VX
	// FX18: sound timer = VX
	OpCode_LD_ST_VX
	// FX1E: I += VX
	OpCode_ADD_I
	// FX29: I = address of glyph VX
	OpCode_LD_F
	// FX33: BCD of VX at I, I+1, I+2
	OpCode_LD_B
	// FX55: store V0..VX at I
	OpCode_LD_MEM_VX
	// FX65: load V0..VX from I
	OpCode_LD_VX_MEM

	// Total opcodes implemented
	TOTAL_OPCODES
)

// Returns the name of the opcode as used in documentation
func (op OpCode) String() string {
	if op >= TOTAL_OPCODES {
		return "INVALID"
	}

	return Instructions.Instruction(op).Name
}
