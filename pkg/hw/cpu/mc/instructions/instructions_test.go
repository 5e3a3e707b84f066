package instructions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		word   uint16
		opcode OpCode
		text   string
	}{
		{0x00E0, OpCode_CLS, "CLS"},
		{0x00EE, OpCode_RET, "RET"},
		{0x1234, OpCode_JP, "JP 0x234"},
		{0x2ABC, OpCode_CALL, "CALL 0xABC"},
		{0x3A12, OpCode_SE_IMM, "SE VA, 0x12"},
		{0x4B00, OpCode_SNE_IMM, "SNE VB, 0x00"},
		{0x5120, OpCode_SE_REG, "SE V1, V2"},
		{0x6005, OpCode_LD_IMM, "LD V0, 0x05"},
		{0x7003, OpCode_ADD_IMM, "ADD V0, 0x03"},
		{0x8120, OpCode_LD_REG, "LD V1, V2"},
		{0x8121, OpCode_OR, "OR V1, V2"},
		{0x8122, OpCode_AND, "AND V1, V2"},
		{0x8123, OpCode_XOR, "XOR V1, V2"},
		{0x8124, OpCode_ADD_REG, "ADD V1, V2"},
		{0x8125, OpCode_SUB, "SUB V1, V2"},
		{0x8126, OpCode_SHR, "SHR V1, V2"},
		{0x8127, OpCode_SUBN, "SUBN V1, V2"},
		{0x812E, OpCode_SHL, "SHL V1, V2"},
		{0x9120, OpCode_SNE_REG, "SNE V1, V2"},
		{0xA2F0, OpCode_LD_I, "LD I, 0x2F0"},
		{0xB300, OpCode_JP_V0, "JP V0, 0x300"},
		{0xC3FF, OpCode_RND, "RND V3, 0xFF"},
		{0xD125, OpCode_DRW, "DRW V1, V2, 5"},
		{0xE49E, OpCode_SKP, "SKP V4"},
		{0xE4A1, OpCode_SKNP, "SKNP V4"},
		{0xF507, OpCode_LD_VX_DT, "LD V5, DT"},
		{0xF50A, OpCode_LD_VX_K, "LD V5, K"},
		{0xF515, OpCode_LD_DT_VX, "LD DT, V5"},
		{0xF518, OpCode_LD_ST_VX, "LD ST, V5"},
		{0xF51E, OpCode_ADD_I, "ADD I, V5"},
		{0xF529, OpCode_LD_F, "LD F, V5"},
		{0xF533, OpCode_LD_B, "LD B, V5"},
		{0xFE55, OpCode_LD_MEM_VX, "LD [I], VE"},
		{0xFE65, OpCode_LD_VX_MEM, "LD VE, [I]"},
	}

	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			instr := Decode(c.word)

			assert.Equal(t, c.opcode, instr.OpCode())
			assert.False(t, instr.Unknown())
			assert.Equal(t, c.text, instr.String())
		})
	}
}

func TestDecodeFields(t *testing.T) {
	instr := Decode(0xD3A7)

	assert.Equal(t, uint8(0x3), instr.X)
	assert.Equal(t, uint8(0xA), instr.Y)
	assert.Equal(t, uint8(0x7), instr.N)
	assert.Equal(t, uint8(0xA7), instr.NN)
	assert.Equal(t, uint16(0x3A7), instr.NNN)
}

func TestDecodeUnknown(t *testing.T) {
	for _, word := range []uint16{0x0000, 0x0123, 0x5121, 0x8128, 0x9121, 0xE000, 0xF0FF} {
		instr := Decode(word)

		assert.True(t, instr.Unknown(), "word %04X", word)
		assert.Equal(t, OpCode_UNKNOWN, instr.OpCode())
	}

	assert.Equal(t, "DW 0x0000", Decode(0x0000).String())
	assert.Equal(t, "DW 0x8128", Decode(0x8128).String())
}

func TestTarget(t *testing.T) {
	target, ok := Decode(0x1234).Target()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x234), target)

	target, ok = Decode(0x2ABC).Target()
	assert.True(t, ok)
	assert.Equal(t, uint16(0xABC), target)

	_, ok = Decode(0xB300).Target()
	assert.False(t, ok)
}

func TestAllInstructionsHaveDescriptors(t *testing.T) {
	all := Instructions.AllInstructions()
	require.Len(t, all, int(TOTAL_OPCODES)-1)

	for i, descriptor := range all {
		assert.Equal(t, OpCode(i+1), descriptor.OpCode)
		assert.Equal(t, descriptor.Name, descriptor.OpCode.String())
		assert.True(t, descriptor.Matches(descriptor.match), descriptor.Name)
	}
}

func TestOperands(t *testing.T) {
	assert.Equal(t, []OperandKind{OperandKind_X, OperandKind_Y, OperandKind_N}, Instructions.Instruction(OpCode_DRW).Operands)
	assert.Equal(t, []OperandKind{OperandKind_NNN}, Instructions.Instruction(OpCode_JP).Operands)
	assert.Equal(t, []OperandKind{OperandKind_X, OperandKind_NN}, Instructions.Instruction(OpCode_LD_IMM).Operands)
	assert.Empty(t, Instructions.Instruction(OpCode_CLS).Operands)
}

func TestDocumentation(t *testing.T) {
	for _, descriptor := range Instructions.AllInstructions() {
		t.Run(descriptor.Name, func(t *testing.T) {
			doc, err := descriptor.Documentation(0)

			require.NoError(t, err)
			assert.Contains(t, doc, descriptor.Pattern)
			assert.Contains(t, doc, descriptor.Description)
		})
	}

	doc, err := Instructions.Instruction(OpCode_ADD_REG).Documentation(2)
	require.NoError(t, err)
	assert.Contains(t, doc, "Writes VF after the result")
}

func TestEncode(t *testing.T) {
	t.Run("fixed nibbles survive", func(t *testing.T) {
		cases := []struct {
			op       OpCode
			x        uint8
			expected uint16
		}{
			{OpCode_CLS, 0, 0x00E0},
			{OpCode_RET, 0, 0x00EE},
			{OpCode_SKP, 0x4, 0xE49E},
			{OpCode_SKNP, 0x4, 0xE4A1},
			{OpCode_LD_VX_K, 0x5, 0xF50A},
			{OpCode_LD_B, 0x0, 0xF033},
			{OpCode_LD_VX_MEM, 0xE, 0xFE65},
		}

		for _, c := range cases {
			t.Run(c.op.String(), func(t *testing.T) {
				word, err := Encode(c.op, c.x, 0, 0)
				require.NoError(t, err)
				assert.Equal(t, c.expected, word)
			})
		}
	})

	t.Run("operand-less opcodes encode to their pattern", func(t *testing.T) {
		for _, descriptor := range Instructions.AllInstructions() {
			if len(descriptor.Operands) > 0 {
				continue
			}

			word, err := Encode(descriptor.OpCode, 0, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, descriptor.match, word, descriptor.Name)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		for _, descriptor := range Instructions.AllInstructions() {
			t.Run(descriptor.Name, func(t *testing.T) {
				var x, y uint8
				var imm uint16

				for _, operand := range descriptor.Operands {
					switch operand {
					case OperandKind_X:
						x = 0xA
					case OperandKind_Y:
						y = 0x5
					default:
						imm = 0x2A3 & (1<<operand.EncodingBits() - 1)
					}
				}

				word, err := Encode(descriptor.OpCode, x, y, imm)
				require.NoError(t, err)

				instr := Decode(word)
				require.Equal(t, descriptor.OpCode, instr.OpCode())

				for _, operand := range descriptor.Operands {
					switch operand {
					case OperandKind_X:
						assert.Equal(t, x, instr.X)
					case OperandKind_Y:
						assert.Equal(t, y, instr.Y)
					case OperandKind_N:
						assert.Equal(t, uint8(imm), instr.N)
					case OperandKind_NN:
						assert.Equal(t, uint8(imm), instr.NN)
					case OperandKind_NNN:
						assert.Equal(t, imm, instr.NNN)
					}
				}
			})
		}
	})
}
