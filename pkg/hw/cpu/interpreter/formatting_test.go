package interpreter

import (
	"testing"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFormatInstruction(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		f := NewInstructionFormatter(OutputConfig{Style: StylePlain})
		assert.Equal(t, "DRW V1, V2, 5", f.FormatInstruction("DRW V1, V2, 5"))
	})

	t.Run("colored", func(t *testing.T) {
		saved := color.NoColor
		color.NoColor = false
		defer func() { color.NoColor = saved }()

		f := NewInstructionFormatter(OutputConfig{Style: StyleColored})
		colored := f.FormatInstruction("LD V0, 0x05")

		assert.NotEqual(t, "LD V0, 0x05", colored)
		assert.Contains(t, colored, "\x1b[")
		assert.Contains(t, colored, "V0")
		assert.Contains(t, colored, "0x05")
	})

	t.Run("colors disabled", func(t *testing.T) {
		saved := color.NoColor
		color.NoColor = true
		defer func() { color.NoColor = saved }()

		f := NewInstructionFormatter(OutputConfig{Style: StyleColored})
		assert.Equal(t, "LD V0, 0x05", f.FormatInstruction("LD V0, 0x05"))
	})
}

func TestFormatStep(t *testing.T) {
	f := NewTraceFormatter(OutputConfig{Style: StylePlain})
	registers := &cpu.Registers{I: 0x2F0, PC: 0x204}
	registers.V[0xF] = 1

	line := f.FormatStep(3, &StepResult{PC: 0x202, Instruction: instructions.Decode(0xD125)}, registers)
	assert.Equal(t, "[   3] PC=0x202 D125 I=0x2F0 VF=01 | DRW V1, V2, 5", line)

	line = f.FormatStep(4, &StepResult{PC: 0x204, Instruction: instructions.Decode(0x0000), Unknown: true}, registers)
	assert.Contains(t, line, "DW 0x0000 ; unknown opcode")
}

func TestFormatSummary(t *testing.T) {
	f := NewTraceFormatter(OutputConfig{Style: StylePlain})

	summary := &ExecutionSummary{
		StepsExecuted:  3,
		FinalPC:        0x206,
		UnknownOpcodes: 1,
		StopReason:     StopMaxSteps,
	}
	summary.Registers.V[0] = 8
	summary.Registers.PC = 0x206

	text := f.FormatSummary(summary, true)
	assert.Contains(t, text, "=== Execution max_steps ===")
	assert.Contains(t, text, "Steps executed: 3")
	assert.Contains(t, text, "Final PC: 0x206")
	assert.Contains(t, text, "Unknown opcodes skipped: 1")
	assert.Contains(t, text, "V0=08 V1=00")
	assert.Contains(t, text, "I=000 PC=206")

	assert.Equal(t, f.FormatRegisters(&summary.Registers), f.FormatSummary(summary, false))
}

func TestFormatListingLine(t *testing.T) {
	f := NewInstructionFormatter(OutputConfig{Style: StylePlain})

	assert.Equal(t, "=> 0x200  6005  LD V0, 0x05", f.FormatListingLine(0x200, 0x6005, "LD V0, 0x05", "", true))
	assert.Equal(t, "   0x202  1200  JP 0x200             ; L_200", f.FormatListingLine(0x202, 0x1200, "JP 0x200", "L_200", false))
}
