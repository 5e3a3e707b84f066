package vm

import (
	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
)

// listingStart returns where a listing showing before instructions above pc begins
func listingStart(pc uint16, before int) uint16 {
	offset := uint16(before * instructions.InstructionBytes)
	if pc < offset {
		return pc % instructions.InstructionBytes
	}

	return pc - offset
}

// listing disassembles count instructions from start, one formatted line each,
// flagging the line at pc as current
func listing(memory *cpu.Memory, start uint16, count int, pc uint16, formatter *interpreter.InstructionFormatter) ([]string, error) {
	end := min(int(start)+count*instructions.InstructionBytes, cpu.MemorySize)

	data, err := memory.ReadRange(start, end-int(start))
	if err != nil {
		return nil, err
	}

	program := mc.Disassemble(data, start)
	lines := make([]string, 0, program.Len())

	for i := range program.Lines {
		line := &program.Lines[i]
		lines = append(lines, formatter.FormatListingLine(line.Address, line.Word, line.Text(), program.TargetLabel(line), line.Address == pc))
	}

	return lines, nil
}
