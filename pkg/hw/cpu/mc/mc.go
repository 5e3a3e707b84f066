package mc

import (
	"fmt"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
)

// Contains implementation information about the machine code
type MachineCodeDescriptor struct {
	// Information about machine instructions
	Instructions *instructions.InstructionsDescriptor
}

// Dumps all the MC description as one big multiline string
func (d *MachineCodeDescriptor) Documentation(leftpad int) (string, error) {
	leftpad_str := strings.Repeat(" ", leftpad)

	var builder strings.Builder

	all := d.Instructions.AllInstructions()

	builder.WriteString(leftpad_str)
	builder.WriteString(fmt.Sprintf("total implemented instructions: %v\n", len(all)))
	builder.WriteString(leftpad_str)
	builder.WriteString(fmt.Sprintf("instruction encoding lengh (bits): %v\n\n", instructions.InstructionBits))

	builder.WriteString(leftpad_str)
	builder.WriteString("Instructions:\n\n")

	for _, instruction := range all {
		builder.WriteString(fmt.Sprintf(" - %v%-10v %v\n", leftpad_str, instruction.Name, instruction.Pattern))
	}

	builder.WriteString("\n")

	for _, instruction := range all {
		doc, err := instruction.Documentation(leftpad + 2)
		if err != nil {
			return "", err
		}

		builder.WriteString(doc)
		builder.WriteString("\n\n")
	}

	return builder.String(), nil
}

// Like Documentation(), but with zero leftpad
func (d *MachineCodeDescriptor) DocString() (string, error) {
	return d.Documentation(0)
}

// Contains implementation information about the machine code
var Descriptor MachineCodeDescriptor = MachineCodeDescriptor{
	Instructions: &instructions.Instructions,
}
