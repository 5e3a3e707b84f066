package tools

import (
	"fmt"
	"io"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/chip8/pkg/hw/cpu/loader"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/Manu343726/chip8/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	disasmNoColor bool
	disasmRaw     bool
	disasmBase    uint16
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <program>",
	Short: "Disassemble a CHIP-8 program",
	Long: `Prints the assembly listing of a CHIP-8 program.

Every 2 bytes are decoded as one instruction, so data embedded in the program
(sprites, tables) shows up as instructions or as DW words. Jump and call
targets inside the program get labels.

Example:
  chip8 tools disasm program.ch8
  chip8 tools disasm --raw program.ch8 > program.s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if disasmNoColor {
			color.NoColor = true
		}

		logger := logging.FromContext(cmd.Context())

		rom, err := loader.LoadFile(afero.NewOsFs(), args[0], &loader.Options{Logger: logger})
		if err != nil {
			return err
		}

		for _, warning := range rom.Warnings {
			logger.Warn(warning, "path", args[0])
		}

		program := mc.Disassemble(rom.ROM, disasmBase)
		if disasmRaw {
			_, err := fmt.Fprint(cmd.OutOrStdout(), program.String())
			return err
		}

		style := interpreter.StyleColored
		if color.NoColor {
			style = interpreter.StylePlain
		}

		return writeListing(cmd.OutOrStdout(), program, interpreter.NewInstructionFormatter(interpreter.OutputConfig{Style: style}))
	},
}

// writeListing prints one formatted line per program line, preceded by the
// label of the line if it has one
func writeListing(w io.Writer, program *mc.Program, formatter *interpreter.InstructionFormatter) error {
	for i := range program.Lines {
		line := &program.Lines[i]

		if label, ok := program.Labels[line.Address]; ok {
			if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w, formatter.FormatListingLine(line.Address, line.Word, line.Text(), program.TargetLabel(line), false)); err != nil {
			return err
		}
	}

	return nil
}

func init() {
	ToolsCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().BoolVar(&disasmNoColor, "no-color", false, "Disable colored output")
	disasmCmd.Flags().BoolVar(&disasmRaw, "raw", false, "Print the plain listing without formatting")
	disasmCmd.Flags().Uint16Var(&disasmBase, "base", cpu.ProgramStart, "Address the program is loaded at")
}
