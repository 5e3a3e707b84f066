package interpreter

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/fatih/color"
)

// FormatStyle controls the output style for formatting functions
type FormatStyle int

const (
	// StylePlain produces plain text output without colors
	StylePlain FormatStyle = iota
	// StyleColored produces colorized output using ANSI escape codes
	StyleColored
)

// OutputConfig configures output formatting
type OutputConfig struct {
	// Style controls whether output is colorized
	Style FormatStyle
	// Writer is where output is written (default: os.Stderr)
	Writer io.Writer
}

// Palette used by colored output
var (
	mnemonicColor = color.New(color.FgYellow, color.Bold)
	registerColor = color.New(color.FgGreen)
	immColor      = color.New(color.FgCyan)
	addressColor  = color.New(color.FgCyan)
	stepColor     = color.New(color.FgHiBlack)
	valueColor    = color.New(color.FgWhite, color.Bold)
	warningColor  = color.New(color.FgRed, color.Bold)
)

// Regular expressions for parsing instruction parts
var (
	regPattern      = regexp.MustCompile(`\b(V[0-9A-F]|I|DT|ST|K|F|B)\b`)
	immPattern      = regexp.MustCompile(`\b0x[0-9A-F]+\b|\b[0-9]+\b`)
	mnemonicPattern = regexp.MustCompile(`^[A-Z]+`)
)

// InstructionFormatter formats instructions for display
type InstructionFormatter struct {
	config OutputConfig
}

// NewInstructionFormatter creates a new instruction formatter
func NewInstructionFormatter(config OutputConfig) *InstructionFormatter {
	return &InstructionFormatter{config: config}
}

// FormatInstruction formats an instruction string like "LD V0, 0x05"
func (f *InstructionFormatter) FormatInstruction(instr string) string {
	if f.config.Style == StylePlain {
		return instr
	}
	return colorizeInstruction(instr)
}

// colorizeInstruction colors mnemonic, registers and immediates
func colorizeInstruction(instr string) string {
	instr = strings.TrimSpace(instr)

	loc := mnemonicPattern.FindStringIndex(instr)
	if loc == nil {
		return instr
	}

	rest := instr[loc[1]:]

	type colorSpan struct {
		start, end int
		color      *color.Color
	}
	var spans []colorSpan

	regMatches := regPattern.FindAllStringIndex(rest, -1)
	for _, m := range regMatches {
		spans = append(spans, colorSpan{m[0], m[1], registerColor})
	}
	for _, m := range immPattern.FindAllStringIndex(rest, -1) {
		overlaps := false
		for _, rm := range regMatches {
			if m[0] < rm[1] && m[1] > rm[0] {
				overlaps = true
				break
			}
		}
		if !overlaps {
			spans = append(spans, colorSpan{m[0], m[1], immColor})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var builder strings.Builder
	builder.WriteString(mnemonicColor.Sprint(instr[loc[0]:loc[1]]))

	pos := 0
	for _, span := range spans {
		builder.WriteString(rest[pos:span.start])
		builder.WriteString(span.color.Sprint(rest[span.start:span.end]))
		pos = span.end
	}
	builder.WriteString(rest[pos:])

	return builder.String()
}

// TraceFormatter formats execution trace output
type TraceFormatter struct {
	config    OutputConfig
	formatter *InstructionFormatter
}

// NewTraceFormatter creates a new trace formatter
func NewTraceFormatter(config OutputConfig) *TraceFormatter {
	return &TraceFormatter{
		config:    config,
		formatter: NewInstructionFormatter(config),
	}
}

// FormatStep formats a single execution step for trace output. registers holds
// the state after the step
func (t *TraceFormatter) FormatStep(step int, result *StepResult, registers *cpu.Registers) string {
	text := result.Instruction.String()
	if result.Unknown {
		text += " ; unknown opcode"
	}

	if t.config.Style == StylePlain {
		return fmt.Sprintf("[%4d] PC=0x%03X %04X I=0x%03X VF=%02X | %s",
			step, result.PC, result.Instruction.Word, registers.I, registers.Flag(), text)
	}

	instr := t.formatter.FormatInstruction(result.Instruction.String())
	if result.Unknown {
		instr = warningColor.Sprint(text)
	}

	return fmt.Sprintf("[%s] %s=%s %s %s=%s %s=%s | %s",
		stepColor.Sprintf("%4d", step),
		registerColor.Sprint("PC"), addressColor.Sprintf("0x%03X", result.PC),
		valueColor.Sprintf("%04X", result.Instruction.Word),
		registerColor.Sprint("I"), addressColor.Sprintf("0x%03X", registers.I),
		registerColor.Sprint("VF"), valueColor.Sprintf("%02X", registers.Flag()),
		instr)
}

// ExecutionSummary contains summary information about an execution
type ExecutionSummary struct {
	// StepsExecuted is the total number of instructions executed
	StepsExecuted int
	// FinalPC is the program counter when execution stopped
	FinalPC uint16
	// Registers is the register file when execution stopped
	Registers cpu.Registers
	// UnknownOpcodes counts skipped words that matched no instruction
	UnknownOpcodes int
	// StopReason is the reason execution stopped
	StopReason StopReason
	// Error is any error that occurred (may be nil)
	Error error
}

// FormatSummary formats an execution summary for display
func (t *TraceFormatter) FormatSummary(summary *ExecutionSummary, verbose bool) string {
	var sb strings.Builder

	if verbose {
		sb.WriteString(fmt.Sprintf("\n=== Execution %s ===\n", summary.StopReason.String()))
		sb.WriteString(fmt.Sprintf("Steps executed: %d\n", summary.StepsExecuted))
		sb.WriteString(fmt.Sprintf("Final PC: 0x%03X\n", summary.FinalPC))
		if summary.UnknownOpcodes > 0 {
			sb.WriteString(fmt.Sprintf("Unknown opcodes skipped: %d\n", summary.UnknownOpcodes))
		}
		if summary.Error != nil {
			sb.WriteString(fmt.Sprintf("Error: %v\n", summary.Error))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(t.FormatRegisters(&summary.Registers))
	return sb.String()
}

// FormatRegisters formats the register file as two rows of eight V registers plus I and PC
func (t *TraceFormatter) FormatRegisters(registers *cpu.Registers) string {
	var sb strings.Builder

	for row := 0; row < 2; row++ {
		for col := 0; col < cpu.RegisterCount/2; col++ {
			index := uint8(row*cpu.RegisterCount/2 + col)
			if col > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(t.formatRegister(cpu.RegisterName(index), fmt.Sprintf("%02X", registers.V[index])))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(t.formatRegister("I", fmt.Sprintf("%03X", registers.I)))
	sb.WriteString(" ")
	sb.WriteString(t.formatRegister("PC", fmt.Sprintf("%03X", registers.PC)))
	sb.WriteString("\n")

	return sb.String()
}

func (t *TraceFormatter) formatRegister(name, value string) string {
	if t.config.Style == StylePlain {
		return fmt.Sprintf("%s=%s", name, value)
	}
	return fmt.Sprintf("%s=%s", registerColor.Sprint(name), valueColor.Sprint(value))
}

// FormatListingLine formats one line of a disassembly listing
func (f *InstructionFormatter) FormatListingLine(address uint16, word uint16, text string, label string, current bool) string {
	marker := "  "
	if current {
		marker = "=>"
	}

	line := fmt.Sprintf("%s 0x%03X  %04X  ", marker, address, word)
	if f.config.Style != StylePlain {
		line = fmt.Sprintf("%s %s  %s  ", marker, addressColor.Sprintf("0x%03X", address), stepColor.Sprintf("%04X", word))
	}

	if label == "" {
		return line + f.FormatInstruction(text)
	}

	padding := strings.Repeat(" ", max(0, 20-len(text)))
	if f.config.Style == StylePlain {
		return fmt.Sprintf("%s%s%s ; %s", line, text, padding, label)
	}
	return line + f.FormatInstruction(text) + padding + stepColor.Sprintf(" ; %s", label)
}
