package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	execMaxSteps  int
	execTrace     bool
	execNoColor   bool
	execTickEvery int
	execInput     []string
	execDisplay   bool
	execDumpPath  string
)

var execCmd = &cobra.Command{
	Use:   "exec <program>",
	Short: "Execute a CHIP-8 program without a display",
	Long: `Executes a CHIP-8 program as fast as possible, without display or real time
clock, and prints the final register state.

Execution stops when the program jumps to itself, blocks waiting for a key
with no input left, faults, or runs --max-steps instructions. Keys for the
LD Vx, K instructions are taken in order from --input.

Timers are decremented once every --tick-every instructions, which keeps runs
reproducible. Combined with --seed, two runs of the same program produce the
same result.

Exit codes:
  0  program stopped normally
  2  the program could not be loaded
  3  the machine faulted
  4  the snapshot could not be written

Example:
  chip8 vm exec --trace -n 1000 program.ch8
  chip8 vm exec --input 1,2,F --display --dump state.yaml program.ch8`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().IntVarP(&execMaxSteps, "max-steps", "n", 0, "Maximum number of steps to execute (0 = unlimited)")
	execCmd.Flags().BoolVarP(&execTrace, "trace", "t", false, "Trace each instruction execution")
	execCmd.Flags().BoolVar(&execNoColor, "no-color", false, "Disable colored output")
	execCmd.Flags().IntVar(&execTickEvery, "tick-every", 0, "Instructions between timer decrements (default: speed / timer rate)")
	execCmd.Flags().StringSliceVarP(&execInput, "input", "i", nil, "Keypad keys (hex digits) fed to LD Vx, K instructions, in order")
	execCmd.Flags().BoolVarP(&execDisplay, "display", "d", false, "Print the final display contents")
	execCmd.Flags().StringVar(&execDumpPath, "dump", "", "Write a YAML snapshot of the final machine state to this file ('-' for stdout)")
}

// parseKeys converts a list of hex digits into keypad keys
func parseKeys(values []string) ([]uint8, error) {
	keys := make([]uint8, 0, len(values))

	for _, value := range values {
		key, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x"), 16, 8)
		if err != nil || key >= cpu.KeyCount {
			return nil, fmt.Errorf("%w: '%s'", cpu.ErrInvalidKey, value)
		}
		keys = append(keys, uint8(key))
	}

	return keys, nil
}

func runExec(cmd *cobra.Command, args []string) error {
	if execNoColor {
		color.NoColor = true
	}

	m, err := loadMachine(cmd, args[0])
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	keys, err := parseKeys(execInput)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	tickEvery := execTickEvery
	if tickEvery <= 0 {
		tickEvery = max(1, m.config.CPU.SpeedHz/m.config.CPU.TimerHz)
	}

	style := interpreter.StyleColored
	if color.NoColor {
		style = interpreter.StylePlain
	}
	formatter := interpreter.NewTraceFormatter(interpreter.OutputConfig{Style: style, Writer: os.Stderr})

	opts := execOptions{
		maxSteps:  execMaxSteps,
		tickEvery: tickEvery,
		keys:      keys,
		formatter: formatter,
	}
	if execTrace {
		opts.trace = os.Stderr
	}

	dbg := interpreter.NewDebugger(m.interp)
	result := executeWithInput(dbg, opts)

	summary := &interpreter.ExecutionSummary{
		StepsExecuted:  result.StepsExecuted,
		FinalPC:        m.interp.Registers().PC,
		Registers:      *m.interp.Registers(),
		UnknownOpcodes: result.UnknownOpcodes,
		StopReason:     result.StopReason,
		Error:          result.Error,
	}

	if vmVerbose {
		fmt.Fprint(os.Stderr, formatter.FormatSummary(summary, true))
	} else {
		fmt.Print(formatter.FormatSummary(summary, false))
	}

	if execDisplay {
		frame := m.interp.Display().Snapshot()
		fmt.Println(strings.Join(frame.Rows('#', '.'), "\n"))
	}

	if execDumpPath != "" {
		if err := dumpSnapshot(afero.NewOsFs(), m.interp, execDumpPath); err != nil {
			return &ExitError{Code: 4, Err: err}
		}
	}

	if result.StopReason == interpreter.StopError {
		return &ExitError{Code: 3, Err: fmt.Errorf("execution error: %w", result.Error)}
	}

	return nil
}

// execOptions drives a headless run
type execOptions struct {
	// Step limit, 0 means unlimited
	maxSteps int
	// Steps between timer decrements
	tickEvery int
	// Keys fed to LD Vx, K, in order
	keys []uint8
	// Destination of the trace, nil disables tracing
	trace     io.Writer
	formatter *interpreter.TraceFormatter
}

// executeWithInput runs the program until it stops, feeding queued keys each
// time it blocks on LD Vx, K
func executeWithInput(dbg *interpreter.Debugger, opts execOptions) *interpreter.ExecutionResult {
	interp := dbg.Interpreter()
	total := &interpreter.ExecutionResult{}
	keys := opts.keys
	steps := 0

	dbg.SetEventCallback(func(event interpreter.ExecutionEvent, result *interpreter.ExecutionResult) bool {
		if event != interpreter.EventStep {
			return true
		}

		steps++
		if opts.tickEvery > 0 && steps%opts.tickEvery == 0 {
			interp.TickTimers()
		}

		if opts.trace != nil {
			step := &interpreter.StepResult{
				PC:          result.LastPC,
				Instruction: result.LastInstruction,
				Unknown:     result.LastInstruction.Unknown(),
			}
			fmt.Fprintln(opts.trace, opts.formatter.FormatStep(steps, step, interp.Registers()))
		}

		return true
	})

	for {
		remaining := 0
		if opts.maxSteps > 0 {
			remaining = opts.maxSteps - total.StepsExecuted
			if remaining <= 0 {
				total.StopReason = interpreter.StopMaxSteps
				return total
			}
		}

		result := dbg.Run(remaining)

		total.StepsExecuted += result.StepsExecuted
		total.UnknownOpcodes += result.UnknownOpcodes
		total.StopReason = result.StopReason
		total.Error = result.Error
		total.LastPC = result.LastPC
		total.LastInstruction = result.LastInstruction

		if result.StopReason != interpreter.StopAwaitingKey || len(keys) == 0 {
			return total
		}

		if err := dbg.PressKey(keys[0]); err != nil {
			total.StopReason = interpreter.StopError
			total.Error = err
			return total
		}
		keys = keys[1:]
	}
}

func dumpSnapshot(fs afero.Fs, interp *interpreter.Interpreter, path string) error {
	snapshot := interp.Snapshot()

	data, err := snapshot.YAML()
	if err != nil {
		return err
	}

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}

	return afero.WriteFile(fs, path, data, 0o644)
}
