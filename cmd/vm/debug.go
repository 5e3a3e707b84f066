package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/debugger"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/chip8/pkg/utils"
	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// =============================================================================
// Color definitions for CLI output
// =============================================================================

var (
	colorAddr       = color.New(color.FgCyan)
	colorReg        = color.New(color.FgGreen)
	colorValue      = color.New(color.FgWhite, color.Bold)
	colorHex        = color.New(color.FgMagenta)
	colorError      = color.New(color.FgRed, color.Bold)
	colorSuccess    = color.New(color.FgGreen)
	colorWarning    = color.New(color.FgYellow)
	colorHeader     = color.New(color.FgWhite, color.Bold, color.Underline)
	colorBreakpoint = color.New(color.FgRed, color.Bold)
	colorHiBlack    = color.New(color.FgHiBlack)
)

// =============================================================================
// Command definitions and flags
// =============================================================================

const debugListingLines = 10

// debugHelp lists the REPL commands
const debugHelp = `Interactive debugger for CHIP-8 programs.

Commands:
  step, s [n]          - Execute n instructions (default: 1)
  next, n              - Step over subroutine calls
  out, finish          - Run until the current subroutine returns
  continue, c          - Continue execution until breakpoint
  run, r <n>           - Execute at most n instructions
  until, u <addr>      - Run until PC reaches addr
  break, b [addr]      - Set breakpoint (default: PC)
  watch, w <addr> [n]  - Set watchpoint on n bytes of memory (default: 1)
  delete, d <id>       - Delete breakpoint by ID (w<id> for watchpoints)
  list, l              - List all breakpoints and watchpoints
  print, p <expr>      - Evaluate an expression (registers, labels, [addr])
  set <reg> <value>    - Set register value
  memory, m <addr> [n] - Show memory contents
  poke <addr> <bytes>  - Write bytes to memory
  disasm, x [addr] [n] - Disassemble n instructions
  info, i              - Show machine state
  display              - Show the display contents
  key, k <hex>         - Press and release a keypad key
  tick [n]             - Decrement the timers n times (default: 1)
  dump [file]          - Write a YAML snapshot of the machine state
  reset                - Reload the program and start over
  help, h              - Show help
  quit, q              - Exit debugger

Addresses accept expressions without spaces, e.g. "break sub_208+2"
or "memory I+V0". [addr] reads a byte of memory.

Press Enter to repeat the last command, Ctrl+C to interrupt a running program.`

var debugCmd = &cobra.Command{
	Use:   "debug <program>",
	Short: "Run the CHIP-8 debugger",
	Long:  debugHelp,
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

// debugCommands feed tab completion
var debugCommands = []string{
	"step", "s", "next", "n", "out", "finish", "continue", "c", "run", "r", "until", "u",
	"break", "b", "watch", "w", "delete", "d", "list", "l",
	"print", "p", "set", "memory", "m", "poke", "disasm", "x",
	"info", "i", "display", "key", "k", "tick", "dump", "reset",
	"help", "h", "quit", "q", "exit",
}

// =============================================================================
// Debugging session
// =============================================================================

// session holds the state of an interactive debugging session
type session struct {
	dbg         *interpreter.Debugger
	eval        *debugger.ExpressionEvaluator
	fs          afero.Fs
	out         io.Writer
	formatter   *interpreter.InstructionFormatter
	trace       *interpreter.TraceFormatter
	interrupted atomic.Bool
	running     bool
	lastCommand string
}

func newSession(dbg *interpreter.Debugger, fs afero.Fs, out io.Writer) *session {
	style := interpreter.StyleColored
	if color.NoColor {
		style = interpreter.StylePlain
	}

	s := &session{
		dbg:       dbg,
		eval:      debugger.NewExpressionEvaluator(dbg, nil),
		fs:        fs,
		out:       out,
		formatter: interpreter.NewInstructionFormatter(interpreter.OutputConfig{Style: style, Writer: out}),
		trace:     interpreter.NewTraceFormatter(interpreter.OutputConfig{Style: style, Writer: out}),
		running:   true,
	}

	dbg.SetEventCallback(s.onEvent)
	return s
}

// loadSymbols makes the labels found by disassembling rom usable in expressions
func (s *session) loadSymbols(rom []byte) {
	labels := mc.Disassemble(rom, cpu.ProgramStart).Labels
	s.eval.SetSymbols(utils.InvertedMap(labels))
}

// Interrupt stops the current run after the instruction in progress
func (s *session) Interrupt() {
	s.interrupted.Store(true)
}

func (s *session) onEvent(event interpreter.ExecutionEvent, result *interpreter.ExecutionResult) bool {
	switch event {
	case interpreter.EventUnknownOpcode:
		colorWarning.Fprintf(s.out, "Skipped unknown opcode %s at %s\n",
			colorHex.Sprintf("%04X", result.LastInstruction.Word),
			colorAddr.Sprintf("0x%03X", result.LastPC))
	case interpreter.EventAwaitingKey:
		colorWarning.Fprintf(s.out, "Waiting for a key (use 'key <hex>')\n")
	}

	return !s.interrupted.Load()
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) errorf(format string, args ...any) {
	colorError.Fprintf(s.out, format+"\n", args...)
}

// showResult reports why execution stopped and shows the next instruction
func (s *session) showResult(result *interpreter.ExecutionResult) {
	switch result.StopReason {
	case interpreter.StopBreakpoint:
		colorBreakpoint.Fprintf(s.out, "Breakpoint %d hit at %s\n", result.BreakpointID, colorAddr.Sprintf("0x%03X", s.dbg.GetPC()))
	case interpreter.StopWatchpoint:
		wp := s.dbg.GetWatchpoint(result.WatchpointID)
		colorWarning.Fprintf(s.out, "Watchpoint w%d triggered by %s\n", result.WatchpointID, colorAddr.Sprintf("0x%03X", result.LastPC))
		if wp != nil {
			s.printf("  new value: %s\n", colorHex.Sprintf("% X", wp.LastValue))
		}
	case interpreter.StopInfiniteLoop:
		colorSuccess.Fprintf(s.out, "Program reached a jump to itself after %d steps.\n", result.StepsExecuted)
	case interpreter.StopMaxSteps:
		s.printf("Executed %d steps.\n", result.StepsExecuted)
	case interpreter.StopError:
		s.errorf("Error: %v", result.Error)
	case interpreter.StopStep:
		if s.interrupted.Load() {
			colorWarning.Fprintf(s.out, "\nInterrupted after %d steps at %s\n", result.StepsExecuted, colorAddr.Sprintf("0x%03X", s.dbg.GetPC()))
		}
	}

	s.interrupted.Store(false)
	s.showCurrentInstruction()
}

func (s *session) showCurrentInstruction() {
	pc := s.dbg.GetPC()

	instr, err := s.dbg.CurrentInstruction()
	if err != nil {
		s.errorf("Cannot decode instruction at 0x%03X: %v", pc, err)
		return
	}

	s.printf("%s\n", s.formatter.FormatListingLine(pc, instr.Word, instr.String(), "", true))
}

// =============================================================================
// Command parsing and dispatching
// =============================================================================

func parseCount(args []string, fallback int) int {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}

	return fallback
}

func parseValue(s string) (uint16, error) {
	s = strings.ToLower(s)

	var val uint64
	var err error

	if strings.HasPrefix(s, "0x") {
		val, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		val, err = strconv.ParseUint(s, 10, 16)
	}

	return uint16(val), err
}

// resolveAddress evaluates an address expression
func (s *session) resolveAddress(arg string) (uint16, error) {
	value, err := s.eval.Eval(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s': %w", arg, err)
	}
	if int(value) >= cpu.MemorySize {
		return 0, fmt.Errorf("%w: 0x%04X", cpu.ErrAddressOutOfBounds, value)
	}

	return value, nil
}

func (s *session) execute(line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "step", "s":
		result := &interpreter.ExecutionResult{}
		for i := parseCount(args, 1); i > 0; i-- {
			result = s.dbg.Step()
			if result.StopReason != interpreter.StopStep {
				break
			}
		}
		s.showResult(result)

	case "next", "n":
		s.showResult(s.dbg.StepOver())

	case "out", "finish":
		s.showResult(s.dbg.StepOut())

	case "continue", "c":
		s.showResult(s.dbg.Continue())

	case "run", "r":
		if len(args) == 0 {
			s.errorf("Usage: run <steps>")
			return
		}
		s.showResult(s.dbg.Run(parseCount(args, 1)))

	case "until", "u":
		if len(args) == 0 {
			s.errorf("Usage: until <address>")
			return
		}
		addr, err := s.resolveAddress(args[0])
		if err != nil {
			s.errorf("%v", err)
			return
		}
		s.showResult(s.dbg.RunUntil(addr))

	case "break", "b":
		addr := s.dbg.GetPC()
		if len(args) > 0 {
			var err error
			if addr, err = s.resolveAddress(args[0]); err != nil {
				s.errorf("%v", err)
				return
			}
		}
		bp := s.dbg.AddBreakpoint(addr)
		colorSuccess.Fprintf(s.out, "Breakpoint %d at %s\n", bp.ID, colorAddr.Sprintf("0x%03X", bp.Address))

	case "watch", "w":
		if len(args) == 0 {
			s.errorf("Usage: watch <address> [size]")
			return
		}
		addr, err := s.resolveAddress(args[0])
		if err != nil {
			s.errorf("%v", err)
			return
		}
		wp, err := s.dbg.AddWatchpoint(addr, parseCount(args[1:], 1))
		if err != nil {
			s.errorf("%v", err)
			return
		}
		colorSuccess.Fprintf(s.out, "Watchpoint w%d on %s (%d bytes)\n", wp.ID, colorAddr.Sprintf("0x%03X", wp.Address), wp.Size)

	case "delete", "d":
		if len(args) == 0 {
			s.errorf("Usage: delete <id> | delete w<id>")
			return
		}
		watch := strings.HasPrefix(strings.ToLower(args[0]), "w")
		id, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(args[0]), "w"))
		if err != nil {
			s.errorf("Invalid ID: %s", args[0])
			return
		}
		switch {
		case watch && s.dbg.RemoveWatchpoint(id):
			colorSuccess.Fprintf(s.out, "Deleted watchpoint %d\n", id)
		case !watch && s.dbg.RemoveBreakpoint(id):
			colorSuccess.Fprintf(s.out, "Deleted breakpoint %d\n", id)
		default:
			s.errorf("No such breakpoint or watchpoint: %s", args[0])
		}

	case "list", "l":
		s.showBreakpoints()

	case "print", "p":
		if len(args) == 0 {
			s.errorf("Usage: print <expression>")
			return
		}
		expr := strings.Join(args, " ")
		value, err := s.eval.Eval(expr)
		if err != nil {
			s.errorf("%v", err)
			return
		}
		if debugger.IsRegisterName(expr) {
			expr = strings.ToUpper(expr)
		}
		s.printf("%s = %s (%s)\n", colorReg.Sprint(expr), colorValue.Sprintf("%d", value), colorHex.Sprintf("0x%X", value))

	case "set":
		if len(args) < 2 {
			s.errorf("Usage: set <register> <value>")
			return
		}
		value, err := parseValue(args[1])
		if err != nil {
			s.errorf("Invalid value: %s", args[1])
			return
		}
		if err := s.dbg.SetRegister(args[0], value); err != nil {
			s.errorf("%v", err)
			return
		}
		value, _ = s.dbg.GetRegister(args[0])
		s.printf("%s = %s\n", colorReg.Sprint(strings.ToUpper(args[0])), colorHex.Sprintf("0x%X", value))

	case "memory", "m":
		addr := s.dbg.GetPC()
		if len(args) > 0 {
			var err error
			if addr, err = s.resolveAddress(args[0]); err != nil {
				s.errorf("%v", err)
				return
			}
		}
		size := min(parseCount(args[1:], 64), cpu.MemorySize-int(addr))
		data, err := s.dbg.ReadMemory(addr, size)
		if err != nil {
			s.errorf("%v", err)
			return
		}
		s.showMemory(addr, data, memoryBytesPerLine())

	case "poke":
		if len(args) < 2 {
			s.errorf("Usage: poke <address> <byte> [byte...]")
			return
		}
		addr, err := s.resolveAddress(args[0])
		if err != nil {
			s.errorf("%v", err)
			return
		}
		data := make([]byte, 0, len(args)-1)
		for _, arg := range args[1:] {
			value, err := parseValue(arg)
			if err != nil || value > 0xFF {
				s.errorf("Invalid byte: %s", arg)
				return
			}
			data = append(data, byte(value))
		}
		if err := s.dbg.WriteMemory(addr, data); err != nil {
			s.errorf("%v", err)
			return
		}
		colorSuccess.Fprintf(s.out, "Wrote %d bytes at %s\n", len(data), colorAddr.Sprintf("0x%03X", addr))

	case "disasm", "x":
		addr := listingStart(s.dbg.GetPC(), 2)
		if len(args) > 0 {
			var err error
			if addr, err = s.resolveAddress(args[0]); err != nil {
				s.errorf("%v", err)
				return
			}
		}
		s.showDisassembly(addr, parseCount(args[1:], debugListingLines))

	case "info", "i":
		s.showState()

	case "display":
		frame := s.dbg.Interpreter().Display().Snapshot()
		for _, row := range frame.Rows('█', '·') {
			s.printf("%s\n", row)
		}

	case "key", "k":
		if len(args) == 0 {
			s.errorf("Usage: key <hex digit>")
			return
		}
		keys, err := parseKeys(args[:1])
		if err != nil {
			s.errorf("%v", err)
			return
		}
		if err := s.dbg.PressKey(keys[0]); err != nil {
			s.errorf("%v", err)
			return
		}
		colorSuccess.Fprintf(s.out, "Pressed key %X\n", keys[0])

	case "tick":
		for i := parseCount(args, 1); i > 0; i-- {
			s.dbg.Interpreter().TickTimers()
		}
		timers := s.dbg.Interpreter().Timers()
		s.printf("%s=%s %s=%s\n", colorReg.Sprint("DT"), colorHex.Sprintf("%02X", timers.Delay()), colorReg.Sprint("ST"), colorHex.Sprintf("%02X", timers.Sound()))

	case "dump":
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}
		if err := s.dump(path); err != nil {
			s.errorf("%v", err)
			return
		}
		if path != "-" {
			colorSuccess.Fprintf(s.out, "Snapshot written to %s\n", path)
		}

	case "reset":
		s.dbg.Interpreter().Reset()
		colorSuccess.Fprintf(s.out, "Machine reset.\n")
		s.showCurrentInstruction()

	case "help", "h", "?":
		s.printf("%s\n", debugHelp)

	case "quit", "q", "exit":
		s.running = false

	default:
		s.errorf("Unknown command: %s. Type 'help' for available commands.", cmd)
	}
}

func (s *session) dump(path string) error {
	snapshot := s.dbg.Interpreter().Snapshot()

	data, err := snapshot.YAML()
	if err != nil {
		return err
	}

	if path == "-" {
		_, err = s.out.Write(data)
		return err
	}

	return afero.WriteFile(s.fs, path, data, 0o644)
}

// =============================================================================
// Views
// =============================================================================

func (s *session) showBreakpoints() {
	breakpoints := s.dbg.ListBreakpoints()
	watchpoints := s.dbg.ListWatchpoints()

	if len(breakpoints) == 0 && len(watchpoints) == 0 {
		s.printf("No breakpoints or watchpoints.\n")
		return
	}

	sort.Slice(breakpoints, func(i, j int) bool { return breakpoints[i].ID < breakpoints[j].ID })
	sort.Slice(watchpoints, func(i, j int) bool { return watchpoints[i].ID < watchpoints[j].ID })

	for _, bp := range breakpoints {
		state := colorSuccess.Sprint("enabled")
		if !bp.Enabled {
			state = colorHiBlack.Sprint("disabled")
		}
		s.printf("  %s breakpoint at %s %s (hits: %d)\n", colorBreakpoint.Sprintf("#%d", bp.ID), colorAddr.Sprintf("0x%03X", bp.Address), state, bp.HitCount)
	}

	for _, wp := range watchpoints {
		s.printf("  %s watchpoint at %s, %d bytes (hits: %d)\n", colorWarning.Sprintf("#w%d", wp.ID), colorAddr.Sprintf("0x%03X", wp.Address), wp.Size, wp.HitCount)
	}
}

func (s *session) showState() {
	interp := s.dbg.Interpreter()

	colorHeader.Fprintln(s.out, "=== Machine State ===")
	s.printf("%s", s.trace.FormatRegisters(interp.Registers()))

	timers := interp.Timers()
	s.printf("%s=%s %s=%s state=%s\n",
		colorReg.Sprint("DT"), colorHex.Sprintf("%02X", timers.Delay()),
		colorReg.Sprint("ST"), colorHex.Sprintf("%02X", timers.Sound()),
		interp.State())

	stack := interp.Stack().Entries()
	entries := make([]string, len(stack))
	for i, address := range stack {
		entries[i] = colorAddr.Sprintf("0x%03X", address)
	}
	s.printf("stack (%d/%d): %s\n", len(stack), cpu.StackDepth, strings.Join(entries, " "))

	if err := interp.Fault(); err != nil {
		s.errorf("fault: %v", err)
	}
}

func (s *session) showDisassembly(addr uint16, count int) {
	lines, err := listing(s.dbg.Interpreter().Memory(), addr, count, s.dbg.GetPC(), s.formatter)
	if err != nil {
		s.errorf("%v", err)
		return
	}

	for i, line := range lines {
		address := addr + uint16(i*instructions.InstructionBytes)
		if bp := s.dbg.GetBreakpointAt(address); bp != nil && bp.Enabled {
			line = colorBreakpoint.Sprint("*") + line
		} else {
			line = " " + line
		}
		s.printf("%s\n", line)
	}
}

func (s *session) showMemory(addr uint16, data []byte, perLine int) {
	s.printf("Memory at %s:\n", colorAddr.Sprintf("0x%03X", addr))

	for i := 0; i < len(data); i += perLine {
		lineAddr := addr + uint16(i)
		marker := " "
		if lineAddr < cpu.ProgramStart {
			marker = colorHiBlack.Sprint("R")
		}
		s.printf("%s %s: ", marker, colorAddr.Sprintf("0x%03X", lineAddr))

		end := min(i+perLine, len(data))
		for _, b := range data[i:end] {
			s.printf("%s ", colorHex.Sprintf("%02X", b))
		}
		s.printf("%s|", strings.Repeat("   ", perLine-(end-i)))
		for _, b := range data[i:end] {
			if b >= 32 && b < 127 {
				s.printf("%c", b)
			} else {
				s.printf(".")
			}
		}
		s.printf("|\n")
	}
}

// getTerminalSize returns terminal width and height, with fallback defaults
func getTerminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		// Fallback to reasonable defaults
		return 80, 24
	}
	return width, height
}

// memoryBytesPerLine fits a hex dump line in the terminal
func memoryBytesPerLine() int {
	width, _ := getTerminalSize()
	if width >= 80 {
		return 16
	}

	return 8
}

// =============================================================================
// Main debug entry point
// =============================================================================

// getHistoryFilePath returns the path to the debugger history file
func getHistoryFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".chip8_history"
	}
	return filepath.Join(homeDir, ".chip8_history")
}

func runDebug(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d bytes from %s\n", len(m.rom.ROM), m.rom.OriginalPath)
	for _, warning := range m.rom.Warnings {
		colorWarning.Printf("Warning: %s\n", warning)
	}

	s := newSession(interpreter.NewDebugger(m.interp), afero.NewOsFs(), color.Output)
	s.loadSymbols(m.rom.ROM)

	// Ctrl+C interrupts the running program instead of killing the debugger
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			s.Interrupt()
		}
	}()

	// Set up liner for readline support
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	line.SetCompleter(func(input string) []string {
		var completions []string
		for _, cmd := range debugCommands {
			if strings.HasPrefix(cmd, strings.ToLower(input)) {
				completions = append(completions, cmd)
			}
		}
		return completions
	})

	// Load history
	historyFile := getHistoryFilePath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("Entry point: %s\n", colorAddr.Sprintf("0x%03X", s.dbg.GetPC()))
	colorSuccess.Println("Type 'help' for available commands.")
	fmt.Println()
	s.showCurrentInstruction()

	// Main loop
	for s.running {
		input, err := line.Prompt("(chip8) ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				colorSuccess.Println("\nExiting debugger.")
				break
			}
			// Ctrl+C at prompt - tell user to use quit command
			if errors.Is(err, liner.ErrPromptAborted) {
				colorWarning.Println("Use 'quit' or 'exit' to leave the debugger.")
				continue
			}
			return fmt.Errorf("error reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			input = s.lastCommand
		}
		if input != "" {
			if input != s.lastCommand {
				line.AppendHistory(input)
			}
			s.lastCommand = input
			s.execute(input)
		}
	}

	// Save history
	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}

	return nil
}
