package interpreter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
)

// ExecutionEvent represents events that can occur during execution
type ExecutionEvent int

const (
	// EventStep is fired after each instruction execution
	EventStep ExecutionEvent = iota
	// EventBreakpoint is fired when a breakpoint is hit
	EventBreakpoint
	// EventWatchpoint is fired when a watched memory location is modified
	EventWatchpoint
	// EventAwaitingKey is fired when the machine blocks waiting for a key
	EventAwaitingKey
	// EventUnknownOpcode is fired when a word not matching any instruction is skipped
	EventUnknownOpcode
	// EventError is fired when an execution error occurs
	EventError
)

// String returns the string representation of an ExecutionEvent
func (e ExecutionEvent) String() string {
	switch e {
	case EventStep:
		return "step"
	case EventBreakpoint:
		return "breakpoint"
	case EventWatchpoint:
		return "watchpoint"
	case EventAwaitingKey:
		return "awaiting_key"
	case EventUnknownOpcode:
		return "unknown_opcode"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// StopReason indicates why execution stopped
type StopReason int

const (
	// StopNone indicates execution has not stopped
	StopNone StopReason = iota
	// StopStep indicates execution stopped after a single step
	StopStep
	// StopBreakpoint indicates execution stopped at a breakpoint
	StopBreakpoint
	// StopWatchpoint indicates execution stopped due to a watchpoint
	StopWatchpoint
	// StopAwaitingKey indicates the machine is blocked on LD Vx, K
	StopAwaitingKey
	// StopInfiniteLoop indicates the program reached a jump to itself
	StopInfiniteLoop
	// StopError indicates an execution error occurred
	StopError
	// StopMaxSteps indicates max steps limit was reached
	StopMaxSteps
)

// String returns the string representation of a StopReason
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopStep:
		return "step"
	case StopBreakpoint:
		return "breakpoint"
	case StopWatchpoint:
		return "watchpoint"
	case StopAwaitingKey:
		return "awaiting_key"
	case StopInfiniteLoop:
		return "infinite_loop"
	case StopError:
		return "error"
	case StopMaxSteps:
		return "max_steps"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// Breakpoint represents a code breakpoint
type Breakpoint struct {
	// ID is the unique breakpoint identifier
	ID int
	// Address is the memory address of the breakpoint
	Address uint16
	// Enabled indicates if the breakpoint is active
	Enabled bool
	// HitCount tracks how many times this breakpoint has been hit
	HitCount int
}

// Watchpoint represents a memory watchpoint. It triggers when any byte of
// [Address, Address+Size) changes
type Watchpoint struct {
	// ID is the unique watchpoint identifier
	ID int
	// Address is the first watched byte
	Address uint16
	// Size is the number of bytes to watch
	Size int
	// Enabled indicates if the watchpoint is active
	Enabled bool
	// HitCount tracks how many times this watchpoint has been triggered
	HitCount int
	// LastValue stores the last known contents of the watched range
	LastValue []byte
}

// ExecutionResult contains the result of an execution operation
type ExecutionResult struct {
	// StopReason indicates why execution stopped
	StopReason StopReason
	// StepsExecuted is the number of instructions executed
	StepsExecuted int
	// Error contains any error that occurred (nil if none)
	Error error
	// BreakpointID is set if stopped at a breakpoint
	BreakpointID int
	// WatchpointID is set if stopped at a watchpoint
	WatchpointID int
	// LastPC is the address of the last executed instruction
	LastPC uint16
	// LastInstruction is the last executed instruction
	LastInstruction instructions.Instruction
	// UnknownOpcodes counts the skipped words that matched no instruction
	UnknownOpcodes int
}

// EventCallback is called when an execution event occurs
// Return true to continue execution, false to stop
type EventCallback func(event ExecutionEvent, result *ExecutionResult) bool

// Debugger provides debugging capabilities for the interpreter
type Debugger struct {
	interp *Interpreter

	// Breakpoints indexed by ID
	breakpoints map[int]*Breakpoint
	// Breakpoint addresses for fast lookup
	breakpointAddrs map[uint16]*Breakpoint
	// Next breakpoint ID
	nextBreakpointID int

	// Watchpoints indexed by ID
	watchpoints map[int]*Watchpoint
	// Next watchpoint ID
	nextWatchpointID int

	// Event callback
	eventCallback EventCallback

	// Execution state
	lastResult *ExecutionResult
}

// NewDebugger creates a new debugger for the given interpreter
func NewDebugger(interp *Interpreter) *Debugger {
	return &Debugger{
		interp:          interp,
		breakpoints:     make(map[int]*Breakpoint),
		breakpointAddrs: make(map[uint16]*Breakpoint),
		watchpoints:     make(map[int]*Watchpoint),
	}
}

// Interpreter returns the underlying interpreter
func (d *Debugger) Interpreter() *Interpreter {
	return d.interp
}

// SetEventCallback sets the callback for execution events
func (d *Debugger) SetEventCallback(callback EventCallback) {
	d.eventCallback = callback
}

// LastResult returns the result of the last execution operation
func (d *Debugger) LastResult() *ExecutionResult {
	return d.lastResult
}

// --- Breakpoint Management ---

// AddBreakpoint adds a breakpoint at the given address. Adding a breakpoint at
// an address that already has one returns the existing breakpoint
func (d *Debugger) AddBreakpoint(addr uint16) *Breakpoint {
	if bp, exists := d.breakpointAddrs[addr]; exists {
		return bp
	}

	bp := &Breakpoint{
		ID:      d.nextBreakpointID,
		Address: addr,
		Enabled: true,
	}
	d.nextBreakpointID++
	d.breakpoints[bp.ID] = bp
	d.breakpointAddrs[addr] = bp
	return bp
}

// RemoveBreakpoint removes a breakpoint by ID
func (d *Debugger) RemoveBreakpoint(id int) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	delete(d.breakpointAddrs, bp.Address)
	delete(d.breakpoints, id)
	return true
}

// GetBreakpoint returns a breakpoint by ID
func (d *Debugger) GetBreakpoint(id int) *Breakpoint {
	return d.breakpoints[id]
}

// GetBreakpointAt returns a breakpoint at the given address
func (d *Debugger) GetBreakpointAt(addr uint16) *Breakpoint {
	return d.breakpointAddrs[addr]
}

// ListBreakpoints returns all breakpoints sorted by address
func (d *Debugger) ListBreakpoints() []*Breakpoint {
	bps := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		bps = append(bps, bp)
	}
	sort.Slice(bps, func(i, j int) bool {
		return bps[i].Address < bps[j].Address
	})
	return bps
}

// EnableBreakpoint enables or disables a breakpoint
func (d *Debugger) EnableBreakpoint(id int, enabled bool) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	bp.Enabled = enabled
	return true
}

// ClearBreakpoints removes all breakpoints
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[int]*Breakpoint)
	d.breakpointAddrs = make(map[uint16]*Breakpoint)
}

// --- Watchpoint Management ---

// AddWatchpoint adds a memory watchpoint over size bytes starting at addr
func (d *Debugger) AddWatchpoint(addr uint16, size int) (*Watchpoint, error) {
	if size <= 0 {
		return nil, fmt.Errorf("watchpoint size must be positive, got %d", size)
	}

	lastValue, err := d.interp.memory.ReadRange(addr, size)
	if err != nil {
		return nil, err
	}

	wp := &Watchpoint{
		ID:        d.nextWatchpointID,
		Address:   addr,
		Size:      size,
		Enabled:   true,
		LastValue: lastValue,
	}
	d.nextWatchpointID++
	d.watchpoints[wp.ID] = wp
	return wp, nil
}

// RemoveWatchpoint removes a watchpoint by ID
func (d *Debugger) RemoveWatchpoint(id int) bool {
	_, exists := d.watchpoints[id]
	if !exists {
		return false
	}
	delete(d.watchpoints, id)
	return true
}

// GetWatchpoint returns a watchpoint by ID
func (d *Debugger) GetWatchpoint(id int) *Watchpoint {
	return d.watchpoints[id]
}

// ListWatchpoints returns all watchpoints sorted by address
func (d *Debugger) ListWatchpoints() []*Watchpoint {
	wps := make([]*Watchpoint, 0, len(d.watchpoints))
	for _, wp := range d.watchpoints {
		wps = append(wps, wp)
	}
	sort.Slice(wps, func(i, j int) bool {
		return wps[i].Address < wps[j].Address
	})
	return wps
}

// ClearWatchpoints removes all watchpoints
func (d *Debugger) ClearWatchpoints() {
	d.watchpoints = make(map[int]*Watchpoint)
}

// --- Execution Control ---

// Step executes a single instruction. Breakpoints at the current PC are
// ignored, stepping always makes progress
func (d *Debugger) Step() *ExecutionResult {
	result := &ExecutionResult{
		LastPC: d.interp.registers.PC,
	}

	d.step(result)

	if result.StopReason == StopNone {
		result.StopReason = StopStep
	}

	d.lastResult = result
	return result
}

// Continue executes until a stop condition is met
func (d *Debugger) Continue() *ExecutionResult {
	return d.Run(0)
}

// Run executes up to maxSteps instructions (0 = unlimited)
func (d *Debugger) Run(maxSteps int) *ExecutionResult {
	result := &ExecutionResult{
		LastPC: d.interp.registers.PC,
	}

	for result.StopReason == StopNone {
		// Check step limit
		if maxSteps > 0 && result.StepsExecuted >= maxSteps {
			result.StopReason = StopMaxSteps
			break
		}

		// Check for breakpoint (not on first step if we're already there)
		if result.StepsExecuted > 0 {
			if bp := d.breakpointAddrs[d.interp.registers.PC]; bp != nil && bp.Enabled {
				bp.HitCount++
				result.StopReason = StopBreakpoint
				result.BreakpointID = bp.ID
				d.fireEvent(EventBreakpoint, result)
				break
			}
		}

		if !d.step(result) {
			break
		}

		// Fire step event and check if we should continue
		if result.StopReason == StopNone && !d.fireEvent(EventStep, result) {
			result.StopReason = StopStep
		}
	}

	d.lastResult = result
	return result
}

// RunUntil executes until the PC reaches the target address
func (d *Debugger) RunUntil(targetAddr uint16) *ExecutionResult {
	existing := d.breakpointAddrs[targetAddr]
	if existing == nil {
		// Add temporary breakpoint
		bp := d.AddBreakpoint(targetAddr)
		defer d.RemoveBreakpoint(bp.ID)
	} else if !existing.Enabled {
		existing.Enabled = true
		defer func() { existing.Enabled = false }()
	}

	return d.Continue()
}

// StepOver executes one instruction, running whole subroutines when the
// instruction is a CALL
func (d *Debugger) StepOver() *ExecutionResult {
	pc := d.interp.registers.PC

	instr, err := d.interp.DecodeAt(pc)
	if err != nil || instr.OpCode() != instructions.OpCode_CALL || d.interp.state != StateRunning {
		return d.Step()
	}

	return d.RunUntil(pc + instructions.InstructionBytes)
}

// StepOut executes until returning from the current subroutine
func (d *Debugger) StepOut() *ExecutionResult {
	entries := d.interp.stack.Entries()
	if len(entries) == 0 {
		result := &ExecutionResult{
			LastPC:     d.interp.registers.PC,
			StopReason: StopError,
			Error:      fmt.Errorf("%w: not inside a subroutine", cpu.ErrStackUnderflow),
		}
		d.lastResult = result
		return result
	}

	return d.RunUntil(entries[len(entries)-1])
}

// step executes one instruction, updating result and firing events. Returns
// false if execution must stop
func (d *Debugger) step(result *ExecutionResult) bool {
	wasAwaiting := d.interp.state == StateAwaitingKey

	stepResult, err := d.interp.Step()
	if stepResult != nil {
		result.LastPC = stepResult.PC
		result.LastInstruction = stepResult.Instruction
	}

	if err != nil {
		result.StopReason = StopError
		result.Error = err
		d.fireEvent(EventError, result)
		return false
	}

	if stepResult.Awaiting {
		if !wasAwaiting {
			result.StepsExecuted++
			d.fireEvent(EventAwaitingKey, result)
		}
		result.StopReason = StopAwaitingKey
		return false
	}

	result.StepsExecuted++

	if stepResult.Unknown {
		result.UnknownOpcodes++
		if !d.fireEvent(EventUnknownOpcode, result) {
			result.StopReason = StopStep
			return false
		}
	}

	// Check watchpoints after execution
	if wp := d.checkWatchpoints(); wp != nil {
		result.StopReason = StopWatchpoint
		result.WatchpointID = wp.ID
		d.fireEvent(EventWatchpoint, result)
		return false
	}

	if target, ok := stepResult.Instruction.Target(); ok && stepResult.Instruction.OpCode() == instructions.OpCode_JP && target == stepResult.PC {
		result.StopReason = StopInfiniteLoop
		return false
	}

	return true
}

// --- Introspection ---

// CurrentInstruction decodes and returns the instruction at PC
func (d *Debugger) CurrentInstruction() (instructions.Instruction, error) {
	return d.interp.DecodeAt(d.interp.registers.PC)
}

// DisassembleAt disassembles the instruction at the given address
func (d *Debugger) DisassembleAt(addr uint16) (string, error) {
	instr, err := d.interp.DecodeAt(addr)
	if err != nil {
		return "", err
	}

	return instr.String(), nil
}

// DisassembleRange disassembles the words in [startAddr, endAddr)
func (d *Debugger) DisassembleRange(startAddr, endAddr uint16) (*mc.Program, error) {
	if endAddr < startAddr {
		return nil, fmt.Errorf("invalid range 0x%04X-0x%04X", startAddr, endAddr)
	}

	data, err := d.interp.memory.ReadRange(startAddr, int(endAddr-startAddr))
	if err != nil {
		return nil, err
	}

	return mc.Disassemble(data, startAddr), nil
}

// ReadMemory reads memory at the given address
func (d *Debugger) ReadMemory(addr uint16, size int) ([]byte, error) {
	return d.interp.memory.ReadRange(addr, size)
}

// WriteMemory writes data to memory, including the protected interpreter area
func (d *Debugger) WriteMemory(addr uint16, data []byte) error {
	return d.interp.memory.Poke(addr, data)
}

// GetRegister returns the value of a register by name (V0-VF, I, PC)
func (d *Debugger) GetRegister(name string) (uint16, error) {
	ref, err := cpu.ParseRegister(name)
	if err != nil {
		return 0, err
	}

	return d.interp.registers.Read(ref), nil
}

// SetRegister sets the value of a register by name (V0-VF, I, PC)
func (d *Debugger) SetRegister(name string, value uint16) error {
	ref, err := cpu.ParseRegister(name)
	if err != nil {
		return err
	}

	d.interp.registers.Write(ref, value)
	return nil
}

// GetPC returns the current program counter
func (d *Debugger) GetPC() uint16 {
	return d.interp.registers.PC
}

// SetPC sets the program counter
func (d *Debugger) SetPC(pc uint16) {
	d.interp.registers.PC = pc
}

// PressKey reports a key press followed by a release, enough to complete a
// pending LD Vx, K
func (d *Debugger) PressKey(key uint8) error {
	if err := d.interp.SetKey(key, true); err != nil {
		return err
	}

	return d.interp.SetKey(key, false)
}

// IsFaulted returns whether the machine stopped on a fatal error
func (d *Debugger) IsFaulted() bool {
	return d.interp.state == StateFaulted
}

// IsStopError returns whether the result stopped because of err
func (r *ExecutionResult) IsStopError(err error) bool {
	return r.StopReason == StopError && errors.Is(r.Error, err)
}

// --- Helper functions ---

func (d *Debugger) fireEvent(event ExecutionEvent, result *ExecutionResult) bool {
	if d.eventCallback != nil {
		return d.eventCallback(event, result)
	}
	return true // Continue by default
}

func (d *Debugger) checkWatchpoints() *Watchpoint {
	var hit *Watchpoint

	for _, wp := range d.ListWatchpoints() {
		if !wp.Enabled {
			continue
		}

		current, err := d.interp.memory.ReadRange(wp.Address, wp.Size)
		if err != nil {
			continue
		}

		if string(current) != string(wp.LastValue) {
			wp.HitCount++
			wp.LastValue = current
			if hit == nil {
				hit = wp
			}
		}
	}
	return hit
}
