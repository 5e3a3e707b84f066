// Package interpreter provides the fetch/decode/execute engine of the CHIP-8
// machine, plus a debugger and a real time runner built on top of it.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/chip8/pkg/utils"
)

// State of the engine between steps
type State int

const (
	// Instructions are fetched and executed normally
	StateRunning State = iota
	// Blocked on LD Vx, K until a key is pressed
	StateAwaitingKey
	// Stopped by a fatal error, every further step fails
	StateFaulted
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAwaitingKey:
		return "awaiting_key"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Options configures a new interpreter. The zero value is usable
type Options struct {
	// Behaviour variants of the shift and load/store instructions
	Quirks cpu.Quirks
	// Destination of diagnostics like unknown opcodes. Defaults to slog.Default()
	Logger *slog.Logger
	// Source of RND values. Takes precedence over Seed
	Rand *rand.Rand
	// Seed of the RND source when Rand is nil. Zero means time based
	Seed uint64
}

// Interpreter is the CHIP-8 machine: memory, registers, stack, timers, display and
// keypad, plus the engine that executes instructions against them.
//
// The interpreter is not safe for concurrent use, hosts that drive it from more
// than one goroutine must serialize calls (see Runner).
type Interpreter struct {
	memory    *cpu.Memory
	registers cpu.Registers
	stack     cpu.Stack
	timers    cpu.Timers
	display   cpu.Display
	keypad    *cpu.Keypad

	quirks cpu.Quirks
	logger *slog.Logger
	rand   *rand.Rand

	state State
	// Cause of the fault while in StateFaulted
	fault error
	// Destination register of the pending LD Vx, K
	waitRegister uint8
	// Last loaded image, restored by Reset()
	rom []byte
}

// New creates a machine in its initial state: zeroed memory except for the glyph
// table, zeroed registers, timers and stack, and PC at the program start address
func New(opts Options) *Interpreter {
	i := &Interpreter{
		quirks: opts.Quirks,
		logger: opts.Logger,
		rand:   opts.Rand,
	}

	if i.logger == nil {
		i.logger = slog.Default()
	}

	if i.rand == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}

		i.rand = rand.New(rand.NewPCG(seed, seed))
	}

	i.initialize()
	return i
}

func (i *Interpreter) initialize() {
	i.memory = cpu.NewMemory()
	i.registers = cpu.Registers{PC: cpu.ProgramStart}
	i.stack = cpu.Stack{}
	i.timers = cpu.Timers{}
	i.display = cpu.Display{}
	i.keypad = cpu.NewKeypad()
	i.state = StateRunning
	i.fault = nil
	i.waitRegister = 0
}

// LoadROM copies a program image at the program start address and points PC to it.
// Images that do not fit are rejected without touching memory
func (i *Interpreter) LoadROM(rom []byte) error {
	if err := i.memory.Load(rom); err != nil {
		return err
	}

	i.rom = append([]byte(nil), rom...)
	i.registers.PC = cpu.ProgramStart
	return nil
}

// Reset puts the machine back in its initial state and reloads the last loaded ROM
func (i *Interpreter) Reset() {
	i.initialize()

	if i.rom != nil {
		// fits, it was already loaded once
		_ = i.memory.Load(i.rom)
	}
}

// Memory returns the machine memory
func (i *Interpreter) Memory() *cpu.Memory {
	return i.memory
}

// Registers returns the register file
func (i *Interpreter) Registers() *cpu.Registers {
	return &i.registers
}

// Stack returns the call stack
func (i *Interpreter) Stack() *cpu.Stack {
	return &i.stack
}

// Timers returns the delay and sound timers
func (i *Interpreter) Timers() *cpu.Timers {
	return &i.timers
}

// Display returns the display buffer
func (i *Interpreter) Display() *cpu.Display {
	return &i.display
}

// Keypad returns the keypad state
func (i *Interpreter) Keypad() *cpu.Keypad {
	return i.keypad
}

// Quirks returns the enabled behaviour variants
func (i *Interpreter) Quirks() cpu.Quirks {
	return i.quirks
}

// State returns the engine state
func (i *Interpreter) State() State {
	return i.state
}

// Fault returns the error that stopped the machine, nil unless in StateFaulted
func (i *Interpreter) Fault() error {
	return i.fault
}

// SetKey reports a key press or release from the host
func (i *Interpreter) SetKey(key uint8, pressed bool) error {
	return i.keypad.Set(key, pressed)
}

// TickTimers decrements the delay and sound timers. Meant to be called at 60Hz
// regardless of the instruction rate
func (i *Interpreter) TickTimers() {
	i.timers.Tick()
}

// SoundActive returns whether the tone should be playing
func (i *Interpreter) SoundActive() bool {
	return i.timers.SoundActive()
}

// Snapshot captures the whole machine state
func (i *Interpreter) Snapshot() cpu.Snapshot {
	return cpu.TakeSnapshot(i.state.String(), &i.registers, &i.stack, &i.timers, i.keypad, &i.display, i.quirks)
}

// DecodeAt decodes the instruction word stored at the given address
func (i *Interpreter) DecodeAt(address uint16) (instructions.Instruction, error) {
	word, err := i.memory.ReadWord(address)
	if err != nil {
		return instructions.Instruction{}, err
	}

	return instructions.Decode(word), nil
}

// StepResult contains the result of executing a single instruction
type StepResult struct {
	// Address the instruction was fetched from
	PC uint16
	// The decoded instruction
	Instruction instructions.Instruction
	// The word did not match any instruction and was skipped
	Unknown bool
	// The machine is blocked waiting for a key after this step
	Awaiting bool
	// The display was modified
	Drew bool
}

// Step runs one fetch/decode/execute cycle.
//
// While awaiting a key no instruction is fetched: the step completes the pending
// LD Vx, K if a key was pressed since, and does nothing otherwise. Fatal errors
// move the machine to StateFaulted and leave PC on the failing instruction
func (i *Interpreter) Step() (*StepResult, error) {
	switch i.state {
	case StateFaulted:
		return nil, fmt.Errorf("%w: %w", cpu.ErrFaulted, i.fault)
	case StateAwaitingKey:
		return i.resumeWait()
	}

	pc := i.registers.PC

	word, err := i.memory.ReadWord(pc)
	if err != nil {
		return nil, i.raise(pc, utils.MakeError(cpu.ErrPCOutOfBounds, "fetch at 0x%04X", pc))
	}

	result := &StepResult{
		PC:          pc,
		Instruction: instructions.Decode(word),
	}

	i.registers.PC += instructions.InstructionBytes

	if i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug("step", "pc", utils.FormatUintHex(uint64(pc), 4), "word", utils.FormatUintHex(uint64(word), 4), "instruction", result.Instruction.String())
	}

	if result.Instruction.Unknown() {
		result.Unknown = true
		i.logger.Warn("unknown opcode", "pc", utils.FormatUintHex(uint64(pc), 4), "word", utils.FormatUintHex(uint64(word), 4))
		return result, nil
	}

	if err := i.execute(result); err != nil {
		return result, i.raise(pc, fmt.Errorf("%v at 0x%04X: %w", result.Instruction, pc, err))
	}

	result.Awaiting = i.state == StateAwaitingKey
	return result, nil
}

func (i *Interpreter) resumeWait() (*StepResult, error) {
	pc := i.registers.PC
	word, _ := i.memory.ReadWord(pc)

	result := &StepResult{
		PC:          pc,
		Instruction: instructions.Decode(word),
	}

	key, pressed := i.keypad.TakeLatched()
	if !pressed {
		result.Awaiting = true
		return result, nil
	}

	i.registers.V[i.waitRegister] = key
	i.registers.PC += instructions.InstructionBytes
	i.state = StateRunning
	return result, nil
}

// raise stops the machine on a fatal error
func (i *Interpreter) raise(pc uint16, err error) error {
	i.registers.PC = pc
	i.state = StateFaulted
	i.fault = err
	i.keypad.Disarm()

	i.logger.Error("machine faulted", "pc", utils.FormatUintHex(uint64(pc), 4), "error", err)
	return err
}
