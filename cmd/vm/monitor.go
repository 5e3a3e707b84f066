package vm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Manu343726/chip8/pkg/frontend"
	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

const (
	monitorRefresh       = 33 * time.Millisecond
	monitorListingBefore = 4
	monitorListingLines  = 14
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <program>",
	Short: "Run a CHIP-8 program with a live view of the machine state",
	Long: `Runs a CHIP-8 program in real time next to panels showing the registers,
timers, call stack and the code around the program counter.

Keys:
  F5      pause / resume
  F10     execute one instruction while paused
  Esc     quit

Every other key goes to the keypad, mapped as in 'vm run'.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

// monitor is the tview dashboard of a running machine
type monitor struct {
	app       *tview.Application
	display   *tview.TextView
	registers *tview.TextView
	code      *tview.TextView
	status    *tview.TextView

	runner    *interpreter.Runner
	keymap    frontend.Keymap
	keyboard  *frontend.Keyboard
	formatter *interpreter.InstructionFormatter
	trace     *interpreter.TraceFormatter
	logger    *slog.Logger
	name      string

	paused atomic.Bool
	pause  chan bool
	failed atomic.Pointer[error]
}

func newMonitor(m *machine, runner *interpreter.Runner, keymap frontend.Keymap, hold time.Duration) *monitor {
	mon := &monitor{
		app:       tview.NewApplication(),
		display:   tview.NewTextView(),
		registers: tview.NewTextView(),
		code:      tview.NewTextView(),
		status:    tview.NewTextView(),
		runner:    runner,
		keymap:    keymap,
		keyboard:  frontend.NewKeyboard(runner, hold),
		formatter: interpreter.NewInstructionFormatter(interpreter.OutputConfig{Style: interpreter.StyleColored}),
		trace:     interpreter.NewTraceFormatter(interpreter.OutputConfig{Style: interpreter.StyleColored}),
		logger:    m.logger,
		name:      m.rom.OriginalPath,
		pause:     make(chan bool, 1),
	}

	mon.display.SetBorder(true).SetTitle(" Display ")
	mon.registers.SetDynamicColors(true).SetBorder(true).SetTitle(" Registers ")
	mon.code.SetDynamicColors(true).SetBorder(true).SetTitle(" Code ")
	mon.status.SetDynamicColors(true)

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mon.registers, 9, 0, false).
		AddItem(mon.code, 0, 1, false)

	top := tview.NewFlex().
		AddItem(mon.display, frontend.ScreenColumns+2, 0, false).
		AddItem(side, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 1, false).
		AddItem(mon.status, 1, 0, false)

	mon.app.SetRoot(root, true).SetInputCapture(mon.handleKey)
	return mon
}

func (m *monitor) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		m.app.Stop()
	case tcell.KeyF5:
		select {
		case m.pause <- !m.paused.Load():
		default:
		}
	case tcell.KeyF10:
		if m.paused.Load() {
			if err := m.runner.Step(); err != nil {
				m.fail(err)
			}
			m.refresh()
		}
	case tcell.KeyRune:
		if key, ok := m.keymap.Lookup(event.Rune()); ok {
			if err := m.keyboard.Press(key); err != nil {
				m.logger.Warn("keypad error", slog.Any("error", err))
			}
		}
	}

	return nil
}

func (m *monitor) fail(err error) {
	m.failed.Store(&err)
	m.paused.Store(true)
}

// execute runs the machine, stopping and restarting the runner on pause requests
func (m *monitor) execute(ctx context.Context) {
	for {
		if m.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case paused := <-m.pause:
				m.paused.Store(paused)
			}
			continue
		}

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- m.runner.Run(runCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return
		case paused := <-m.pause:
			cancel()
			<-done
			m.paused.Store(paused)
		case err := <-done:
			cancel()
			if err != nil {
				m.fail(err)
			}
		}
	}
}

// refresh redraws every panel. Must run in the tview event loop
func (m *monitor) refresh() {
	var (
		snapshot  cpu.Snapshot
		registers cpu.Registers
		code      []string
		err       error
	)

	m.runner.With(func(interp *interpreter.Interpreter) {
		snapshot = interp.Snapshot()
		registers = *interp.Registers()
		code, err = listing(interp.Memory(), listingStart(registers.PC, monitorListingBefore), monitorListingLines, registers.PC, m.formatter)
	})

	m.display.SetText(strings.Join(frontend.TextRows(m.runner.Frame()), "\n"))

	var regs strings.Builder
	regs.WriteString(m.trace.FormatRegisters(&registers))
	fmt.Fprintf(&regs, "DT=%02X ST=%02X state=%s\n", snapshot.Delay, snapshot.Sound, snapshot.State)
	fmt.Fprintf(&regs, "stack: %s\n", strings.Join(snapshot.Stack, " "))
	fmt.Fprintf(&regs, "keys:  %s", strings.Join(snapshot.Keys, " "))
	m.registers.SetText(tview.TranslateANSI(regs.String()))

	if err != nil {
		m.code.SetText(tview.Escape(err.Error()))
	} else {
		m.code.SetText(tview.TranslateANSI(strings.Join(code, "\n")))
	}

	state := "[green]running[-]"
	if failed := m.failed.Load(); failed != nil {
		state = "[red]" + tview.Escape((*failed).Error()) + "[-]"
	} else if m.paused.Load() {
		state = "[yellow]paused[-]"
	}
	m.status.SetText(fmt.Sprintf(" %s  %s  [::d][F5] pause [F10] step [Esc] quit", tview.Escape(m.name), state))
}

func runMonitor(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(cmd, args[0])
	if err != nil {
		return err
	}

	overrides, err := m.config.Keymap()
	if err != nil {
		return err
	}

	runner := interpreter.NewRunner(m.interp, interpreter.RunnerOptions{
		SpeedHz: m.config.CPU.SpeedHz,
		TimerHz: m.config.CPU.TimerHz,
	})

	mon := newMonitor(m, runner, frontend.NewKeymap(overrides), time.Duration(m.config.Input.HoldMs)*time.Millisecond)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go mon.execute(ctx)
	go func() {
		if err := mon.keyboard.Run(ctx, 10*time.Millisecond); err != nil {
			mon.logger.Warn("keypad error", slog.Any("error", err))
		}
	}()
	go func() {
		ticker := time.NewTicker(monitorRefresh)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mon.app.QueueUpdateDraw(mon.refresh)
			}
		}
	}()

	if err := mon.app.Run(); err != nil {
		return err
	}

	if failed := mon.failed.Load(); failed != nil {
		return fmt.Errorf("program stopped: %w", *failed)
	}

	return nil
}
