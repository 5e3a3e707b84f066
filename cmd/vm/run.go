package vm

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Manu343726/chip8/pkg/frontend"
	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Run a CHIP-8 program on the terminal",
	Long: `Runs a CHIP-8 program in real time, drawing the display on the terminal.

The keypad is mapped to the left side of the keyboard:

  1 2 3 C      1 2 3 4
  4 5 6 D  <-  Q W E R
  7 8 9 E      A S D F
  A 0 B F      Z X C V

The mapping can be changed with the input.keymap setting. Press Esc or Ctrl+C to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(cmd, args[0])
	if err != nil {
		return err
	}

	overrides, err := m.config.Keymap()
	if err != nil {
		return err
	}
	on, err := frontend.ParseColor(m.config.Display.OnColor)
	if err != nil {
		return fmt.Errorf("display.on_color: %w", err)
	}
	off, err := frontend.ParseColor(m.config.Display.OffColor)
	if err != nil {
		return fmt.Errorf("display.off_color: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("cannot open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("cannot open terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()
	screen.Clear()

	var terminal *frontend.Terminal

	runner := interpreter.NewRunner(m.interp, interpreter.RunnerOptions{
		SpeedHz: m.config.CPU.SpeedHz,
		TimerHz: m.config.CPU.TimerHz,
		OnFrame: func(frame cpu.Frame) { terminal.DrawFrame(frame) },
		OnSound: func(active bool) { terminal.PlaySound(active) },
	})

	terminal = frontend.NewTerminal(screen, frontend.TerminalOptions{
		Keymap:  frontend.NewKeymap(overrides),
		Hold:    time.Duration(m.config.Input.HoldMs) * time.Millisecond,
		On:      on,
		Off:     off,
		Logger:  m.logger,
		KeySink: runner,
	})
	terminal.Renderer().Status(fmt.Sprintf("%s  %d Hz  [Esc] quit", m.rom.OriginalPath, runner.Options().SpeedHz))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := terminal.Run(ctx, runner); err != nil {
		screen.Fini()
		return fmt.Errorf("program stopped: %w", err)
	}

	return nil
}
