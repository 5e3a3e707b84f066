package frontend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/gdamore/tcell/v2"
)

// Interval between key release checks
const expireInterval = 10 * time.Millisecond

// Terminal runs a machine on a terminal screen
type Terminal struct {
	screen   tcell.Screen
	renderer *Renderer
	keymap   Keymap
	keyboard *Keyboard
	logger   *slog.Logger
}

// TerminalOptions configures a terminal frontend
type TerminalOptions struct {
	Keymap   Keymap
	Hold     time.Duration
	On       tcell.Color
	Off      tcell.Color
	Logger   *slog.Logger
	KeySink  KeySink
	Renderer *Renderer
}

// NewTerminal creates a frontend over an initialized screen
func NewTerminal(screen tcell.Screen, opts TerminalOptions) *Terminal {
	if opts.Keymap == nil {
		opts.Keymap = DefaultKeymap
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = NewRenderer(screen, opts.On, opts.Off)
	}

	return &Terminal{
		screen:   screen,
		renderer: opts.Renderer,
		keymap:   opts.Keymap,
		keyboard: NewKeyboard(opts.KeySink, opts.Hold),
		logger:   opts.Logger,
	}
}

// Renderer returns the renderer drawing frames on the terminal
func (t *Terminal) Renderer() *Renderer {
	return t.renderer
}

// Keyboard returns the key hold emulation in use
func (t *Terminal) Keyboard() *Keyboard {
	return t.keyboard
}

// HandleEvent processes a terminal event. It returns true when the user asked to quit
func (t *Terminal) HandleEvent(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true, nil
		case tcell.KeyRune:
			key, ok := t.keymap.Lookup(ev.Rune())
			if !ok {
				t.logger.Debug("unmapped key", slog.String("key", string(ev.Rune())))
				return false, nil
			}

			return false, t.keyboard.Press(key)
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}

	return false, nil
}

// Run runs the machine until it faults, the user quits or the context is
// cancelled. Frames and sound changes must be routed to the terminal renderer
// through the runner callbacks
func (t *Terminal) Run(ctx context.Context, runner *interpreter.Runner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- runner.Run(ctx)
	}()
	go func() {
		errs <- t.keyboard.Run(ctx, expireInterval)
	}()

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	go t.screen.ChannelEvents(events, quit)
	defer close(quit)

	t.renderer.Draw(runner.Frame())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			done, err := t.HandleEvent(ev)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// DrawFrame is meant to be used as the runner frame callback
func (t *Terminal) DrawFrame(frame cpu.Frame) {
	t.renderer.Draw(frame)
}

// PlaySound is meant to be used as the runner sound callback
func (t *Terminal) PlaySound(active bool) {
	if err := t.renderer.Sound(active); err != nil {
		t.logger.Warn("failed to ring the terminal bell", slog.Any("error", err))
	}
}
