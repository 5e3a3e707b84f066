package interpreter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
)

const (
	// DefaultSpeedHz is the default instruction rate
	DefaultSpeedHz = 500
	// DefaultTimerHz is the rate the delay and sound timers count down at
	DefaultTimerHz = 60
)

// RunnerOptions configures the host clocks of a Runner
type RunnerOptions struct {
	// Instructions per second, DefaultSpeedHz if zero
	SpeedHz int
	// Timer decrements per second, DefaultTimerHz if zero
	TimerHz int
	// Called with the new display contents after every step that modified it
	OnFrame func(frame cpu.Frame)
	// Called when the tone starts (true) or stops (false)
	OnSound func(active bool)
}

// Runner drives an interpreter in real time: one clock steps instructions at
// SpeedHz and an independent one ticks the timers at TimerHz.
//
// All access to the interpreter goes through the runner mutex, so input and
// rendering can happen from other goroutines while Run() is active. Callbacks
// are invoked without the mutex held
type Runner struct {
	mu       sync.Mutex
	interp   *Interpreter
	opts     RunnerOptions
	sounding bool
}

// NewRunner creates a runner for the given interpreter
func NewRunner(interp *Interpreter, opts RunnerOptions) *Runner {
	if opts.SpeedHz <= 0 {
		opts.SpeedHz = DefaultSpeedHz
	}
	if opts.TimerHz <= 0 {
		opts.TimerHz = DefaultTimerHz
	}

	return &Runner{
		interp: interp,
		opts:   opts,
	}
}

// Options returns the effective runner options
func (r *Runner) Options() RunnerOptions {
	return r.opts
}

// Run executes until the context is cancelled or the machine faults. Cancellation
// is a normal stop and returns nil, a fatal step error is returned as is
func (r *Runner) Run(ctx context.Context) error {
	cpuClock := time.NewTicker(time.Second / time.Duration(r.opts.SpeedHz))
	defer cpuClock.Stop()

	timerClock := time.NewTicker(time.Second / time.Duration(r.opts.TimerHz))
	defer timerClock.Stop()

	for {
		select {
		case <-ctx.Done():
			r.setSound(false)
			return nil
		case <-cpuClock.C:
			if err := r.Step(); err != nil {
				r.setSound(false)
				return err
			}
		case <-timerClock.C:
			r.TickTimers()
		}
	}
}

// Step executes one instruction, notifying OnFrame if the display changed
func (r *Runner) Step() error {
	r.mu.Lock()
	result, err := r.interp.Step()
	var frame cpu.Frame
	drew := err == nil && result.Drew
	if drew {
		frame = r.interp.display.Snapshot()
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}

	if drew && r.opts.OnFrame != nil {
		r.opts.OnFrame(frame)
	}
	return nil
}

// TickTimers decrements the timers once, notifying OnSound on tone transitions
func (r *Runner) TickTimers() {
	r.mu.Lock()
	r.interp.TickTimers()
	active := r.interp.SoundActive()
	r.mu.Unlock()

	r.setSound(active)
}

func (r *Runner) setSound(active bool) {
	r.mu.Lock()
	changed := r.sounding != active
	r.sounding = active
	r.mu.Unlock()

	if changed && r.opts.OnSound != nil {
		r.opts.OnSound(active)
	}
}

// SetKey reports a key press or release
func (r *Runner) SetKey(key uint8, pressed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.interp.SetKey(key, pressed); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	return nil
}

// Frame returns a copy of the current display contents
func (r *Runner) Frame() cpu.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.interp.display.Snapshot()
}

// Snapshot captures the whole machine state
func (r *Runner) Snapshot() cpu.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.interp.Snapshot()
}

// With runs fn with exclusive access to the interpreter
func (r *Runner) With(fn func(interp *Interpreter)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(r.interp)
}
