package frontend

import (
	"context"
	"sync"
	"time"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
)

// KeySink receives keypad state changes
type KeySink interface {
	SetKey(key uint8, pressed bool) error
}

// Keyboard turns key press notifications into press/release pairs.
//
// Terminals report key presses (and auto repeats) but never releases, so a key
// is considered held until hold time passes without a new report
type Keyboard struct {
	mu       sync.Mutex
	sink     KeySink
	hold     time.Duration
	now      func() time.Time
	deadline [cpu.KeyCount]time.Time
	held     [cpu.KeyCount]bool
}

// NewKeyboard creates a keyboard forwarding to sink
func NewKeyboard(sink KeySink, hold time.Duration) *Keyboard {
	return &Keyboard{
		sink: sink,
		hold: hold,
		now:  time.Now,
	}
}

// Press reports a key press. Repeated presses of a held key extend the hold
func (k *Keyboard) Press(key uint8) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if int(key) >= cpu.KeyCount {
		return k.sink.SetKey(key, true)
	}

	k.deadline[key] = k.now().Add(k.hold)
	if k.held[key] {
		return nil
	}

	if err := k.sink.SetKey(key, true); err != nil {
		return err
	}

	k.held[key] = true
	return nil
}

// Expire releases the keys whose hold time is over
func (k *Keyboard) Expire() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for key := range k.held {
		if k.held[key] && !now.Before(k.deadline[key]) {
			if err := k.sink.SetKey(uint8(key), false); err != nil {
				return err
			}
			k.held[key] = false
		}
	}

	return nil
}

// ReleaseAll releases every held key
func (k *Keyboard) ReleaseAll() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key := range k.held {
		if k.held[key] {
			if err := k.sink.SetKey(uint8(key), false); err != nil {
				return err
			}
			k.held[key] = false
		}
	}

	return nil
}

// Held returns whether a key is currently considered pressed
func (k *Keyboard) Held(key uint8) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return int(key) < cpu.KeyCount && k.held[key]
}

// Run calls Expire periodically until the context is cancelled
func (k *Keyboard) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return k.ReleaseAll()
		case <-ticker.C:
			if err := k.Expire(); err != nil {
				return err
			}
		}
	}
}
