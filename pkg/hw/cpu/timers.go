package cpu

// Timers are the two countdown timers of the machine. They are decremented by
// an external 60Hz clock through Tick(), never by instruction execution
type Timers struct {
	delay uint8
	sound uint8
}

// Tick decrements both timers by one, stopping at zero
func (t *Timers) Tick() {
	if t.delay > 0 {
		t.delay--
	}
	if t.sound > 0 {
		t.sound--
	}
}

func (t *Timers) Delay() uint8 {
	return t.delay
}

func (t *Timers) SetDelay(value uint8) {
	t.delay = value
}

func (t *Timers) Sound() uint8 {
	return t.sound
}

func (t *Timers) SetSound(value uint8) {
	t.sound = value
}

// SoundActive reports whether the tone should be playing
func (t *Timers) SoundActive() bool {
	return t.sound > 0
}
