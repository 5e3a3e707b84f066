package cpu

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is a serializable view of the whole machine state
type Snapshot struct {
	State   string            `yaml:"state"`
	PC      string            `yaml:"pc"`
	I       string            `yaml:"i"`
	V       map[string]string `yaml:"v"`
	Stack   []string          `yaml:"stack"`
	Delay   uint8             `yaml:"delay_timer"`
	Sound   uint8             `yaml:"sound_timer"`
	Keys    []string          `yaml:"pressed_keys"`
	Quirks  Quirks            `yaml:"quirks"`
	Display []string          `yaml:"display"`
}

// TakeSnapshot builds a snapshot out of the machine components. state is the
// engine state name (running, awaiting key, ...)
func TakeSnapshot(state string, registers *Registers, stack *Stack, timers *Timers, keypad *Keypad, display *Display, quirks Quirks) Snapshot {
	snapshot := Snapshot{
		State:  state,
		PC:     fmt.Sprintf("0x%04X", registers.PC),
		I:      fmt.Sprintf("0x%04X", registers.I),
		V:      make(map[string]string, RegisterCount),
		Delay:  timers.Delay(),
		Sound:  timers.Sound(),
		Quirks: quirks,
	}

	for i, value := range registers.V {
		snapshot.V[RegisterName(uint8(i))] = fmt.Sprintf("0x%02X", value)
	}

	for _, address := range stack.Entries() {
		snapshot.Stack = append(snapshot.Stack, fmt.Sprintf("0x%04X", address))
	}

	for key, pressed := range keypad.State() {
		if pressed {
			snapshot.Keys = append(snapshot.Keys, fmt.Sprintf("%X", key))
		}
	}

	frame := display.Snapshot()
	snapshot.Display = frame.Rows('#', '.')

	return snapshot
}

// YAML serializes the snapshot
func (s *Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ParseSnapshot reads back a serialized snapshot
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return &s, nil
}
