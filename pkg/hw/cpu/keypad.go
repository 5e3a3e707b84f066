package cpu

// Number of keys of the hex keypad
const KeyCount = 16

// Keypad is the pressed/released state of the 16 keys, written by the host input
// collaborator and read by instructions.
//
// While armed, the first released to pressed transition is latched so a machine
// waiting for a key can pick it up on its next step.
type Keypad struct {
	keys    [KeyCount]bool
	armed   bool
	latched int
}

func NewKeypad() *Keypad {
	return &Keypad{latched: -1}
}

// Set updates the state of a key
func (k *Keypad) Set(key uint8, pressed bool) error {
	if int(key) >= KeyCount {
		return makeError(ErrInvalidKey, "0x%X", key)
	}

	if pressed && !k.keys[key] && k.armed && k.latched < 0 {
		k.latched = int(key)
	}

	k.keys[key] = pressed
	return nil
}

// Pressed returns the state of a key. Values above 0xF name no key and are never pressed
func (k *Keypad) Pressed(key uint8) bool {
	return int(key) < KeyCount && k.keys[key]
}

// Arm starts watching for the next key press
func (k *Keypad) Arm() {
	k.armed = true
	k.latched = -1
}

// Disarm stops watching for key presses and forgets any latched key
func (k *Keypad) Disarm() {
	k.armed = false
	k.latched = -1
}

// Armed returns whether a key press is being waited for
func (k *Keypad) Armed() bool {
	return k.armed
}

// TakeLatched returns the key pressed since Arm(), if any, and disarms the keypad
func (k *Keypad) TakeLatched() (uint8, bool) {
	if k.latched < 0 {
		return 0, false
	}

	key := uint8(k.latched)
	k.Disarm()
	return key, true
}

// State returns a copy of all key states
func (k *Keypad) State() [KeyCount]bool {
	return k.keys
}
