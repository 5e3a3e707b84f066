package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_YAMLRoundTrip(t *testing.T) {
	registers := Registers{PC: 0x202, I: 0x300}
	registers.V[0] = 0x05
	registers.V[0xF] = 1

	var stack Stack
	require.NoError(t, stack.Push(0x210))

	var timers Timers
	timers.SetDelay(30)

	keypad := NewKeypad()
	require.NoError(t, keypad.Set(0xB, true))

	var display Display
	display.DrawSprite(0, 0, []byte{0x80})

	snapshot := TakeSnapshot("running", &registers, &stack, &timers, keypad, &display, Quirks{ShiftUsesVY: true})

	data, err := snapshot.YAML()
	require.NoError(t, err)

	parsed, err := ParseSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "running", parsed.State)
	assert.Equal(t, "0x05", parsed.V["V0"])
	assert.Equal(t, "0x01", parsed.V["VF"])
	assert.Equal(t, []string{"0x0210"}, parsed.Stack)
	assert.Equal(t, uint8(30), parsed.Delay)
	assert.Equal(t, []string{"B"}, parsed.Keys)
	assert.True(t, parsed.Quirks.ShiftUsesVY)
	require.Len(t, parsed.Display, DisplayHeight)
	assert.Equal(t, '#', rune(parsed.Display[0][0]))
}
