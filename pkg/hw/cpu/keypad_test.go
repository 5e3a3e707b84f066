package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypad_SetPressed(t *testing.T) {
	k := NewKeypad()

	require.NoError(t, k.Set(0xA, true))
	assert.True(t, k.Pressed(0xA))
	assert.False(t, k.Pressed(0xB))

	require.NoError(t, k.Set(0xA, false))
	assert.False(t, k.Pressed(0xA))

	assert.False(t, k.Pressed(0x10))
	assert.ErrorIs(t, k.Set(0x10, true), ErrInvalidKey)
}

func TestKeypad_Latch(t *testing.T) {
	t.Run("not armed", func(t *testing.T) {
		k := NewKeypad()
		require.NoError(t, k.Set(3, true))

		_, ok := k.TakeLatched()
		assert.False(t, ok)
	})

	t.Run("first press after arming", func(t *testing.T) {
		k := NewKeypad()
		k.Arm()

		require.NoError(t, k.Set(7, true))
		require.NoError(t, k.Set(2, true))

		key, ok := k.TakeLatched()
		require.True(t, ok)
		assert.Equal(t, uint8(7), key)
		assert.False(t, k.Armed())

		_, ok = k.TakeLatched()
		assert.False(t, ok)
	})

	t.Run("held key needs a new press", func(t *testing.T) {
		k := NewKeypad()
		require.NoError(t, k.Set(5, true))
		k.Arm()

		require.NoError(t, k.Set(5, true))
		_, ok := k.TakeLatched()
		assert.False(t, ok)

		require.NoError(t, k.Set(5, false))
		require.NoError(t, k.Set(5, true))
		key, ok := k.TakeLatched()
		require.True(t, ok)
		assert.Equal(t, uint8(5), key)
	})
}
