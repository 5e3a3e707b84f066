package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_PushPop(t *testing.T) {
	var s Stack

	require.NoError(t, s.Push(0x202))
	require.NoError(t, s.Push(0x304))
	assert.Equal(t, 2, s.Depth())
	assert.Equal(t, []uint16{0x202, 0x304}, s.Entries())

	address, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x304), address)

	address, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x202), address)
	assert.Equal(t, 0, s.Depth())
}

func TestStack_Overflow(t *testing.T) {
	var s Stack

	for i := 0; i < StackDepth; i++ {
		require.NoError(t, s.Push(uint16(0x200+2*i)))
	}

	err := s.Push(0x400)
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, StackDepth, s.Depth())
}

func TestStack_Underflow(t *testing.T) {
	var s Stack

	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Equal(t, 0, s.Depth())
}
