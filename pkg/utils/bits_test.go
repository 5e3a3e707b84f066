package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitView_Nibbles(t *testing.T) {
	word := uint16(0xD125)
	view := CreateBitView(&word)

	assert.Equal(t, uint16(0x5), view.Nibble(0))
	assert.Equal(t, uint16(0x2), view.Nibble(1))
	assert.Equal(t, uint16(0x1), view.Nibble(2))
	assert.Equal(t, uint16(0xD), view.Nibble(3))
	assert.Equal(t, uint16(0x125), view.Read(0, 12))
	assert.Equal(t, uint16(0x25), view.Read(0, 8))
}

func TestBitView_Write(t *testing.T) {
	value := uint8(0xFF)
	view := CreateBitView(&value)

	view.Write(0x0, 4, 4)
	assert.Equal(t, uint8(0x0F), value)

	view.Write(0xA, 0, 4)
	assert.Equal(t, uint8(0x0A), value)
	assert.True(t, view.Test(1))
	assert.False(t, view.Test(0))
}

func TestFormatUintHex(t *testing.T) {
	assert.Equal(t, "0x0ABC", FormatUintHex(0xABC, 4))
	assert.Equal(t, "0x05", FormatUintHex(5, 2))
	assert.Equal(t, "00000101", FormatUintBinary(5, 8))
}
