package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay_DrawSprite(t *testing.T) {
	var d Display

	collision := d.DrawSprite(0, 0, []byte{0b10000001})
	assert.False(t, collision)
	assert.True(t, d.Pixel(0, 0))
	assert.False(t, d.Pixel(1, 0))
	assert.True(t, d.Pixel(7, 0))
	assert.False(t, d.Pixel(8, 0))
}

func TestDisplay_DrawTwiceRestores(t *testing.T) {
	var d Display
	d.DrawSprite(3, 4, []byte{0x3C})
	before := d.Snapshot()

	sprite := Glyphs[0:GlyphHeight]

	assert.False(t, d.DrawSprite(10, 10, sprite))
	assert.NotEqual(t, before, d.Snapshot())

	assert.True(t, d.DrawSprite(10, 10, sprite))
	assert.Equal(t, before, d.Snapshot())
}

func TestDisplay_HorizontalWrap(t *testing.T) {
	var d Display

	d.DrawSprite(60, 0, []byte{0xFF})

	for x := 60; x < DisplayWidth; x++ {
		assert.True(t, d.Pixel(x, 0), "column %d", x)
	}
	for x := 0; x < 4; x++ {
		assert.True(t, d.Pixel(x, 0), "column %d", x)
	}
	for x := 4; x < 60; x++ {
		assert.False(t, d.Pixel(x, 0), "column %d", x)
	}
}

func TestDisplay_VerticalWrap(t *testing.T) {
	var d Display

	d.DrawSprite(0, 30, []byte{0x80, 0x80, 0x80, 0x80})

	assert.True(t, d.Pixel(0, 30))
	assert.True(t, d.Pixel(0, 31))
	assert.True(t, d.Pixel(0, 0))
	assert.True(t, d.Pixel(0, 1))
	assert.False(t, d.Pixel(0, 2))
}

func TestDisplay_CoordinatesWrap(t *testing.T) {
	var d Display

	d.DrawSprite(64+5, 32+2, []byte{0x80})
	assert.True(t, d.Pixel(5, 2))
}

func TestDisplay_CollisionAcrossWholeSprite(t *testing.T) {
	var d Display
	d.DrawSprite(0, 1, []byte{0x80})

	// only the second row overlaps, the flag must still be raised
	collision := d.DrawSprite(0, 0, []byte{0x01, 0x80, 0x01})
	assert.True(t, collision)
	assert.False(t, d.Pixel(0, 1))
}

func TestDisplay_Clear(t *testing.T) {
	var d Display
	d.DrawSprite(0, 0, []byte{0xFF})

	d.Clear()
	frame := d.Snapshot()
	assert.True(t, frame.Empty())
}

func TestFrame_String(t *testing.T) {
	var d Display
	d.DrawSprite(0, 0, []byte{0xC0})
	frame := d.Snapshot()

	rows := frame.Rows('#', '.')
	assert.Len(t, rows, DisplayHeight)
	assert.Equal(t, "##"+repeat('.', DisplayWidth-2), rows[0])
	assert.Equal(t, repeat('.', DisplayWidth), rows[1])
}

func repeat(r rune, n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = r
	}
	return string(runes)
}

func TestFrame_QueriesOnSnapshotValue(t *testing.T) {
	var d Display
	assert.True(t, d.Snapshot().Empty())

	d.DrawSprite(63, 31, []byte{0x80})

	assert.False(t, d.Snapshot().Empty())
	assert.True(t, d.Snapshot().Pixel(63, 31))
	assert.False(t, d.Snapshot().Pixel(64, 31))
	assert.Equal(t, repeat('.', DisplayWidth-1)+"#", d.Snapshot().Rows('#', '.')[31])
	assert.Equal(t, '#', rune(d.Snapshot().String()[len(d.Snapshot().String())-1]))
}
