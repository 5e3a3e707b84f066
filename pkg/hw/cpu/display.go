package cpu

import (
	"math/bits"
	"strings"
)

const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Frame is a copy of the display contents. Each row is a 64 bit mask where
// the most significant bit is column 0
type Frame [DisplayHeight]uint64

// Pixel returns whether the pixel at (x, y) is set. Out of range coordinates are never set
func (f Frame) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}

	return f[y]>>(DisplayWidth-1-x)&1 != 0
}

// Empty returns true if no pixel is set
func (f Frame) Empty() bool {
	for _, row := range f {
		if row != 0 {
			return false
		}
	}

	return true
}

// Rows renders the frame as text, one string per row, using on and off for set and clear pixels
func (f Frame) Rows(on, off rune) []string {
	rows := make([]string, DisplayHeight)

	for y := range rows {
		var builder strings.Builder
		builder.Grow(DisplayWidth)

		for x := 0; x < DisplayWidth; x++ {
			if f.Pixel(x, y) {
				builder.WriteRune(on)
			} else {
				builder.WriteRune(off)
			}
		}

		rows[y] = builder.String()
	}

	return rows
}

func (f Frame) String() string {
	return strings.Join(f.Rows('#', '.'), "\n")
}

// Display is the 64x32 monochrome screen. It can only be cleared or XOR-drawn
type Display struct {
	frame Frame
}

// Clear turns every pixel off
func (d *Display) Clear() {
	d.frame = Frame{}
}

// DrawSprite XORs an 8 pixel wide sprite, one byte per row, with its top-left corner at (x, y).
// Coordinates and pixels wrap around the screen edges. Returns true if any set pixel was turned off
func (d *Display) DrawSprite(x, y uint8, sprite []byte) bool {
	column := int(x) % DisplayWidth
	collision := false

	for i, line := range sprite {
		row := (int(y) + i) % DisplayHeight
		mask := bits.RotateLeft64(uint64(line)<<(DisplayWidth-8), -column)

		if d.frame[row]&mask != 0 {
			collision = true
		}

		d.frame[row] ^= mask
	}

	return collision
}

// Pixel returns whether the pixel at (x, y) is set
func (d *Display) Pixel(x, y int) bool {
	return d.frame.Pixel(x, y)
}

// Snapshot returns a copy of the current contents
func (d *Display) Snapshot() Frame {
	return d.frame
}
