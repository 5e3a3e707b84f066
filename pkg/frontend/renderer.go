package frontend

import (
	"fmt"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/gdamore/tcell/v2"
)

// Each terminal cell shows two vertically stacked pixels
const (
	cellUpper = '▀'
	cellLower = '▄'
	cellFull  = '█'
	cellEmpty = ' '
)

// Size of the drawn display in terminal cells
const (
	ScreenColumns = cpu.DisplayWidth
	ScreenRows    = cpu.DisplayHeight / 2
)

// Renderer draws frames on a tcell screen
type Renderer struct {
	screen tcell.Screen
	style  tcell.Style
}

// ParseColor resolves a color name (or #rrggbb value) as understood by tcell
func ParseColor(name string) (tcell.Color, error) {
	color := tcell.GetColor(name)
	if color == tcell.ColorDefault && name != "default" {
		return color, fmt.Errorf("unknown color '%v'", name)
	}

	return color, nil
}

// NewRenderer creates a renderer drawing set pixels with on and clear pixels with off
func NewRenderer(screen tcell.Screen, on, off tcell.Color) *Renderer {
	return &Renderer{
		screen: screen,
		style:  tcell.StyleDefault.Foreground(on).Background(off),
	}
}

// Draw renders the frame into the top left corner of the screen and shows it
func (r *Renderer) Draw(frame cpu.Frame) {
	for row, text := range TextRows(frame) {
		for x, ch := range []rune(text) {
			r.screen.SetContent(x, row, ch, nil, r.style)
		}
	}

	r.screen.Show()
}

// TextRows renders the frame as ScreenRows lines of block characters, each
// character covering two vertically stacked pixels
func TextRows(frame cpu.Frame) []string {
	rows := make([]string, ScreenRows)

	for row := range rows {
		line := make([]rune, ScreenColumns)
		for x := range line {
			line[x] = cellRune(frame.Pixel(x, 2*row), frame.Pixel(x, 2*row+1))
		}
		rows[row] = string(line)
	}

	return rows
}

// Status writes a line of text below the display
func (r *Renderer) Status(text string) {
	for x := 0; x < ScreenColumns; x++ {
		ch := ' '
		if x < len(text) {
			ch = rune(text[x])
		}
		r.screen.SetContent(x, ScreenRows, ch, nil, tcell.StyleDefault)
	}

	r.screen.Show()
}

// Sound rings the terminal bell when the sound starts
func (r *Renderer) Sound(active bool) error {
	if !active {
		return nil
	}

	return r.screen.Beep()
}

func cellRune(upper, lower bool) rune {
	switch {
	case upper && lower:
		return cellFull
	case upper:
		return cellUpper
	case lower:
		return cellLower
	default:
		return cellEmpty
	}
}
