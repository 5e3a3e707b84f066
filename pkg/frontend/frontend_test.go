package frontend

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyEvent struct {
	key     uint8
	pressed bool
}

type recordingSink struct {
	events []keyEvent
	err    error
}

func (s *recordingSink) SetKey(key uint8, pressed bool) error {
	if s.err != nil {
		return s.err
	}

	s.events = append(s.events, keyEvent{key, pressed})
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestKeyboard(hold time.Duration) (*Keyboard, *recordingSink, *fakeClock) {
	sink := &recordingSink{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	keyboard := NewKeyboard(sink, hold)
	keyboard.now = clock.Now
	return keyboard, sink, clock
}

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(ScreenColumns, ScreenRows+1)
	t.Cleanup(screen.Fini)
	return screen
}

func TestKeymap(t *testing.T) {
	t.Run("default layout", func(t *testing.T) {
		tests := map[rune]uint8{
			'1': 0x1, '4': 0xC, 'q': 0x4, 'r': 0xD,
			'a': 0x7, 'f': 0xE, 'z': 0xA, 'x': 0x0, 'v': 0xF,
		}

		for r, expected := range tests {
			key, ok := DefaultKeymap.Lookup(r)
			require.True(t, ok, "rune %q", r)
			assert.Equal(t, expected, key, "rune %q", r)
		}

		assert.Len(t, DefaultKeymap, cpu.KeyCount)
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		key, ok := DefaultKeymap.Lookup('W')
		require.True(t, ok)
		assert.Equal(t, uint8(0x5), key)
	})

	t.Run("unmapped", func(t *testing.T) {
		_, ok := DefaultKeymap.Lookup('p')
		assert.False(t, ok)
	})

	t.Run("overrides", func(t *testing.T) {
		keymap := NewKeymap(map[rune]uint8{'P': 0x1, 'x': 0xB})

		key, ok := keymap.Lookup('p')
		require.True(t, ok)
		assert.Equal(t, uint8(0x1), key)

		key, ok = keymap.Lookup('x')
		require.True(t, ok)
		assert.Equal(t, uint8(0xB), key)

		// the default layout is untouched
		key, _ = DefaultKeymap.Lookup('x')
		assert.Equal(t, uint8(0x0), key)
	})
}

func TestKeyboard(t *testing.T) {
	t.Run("press then release after hold", func(t *testing.T) {
		keyboard, sink, clock := newTestKeyboard(100 * time.Millisecond)

		require.NoError(t, keyboard.Press(0x5))
		assert.True(t, keyboard.Held(0x5))
		assert.Equal(t, []keyEvent{{0x5, true}}, sink.events)

		clock.Advance(50 * time.Millisecond)
		require.NoError(t, keyboard.Expire())
		assert.True(t, keyboard.Held(0x5))

		clock.Advance(50 * time.Millisecond)
		require.NoError(t, keyboard.Expire())
		assert.False(t, keyboard.Held(0x5))
		assert.Equal(t, []keyEvent{{0x5, true}, {0x5, false}}, sink.events)
	})

	t.Run("repeats extend the hold", func(t *testing.T) {
		keyboard, sink, clock := newTestKeyboard(100 * time.Millisecond)

		require.NoError(t, keyboard.Press(0xA))
		clock.Advance(80 * time.Millisecond)
		require.NoError(t, keyboard.Press(0xA))
		clock.Advance(80 * time.Millisecond)
		require.NoError(t, keyboard.Expire())

		assert.True(t, keyboard.Held(0xA))
		assert.Equal(t, []keyEvent{{0xA, true}}, sink.events)

		clock.Advance(20 * time.Millisecond)
		require.NoError(t, keyboard.Expire())
		assert.Equal(t, []keyEvent{{0xA, true}, {0xA, false}}, sink.events)
	})

	t.Run("release all", func(t *testing.T) {
		keyboard, sink, _ := newTestKeyboard(time.Second)

		require.NoError(t, keyboard.Press(0x1))
		require.NoError(t, keyboard.Press(0x2))
		require.NoError(t, keyboard.ReleaseAll())

		assert.False(t, keyboard.Held(0x1))
		assert.False(t, keyboard.Held(0x2))
		assert.ElementsMatch(t, []keyEvent{{0x1, true}, {0x2, true}, {0x1, false}, {0x2, false}}, sink.events)
	})

	t.Run("invalid keys reach the sink", func(t *testing.T) {
		keyboard, sink, _ := newTestKeyboard(time.Second)
		sink.err = cpu.ErrInvalidKey

		assert.ErrorIs(t, keyboard.Press(0x10), cpu.ErrInvalidKey)
		assert.False(t, keyboard.Held(0x10))
	})

	t.Run("sink errors leave the key released", func(t *testing.T) {
		keyboard, sink, _ := newTestKeyboard(time.Second)
		sink.err = errors.New("boom")

		assert.Error(t, keyboard.Press(0x3))
		assert.False(t, keyboard.Held(0x3))
	})
}

func TestRenderer(t *testing.T) {
	screen := newTestScreen(t)
	renderer := NewRenderer(screen, tcell.ColorWhite, tcell.ColorBlack)

	var frame cpu.Frame
	frame[0] = 1 << 63       // (0, 0)
	frame[1] = 1<<63 | 1<<62 // (0, 1) (1, 1)
	frame[2] = 1 << 61       // (2, 2)
	frame[31] = 1            // (63, 31)
	renderer.Draw(frame)

	tests := []struct {
		x, y     int
		expected rune
	}{
		{0, 0, cellFull},
		{1, 0, cellLower},
		{2, 0, cellEmpty},
		{2, 1, cellUpper},
		{63, 15, cellLower},
		{62, 15, cellEmpty},
	}

	for _, test := range tests {
		r, _, style, _ := screen.GetContent(test.x, test.y)
		assert.Equal(t, test.expected, r, "cell (%d, %d)", test.x, test.y)

		fg, bg, _ := style.Decompose()
		assert.Equal(t, tcell.ColorWhite, fg)
		assert.Equal(t, tcell.ColorBlack, bg)
	}

	t.Run("status line", func(t *testing.T) {
		renderer.Status("PC=0x200")

		r, _, _, _ := screen.GetContent(0, ScreenRows)
		assert.Equal(t, 'P', r)
		r, _, _, _ = screen.GetContent(7, ScreenRows)
		assert.Equal(t, '0', r)
		r, _, _, _ = screen.GetContent(8, ScreenRows)
		assert.Equal(t, ' ', r)
	})

	t.Run("sound", func(t *testing.T) {
		assert.NoError(t, renderer.Sound(true))
		assert.NoError(t, renderer.Sound(false))
	})
}

func TestTextRows(t *testing.T) {
	var frame cpu.Frame
	frame[0] = 0xF << 60
	frame[1] = 0x3 << 60

	rows := TextRows(frame)
	require.Len(t, rows, ScreenRows)
	assert.Equal(t, "▀▀██", string([]rune(rows[0])[:4]))
	assert.Equal(t, strings.Repeat(" ", ScreenColumns), rows[1])
}

func TestParseColor(t *testing.T) {
	color, err := ParseColor("green")
	require.NoError(t, err)
	assert.Equal(t, tcell.ColorGreen, color)

	color, err = ParseColor("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, tcell.NewRGBColor(0xff, 0, 0), color)

	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
}

func TestTerminalHandleEvent(t *testing.T) {
	screen := newTestScreen(t)
	sink := &recordingSink{}
	terminal := NewTerminal(screen, TerminalOptions{
		Hold:    time.Second,
		On:      tcell.ColorWhite,
		Off:     tcell.ColorBlack,
		KeySink: sink,
	})

	tests := []struct {
		name   string
		event  tcell.Event
		quit   bool
		events []keyEvent
	}{
		{"mapped key", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), false, []keyEvent{{0x5, true}}},
		{"held key repeat", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), false, []keyEvent{{0x5, true}}},
		{"unmapped key", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), false, []keyEvent{{0x5, true}}},
		{"resize", tcell.NewEventResize(80, 24), false, []keyEvent{{0x5, true}}},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true, []keyEvent{{0x5, true}}},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true, []keyEvent{{0x5, true}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			quit, err := terminal.HandleEvent(test.event)
			require.NoError(t, err)
			assert.Equal(t, test.quit, quit)
			assert.Equal(t, test.events, sink.events)
		})
	}
}
