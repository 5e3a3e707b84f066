package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestDefaults(t *testing.T) {
	c, err := Load(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 500, c.CPU.SpeedHz)
	assert.Equal(t, 60, c.CPU.TimerHz)
	assert.Equal(t, uint64(0), c.CPU.Seed)
	assert.False(t, c.Quirks.ShiftUsesVY)
	assert.False(t, c.Quirks.LoadStoreIncrementsIndex)
	assert.Equal(t, 150, c.Input.HoldMs)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)

	keymap, err := c.Keymap()
	require.NoError(t, err)
	assert.Empty(t, keymap)
}

func TestLoadFromYAML(t *testing.T) {
	c, err := Load(newViper(t, `
cpu:
  speed_hz: 1000
  seed: 42
quirks:
  shift_uses_vy: true
  load_store_increments_index: true
display:
  on_color: "#33ff33"
input:
  hold_ms: 80
  keymap:
    "x": "0"
    "p": "0xF"
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 1000, c.CPU.SpeedHz)
	assert.Equal(t, 60, c.CPU.TimerHz, "default kept")
	assert.Equal(t, uint64(42), c.CPU.Seed)
	assert.True(t, c.Quirks.ShiftUsesVY)
	assert.True(t, c.Quirks.LoadStoreIncrementsIndex)
	assert.Equal(t, "#33ff33", c.Display.OnColor)
	assert.Equal(t, "black", c.Display.OffColor)
	assert.Equal(t, 80, c.Input.HoldMs)
	assert.Equal(t, "json", c.Log.Format)

	keymap, err := c.Keymap()
	require.NoError(t, err)
	assert.Equal(t, map[rune]uint8{'x': 0x0, 'p': 0xF}, keymap)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHIP8_CPU_SPEED_HZ", "700")

	v := newViper(t, "")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 700, c.CPU.SpeedHz)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"speed":         "cpu:\n  speed_hz: 0\n",
		"timer":         "cpu:\n  timer_hz: -1\n",
		"hold":          "input:\n  hold_ms: -5\n",
		"log format":    "log:\n  format: xml\n",
		"keymap key":    "input:\n  keymap:\n    ab: \"1\"\n",
		"keymap target": "input:\n  keymap:\n    a: \"G\"\n",
		"keymap range":  "input:\n  keymap:\n    a: \"10\"\n",
	}

	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(newViper(t, yaml))
			assert.Error(t, err)
		})
	}
}
