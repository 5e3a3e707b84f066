// Package config holds the user configurable settings of the emulator and
// their defaults. Values come from viper, so they can be set in the config
// file, through CHIP8_* environment variables or bound command line flags.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/spf13/viper"
)

// Prefix of the environment variables overriding config keys (CHIP8_CPU_SPEED_HZ, ...)
const EnvPrefix = "CHIP8"

type CPUConfig struct {
	// Instructions executed per second
	SpeedHz int `mapstructure:"speed_hz"`
	// Timer decrements per second
	TimerHz int `mapstructure:"timer_hz"`
	// Seed of the random number generator, 0 means time based
	Seed uint64 `mapstructure:"seed"`
}

type DisplayConfig struct {
	// Color of lit pixels, any name or #rrggbb value tcell understands
	OnColor string `mapstructure:"on_color"`
	// Color of unlit pixels
	OffColor string `mapstructure:"off_color"`
}

type InputConfig struct {
	// How long a key stays pressed after the terminal reports it, in milliseconds.
	// Terminals only report presses, releases are emulated
	HoldMs int `mapstructure:"hold_ms"`
	// Keyboard key to keypad key (hex digit). Empty means the default layout
	Keymap map[string]string `mapstructure:"keymap"`
}

type LogConfig struct {
	// debug, info, warn or error
	Level string `mapstructure:"level"`
	// Optional file receiving JSON records in addition to stderr
	File string `mapstructure:"file"`
	// Format of stderr records: text or json
	Format string `mapstructure:"format"`
}

// Config is the whole emulator configuration
type Config struct {
	CPU     CPUConfig     `mapstructure:"cpu"`
	Quirks  cpu.Quirks    `mapstructure:"quirks"`
	Display DisplayConfig `mapstructure:"display"`
	Input   InputConfig   `mapstructure:"input"`
	Log     LogConfig     `mapstructure:"log"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cpu.speed_hz", 500)
	v.SetDefault("cpu.timer_hz", 60)
	v.SetDefault("cpu.seed", 0)
	v.SetDefault("quirks.shift_uses_vy", false)
	v.SetDefault("quirks.load_store_increments_index", false)
	v.SetDefault("display.on_color", "white")
	v.SetDefault("display.off_color", "black")
	v.SetDefault("input.hold_ms", 150)
	v.SetDefault("input.keymap", map[string]string{})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "text")
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.CPU.SpeedHz <= 0 {
		return fmt.Errorf("cpu.speed_hz must be positive, got %d", c.CPU.SpeedHz)
	}
	if c.CPU.TimerHz <= 0 {
		return fmt.Errorf("cpu.timer_hz must be positive, got %d", c.CPU.TimerHz)
	}
	if c.Input.HoldMs < 0 {
		return fmt.Errorf("input.hold_ms cannot be negative, got %d", c.Input.HoldMs)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got '%s'", c.Log.Format)
	}

	if _, err := c.Keymap(); err != nil {
		return err
	}

	return nil
}

// Keymap decodes the configured keyboard to keypad mapping
func (c *Config) Keymap() (map[rune]uint8, error) {
	result := make(map[rune]uint8, len(c.Input.Keymap))

	for keyboard, keypad := range c.Input.Keymap {
		runes := []rune(keyboard)
		if len(runes) != 1 {
			return nil, fmt.Errorf("input.keymap: '%s' must be a single character", keyboard)
		}

		key, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(keypad), "0x"), 16, 8)
		if err != nil || key >= cpu.KeyCount {
			return nil, fmt.Errorf("input.keymap: '%s' maps to '%s', expected a hex digit 0-F", keyboard, keypad)
		}

		result[runes[0]] = uint8(key)
	}

	return result, nil
}
