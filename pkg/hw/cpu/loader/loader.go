// Package loader provides high-level APIs for loading CHIP-8 programs from files.
//
// It abstracts the details of the supported file formats and returns the raw
// program image, ready to be passed to Interpreter.LoadROM():
//
//   - Binary ROM images (.ch8, .c8, .rom and anything unrecognized)
//   - Hex text listings (.hex), whitespace separated hex bytes or words with
//     optional '#' or ';' comments
//
// Typical usage:
//
//	result, err := loader.LoadFile(afero.NewOsFs(), "pong.ch8", nil)
//	if err != nil { ... }
//	err = interp.LoadROM(result.ROM)
//
// Files are read through an afero.Fs so tools and tests can load from memory.
package loader

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/spf13/afero"
)

// ErrEmptyROM is returned when a file holds no program bytes
var ErrEmptyROM = errors.New("empty rom")

// Options configures the program loading process
type Options struct {
	// Verbose enables detailed output during loading
	Verbose bool

	// MaxSize is the largest accepted image in bytes. Defaults to cpu.MaxROMSize
	MaxSize int

	// Logger receives verbose output. Defaults to slog.Default()
	Logger *slog.Logger
}

// Result contains the result of a load operation
type Result struct {
	// ROM is the program image
	ROM []byte

	// OriginalPath is the original file path provided
	OriginalPath string

	// Format is the detected file format
	Format FileFormat

	// Warnings contains non-fatal warnings that occurred during loading
	Warnings []string
}

// FileFormat represents the type of program file
type FileFormat int

const (
	// FormatBinary indicates a raw ROM image
	FormatBinary FileFormat = iota
	// FormatHexText indicates a text file with hex bytes
	FormatHexText
)

// String returns the string representation of a FileFormat
func (f FileFormat) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatHexText:
		return "hex"
	default:
		return "unknown"
	}
}

// DetectFormat determines the file format based on extension
func DetectFormat(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt":
		return FormatHexText
	default:
		return FormatBinary
	}
}

// LoadFile loads a program file from the given path
func LoadFile(fs afero.Fs, path string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = cpu.MaxROMSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &Result{
		OriginalPath: path,
		Format:       DetectFormat(path),
	}

	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat '%s': %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory", path)
	}
	if result.Format == FormatBinary && info.Size() > int64(maxSize) {
		return nil, fmt.Errorf("'%s': %w: %d bytes, at most %d fit", path, cpu.ErrROMTooLarge, info.Size(), maxSize)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read '%s': %w", path, err)
	}

	switch result.Format {
	case FormatHexText:
		result.ROM, err = ParseHex(data)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
	default:
		result.ROM = data
	}

	if len(result.ROM) == 0 {
		return nil, fmt.Errorf("'%s': %w", path, ErrEmptyROM)
	}
	if len(result.ROM) > maxSize {
		return nil, fmt.Errorf("'%s': %w: %d bytes, at most %d fit", path, cpu.ErrROMTooLarge, len(result.ROM), maxSize)
	}
	if len(result.ROM)%2 != 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("odd size (%d bytes), the last byte is not a full instruction", len(result.ROM)))
	}

	if opts.Verbose {
		logger.Info("loaded rom", "path", path, "format", result.Format.String(), "size", len(result.ROM))
		for _, warning := range result.Warnings {
			logger.Warn(warning, "path", path)
		}
	}

	return result, nil
}

// ParseHex decodes a hex text listing. Tokens are separated by whitespace or
// commas, may carry a 0x prefix and must have an even number of digits.
// Everything after '#' or ';' on a line is ignored
func ParseHex(data []byte) ([]byte, error) {
	var rom []byte

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if cut := strings.IndexAny(text, "#;"); cut >= 0 {
			text = text[:cut]
		}

		for _, token := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
			token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")

			decoded, err := hex.DecodeString(token)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid hex '%s': %w", line, token, err)
			}

			rom = append(rom, decoded...)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rom, nil
}
