package cpu

const (
	// Total addressable memory in bytes
	MemorySize = 0x1000
	// Address programs are loaded at. Everything below belongs to the interpreter
	ProgramStart = 0x200
	// Biggest ROM that fits in memory
	MaxROMSize = MemorySize - ProgramStart

	// Rows of a built-in hex digit glyph
	GlyphHeight = 5
	// Number of built-in glyphs (0-F)
	GlyphCount = 16
	// Address of the first glyph
	GlyphStart = 0x000
)

// Glyphs holds the 4x5 bitmaps of the hex digits 0-F, GlyphHeight bytes per digit
var Glyphs = [GlyphCount * GlyphHeight]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat byte addressable memory of the machine.
//
// Instructions can read anything but can only write at or above ProgramStart,
// the glyph table and the rest of the interpreter area are read-only for them.
type Memory struct {
	buffer [MemorySize]byte
}

// NewMemory returns zeroed memory with the glyph table in place
func NewMemory() *Memory {
	m := &Memory{}
	copy(m.buffer[GlyphStart:], Glyphs[:])
	return m
}

func checkRange(address uint16, size int) error {
	if int(address)+size > MemorySize {
		return makeError(ErrAddressOutOfBounds, "0x%04X + %d", address, size)
	}

	return nil
}

// Read returns the byte at the given address
func (m *Memory) Read(address uint16) (byte, error) {
	if err := checkRange(address, 1); err != nil {
		return 0, err
	}

	return m.buffer[address], nil
}

// ReadWord returns the big-endian 16 bit word at [address, address+1]
func (m *Memory) ReadWord(address uint16) (uint16, error) {
	if err := checkRange(address, 2); err != nil {
		return 0, err
	}

	return uint16(m.buffer[address])<<8 | uint16(m.buffer[address+1]), nil
}

// ReadRange returns a copy of size bytes starting at address. Either the whole range
// is readable or nothing is returned
func (m *Memory) ReadRange(address uint16, size int) ([]byte, error) {
	if err := checkRange(address, size); err != nil {
		return nil, err
	}

	result := make([]byte, size)
	copy(result, m.buffer[address:])
	return result, nil
}

// Write stores a byte on behalf of a running program
func (m *Memory) Write(address uint16, value byte) error {
	return m.WriteRange(address, []byte{value})
}

// WriteRange stores data starting at address on behalf of a running program.
// The whole range is validated before anything is written
func (m *Memory) WriteRange(address uint16, data []byte) error {
	if address < ProgramStart {
		return makeError(ErrProtectedWrite, "0x%04X is below 0x%04X", address, ProgramStart)
	}

	if err := checkRange(address, len(data)); err != nil {
		return err
	}

	copy(m.buffer[address:], data)
	return nil
}

// Poke writes raw bytes ignoring write protection. Meant for tools like the debugger,
// not for instruction execution
func (m *Memory) Poke(address uint16, data []byte) error {
	if err := checkRange(address, len(data)); err != nil {
		return err
	}

	copy(m.buffer[address:], data)
	return nil
}

// Load copies a program image at ProgramStart. Oversized images are rejected
// before anything is written
func (m *Memory) Load(rom []byte) error {
	if len(rom) > MaxROMSize {
		return makeError(ErrROMTooLarge, "%d bytes, at most %d fit", len(rom), MaxROMSize)
	}

	copy(m.buffer[ProgramStart:], rom)
	return nil
}

// Size returns the number of addressable bytes
func (m *Memory) Size() int {
	return len(m.buffer)
}
