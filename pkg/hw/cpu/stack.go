package cpu

// Maximum nesting of subroutine calls
const StackDepth = 16

// Stack holds subroutine return addresses
type Stack struct {
	entries [StackDepth]uint16
	// Number of entries in use, also the index of the next free slot
	sp int
}

// Push saves a return address
func (s *Stack) Push(address uint16) error {
	if s.sp >= len(s.entries) {
		return makeError(ErrStackOverflow, "more than %d nested calls (return address 0x%04X)", len(s.entries), address)
	}

	s.entries[s.sp] = address
	s.sp++
	return nil
}

// Pop returns the most recently pushed return address
func (s *Stack) Pop() (uint16, error) {
	if s.sp == 0 {
		return 0, makeError(ErrStackUnderflow, "return without call")
	}

	s.sp--
	return s.entries[s.sp], nil
}

// Depth returns the number of return addresses currently stored
func (s *Stack) Depth() int {
	return s.sp
}

// Entries returns a copy of the stored return addresses, oldest first
func (s *Stack) Entries() []uint16 {
	result := make([]uint16, s.sp)
	copy(result, s.entries[:s.sp])
	return result
}
