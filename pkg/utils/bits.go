package utils

import (
	"golang.org/x/exp/constraints"
)

const BitsPerByte = 8

// Bits per hex digit
const BitsPerNibble = 4

// Returns an all ones bitmask of n bits of the given unsigned integer type
func AllOnes[T constraints.Unsigned](bits int) T {
	return (T(1) << bits) - T(1)
}

// Implements a read/write view over an unsigned interger, allowing manipullating individual bits easily
type BitView[T constraints.Unsigned] struct {
	Bits *T
}

// Returns the viewed unsigned int value
func (v BitView[T]) Value() T {
	return *v.Bits
}

// Extracts a range of bits given a first bit and a width
func (v BitView[T]) Read(bit int, width int) T {
	mask := AllOnes[T](width)
	return (v.Value() >> bit) & mask
}

// Extracts the n-th hex digit, counting from the least significant one
func (v BitView[T]) Nibble(n int) T {
	return v.Read(n*BitsPerNibble, BitsPerNibble)
}

// Copies a value into a range of bits, given the start and width of the range.
// All most significant bits of the value not fitting into the destination range are ignored.
func (v BitView[T]) Write(value T, bit int, width int) {
	mask := AllOnes[T](width) << bit
	*v.Bits = (*v.Bits &^ mask) | ((value << bit) & mask)
}

// Returns whether a single bit is set
func (v BitView[T]) Test(bit int) bool {
	return v.Read(bit, 1) != 0
}

// Creates a bit view out of an unsigned int
func CreateBitView[T constraints.Unsigned](value *T) BitView[T] {
	return BitView[T]{
		Bits: value,
	}
}
