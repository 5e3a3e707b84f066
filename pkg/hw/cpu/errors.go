package cpu

import (
	"errors"
	"fmt"
)

var (
	// Pushing a return address onto a full call stack
	ErrStackOverflow = errors.New("stack overflow")
	// Returning from a subroutine with an empty call stack
	ErrStackUnderflow = errors.New("stack underflow")
	// Fetching an instruction past the end of memory
	ErrPCOutOfBounds = errors.New("program counter out of bounds")
	// Reading or writing past the end of memory
	ErrAddressOutOfBounds = errors.New("address out of bounds")
	// Writing below the program load address
	ErrProtectedWrite = errors.New("write to protected memory")
	// Loading a ROM that does not fit between the load address and the end of memory
	ErrROMTooLarge = errors.New("rom too large")
	// Stepping a machine that already stopped on a fatal error
	ErrFaulted = errors.New("machine faulted")
	// Key identity outside of 0x0-0xF
	ErrInvalidKey = errors.New("invalid key")
	// Register name that doesn't match V0-VF, I or PC
	ErrUnknownRegister = errors.New("unknown register")
)

func makeError(err error, message string, args ...interface{}) error {
	return fmt.Errorf("%w: "+message, append([]any{err}, args...)...)
}
