package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Number of general purpose registers
	RegisterCount = 16
	// VF doubles as carry, borrow, shift and collision flag
	FlagRegister = 0xF
)

// Registers is the register file of the machine
type Registers struct {
	// General purpose registers V0-VF
	V [RegisterCount]uint8
	// Index register, used as memory address by sprite and load/store instructions
	I uint16
	// Address of the next instruction to fetch
	PC uint16
}

// SetFlag writes 1 or 0 into VF
func (r *Registers) SetFlag(set bool) {
	if set {
		r.V[FlagRegister] = 1
	} else {
		r.V[FlagRegister] = 0
	}
}

// Flag returns the value of VF
func (r *Registers) Flag() uint8 {
	return r.V[FlagRegister]
}

// RegisterName returns the conventional name of a general purpose register
func RegisterName(index uint8) string {
	return fmt.Sprintf("V%X", index)
}

// RegisterRef identifies a register by name, as used by tools like the debugger
type RegisterRef struct {
	// One of "V", "I" or "PC"
	Kind string
	// Index of the V register, only meaningful for Kind == "V"
	Index uint8
}

// ParseRegister parses register names like "V3", "vf", "I" or "PC"
func ParseRegister(name string) (RegisterRef, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))

	switch {
	case upper == "I" || upper == "PC":
		return RegisterRef{Kind: upper}, nil
	case len(upper) == 2 && upper[0] == 'V':
		index, err := strconv.ParseUint(upper[1:], 16, 8)
		if err != nil {
			return RegisterRef{}, makeError(ErrUnknownRegister, "'%v'", name)
		}

		return RegisterRef{Kind: "V", Index: uint8(index)}, nil
	default:
		return RegisterRef{}, makeError(ErrUnknownRegister, "'%v'", name)
	}
}

// Read returns the value of the referenced register
func (r *Registers) Read(ref RegisterRef) uint16 {
	switch ref.Kind {
	case "I":
		return r.I
	case "PC":
		return r.PC
	default:
		return uint16(r.V[ref.Index])
	}
}

// Write sets the referenced register, truncating to 8 bits for V registers
func (r *Registers) Write(ref RegisterRef, value uint16) {
	switch ref.Kind {
	case "I":
		r.I = value
	case "PC":
		r.PC = value
	default:
		r.V[ref.Index] = uint8(value)
	}
}
