package instructions

// Kind of field an instruction word is split into
type OperandKind uint

const (
	// Register index in bits 8-11
	OperandKind_X OperandKind = iota
	// Register index in bits 4-7
	OperandKind_Y
	// 4 bit immediate in bits 0-3
	OperandKind_N
	// 8 bit immediate in bits 0-7
	OperandKind_NN
	// 12 bit address in bits 0-11
	OperandKind_NNN
)

func (k OperandKind) String() string {
	switch k {
	case OperandKind_X:
		return "x"
	case OperandKind_Y:
		return "y"
	case OperandKind_N:
		return "n"
	case OperandKind_NN:
		return "nn"
	case OperandKind_NNN:
		return "nnn"
	default:
		return "?"
	}
}

// Returns the first bit of the field within the instruction word
func (k OperandKind) EncodingPosition() int {
	switch k {
	case OperandKind_X:
		return 8
	case OperandKind_Y:
		return 4
	default:
		return 0
	}
}

// Returns the number of bits of the field
func (k OperandKind) EncodingBits() int {
	switch k {
	case OperandKind_NN:
		return 8
	case OperandKind_NNN:
		return 12
	default:
		return 4
	}
}
