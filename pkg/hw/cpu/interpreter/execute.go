package interpreter

import (
	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc/instructions"
)

// Implements the semantics of an instruction. PC already points past the
// instruction when the handler runs
type executeFunc func(i *Interpreter, instr instructions.Instruction, result *StepResult) error

var handlers = [instructions.TOTAL_OPCODES]executeFunc{
	instructions.OpCode_CLS:       (*Interpreter).cls,
	instructions.OpCode_RET:       (*Interpreter).ret,
	instructions.OpCode_JP:        (*Interpreter).jp,
	instructions.OpCode_CALL:      (*Interpreter).call,
	instructions.OpCode_SE_IMM:    (*Interpreter).seImm,
	instructions.OpCode_SNE_IMM:   (*Interpreter).sneImm,
	instructions.OpCode_SE_REG:    (*Interpreter).seReg,
	instructions.OpCode_LD_IMM:    (*Interpreter).ldImm,
	instructions.OpCode_ADD_IMM:   (*Interpreter).addImm,
	instructions.OpCode_LD_REG:    (*Interpreter).ldReg,
	instructions.OpCode_OR:        (*Interpreter).or,
	instructions.OpCode_AND:       (*Interpreter).and,
	instructions.OpCode_XOR:       (*Interpreter).xor,
	instructions.OpCode_ADD_REG:   (*Interpreter).addReg,
	instructions.OpCode_SUB:       (*Interpreter).sub,
	instructions.OpCode_SHR:       (*Interpreter).shr,
	instructions.OpCode_SUBN:      (*Interpreter).subn,
	instructions.OpCode_SHL:       (*Interpreter).shl,
	instructions.OpCode_SNE_REG:   (*Interpreter).sneReg,
	instructions.OpCode_LD_I:      (*Interpreter).ldI,
	instructions.OpCode_JP_V0:     (*Interpreter).jpV0,
	instructions.OpCode_RND:       (*Interpreter).rnd,
	instructions.OpCode_DRW:       (*Interpreter).drw,
	instructions.OpCode_SKP:       (*Interpreter).skp,
	instructions.OpCode_SKNP:      (*Interpreter).sknp,
	instructions.OpCode_LD_VX_DT:  (*Interpreter).ldVxDt,
	instructions.OpCode_LD_VX_K:   (*Interpreter).ldVxK,
	instructions.OpCode_LD_DT_VX:  (*Interpreter).ldDtVx,
	instructions.OpCode_LD_ST_VX:  (*Interpreter).ldStVx,
	instructions.OpCode_ADD_I:     (*Interpreter).addI,
	instructions.OpCode_LD_F:      (*Interpreter).ldF,
	instructions.OpCode_LD_B:      (*Interpreter).ldB,
	instructions.OpCode_LD_MEM_VX: (*Interpreter).ldMemVx,
	instructions.OpCode_LD_VX_MEM: (*Interpreter).ldVxMem,
}

func (i *Interpreter) execute(result *StepResult) error {
	return handlers[result.Instruction.OpCode()](i, result.Instruction, result)
}

func (i *Interpreter) skipIf(condition bool) {
	if condition {
		i.registers.PC += instructions.InstructionBytes
	}
}

func (i *Interpreter) cls(_ instructions.Instruction, result *StepResult) error {
	i.display.Clear()
	result.Drew = true
	return nil
}

func (i *Interpreter) ret(_ instructions.Instruction, _ *StepResult) error {
	address, err := i.stack.Pop()
	if err != nil {
		return err
	}

	i.registers.PC = address
	return nil
}

func (i *Interpreter) jp(instr instructions.Instruction, _ *StepResult) error {
	i.registers.PC = instr.NNN
	return nil
}

func (i *Interpreter) call(instr instructions.Instruction, _ *StepResult) error {
	if err := i.stack.Push(i.registers.PC); err != nil {
		return err
	}

	i.registers.PC = instr.NNN
	return nil
}

func (i *Interpreter) seImm(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(i.registers.V[instr.X] == instr.NN)
	return nil
}

func (i *Interpreter) sneImm(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(i.registers.V[instr.X] != instr.NN)
	return nil
}

func (i *Interpreter) seReg(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(i.registers.V[instr.X] == i.registers.V[instr.Y])
	return nil
}

func (i *Interpreter) ldImm(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] = instr.NN
	return nil
}

func (i *Interpreter) addImm(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] += instr.NN
	return nil
}

func (i *Interpreter) ldReg(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] = i.registers.V[instr.Y]
	return nil
}

func (i *Interpreter) or(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] |= i.registers.V[instr.Y]
	return nil
}

func (i *Interpreter) and(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] &= i.registers.V[instr.Y]
	return nil
}

func (i *Interpreter) xor(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] ^= i.registers.V[instr.Y]
	return nil
}

// The flag is always written after the result so VF as destination ends up holding the flag

func (i *Interpreter) addReg(instr instructions.Instruction, _ *StepResult) error {
	sum := uint16(i.registers.V[instr.X]) + uint16(i.registers.V[instr.Y])

	i.registers.V[instr.X] = uint8(sum)
	i.registers.SetFlag(sum > 0xFF)
	return nil
}

func (i *Interpreter) sub(instr instructions.Instruction, _ *StepResult) error {
	vx, vy := i.registers.V[instr.X], i.registers.V[instr.Y]

	i.registers.V[instr.X] = vx - vy
	i.registers.SetFlag(vx >= vy)
	return nil
}

func (i *Interpreter) subn(instr instructions.Instruction, _ *StepResult) error {
	vx, vy := i.registers.V[instr.X], i.registers.V[instr.Y]

	i.registers.V[instr.X] = vy - vx
	i.registers.SetFlag(vy >= vx)
	return nil
}

func (i *Interpreter) shiftSource(instr instructions.Instruction) uint8 {
	if i.quirks.ShiftUsesVY {
		return i.registers.V[instr.Y]
	}

	return i.registers.V[instr.X]
}

func (i *Interpreter) shr(instr instructions.Instruction, _ *StepResult) error {
	source := i.shiftSource(instr)

	i.registers.V[instr.X] = source >> 1
	i.registers.V[cpu.FlagRegister] = source & 0x1
	return nil
}

func (i *Interpreter) shl(instr instructions.Instruction, _ *StepResult) error {
	source := i.shiftSource(instr)

	i.registers.V[instr.X] = source << 1
	i.registers.V[cpu.FlagRegister] = source >> 7
	return nil
}

func (i *Interpreter) sneReg(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(i.registers.V[instr.X] != i.registers.V[instr.Y])
	return nil
}

func (i *Interpreter) ldI(instr instructions.Instruction, _ *StepResult) error {
	i.registers.I = instr.NNN
	return nil
}

func (i *Interpreter) jpV0(instr instructions.Instruction, _ *StepResult) error {
	i.registers.PC = instr.NNN + uint16(i.registers.V[0])
	return nil
}

func (i *Interpreter) rnd(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] = uint8(i.rand.UintN(256)) & instr.NN
	return nil
}

func (i *Interpreter) drw(instr instructions.Instruction, result *StepResult) error {
	sprite, err := i.memory.ReadRange(i.registers.I, int(instr.N))
	if err != nil {
		return err
	}

	collision := i.display.DrawSprite(i.registers.V[instr.X], i.registers.V[instr.Y], sprite)
	i.registers.SetFlag(collision)
	result.Drew = true
	return nil
}

func (i *Interpreter) skp(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(i.keypad.Pressed(i.registers.V[instr.X]))
	return nil
}

func (i *Interpreter) sknp(instr instructions.Instruction, _ *StepResult) error {
	i.skipIf(!i.keypad.Pressed(i.registers.V[instr.X]))
	return nil
}

func (i *Interpreter) ldVxDt(instr instructions.Instruction, _ *StepResult) error {
	i.registers.V[instr.X] = i.timers.Delay()
	return nil
}

func (i *Interpreter) ldVxK(instr instructions.Instruction, _ *StepResult) error {
	// stay on this instruction until a key press completes it
	i.registers.PC -= instructions.InstructionBytes
	i.waitRegister = instr.X
	i.state = StateAwaitingKey
	i.keypad.Arm()
	return nil
}

func (i *Interpreter) ldDtVx(instr instructions.Instruction, _ *StepResult) error {
	i.timers.SetDelay(i.registers.V[instr.X])
	return nil
}

func (i *Interpreter) ldStVx(instr instructions.Instruction, _ *StepResult) error {
	i.timers.SetSound(i.registers.V[instr.X])
	return nil
}

func (i *Interpreter) addI(instr instructions.Instruction, _ *StepResult) error {
	i.registers.I += uint16(i.registers.V[instr.X])
	return nil
}

func (i *Interpreter) ldF(instr instructions.Instruction, _ *StepResult) error {
	i.registers.I = cpu.GlyphStart + uint16(i.registers.V[instr.X])*cpu.GlyphHeight
	return nil
}

func (i *Interpreter) ldB(instr instructions.Instruction, _ *StepResult) error {
	value := i.registers.V[instr.X]
	return i.memory.WriteRange(i.registers.I, []byte{value / 100, value / 10 % 10, value % 10})
}

func (i *Interpreter) ldMemVx(instr instructions.Instruction, _ *StepResult) error {
	count := int(instr.X) + 1

	if err := i.memory.WriteRange(i.registers.I, i.registers.V[:count]); err != nil {
		return err
	}

	if i.quirks.LoadStoreIncrementsIndex {
		i.registers.I += uint16(count)
	}
	return nil
}

func (i *Interpreter) ldVxMem(instr instructions.Instruction, _ *StepResult) error {
	count := int(instr.X) + 1

	data, err := i.memory.ReadRange(i.registers.I, count)
	if err != nil {
		return err
	}

	copy(i.registers.V[:count], data)

	if i.quirks.LoadStoreIncrementsIndex {
		i.registers.I += uint16(count)
	}
	return nil
}
