package vm

import (
	"bytes"
	"testing"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
	"github.com/Manu343726/chip8/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/chip8/pkg/hw/cpu/mc"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Main program calling a subroutine, then looping forever
var debugProgram = []uint16{
	mc.Ld(0, 5),    // 0x200
	mc.Call(0x208), // 0x202
	mc.Add(0, 1),   // 0x204
	mc.Jp(0x206),   // 0x206
	mc.Ld(1, 7),    // 0x208
	mc.Ret(),       // 0x20A
}

type testSession struct {
	*session
	buffer *bytes.Buffer
	fs     afero.Fs
}

func newTestSession(t *testing.T) *testSession {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	buffer := &bytes.Buffer{}
	fs := afero.NewMemMapFs()
	dbg := interpreter.NewDebugger(newTestInterpreter(t, debugProgram...))
	session := newSession(dbg, fs, buffer)
	session.loadSymbols(mc.Assemble(debugProgram...))

	return &testSession{
		session: session,
		buffer:  buffer,
		fs:      fs,
	}
}

// run executes a command and returns its output
func (s *testSession) run(command string) string {
	s.buffer.Reset()
	s.execute(command)
	return s.buffer.String()
}

func TestDebugSessionExecution(t *testing.T) {
	s := newTestSession(t)

	out := s.run("step")
	assert.Contains(t, out, "=> 0x202  2208  CALL 0x208")

	out = s.run("next")
	assert.Contains(t, out, "=> 0x204  7001  ADD V0, 0x01")
	assert.Equal(t, uint16(0x204), s.dbg.GetPC())
	assert.Contains(t, s.run("print V1"), "V1 = 7 (0x7)")

	assert.Contains(t, s.run("break 0x206"), "Breakpoint 1 at 0x206")
	assert.Contains(t, s.run("continue"), "Breakpoint 1 hit at 0x206")
	assert.Contains(t, s.run("print v0"), "V0 = 6 (0x6)")

	assert.Contains(t, s.run("continue"), "Program reached a jump to itself")
}

func TestDebugSessionStepCount(t *testing.T) {
	s := newTestSession(t)

	s.run("step 3")
	assert.Equal(t, uint16(0x20A), s.dbg.GetPC())

	assert.Contains(t, s.run("out"), "=> 0x204")

	out := s.run("out")
	assert.Contains(t, out, "not inside a subroutine")
	assert.Equal(t, uint16(0x204), s.dbg.GetPC())
}

func TestDebugSessionUntil(t *testing.T) {
	s := newTestSession(t)

	s.run("until 0x204")
	assert.Equal(t, uint16(0x204), s.dbg.GetPC())
	assert.Empty(t, s.dbg.ListBreakpoints())

	s.run("reset")
	assert.Equal(t, uint16(0x200), s.dbg.GetPC())

	assert.Contains(t, s.run("run 2"), "Executed 2 steps.")
	assert.Equal(t, uint16(0x208), s.dbg.GetPC())

	assert.Contains(t, s.run("until"), "Usage: until <address>")
	assert.Contains(t, s.run("until 0x2000"), "out of bounds")
}

func TestDebugSessionRegisters(t *testing.T) {
	s := newTestSession(t)

	assert.Contains(t, s.run("set V2 0x10"), "V2 = 0x10")
	assert.Equal(t, uint8(0x10), s.dbg.Interpreter().Registers().V[2])

	assert.Contains(t, s.run("set I 300"), "I = 0x12C")
	assert.Contains(t, s.run("print I"), "I = 300 (0x12C)")

	assert.Contains(t, s.run("set V9"), "Usage: set <register> <value>")
	assert.Contains(t, s.run("set V9 zz"), "Invalid value: zz")
	assert.Contains(t, s.run("print VX"), "unknown symbol: VX")

	out := s.run("info")
	assert.Contains(t, out, "=== Machine State ===")
	assert.Contains(t, out, "V2=10")
	assert.Contains(t, out, "state=running")
	assert.Contains(t, out, "stack (0/16)")
}

func TestDebugSessionExpressions(t *testing.T) {
	s := newTestSession(t)

	assert.Contains(t, s.run("break sub_208"), "Breakpoint 0 at 0x208")
	assert.Contains(t, s.run("continue"), "Breakpoint 0 hit at 0x208")

	s.run("set I 0x200")
	assert.Contains(t, s.run("print I + 2"), "I + 2 = 514 (0x202)")
	assert.Contains(t, s.run("print [I]"), "[I] = 96 (0x60)")
	assert.Contains(t, s.run("print L_206 - sub_208"), "L_206 - sub_208 = 65534 (0xFFFE)")
	assert.Contains(t, s.run("memory I+2 2"), "0x202: 22 08")

	assert.Contains(t, s.run("print (1"), "expected ')'")
	assert.Contains(t, s.run("until nowhere"), "invalid address 'nowhere'")
}

func TestDebugSessionMemory(t *testing.T) {
	s := newTestSession(t)

	assert.Contains(t, s.run("memory 0x200 4"), "0x200: 60 05 22 08")

	assert.Contains(t, s.run("poke 0x300 0xAB 1"), "Wrote 2 bytes at 0x300")
	assert.Contains(t, s.run("memory 0x300 2"), "0x300: AB 01")

	assert.Contains(t, s.run("poke 0x300 0x100"), "Invalid byte: 0x100")

	// the glyph table is flagged as interpreter memory
	assert.Contains(t, s.run("memory 0 5"), "R 0x000: F0 90 90 90 F0")
}

func TestDebugSessionWatchpoints(t *testing.T) {
	s := newTestSession(t)

	assert.Contains(t, s.run("watch 0x300 2"), "Watchpoint w0 on 0x300 (2 bytes)")
	assert.Contains(t, s.run("break 0x204"), "Breakpoint 0 at 0x204")

	out := s.run("list")
	assert.Contains(t, out, "#0 breakpoint at 0x204 enabled (hits: 0)")
	assert.Contains(t, out, "#w0 watchpoint at 0x300, 2 bytes (hits: 0)")

	assert.Contains(t, s.run("delete w0"), "Deleted watchpoint 0")
	assert.Contains(t, s.run("delete 0"), "Deleted breakpoint 0")
	assert.Contains(t, s.run("delete 0"), "No such breakpoint or watchpoint: 0")
	assert.Contains(t, s.run("delete x"), "Invalid ID: x")
	assert.Contains(t, s.run("list"), "No breakpoints or watchpoints.")
}

func TestDebugSessionDisassembly(t *testing.T) {
	s := newTestSession(t)
	s.run("break 0x202")

	out := s.run("disasm 0x200 3")
	assert.Contains(t, out, " => 0x200  6005  LD V0, 0x05")
	assert.Contains(t, out, "*   0x202  2208  CALL 0x208")
	assert.Contains(t, out, "    0x204  7001  ADD V0, 0x01")
	assert.NotContains(t, out, "0x206")
}

func TestDebugSessionKeys(t *testing.T) {
	s := newTestSession(t)
	interp := s.dbg.Interpreter()
	require.NoError(t, interp.LoadROM(mc.Assemble(ldK(4), mc.Jp(0x202))))

	assert.Contains(t, s.run("step"), "Waiting for a key")
	assert.Equal(t, interpreter.StateAwaitingKey, interp.State())

	assert.Contains(t, s.run("key b"), "Pressed key B")
	s.run("step")
	assert.Equal(t, uint8(0xB), interp.Registers().V[4])
	assert.Equal(t, interpreter.StateRunning, interp.State())

	assert.Contains(t, s.run("key 10"), cpu.ErrInvalidKey.Error())
	assert.Contains(t, s.run("key"), "Usage: key <hex digit>")
}

func TestDebugSessionTimersAndDisplay(t *testing.T) {
	s := newTestSession(t)
	s.dbg.Interpreter().Timers().SetDelay(3)

	assert.Contains(t, s.run("tick 2"), "DT=01 ST=00")

	out := s.run("display")
	assert.Contains(t, out, "················")
}

func TestDebugSessionDump(t *testing.T) {
	s := newTestSession(t)
	s.run("step")

	out := s.run("dump")
	assert.Contains(t, out, "pc:")
	assert.Contains(t, out, "0x0202")

	assert.Contains(t, s.run("dump /snapshots/state.yaml"), "Snapshot written to /snapshots/state.yaml")

	data, err := afero.ReadFile(s.fs, "/snapshots/state.yaml")
	require.NoError(t, err)
	snapshot, err := cpu.ParseSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "0x0202", snapshot.PC)
	assert.Equal(t, "0x05", snapshot.V["V0"])
}

func TestDebugSessionMisc(t *testing.T) {
	s := newTestSession(t)

	assert.Contains(t, s.run("bogus"), "Unknown command: bogus")
	assert.Contains(t, s.run("help"), "Interactive debugger for CHIP-8 programs")
	assert.Equal(t, debugHelp, debugCmd.Long)
	assert.Contains(t, VmCmd.Commands(), debugCmd)
	assert.Empty(t, s.run("   "))

	assert.True(t, s.running)
	s.run("quit")
	assert.False(t, s.running)
}
