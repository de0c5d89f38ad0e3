package vm

import "fmt"

// Architectural memory layout. None of these values are mandated by the
// instruction set itself; they are a fixed convention every ROM is built
// against.
const (
	MemorySize = 0x100000 // 1 MiB, byte-addressable

	TerminalBase   Address = 0x0000
	TerminalWidth          = 80
	TerminalHeight         = 25
	terminalBytes          = TerminalWidth * TerminalHeight

	TimerMsHigh Address = 0x1000
	TimerMsLow  Address = 0x1004

	StackStart Address = 0x2000
	StackSize          = 0x10000

	EntryPoint Address = 0x12000 // must stay 8-byte aligned
)

// Memory is the machine's flat, byte-addressable address space. Reads and
// writes of Words and Instructions are always big-endian. Memory does not
// trap on reserved regions (terminal grid, timer window); those are plain
// bytes that the host interprets by convention. PollTime and GetKeyState
// write registers, not these regions.
type Memory struct {
	bytes [MemorySize]byte
}

// ReadByte returns the single byte at addr.
func (m *Memory) ReadByte(addr Address) byte {
	return m.bytes[addr]
}

// WriteByte stores b at addr.
func (m *Memory) WriteByte(addr Address, b byte) {
	m.bytes[addr] = b
}

// ReadWord returns the big-endian Word starting at addr.
func (m *Memory) ReadWord(addr Address) Word {
	return wordFromBytes(m.bytes[addr : addr+WordSize])
}

// WriteWord stores w as 4 big-endian bytes starting at addr.
func (m *Memory) WriteWord(addr Address, w Word) {
	bytesFromWord(m.bytes[addr:addr+WordSize], w)
}

// ReadInstruction returns the big-endian Instruction starting at addr. addr
// must be 8-byte aligned; Machine.Tick checks this before fetching for
// execution.
func (m *Memory) ReadInstruction(addr Address) Instruction {
	return instructionFromBytes(m.bytes[addr : addr+InstructionSize])
}

// WriteInstruction stores i as 8 big-endian bytes starting at addr.
func (m *Memory) WriteInstruction(addr Address, i Instruction) {
	bytesFromInstruction(m.bytes[addr:addr+InstructionSize], i)
}

// TerminalCell returns the byte at terminal column x, row y.
func (m *Memory) TerminalCell(x, y int) byte {
	return m.bytes[int(TerminalBase)+y*TerminalWidth+x]
}

// SetTerminalCell stores b at terminal column x, row y.
func (m *Memory) SetTerminalCell(x, y int, b byte) {
	m.bytes[int(TerminalBase)+y*TerminalWidth+x] = b
}

// aligned8 reports whether addr is a valid instruction-fetch address.
func aligned8(addr Address) bool {
	return addr%InstructionSize == 0
}

// aligned4 reports whether addr is a valid word/stack address.
func aligned4(addr Address) bool {
	return addr%WordSize == 0
}

func (m *Memory) String() string {
	return fmt.Sprintf("Memory{%d bytes}", MemorySize)
}
