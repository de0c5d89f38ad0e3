package vm

import "fmt"

// LoadROM validates that buf's length is a multiple of InstructionSize,
// decodes each 8-byte chunk to confirm it names a registered opcode, and
// writes the raw instructions contiguously into memory starting at
// EntryPoint.
func LoadROM(mem *Memory, buf []byte) error {
	if len(buf)%InstructionSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrRomSizeNotAligned, len(buf))
	}

	addr := EntryPoint
	for off := 0; off < len(buf); off += InstructionSize {
		instr := instructionFromBytes(buf[off : off+InstructionSize])
		if _, err := Decode(instr); err != nil {
			return fmt.Errorf("rom offset %d: %w", off, err)
		}
		mem.WriteInstruction(addr, instr)
		addr += InstructionSize
	}
	return nil
}

// EncodeROM packs a sequence of opcodes into the flat binary ROM format:
// successive 8-byte big-endian Instructions with no header.
func EncodeROM(opcodes []Opcode) []byte {
	buf := make([]byte, len(opcodes)*InstructionSize)
	for i, op := range opcodes {
		bytesFromInstruction(buf[i*InstructionSize:], Encode(op))
	}
	return buf
}
