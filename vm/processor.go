package vm

// Reserved register indices, placed at the top of the file rather than the
// bottom: general-purpose code (and every literal register number in this
// ISA's test programs) skews low, so reserving 251-255 keeps ordinary
// register literals like 0, 1, 9 or 10 free to mean "a GP register" instead
// of accidentally aliasing the instruction pointer or the flags register.
const (
	CycleCountLow        Register = 251
	CycleCountHigh       Register = 252
	FlagsRegister        Register = 253
	StackPointerRegister Register = 254
	InstructionPointer   Register = 255

	NumRegisters = 256
)

// Flag bit positions inside FlagsRegister.
const (
	flagZero = 1 << iota
	flagCarry
	flagDivideByZero
)

// Processor holds the register file, derives flag state from FlagsRegister,
// and tracks the 64-bit cycle counter split across CycleCountHigh/Low.
type Processor struct {
	registers [NumRegisters]Word
	cycles    uint64
}

// NewProcessor returns a Processor with the instruction pointer at
// EntryPoint and the stack pointer at StackStart; everything else zero.
func NewProcessor() *Processor {
	p := &Processor{}
	p.registers[InstructionPointer] = Word(EntryPoint)
	p.registers[StackPointerRegister] = Word(StackStart)
	return p
}

// Register returns the current value of register r.
func (p *Processor) Register(r Register) Word {
	return p.registers[r]
}

// SetRegister stores v into register r. Writes to CycleCountHigh/Low are
// silently dropped: the cycle counter is observable but not settable.
func (p *Processor) SetRegister(r Register, v Word) {
	if r == CycleCountHigh || r == CycleCountLow {
		return
	}
	p.registers[r] = v
}

// IP returns the instruction pointer.
func (p *Processor) IP() Address {
	return Address(p.registers[InstructionPointer])
}

// SetIP sets the instruction pointer directly, used by jumps/Call/Return.
func (p *Processor) SetIP(a Address) {
	p.registers[InstructionPointer] = Word(a)
}

// SP returns the stack pointer.
func (p *Processor) SP() Address {
	return Address(p.registers[StackPointerRegister])
}

func (p *Processor) setSP(a Address) {
	p.registers[StackPointerRegister] = Word(a)
}

// Cycles returns the 64-bit cycle counter.
func (p *Processor) Cycles() uint64 {
	return p.cycles
}

// tick increments the cycle counter and republishes it into
// CycleCountHigh/Low, mirroring it the way the real hardware would expose
// a free-running counter through two registers.
func (p *Processor) tick() {
	p.cycles++
	p.registers[CycleCountHigh] = Word(p.cycles >> 32)
	p.registers[CycleCountLow] = Word(p.cycles)
}

// Zero reports the Zero flag.
func (p *Processor) Zero() bool { return p.registers[FlagsRegister]&flagZero != 0 }

// Carry reports the Carry flag.
func (p *Processor) Carry() bool { return p.registers[FlagsRegister]&flagCarry != 0 }

// DivideByZero reports the DivideByZero flag.
func (p *Processor) DivideByZero() bool {
	return p.registers[FlagsRegister]&flagDivideByZero != 0
}

// setZeroCarry updates Zero and Carry, leaving DivideByZero untouched. Used
// by Add/Subtract/SubtractWithCarry/Multiply/shift instructions.
func (p *Processor) setZeroCarry(zero, carry bool) {
	f := p.registers[FlagsRegister] &^ (flagZero | flagCarry)
	if zero {
		f |= flagZero
	}
	if carry {
		f |= flagCarry
	}
	p.registers[FlagsRegister] = f
}

// setZeroDivideByZero updates Zero and DivideByZero, leaving Carry
// untouched. Used by Divmod.
func (p *Processor) setZeroDivideByZero(zero, divideByZero bool) {
	f := p.registers[FlagsRegister] &^ (flagZero | flagDivideByZero)
	if zero {
		f |= flagZero
	}
	if divideByZero {
		f |= flagDivideByZero
	}
	p.registers[FlagsRegister] = f
}

// setZero updates only Zero, leaving Carry and DivideByZero untouched. Used
// by And/Or/Xor/Not/Compare.
func (p *Processor) setZero(zero bool) {
	f := p.registers[FlagsRegister] &^ flagZero
	if zero {
		f |= flagZero
	}
	p.registers[FlagsRegister] = f
}
