package vm

import (
	"errors"
	"math/rand"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func newTestMachine() *Machine {
	return NewMachine(nil, nil)
}

// --- Property 1: encode/decode round trip ---------------------------------

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []Opcode{
		MoveRegisterImmediate{Register: 10, Immediate: 0xABCD1234},
		MoveRegisterAddress{Register: 7, Address: 0x2000},
		MoveTargetSource{Target: 1, Source: 2},
		MoveAddressRegister{Address: 0x3000, Register: 9},
		MoveTargetPointer{Target: 5, Pointer: 6},
		MovePointerSource{Pointer: 6, Source: 5},
		AddTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		AddTargetSourceImmediate{Target: 3, Source: 1, Immediate: 99},
		SubtractTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		SubtractTargetSourceImmediate{Target: 3, Source: 1, Immediate: 99},
		SubtractWithCarryTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		MultiplyHighLowLhsRhs{High: 9, Low: 10, Lhs: 1, Rhs: 2},
		DivmodTargetModLhsRhs{Target: 9, Mod: 10, Lhs: 1, Rhs: 2},
		AndTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		OrTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		XorTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		NotTargetSource{Target: 3, Source: 1},
		LeftShiftTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		RightShiftTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2},
		CompareTargetLhsRhs{Target: 0, Lhs: 1, Rhs: 2},
		JumpAddress{Address: 0x12008},
		JumpRegister{Register: 5},
		JumpAddressIfEqual{Register: 0, Address: 0x12008},
		JumpAddressIfGreaterThan{Register: 0, Address: 0x12008},
		JumpAddressIfLessThan{Register: 0, Address: 0x12008},
		JumpAddressIfLessThanOrEqual{Register: 0, Address: 0x12008},
		JumpAddressIfGreaterThanOrEqual{Register: 0, Address: 0x12008},
		JumpAddressIfZero{Address: 0x12008},
		JumpAddressIfNotZero{Address: 0x12008},
		JumpAddressIfCarry{Address: 0x12008},
		JumpAddressIfNotCarry{Address: 0x12008},
		JumpAddressIfDivideByZero{Address: 0x12008},
		JumpAddressIfNotDivideByZero{Address: 0x12008},
		PushRegister{Register: 5},
		PopRegister{Register: 5},
		CallAddress{Address: 0x12008},
		Return{},
		HaltAndCatchFire{},
		PollTime{High: 11, Low: 12},
		GetKeyState{Key: 13, Result: 14},
	}

	for _, op := range samples {
		encoded := Encode(op)
		decoded, err := Decode(encoded)
		assert(t, err == nil, "decode(%v) failed: %v", op, err)
		assert(t, decoded == op, "round trip mismatch: got %#v, want %#v", decoded, op)
		assert(t, Encode(decoded) == encoded, "re-encode mismatch for %#v", op)
	}
}

func TestDecodeUnknownTagIsInvalidOpcode(t *testing.T) {
	_, err := Decode(Instruction(0xFFFF000000000000))
	assert(t, errors.Is(err, ErrInvalidOpcode), "expected invalid opcode error, got %v", err)
}

// --- Property 2: IP advancement ---------------------------------------------

func TestIPAdvancesByInstructionSize(t *testing.T) {
	m := newTestMachine()
	m.Memory().WriteInstruction(EntryPoint, Encode(MoveRegisterImmediate{Register: 10, Immediate: 1}))
	before := m.Processor().IP()
	m.Tick()
	assert(t, m.Processor().IP() == before+InstructionSize, "IP did not advance by 8: got %d", m.Processor().IP())
}

// --- Property 3: register invariance ----------------------------------------

func TestArithmeticDoesNotTouchOtherRegisters(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 10)
	m.Processor().SetRegister(2, 20)
	m.Processor().SetRegister(50, 0xDEADBEEF)

	m.Memory().WriteInstruction(EntryPoint, Encode(AddTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2}))
	m.Tick()

	assert(t, m.Processor().Register(1) == 10, "lhs register mutated")
	assert(t, m.Processor().Register(2) == 20, "rhs register mutated")
	assert(t, m.Processor().Register(3) == 30, "target not written: %d", m.Processor().Register(3))
	assert(t, m.Processor().Register(50) == 0xDEADBEEF, "unrelated register mutated")
}

// --- Property 4: stack round trip -------------------------------------------

func TestStackRoundTrip(t *testing.T) {
	m := newTestMachine()
	values := []Word{1, 2, 3, 4, 5}
	for i, v := range values {
		m.Processor().SetRegister(Register(i), v)
	}

	sp0 := m.Processor().SP()
	for i := range values {
		assert(t, m.push(m.Processor().Register(Register(i))) == nil, "push failed")
	}
	for i := len(values) - 1; i >= 0; i-- {
		v, err := m.pop()
		assert(t, err == nil, "pop failed: %v", err)
		assert(t, v == values[i], "pop order mismatch at %d: got %d want %d", i, v, values[i])
	}
	assert(t, m.Processor().SP() == sp0, "stack pointer not restored: %d != %d", m.Processor().SP(), sp0)
}

func TestStackOverflowFailsFast(t *testing.T) {
	m := newTestMachine()
	m.Processor().setSP(StackStart + StackSize - WordSize)
	assert(t, m.push(1) == nil, "first push should fit")
	assert(t, m.push(1) == ErrStackOverflow, "expected overflow")
}

func TestStackUnderflowFailsFast(t *testing.T) {
	m := newTestMachine()
	_, err := m.pop()
	assert(t, err == ErrStackUnderflow, "expected underflow, got %v", err)
}

// --- Property 5: cycle counter monotonicity ---------------------------------

func TestCycleCounterMonotonic(t *testing.T) {
	m := newTestMachine()
	for i := 0; i < 10; i++ {
		m.Memory().WriteInstruction(m.Processor().IP(), Encode(MoveRegisterImmediate{Register: 0, Immediate: Word(i)}))
		before := m.Processor().Cycles()
		m.Tick()
		assert(t, m.Processor().Cycles() == before+1, "cycle counter did not increment by 1")
	}
}

// --- Concrete scenarios ------------------------------------------------------

func TestScenarioMoveImmediate(t *testing.T) {
	m := newTestMachine()
	ip := m.Processor().IP()
	m.Memory().WriteInstruction(ip, Encode(MoveRegisterImmediate{Register: 10, Immediate: 0xABCD1234}))
	m.Tick()
	assert(t, m.Processor().Register(10) == 0xABCD1234, "register 10 not set")
	assert(t, m.Processor().IP() == ip+InstructionSize, "IP not advanced")
}

func TestScenarioAddWithOverflow(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 0xFFFFFFFF)
	m.Processor().SetRegister(2, 1)
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(AddTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2}))
	m.Tick()
	assert(t, m.Processor().Register(3) == 0, "expected wraparound to 0")
	assert(t, m.Processor().Zero(), "expected zero flag")
	assert(t, m.Processor().Carry(), "expected carry flag")
}

func TestScenarioDivmodByZero(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 15)
	m.Processor().SetRegister(2, 0)
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(DivmodTargetModLhsRhs{Target: 9, Mod: 10, Lhs: 1, Rhs: 2}))
	m.Tick()
	assert(t, m.Processor().Register(9) == 0, "expected quotient 0")
	assert(t, m.Processor().Register(10) == 15, "expected remainder == lhs")
	assert(t, m.Processor().Zero(), "expected zero flag")
	assert(t, m.Processor().DivideByZero(), "expected divide-by-zero flag")
}

func TestScenarioCompareLessAndConditionalJump(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 10)
	m.Processor().SetRegister(2, 12)
	target := Address(EntryPoint + 0x100)

	m.Memory().WriteInstruction(m.Processor().IP(), Encode(CompareTargetLhsRhs{Target: 0, Lhs: 1, Rhs: 2}))
	m.Tick()
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(JumpAddressIfLessThan{Register: 0, Address: target}))
	m.Tick()

	assert(t, m.Processor().IP() == target, "expected jump to %x, got %x", target, m.Processor().IP())
}

func TestScenarioCallAndReturn(t *testing.T) {
	m := newTestMachine()
	const callee = EntryPoint + 0x100
	sp0 := m.Processor().SP()

	m.Memory().WriteInstruction(EntryPoint, Encode(CallAddress{Address: callee}))
	m.Memory().WriteInstruction(callee, Encode(MoveRegisterImmediate{Register: 0xAB, Immediate: 42}))
	m.Memory().WriteInstruction(callee+InstructionSize, Encode(Return{}))

	m.Tick()
	m.Tick()
	m.Tick()

	assert(t, m.Processor().Register(0xAB) == 42, "callee side effect missing")
	assert(t, m.Processor().IP() == EntryPoint+InstructionSize, "expected return to caller's next instruction")
	assert(t, m.Processor().SP() == sp0, "stack pointer not restored after return")
}

func TestScenarioMultiplyHighLow(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 0xFFFFFFFF)
	m.Processor().SetRegister(2, 5)
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(MultiplyHighLowLhsRhs{High: 9, Low: 10, Lhs: 1, Rhs: 2}))
	m.Tick()
	assert(t, m.Processor().Register(9) == 4, "expected high == 4, got %d", m.Processor().Register(9))
	assert(t, m.Processor().Register(10) == 0xFFFFFFFB, "expected low == 0xFFFFFFFB, got %#x", m.Processor().Register(10))
	assert(t, m.Processor().Carry(), "expected carry flag")
	assert(t, !m.Processor().Zero(), "expected zero flag clear")
}

func TestScenarioHalt(t *testing.T) {
	m := newTestMachine()
	ip := m.Processor().IP()
	m.Memory().WriteInstruction(ip, Encode(HaltAndCatchFire{}))
	m.Memory().WriteInstruction(ip+InstructionSize, Encode(MoveRegisterImmediate{Register: 0, Immediate: 1}))

	m.Tick()
	m.Tick()

	assert(t, m.Processor().IP() == ip, "IP must not advance past halt")
	assert(t, m.Processor().Register(0) == 0, "instruction after halt must never execute")
}

func TestMultiplyZeroFlagDependsOnLowHalfOnly(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 1<<31)
	m.Processor().SetRegister(2, 2)
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(MultiplyHighLowLhsRhs{High: 9, Low: 10, Lhs: 1, Rhs: 2}))
	m.Tick()
	assert(t, m.Processor().Register(10) == 0, "expected low half to be 0")
	assert(t, m.Processor().Register(9) == 1, "expected high half to be 1")
	assert(t, m.Processor().Zero(), "zero flag must follow the low half even though the high half is nonzero")
}

func TestShiftByAtLeast32ZerosResultAndSetsCarryIffNonzero(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, 0x1)
	m.Processor().SetRegister(2, 40)
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(LeftShiftTargetLhsRhs{Target: 3, Lhs: 1, Rhs: 2}))
	m.Tick()
	assert(t, m.Processor().Register(3) == 0, "expected shifted-out result of 0")
	assert(t, m.Processor().Carry(), "expected carry since original value was nonzero")
}

func TestROMLoadRejectsUnalignedLength(t *testing.T) {
	m := newTestMachine()
	err := m.LoadROM([]byte{1, 2, 3})
	assert(t, errors.Is(err, ErrRomSizeNotAligned), "expected rom size error, got %v", err)
}

func TestROMRoundTripsThroughEncodeLoadRun(t *testing.T) {
	rom := EncodeROM([]Opcode{
		MoveRegisterImmediate{Register: 5, Immediate: 7},
		HaltAndCatchFire{},
	})
	m := newTestMachine()
	assert(t, m.LoadROM(rom) == nil, "load failed")
	m.Run()
	assert(t, m.Processor().Register(5) == 7, "expected register 5 == 7 after run")
	assert(t, m.Halted(), "expected machine halted")
}

func TestCatalogCoversEveryRegisteredOpcode(t *testing.T) {
	catalog := BuildCatalog()
	assert(t, len(catalog.Opcodes) == len(schemaByTag), "catalog opcode count mismatch: got %d want %d", len(catalog.Opcodes), len(schemaByTag))
	assert(t, catalog.Constants.NumRegisters == NumRegisters, "constants mismatch")
}

func TestOutOfRangeAddressLatchesSegmentationFault(t *testing.T) {
	m := newTestMachine()
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(MoveRegisterAddress{Register: 0, Address: 0xFFFFFFF0}))
	m.Tick()
	assert(t, m.Err() == ErrSegmentationFault, "expected segmentation fault, got %v", m.Err())
	assert(t, m.Halted(), "expected machine to be halted after a bad access")

	before := m.Processor().IP()
	m.Tick()
	assert(t, m.Processor().IP() == before, "further ticks after a fault must be no-ops")
}

func TestOutOfRangePointerRegisterLatchesSegmentationFault(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(1, Word(0xFFFFFFFF))
	m.Memory().WriteInstruction(m.Processor().IP(), Encode(MoveTargetPointer{Target: 0, Pointer: 1}))
	m.Tick()
	assert(t, m.Err() == ErrSegmentationFault, "expected segmentation fault, got %v", m.Err())
}

func TestMisalignedStackPointerFailsFast(t *testing.T) {
	m := newTestMachine()
	m.Processor().SetRegister(StackPointerRegister, Word(StackStart)+1)
	_, err := m.pop()
	assert(t, err == ErrStackMisaligned, "expected misaligned stack error on pop, got %v", err)

	err = m.push(1)
	assert(t, err == ErrStackMisaligned, "expected misaligned stack error on push, got %v", err)
}

func TestRandomOperandsRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		op := AddTargetSourceImmediate{
			Target:    Register(rnd.Intn(256)),
			Source:    Register(rnd.Intn(256)),
			Immediate: Word(rnd.Uint32()),
		}
		decoded, err := Decode(Encode(op))
		assert(t, err == nil, "decode failed: %v", err)
		assert(t, decoded == op, "round trip mismatch for iteration %d", i)
	}
}
