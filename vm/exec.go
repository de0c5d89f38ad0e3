package vm

// handler executes one decoded opcode and returns the instruction pointer
// the processor should hold after it, or an error if the instruction can't
// complete (stack over/underflow). Ordinary instructions return ip+8;
// control flow instructions compute their own target. A dispatch table
// keyed by Tag keeps each handler small instead of one giant switch.
type handler func(m *Machine, ip Address, op Opcode) (Address, error)

var execTable = map[Tag]handler{}

func registerExec(tag Tag, h handler) { execTable[tag] = h }

func next(ip Address) Address { return ip + InstructionSize }

func boolWord(b bool) Word {
	if b {
		return 1
	}
	return 0
}

func init() {
	registerExec(TagMoveRegisterImmediate, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MoveRegisterImmediate)
		m.proc.SetRegister(v.Register, v.Immediate)
		return next(ip), nil
	})
	registerExec(TagMoveRegisterAddress, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MoveRegisterAddress)
		m.proc.SetRegister(v.Register, m.mem.ReadWord(v.Address))
		return next(ip), nil
	})
	registerExec(TagMoveTargetSource, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MoveTargetSource)
		m.proc.SetRegister(v.Target, m.proc.Register(v.Source))
		return next(ip), nil
	})
	registerExec(TagMoveAddressRegister, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MoveAddressRegister)
		m.mem.WriteWord(v.Address, m.proc.Register(v.Register))
		return next(ip), nil
	})
	registerExec(TagMoveTargetPointer, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MoveTargetPointer)
		ptr := Address(m.proc.Register(v.Pointer))
		m.proc.SetRegister(v.Target, m.mem.ReadWord(ptr))
		return next(ip), nil
	})
	registerExec(TagMovePointerSource, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MovePointerSource)
		ptr := Address(m.proc.Register(v.Pointer))
		m.mem.WriteWord(ptr, m.proc.Register(v.Source))
		return next(ip), nil
	})

	registerExec(TagAddTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(AddTargetLhsRhs)
		execAdd(m, v.Target, m.proc.Register(v.Lhs), m.proc.Register(v.Rhs))
		return next(ip), nil
	})
	registerExec(TagAddTargetSourceImmediate, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(AddTargetSourceImmediate)
		execAdd(m, v.Target, m.proc.Register(v.Source), v.Immediate)
		return next(ip), nil
	})
	registerExec(TagSubtractTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(SubtractTargetLhsRhs)
		execSubtract(m, v.Target, m.proc.Register(v.Lhs), m.proc.Register(v.Rhs))
		return next(ip), nil
	})
	registerExec(TagSubtractTargetSourceImmediate, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(SubtractTargetSourceImmediate)
		execSubtract(m, v.Target, m.proc.Register(v.Source), v.Immediate)
		return next(ip), nil
	})
	registerExec(TagSubtractWithCarryTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(SubtractWithCarryTargetLhsRhs)
		lhs, rhs := int64(m.proc.Register(v.Lhs)), int64(m.proc.Register(v.Rhs))
		if m.proc.Carry() {
			rhs++
		}
		diff := lhs - rhs
		result := Word(diff)
		m.proc.SetRegister(v.Target, result)
		m.proc.setZeroCarry(result == 0, diff < 0)
		return next(ip), nil
	})
	registerExec(TagMultiplyHighLowLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(MultiplyHighLowLhsRhs)
		lhs, rhs := m.proc.Register(v.Lhs), m.proc.Register(v.Rhs)
		product := uint64(lhs) * uint64(rhs)
		high, low := Word(product>>32), Word(product)
		m.proc.SetRegister(v.High, high)
		m.proc.SetRegister(v.Low, low)
		m.proc.setZeroCarry(low == 0, high != 0)
		return next(ip), nil
	})
	registerExec(TagDivmodTargetModLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(DivmodTargetModLhsRhs)
		lhs, rhs := m.proc.Register(v.Lhs), m.proc.Register(v.Rhs)
		if rhs == 0 {
			m.proc.SetRegister(v.Target, 0)
			m.proc.SetRegister(v.Mod, lhs)
			m.proc.setZeroDivideByZero(true, true)
			return next(ip), nil
		}
		quotient, remainder := lhs/rhs, lhs%rhs
		m.proc.SetRegister(v.Target, quotient)
		m.proc.SetRegister(v.Mod, remainder)
		m.proc.setZeroDivideByZero(quotient == 0, false)
		return next(ip), nil
	})

	registerExec(TagAndTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(AndTargetLhsRhs)
		execBitwise(m, v.Target, m.proc.Register(v.Lhs)&m.proc.Register(v.Rhs))
		return next(ip), nil
	})
	registerExec(TagOrTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(OrTargetLhsRhs)
		execBitwise(m, v.Target, m.proc.Register(v.Lhs)|m.proc.Register(v.Rhs))
		return next(ip), nil
	})
	registerExec(TagXorTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(XorTargetLhsRhs)
		execBitwise(m, v.Target, m.proc.Register(v.Lhs)^m.proc.Register(v.Rhs))
		return next(ip), nil
	})
	registerExec(TagNotTargetSource, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(NotTargetSource)
		execBitwise(m, v.Target, ^m.proc.Register(v.Source))
		return next(ip), nil
	})
	registerExec(TagLeftShiftTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(LeftShiftTargetLhsRhs)
		result, carry := leftShift(m.proc.Register(v.Lhs), m.proc.Register(v.Rhs))
		m.proc.SetRegister(v.Target, result)
		m.proc.setZeroCarry(result == 0, carry)
		return next(ip), nil
	})
	registerExec(TagRightShiftTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(RightShiftTargetLhsRhs)
		result, carry := rightShift(m.proc.Register(v.Lhs), m.proc.Register(v.Rhs))
		m.proc.SetRegister(v.Target, result)
		m.proc.setZeroCarry(result == 0, carry)
		return next(ip), nil
	})

	registerExec(TagCompareTargetLhsRhs, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(CompareTargetLhsRhs)
		lhs, rhs := m.proc.Register(v.Lhs), m.proc.Register(v.Rhs)
		var result Word
		switch {
		case lhs > rhs:
			result = 1
		case lhs == rhs:
			result = 0
		default:
			result = Word(0xFFFFFFFF)
		}
		m.proc.SetRegister(v.Target, result)
		m.proc.setZero(lhs == rhs)
		return next(ip), nil
	})

	registerExec(TagJumpAddress, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return op.(JumpAddress).Address, nil
	})
	registerExec(TagJumpRegister, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return Address(m.proc.Register(op.(JumpRegister).Register)), nil
	})

	registerExec(TagJumpAddressIfEqual, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(JumpAddressIfEqual)
		return condJumpIP(ip, v.Address, m.proc.Register(v.Register) == 0), nil
	})
	registerExec(TagJumpAddressIfGreaterThan, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(JumpAddressIfGreaterThan)
		return condJumpIP(ip, v.Address, m.proc.Register(v.Register) == 1), nil
	})
	registerExec(TagJumpAddressIfLessThan, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(JumpAddressIfLessThan)
		return condJumpIP(ip, v.Address, m.proc.Register(v.Register) == Word(0xFFFFFFFF)), nil
	})
	registerExec(TagJumpAddressIfLessThanOrEqual, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(JumpAddressIfLessThanOrEqual)
		r := m.proc.Register(v.Register)
		return condJumpIP(ip, v.Address, r == 0 || r == Word(0xFFFFFFFF)), nil
	})
	registerExec(TagJumpAddressIfGreaterThanOrEqual, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(JumpAddressIfGreaterThanOrEqual)
		r := m.proc.Register(v.Register)
		return condJumpIP(ip, v.Address, r == 0 || r == 1), nil
	})
	registerExec(TagJumpAddressIfZero, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfZero).Address, m.proc.Zero()), nil
	})
	registerExec(TagJumpAddressIfNotZero, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfNotZero).Address, !m.proc.Zero()), nil
	})
	registerExec(TagJumpAddressIfCarry, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfCarry).Address, m.proc.Carry()), nil
	})
	registerExec(TagJumpAddressIfNotCarry, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfNotCarry).Address, !m.proc.Carry()), nil
	})
	registerExec(TagJumpAddressIfDivideByZero, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfDivideByZero).Address, m.proc.DivideByZero()), nil
	})
	registerExec(TagJumpAddressIfNotDivideByZero, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return condJumpIP(ip, op.(JumpAddressIfNotDivideByZero).Address, !m.proc.DivideByZero()), nil
	})

	registerExec(TagPushRegister, func(m *Machine, ip Address, op Opcode) (Address, error) {
		if err := m.push(m.proc.Register(op.(PushRegister).Register)); err != nil {
			return ip, err
		}
		return next(ip), nil
	})
	registerExec(TagPopRegister, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v, err := m.pop()
		if err != nil {
			return ip, err
		}
		m.proc.SetRegister(op.(PopRegister).Register, v)
		return next(ip), nil
	})
	registerExec(TagCallAddress, func(m *Machine, ip Address, op Opcode) (Address, error) {
		if err := m.push(Word(next(ip))); err != nil {
			return ip, err
		}
		return op.(CallAddress).Address, nil
	})
	registerExec(TagReturn, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v, err := m.pop()
		if err != nil {
			return ip, err
		}
		return Address(v), nil
	})

	registerExec(TagHaltAndCatchFire, func(m *Machine, ip Address, op Opcode) (Address, error) {
		return ip, nil
	})
	registerExec(TagPollTime, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(PollTime)
		ms := m.timer()
		m.proc.SetRegister(v.High, Word(ms>>32))
		m.proc.SetRegister(v.Low, Word(ms))
		return next(ip), nil
	})
	registerExec(TagGetKeyState, func(m *Machine, ip Address, op Opcode) (Address, error) {
		v := op.(GetKeyState)
		pressed := m.keys(uint32(m.proc.Register(v.Key)))
		m.proc.SetRegister(v.Result, boolWord(pressed))
		return next(ip), nil
	})
}

// execAdd implements the shared Add semantics for both the register/register
// and register/immediate variants.
func execAdd(m *Machine, target Register, lhs, rhs Word) {
	sum := uint64(lhs) + uint64(rhs)
	result := Word(sum)
	m.proc.SetRegister(target, result)
	m.proc.setZeroCarry(result == 0, sum > 0xFFFFFFFF)
}

// execSubtract implements the shared Subtract semantics for both the
// register/register and register/immediate variants.
func execSubtract(m *Machine, target Register, lhs, rhs Word) {
	result := lhs - rhs
	m.proc.SetRegister(target, result)
	m.proc.setZeroCarry(result == 0, lhs < rhs)
}

// execBitwise writes result to target and updates only the Zero flag, the
// shared shape of And/Or/Xor/Not.
func execBitwise(m *Machine, target Register, result Word) {
	m.proc.SetRegister(target, result)
	m.proc.setZero(result == 0)
}

func leftShift(lhs, rhs Word) (result Word, carry bool) {
	if rhs >= 32 {
		return 0, lhs != 0
	}
	product := uint64(lhs) << rhs
	return Word(product), product > 0xFFFFFFFF
}

func rightShift(lhs, rhs Word) (result Word, carry bool) {
	if rhs >= 32 {
		return 0, lhs != 0
	}
	if rhs == 0 {
		return lhs, false
	}
	mask := Word(1)<<rhs - 1
	return lhs >> rhs, lhs&mask != 0
}

func condJumpIP(ip, target Address, condition bool) Address {
	if condition {
		return target
	}
	return next(ip)
}
