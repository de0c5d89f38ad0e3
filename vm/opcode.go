package vm

import "fmt"

// Tag is the opcode discriminant stored in an Instruction's high 16 bits —
// the HalfWord split out of the wire encoding.
type Tag = HalfWord

// Opcode is implemented by every instruction variant. The set is closed:
// new variants are added here and registered in the schema table in init(),
// which is the single source of truth both encode and decode consult.
type Opcode interface {
	Tag() Tag
}

// Tag assignments. TagInvalid (the zero value) is deliberately unassigned:
// zero-initialized memory decodes as an unknown tag rather than aliasing a
// real opcode.
const (
	TagInvalid Tag = iota

	TagMoveRegisterImmediate
	TagMoveRegisterAddress
	TagMoveTargetSource
	TagMoveAddressRegister
	TagMoveTargetPointer
	TagMovePointerSource

	TagAddTargetLhsRhs
	TagAddTargetSourceImmediate
	TagSubtractTargetLhsRhs
	TagSubtractTargetSourceImmediate
	TagSubtractWithCarryTargetLhsRhs
	TagMultiplyHighLowLhsRhs
	TagDivmodTargetModLhsRhs

	TagAndTargetLhsRhs
	TagOrTargetLhsRhs
	TagXorTargetLhsRhs
	TagNotTargetSource
	TagLeftShiftTargetLhsRhs
	TagRightShiftTargetLhsRhs

	TagCompareTargetLhsRhs

	TagJumpAddress
	TagJumpRegister
	TagJumpAddressIfEqual
	TagJumpAddressIfGreaterThan
	TagJumpAddressIfLessThan
	TagJumpAddressIfLessThanOrEqual
	TagJumpAddressIfGreaterThanOrEqual
	TagJumpAddressIfZero
	TagJumpAddressIfNotZero
	TagJumpAddressIfCarry
	TagJumpAddressIfNotCarry
	TagJumpAddressIfDivideByZero
	TagJumpAddressIfNotDivideByZero

	TagPushRegister
	TagPopRegister
	TagCallAddress
	TagReturn

	TagHaltAndCatchFire
	TagPollTime
	TagGetKeyState
)

// FieldKind classifies an operand field for catalog export.
type FieldKind string

const (
	FieldKindRegister  FieldKind = "register"
	FieldKindImmediate FieldKind = "immediate"
	FieldKindAddress   FieldKind = "address"
)

// FieldSchema describes one packed operand field.
type FieldSchema struct {
	Name       string    `json:"name"`
	Kind       FieldKind `json:"kind"`
	OffsetBits int       `json:"offset_bits"`
	WidthBits  int       `json:"width_bits"`
}

// opcodeSchema is the per-tag entry in the dispatch table: it knows how to
// pack a concrete Opcode's fields into the 48-bit operand payload and how to
// unpack that payload back into the same concrete type.
type opcodeSchema struct {
	name   string
	tag    Tag
	fields []FieldSchema
	encode func(Opcode) uint64
	decode func(uint64) Opcode
}

var schemaByTag = map[Tag]*opcodeSchema{}
var schemaByName = map[string]*opcodeSchema{}

func register(s *opcodeSchema) {
	offset := 48
	for i := range s.fields {
		offset -= s.fields[i].WidthBits
		s.fields[i].OffsetBits = offset
	}
	schemaByTag[s.tag] = s
	schemaByName[s.name] = s
}

// packedField is one value/width pair consumed by packOperands, in
// declaration order (most significant first).
type packedField struct {
	val   uint64
	width int
}

func reg(r Register) packedField  { return packedField{uint64(r), 8} }
func word(w Word) packedField     { return packedField{uint64(w), 32} }
func addr(a Address) packedField  { return packedField{uint64(a), 32} }

// packOperands lays out fields left-to-right starting at bit 47 of the
// 48-bit operand payload; any bits past the declared fields stay zero.
func packOperands(fields ...packedField) uint64 {
	shift := 48
	var out uint64
	for _, f := range fields {
		shift -= f.width
		mask := uint64(1)<<uint(f.width) - 1
		out |= (f.val & mask) << uint(shift)
	}
	return out
}

// unpackOperands is the inverse of packOperands: given the widths in
// declaration order, it returns the extracted values in the same order.
func unpackOperands(operands uint64, widths ...int) []uint64 {
	shift := 48
	out := make([]uint64, len(widths))
	for i, w := range widths {
		shift -= w
		mask := uint64(1)<<uint(w) - 1
		out[i] = (operands >> uint(shift)) & mask
	}
	return out
}

func fieldSchema(name string, kind FieldKind, width int) FieldSchema {
	return FieldSchema{Name: name, Kind: kind, WidthBits: width}
}

// Data movement variants.

type MoveRegisterImmediate struct {
	Register  Register
	Immediate Word
}

func (MoveRegisterImmediate) Tag() Tag { return TagMoveRegisterImmediate }

// MoveRegisterAddress loads Register from memory at Address.
type MoveRegisterAddress struct {
	Register Register
	Address  Address
}

func (MoveRegisterAddress) Tag() Tag { return TagMoveRegisterAddress }

type MoveTargetSource struct {
	Target Register
	Source Register
}

func (MoveTargetSource) Tag() Tag { return TagMoveTargetSource }

// MoveAddressRegister stores Register into memory at Address.
type MoveAddressRegister struct {
	Address  Address
	Register Register
}

func (MoveAddressRegister) Tag() Tag { return TagMoveAddressRegister }

// MoveTargetPointer loads Target from the address held in register Pointer.
type MoveTargetPointer struct {
	Target  Register
	Pointer Register
}

func (MoveTargetPointer) Tag() Tag { return TagMoveTargetPointer }

// MovePointerSource stores Source into the address held in register Pointer.
type MovePointerSource struct {
	Pointer Register
	Source  Register
}

func (MovePointerSource) Tag() Tag { return TagMovePointerSource }

// Arithmetic variants.

type AddTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (AddTargetLhsRhs) Tag() Tag { return TagAddTargetLhsRhs }

type AddTargetSourceImmediate struct {
	Target    Register
	Source    Register
	Immediate Word
}

func (AddTargetSourceImmediate) Tag() Tag { return TagAddTargetSourceImmediate }

type SubtractTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (SubtractTargetLhsRhs) Tag() Tag { return TagSubtractTargetLhsRhs }

type SubtractTargetSourceImmediate struct {
	Target    Register
	Source    Register
	Immediate Word
}

func (SubtractTargetSourceImmediate) Tag() Tag { return TagSubtractTargetSourceImmediate }

type SubtractWithCarryTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (SubtractWithCarryTargetLhsRhs) Tag() Tag { return TagSubtractWithCarryTargetLhsRhs }

// MultiplyHighLowLhsRhs writes the 64-bit product of Lhs*Rhs split across
// High:Low.
type MultiplyHighLowLhsRhs struct{ High, Low, Lhs, Rhs Register }

func (MultiplyHighLowLhsRhs) Tag() Tag { return TagMultiplyHighLowLhsRhs }

// DivmodTargetModLhsRhs writes Lhs/Rhs into Target and Lhs%Rhs into Mod.
type DivmodTargetModLhsRhs struct{ Target, Mod, Lhs, Rhs Register }

func (DivmodTargetModLhsRhs) Tag() Tag { return TagDivmodTargetModLhsRhs }

// Bitwise variants.

type AndTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (AndTargetLhsRhs) Tag() Tag { return TagAndTargetLhsRhs }

type OrTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (OrTargetLhsRhs) Tag() Tag { return TagOrTargetLhsRhs }

type XorTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (XorTargetLhsRhs) Tag() Tag { return TagXorTargetLhsRhs }

type NotTargetSource struct{ Target, Source Register }

func (NotTargetSource) Tag() Tag { return TagNotTargetSource }

type LeftShiftTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (LeftShiftTargetLhsRhs) Tag() Tag { return TagLeftShiftTargetLhsRhs }

type RightShiftTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (RightShiftTargetLhsRhs) Tag() Tag { return TagRightShiftTargetLhsRhs }

// Compare.

// CompareTargetLhsRhs writes 1/0/Word(MAX) into Target for Lhs>Rhs,
// Lhs==Rhs, Lhs<Rhs respectively.
type CompareTargetLhsRhs struct{ Target, Lhs, Rhs Register }

func (CompareTargetLhsRhs) Tag() Tag { return TagCompareTargetLhsRhs }

// Control flow.

type JumpAddress struct{ Address Address }

func (JumpAddress) Tag() Tag { return TagJumpAddress }

type JumpRegister struct{ Register Register }

func (JumpRegister) Tag() Tag { return TagJumpRegister }

type JumpAddressIfEqual struct {
	Register Register
	Address  Address
}

func (JumpAddressIfEqual) Tag() Tag { return TagJumpAddressIfEqual }

type JumpAddressIfGreaterThan struct {
	Register Register
	Address  Address
}

func (JumpAddressIfGreaterThan) Tag() Tag { return TagJumpAddressIfGreaterThan }

type JumpAddressIfLessThan struct {
	Register Register
	Address  Address
}

func (JumpAddressIfLessThan) Tag() Tag { return TagJumpAddressIfLessThan }

type JumpAddressIfLessThanOrEqual struct {
	Register Register
	Address  Address
}

func (JumpAddressIfLessThanOrEqual) Tag() Tag { return TagJumpAddressIfLessThanOrEqual }

type JumpAddressIfGreaterThanOrEqual struct {
	Register Register
	Address  Address
}

func (JumpAddressIfGreaterThanOrEqual) Tag() Tag { return TagJumpAddressIfGreaterThanOrEqual }

type JumpAddressIfZero struct{ Address Address }

func (JumpAddressIfZero) Tag() Tag { return TagJumpAddressIfZero }

type JumpAddressIfNotZero struct{ Address Address }

func (JumpAddressIfNotZero) Tag() Tag { return TagJumpAddressIfNotZero }

type JumpAddressIfCarry struct{ Address Address }

func (JumpAddressIfCarry) Tag() Tag { return TagJumpAddressIfCarry }

type JumpAddressIfNotCarry struct{ Address Address }

func (JumpAddressIfNotCarry) Tag() Tag { return TagJumpAddressIfNotCarry }

type JumpAddressIfDivideByZero struct{ Address Address }

func (JumpAddressIfDivideByZero) Tag() Tag { return TagJumpAddressIfDivideByZero }

type JumpAddressIfNotDivideByZero struct{ Address Address }

func (JumpAddressIfNotDivideByZero) Tag() Tag { return TagJumpAddressIfNotDivideByZero }

// Stack / subroutine.

type PushRegister struct{ Register Register }

func (PushRegister) Tag() Tag { return TagPushRegister }

type PopRegister struct{ Register Register }

func (PopRegister) Tag() Tag { return TagPopRegister }

type CallAddress struct{ Address Address }

func (CallAddress) Tag() Tag { return TagCallAddress }

type Return struct{}

func (Return) Tag() Tag { return TagReturn }

// System / peripheral.

type HaltAndCatchFire struct{}

func (HaltAndCatchFire) Tag() Tag { return TagHaltAndCatchFire }

// PollTime stores the host millisecond clock's high/low 32 bits into High
// and Low.
type PollTime struct{ High, Low Register }

func (PollTime) Tag() Tag { return TagPollTime }

// GetKeyState stores 1/0 into Result depending on whether the key code held
// in Key is currently pressed.
type GetKeyState struct{ Key, Result Register }

func (GetKeyState) Tag() Tag { return TagGetKeyState }

func init() {
	reg8 := func(name string) FieldSchema { return fieldSchema(name, FieldKindRegister, 8) }
	imm32 := func(name string) FieldSchema { return fieldSchema(name, FieldKindImmediate, 32) }
	addr32 := func(name string) FieldSchema { return fieldSchema(name, FieldKindAddress, 32) }

	register(&opcodeSchema{
		name: "MoveRegisterImmediate", tag: TagMoveRegisterImmediate,
		fields: []FieldSchema{reg8("register"), imm32("immediate")},
		encode: func(o Opcode) uint64 {
			v := o.(MoveRegisterImmediate)
			return packOperands(reg(v.Register), word(v.Immediate))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 32)
			return MoveRegisterImmediate{Register(v[0]), Word(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "MoveRegisterAddress", tag: TagMoveRegisterAddress,
		fields: []FieldSchema{reg8("register"), addr32("address")},
		encode: func(o Opcode) uint64 {
			v := o.(MoveRegisterAddress)
			return packOperands(reg(v.Register), addr(v.Address))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 32)
			return MoveRegisterAddress{Register(v[0]), Address(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "MoveTargetSource", tag: TagMoveTargetSource,
		fields: []FieldSchema{reg8("target"), reg8("source")},
		encode: func(o Opcode) uint64 {
			v := o.(MoveTargetSource)
			return packOperands(reg(v.Target), reg(v.Source))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return MoveTargetSource{Register(v[0]), Register(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "MoveAddressRegister", tag: TagMoveAddressRegister,
		fields: []FieldSchema{addr32("address"), reg8("register")},
		encode: func(o Opcode) uint64 {
			v := o.(MoveAddressRegister)
			return packOperands(addr(v.Address), reg(v.Register))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 32, 8)
			return MoveAddressRegister{Address(v[0]), Register(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "MoveTargetPointer", tag: TagMoveTargetPointer,
		fields: []FieldSchema{reg8("target"), reg8("pointer")},
		encode: func(o Opcode) uint64 {
			v := o.(MoveTargetPointer)
			return packOperands(reg(v.Target), reg(v.Pointer))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return MoveTargetPointer{Register(v[0]), Register(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "MovePointerSource", tag: TagMovePointerSource,
		fields: []FieldSchema{reg8("pointer"), reg8("source")},
		encode: func(o Opcode) uint64 {
			v := o.(MovePointerSource)
			return packOperands(reg(v.Pointer), reg(v.Source))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return MovePointerSource{Register(v[0]), Register(v[1])}
		},
	})

	reg3 := func(a, b, c string) []FieldSchema { return []FieldSchema{reg8(a), reg8(b), reg8(c)} }

	register(&opcodeSchema{
		name: "AddTargetLhsRhs", tag: TagAddTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(AddTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return AddTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "AddTargetSourceImmediate", tag: TagAddTargetSourceImmediate,
		fields: []FieldSchema{reg8("target"), reg8("source"), imm32("immediate")},
		encode: func(o Opcode) uint64 {
			v := o.(AddTargetSourceImmediate)
			return packOperands(reg(v.Target), reg(v.Source), word(v.Immediate))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 32)
			return AddTargetSourceImmediate{Register(v[0]), Register(v[1]), Word(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "SubtractTargetLhsRhs", tag: TagSubtractTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(SubtractTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return SubtractTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "SubtractTargetSourceImmediate", tag: TagSubtractTargetSourceImmediate,
		fields: []FieldSchema{reg8("target"), reg8("source"), imm32("immediate")},
		encode: func(o Opcode) uint64 {
			v := o.(SubtractTargetSourceImmediate)
			return packOperands(reg(v.Target), reg(v.Source), word(v.Immediate))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 32)
			return SubtractTargetSourceImmediate{Register(v[0]), Register(v[1]), Word(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "SubtractWithCarryTargetLhsRhs", tag: TagSubtractWithCarryTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(SubtractWithCarryTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return SubtractWithCarryTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "MultiplyHighLowLhsRhs", tag: TagMultiplyHighLowLhsRhs,
		fields: []FieldSchema{reg8("high"), reg8("low"), reg8("lhs"), reg8("rhs")},
		encode: func(o Opcode) uint64 {
			v := o.(MultiplyHighLowLhsRhs)
			return packOperands(reg(v.High), reg(v.Low), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8, 8)
			return MultiplyHighLowLhsRhs{Register(v[0]), Register(v[1]), Register(v[2]), Register(v[3])}
		},
	})
	register(&opcodeSchema{
		name: "DivmodTargetModLhsRhs", tag: TagDivmodTargetModLhsRhs,
		fields: []FieldSchema{reg8("target"), reg8("mod"), reg8("lhs"), reg8("rhs")},
		encode: func(o Opcode) uint64 {
			v := o.(DivmodTargetModLhsRhs)
			return packOperands(reg(v.Target), reg(v.Mod), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8, 8)
			return DivmodTargetModLhsRhs{Register(v[0]), Register(v[1]), Register(v[2]), Register(v[3])}
		},
	})

	register(&opcodeSchema{
		name: "AndTargetLhsRhs", tag: TagAndTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(AndTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return AndTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "OrTargetLhsRhs", tag: TagOrTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(OrTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return OrTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "XorTargetLhsRhs", tag: TagXorTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(XorTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return XorTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "NotTargetSource", tag: TagNotTargetSource,
		fields: []FieldSchema{reg8("target"), reg8("source")},
		encode: func(o Opcode) uint64 {
			v := o.(NotTargetSource)
			return packOperands(reg(v.Target), reg(v.Source))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return NotTargetSource{Register(v[0]), Register(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "LeftShiftTargetLhsRhs", tag: TagLeftShiftTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(LeftShiftTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return LeftShiftTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})
	register(&opcodeSchema{
		name: "RightShiftTargetLhsRhs", tag: TagRightShiftTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(RightShiftTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return RightShiftTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})

	register(&opcodeSchema{
		name: "CompareTargetLhsRhs", tag: TagCompareTargetLhsRhs,
		fields: reg3("target", "lhs", "rhs"),
		encode: func(o Opcode) uint64 {
			v := o.(CompareTargetLhsRhs)
			return packOperands(reg(v.Target), reg(v.Lhs), reg(v.Rhs))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8, 8)
			return CompareTargetLhsRhs{Register(v[0]), Register(v[1]), Register(v[2])}
		},
	})

	register(&opcodeSchema{
		name: "JumpAddress", tag: TagJumpAddress,
		fields: []FieldSchema{addr32("address")},
		encode: func(o Opcode) uint64 { return packOperands(addr(o.(JumpAddress).Address)) },
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 32)
			return JumpAddress{Address(v[0])}
		},
	})
	register(&opcodeSchema{
		name: "JumpRegister", tag: TagJumpRegister,
		fields: []FieldSchema{reg8("register")},
		encode: func(o Opcode) uint64 { return packOperands(reg(o.(JumpRegister).Register)) },
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8)
			return JumpRegister{Register(v[0])}
		},
	})

	condJump := func(name string, tag Tag, build func(Register, Address) Opcode, get func(Opcode) (Register, Address)) {
		register(&opcodeSchema{
			name: name, tag: tag,
			fields: []FieldSchema{reg8("register"), addr32("address")},
			encode: func(o Opcode) uint64 {
				r, a := get(o)
				return packOperands(reg(r), addr(a))
			},
			decode: func(operands uint64) Opcode {
				v := unpackOperands(operands, 8, 32)
				return build(Register(v[0]), Address(v[1]))
			},
		})
	}
	condJump("JumpAddressIfEqual", TagJumpAddressIfEqual,
		func(r Register, a Address) Opcode { return JumpAddressIfEqual{r, a} },
		func(o Opcode) (Register, Address) { v := o.(JumpAddressIfEqual); return v.Register, v.Address })
	condJump("JumpAddressIfGreaterThan", TagJumpAddressIfGreaterThan,
		func(r Register, a Address) Opcode { return JumpAddressIfGreaterThan{r, a} },
		func(o Opcode) (Register, Address) { v := o.(JumpAddressIfGreaterThan); return v.Register, v.Address })
	condJump("JumpAddressIfLessThan", TagJumpAddressIfLessThan,
		func(r Register, a Address) Opcode { return JumpAddressIfLessThan{r, a} },
		func(o Opcode) (Register, Address) { v := o.(JumpAddressIfLessThan); return v.Register, v.Address })
	condJump("JumpAddressIfLessThanOrEqual", TagJumpAddressIfLessThanOrEqual,
		func(r Register, a Address) Opcode { return JumpAddressIfLessThanOrEqual{r, a} },
		func(o Opcode) (Register, Address) { v := o.(JumpAddressIfLessThanOrEqual); return v.Register, v.Address })
	condJump("JumpAddressIfGreaterThanOrEqual", TagJumpAddressIfGreaterThanOrEqual,
		func(r Register, a Address) Opcode { return JumpAddressIfGreaterThanOrEqual{r, a} },
		func(o Opcode) (Register, Address) { v := o.(JumpAddressIfGreaterThanOrEqual); return v.Register, v.Address })

	flagJump := func(name string, tag Tag, build func(Address) Opcode, get func(Opcode) Address) {
		register(&opcodeSchema{
			name: name, tag: tag,
			fields: []FieldSchema{addr32("address")},
			encode: func(o Opcode) uint64 { return packOperands(addr(get(o))) },
			decode: func(operands uint64) Opcode {
				v := unpackOperands(operands, 32)
				return build(Address(v[0]))
			},
		})
	}
	flagJump("JumpAddressIfZero", TagJumpAddressIfZero,
		func(a Address) Opcode { return JumpAddressIfZero{a} },
		func(o Opcode) Address { return o.(JumpAddressIfZero).Address })
	flagJump("JumpAddressIfNotZero", TagJumpAddressIfNotZero,
		func(a Address) Opcode { return JumpAddressIfNotZero{a} },
		func(o Opcode) Address { return o.(JumpAddressIfNotZero).Address })
	flagJump("JumpAddressIfCarry", TagJumpAddressIfCarry,
		func(a Address) Opcode { return JumpAddressIfCarry{a} },
		func(o Opcode) Address { return o.(JumpAddressIfCarry).Address })
	flagJump("JumpAddressIfNotCarry", TagJumpAddressIfNotCarry,
		func(a Address) Opcode { return JumpAddressIfNotCarry{a} },
		func(o Opcode) Address { return o.(JumpAddressIfNotCarry).Address })
	flagJump("JumpAddressIfDivideByZero", TagJumpAddressIfDivideByZero,
		func(a Address) Opcode { return JumpAddressIfDivideByZero{a} },
		func(o Opcode) Address { return o.(JumpAddressIfDivideByZero).Address })
	flagJump("JumpAddressIfNotDivideByZero", TagJumpAddressIfNotDivideByZero,
		func(a Address) Opcode { return JumpAddressIfNotDivideByZero{a} },
		func(o Opcode) Address { return o.(JumpAddressIfNotDivideByZero).Address })

	register(&opcodeSchema{
		name: "PushRegister", tag: TagPushRegister,
		fields: []FieldSchema{reg8("register")},
		encode: func(o Opcode) uint64 { return packOperands(reg(o.(PushRegister).Register)) },
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8)
			return PushRegister{Register(v[0])}
		},
	})
	register(&opcodeSchema{
		name: "PopRegister", tag: TagPopRegister,
		fields: []FieldSchema{reg8("register")},
		encode: func(o Opcode) uint64 { return packOperands(reg(o.(PopRegister).Register)) },
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8)
			return PopRegister{Register(v[0])}
		},
	})
	register(&opcodeSchema{
		name: "CallAddress", tag: TagCallAddress,
		fields: []FieldSchema{addr32("address")},
		encode: func(o Opcode) uint64 { return packOperands(addr(o.(CallAddress).Address)) },
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 32)
			return CallAddress{Address(v[0])}
		},
	})
	register(&opcodeSchema{
		name: "Return", tag: TagReturn,
		fields: nil,
		encode: func(Opcode) uint64 { return 0 },
		decode: func(uint64) Opcode { return Return{} },
	})

	register(&opcodeSchema{
		name: "HaltAndCatchFire", tag: TagHaltAndCatchFire,
		fields: nil,
		encode: func(Opcode) uint64 { return 0 },
		decode: func(uint64) Opcode { return HaltAndCatchFire{} },
	})
	register(&opcodeSchema{
		name: "PollTime", tag: TagPollTime,
		fields: []FieldSchema{reg8("high"), reg8("low")},
		encode: func(o Opcode) uint64 {
			v := o.(PollTime)
			return packOperands(reg(v.High), reg(v.Low))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return PollTime{Register(v[0]), Register(v[1])}
		},
	})
	register(&opcodeSchema{
		name: "GetKeyState", tag: TagGetKeyState,
		fields: []FieldSchema{reg8("key"), reg8("result")},
		encode: func(o Opcode) uint64 {
			v := o.(GetKeyState)
			return packOperands(reg(v.Key), reg(v.Result))
		},
		decode: func(operands uint64) Opcode {
			v := unpackOperands(operands, 8, 8)
			return GetKeyState{Register(v[0]), Register(v[1])}
		},
	})
}

// Encode packs op into its 64-bit wire Instruction.
func Encode(op Opcode) Instruction {
	s := schemaByTag[op.Tag()]
	return Instruction(uint64(s.tag)<<48 | s.encode(op))
}

// Decode unpacks i into an Opcode, or reports ErrInvalidOpcode if its tag is
// unregistered.
func Decode(i Instruction) (Opcode, error) {
	s, ok := schemaByTag[i.Tag()]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", ErrInvalidOpcode, i.Tag())
	}
	return s.decode(i.operands()), nil
}

// Name returns the mnemonic registered for op's tag.
func Name(op Opcode) string {
	return schemaByTag[op.Tag()].name
}
