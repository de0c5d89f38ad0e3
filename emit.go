package main

import (
	"os"

	"backseater/vm"
)

// Scratch registers used only by the demo ROM below; they carry no meaning
// beyond this one program.
const (
	regTen       vm.Register = 0
	regTimeHigh  vm.Register = 1
	regTimeLow   vm.Register = 2
	regQuotient  vm.Register = 3
	regRemainder vm.Register = 4
	regDigit     vm.Register = 5
	regShift     vm.Register = 6
)

// demoROM polls the host clock, reduces the low millisecond word mod 10,
// and writes the resulting digit character into the top-left terminal
// cell, then halts. It exists to give `emit` something concrete to write
// and `json`/`-debug` something to point at.
func demoROM() []vm.Opcode {
	return []vm.Opcode{
		vm.MoveRegisterImmediate{Register: regTen, Immediate: 10},
		vm.PollTime{High: regTimeHigh, Low: regTimeLow},
		vm.DivmodTargetModLhsRhs{Target: regQuotient, Mod: regRemainder, Lhs: regTimeLow, Rhs: regTen},
		vm.AddTargetSourceImmediate{Target: regDigit, Source: regRemainder, Immediate: vm.Word('0')},
		// A Word store is big-endian, so the character goes into the high
		// byte to land in the first cell rather than the fourth.
		vm.MoveRegisterImmediate{Register: regShift, Immediate: 24},
		vm.LeftShiftTargetLhsRhs{Target: regDigit, Lhs: regDigit, Rhs: regShift},
		vm.MoveAddressRegister{Address: vm.TerminalBase, Register: regDigit},
		vm.HaltAndCatchFire{},
	}
}

func runEmit(path string) error {
	return os.WriteFile(path, vm.EncodeROM(demoROM()), 0o644)
}
