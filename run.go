package main

import (
	"flag"
	"fmt"
	"os"

	"backseater/vm"
)

// runROM loads a ROM file and executes it, either to completion or, with
// -debug, one step at a time under the interactive debugger.
func runROM(args []string) error {
	fs := flag.NewFlagSet("backseater", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "enter single-step debug mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: backseater [-debug] <rom-file>")
	}

	buf, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	keys := newKeyboardState()
	machine := vm.NewMachine(systemClock, keys.poll)
	if err := machine.LoadROM(buf); err != nil {
		return err
	}

	if *debug {
		return runDebugger(machine)
	}

	machine.Run()
	if err := machine.Err(); err != nil {
		return err
	}
	return nil
}
