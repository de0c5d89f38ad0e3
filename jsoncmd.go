package main

import (
	"encoding/json"
	"os"

	"backseater/vm"
)

// runJSON writes the opcode/constant catalog as indented JSON, the same
// information a toolchain (assembler, disassembler, debugger) would load to
// target this machine without hard-coding tag numbers or field offsets.
func runJSON(path string) error {
	buf, err := json.MarshalIndent(vm.BuildCatalog(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
