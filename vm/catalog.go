package vm

import "sort"

// Catalog is the structured, JSON-exportable description of the ISA: every
// opcode's tag and operand schema, plus the architectural constants a
// toolchain needs to target this machine. It is built directly off the
// schema table registered in opcode.go, so it can never drift from the
// actual encoder/decoder.
type Catalog struct {
	Opcodes   []OpcodeDescription `json:"opcodes"`
	Constants Constants           `json:"constants"`
}

// OpcodeDescription is one entry of the catalog's opcode list.
type OpcodeDescription struct {
	Name   string        `json:"name"`
	Tag    uint16        `json:"tag"`
	Fields []FieldSchema `json:"operand_fields"`
}

// Constants mirrors the architectural constants spec.md §6 requires to be
// exported.
type Constants struct {
	EntryPoint         uint32 `json:"entry_point"`
	NumRegisters       int    `json:"num_registers"`
	CycleCountHigh     uint8  `json:"cycle_count_high"`
	CycleCountLow      uint8  `json:"cycle_count_low"`
	Flags              uint8  `json:"flags"`
	InstructionPointer uint8  `json:"instruction_pointer"`
	StackPointer       uint8  `json:"stack_pointer"`
	StackStart         uint32 `json:"stack_start"`
	StackSize          uint32 `json:"stack_size"`
	TerminalBase       uint32 `json:"terminal_base"`
	TerminalWidth      int    `json:"terminal_width"`
	TerminalHeight     int    `json:"terminal_height"`
	TimerMsHigh        uint32 `json:"timer_ms_high"`
	TimerMsLow         uint32 `json:"timer_ms_low"`
}

// BuildCatalog assembles the full opcode + constant catalog.
func BuildCatalog() Catalog {
	descriptions := make([]OpcodeDescription, 0, len(schemaByName))
	for _, s := range schemaByTag {
		fields := make([]FieldSchema, len(s.fields))
		copy(fields, s.fields)
		descriptions = append(descriptions, OpcodeDescription{
			Name:   s.name,
			Tag:    uint16(s.tag),
			Fields: fields,
		})
	}
	sort.Slice(descriptions, func(i, j int) bool { return descriptions[i].Tag < descriptions[j].Tag })

	return Catalog{
		Opcodes: descriptions,
		Constants: Constants{
			EntryPoint:         uint32(EntryPoint),
			NumRegisters:       NumRegisters,
			CycleCountHigh:     uint8(CycleCountHigh),
			CycleCountLow:      uint8(CycleCountLow),
			Flags:              uint8(FlagsRegister),
			InstructionPointer: uint8(InstructionPointer),
			StackPointer:       uint8(StackPointerRegister),
			StackStart:         uint32(StackStart),
			StackSize:          StackSize,
			TerminalBase:       uint32(TerminalBase),
			TerminalWidth:      TerminalWidth,
			TerminalHeight:     TerminalHeight,
			TimerMsHigh:        uint32(TimerMsHigh),
			TimerMsLow:         uint32(TimerMsLow),
		},
	}
}
