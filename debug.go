package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"backseater/vm"
)

// debugModel is the bubbletea Model driving the single-step debugger: each
// " " or "j" keypress ticks the machine once, "r" runs it to completion,
// "q" quits.
type debugModel struct {
	machine *vm.Machine
	prevIP  uint32
	err     error
}

func (m debugModel) Init() tea.Cmd { return nil }

func (m debugModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			if !m.machine.Halted() {
				m.prevIP = uint32(m.machine.Processor().IP())
				m.machine.Tick()
			}
			if err := m.machine.Err(); err != nil {
				m.err = err
			}
		case "r":
			for !m.machine.Halted() {
				m.machine.Tick()
			}
			if err := m.machine.Err(); err != nil {
				m.err = err
			}
		}
	}
	return m, nil
}

var (
	paneStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	titleStyle = lipgloss.NewStyle().Bold(true)
)

func (m debugModel) registersView() string {
	p := m.machine.Processor()
	var b strings.Builder
	b.WriteString(titleStyle.Render("registers") + "\n")
	for r := 0; r < 16; r++ {
		fmt.Fprintf(&b, "r%-3d=%08x  ", r, p.Register(vm.Register(r)))
		if r%4 == 3 {
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nip=%08x sp=%08x cycles=%d\n", p.IP(), p.SP(), p.Cycles())
	fmt.Fprintf(&b, "zero=%v carry=%v divzero=%v\n", p.Zero(), p.Carry(), p.DivideByZero())
	return paneStyle.Render(b.String())
}

func (m debugModel) terminalView() string {
	mem := m.machine.Memory()
	var b strings.Builder
	b.WriteString(titleStyle.Render("terminal (row 0)") + "\n")
	for x := 0; x < vm.TerminalWidth; x++ {
		c := mem.TerminalCell(x, 0)
		if c == 0 {
			c = ' '
		}
		b.WriteByte(c)
	}
	return paneStyle.Render(b.String())
}

func (m debugModel) currentOpcodeView() string {
	ip := m.machine.Processor().IP()
	instr := m.machine.Memory().ReadInstruction(ip)
	op, err := vm.Decode(instr)
	if err != nil {
		return paneStyle.Render(fmt.Sprintf("decode error at %08x: %v", ip, err))
	}
	return paneStyle.Render(titleStyle.Render("next: "+vm.Name(op)) + "\n" + spew.Sdump(op))
}

func (m debugModel) View() string {
	status := "running"
	if m.machine.Halted() {
		status = "halted"
	}
	if m.err != nil {
		status = "error: " + m.err.Error()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		fmt.Sprintf("[%s]  space/j: step   r: run to halt   q: quit", status),
		lipgloss.JoinHorizontal(lipgloss.Top, m.registersView(), m.currentOpcodeView()),
		m.terminalView(),
	)
}

// runDebugger starts the interactive TUI against an already-loaded machine.
func runDebugger(machine *vm.Machine) error {
	final, err := tea.NewProgram(debugModel{machine: machine}).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(debugModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
