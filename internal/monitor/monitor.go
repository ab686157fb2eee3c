// Package monitor is an interactive line-oriented debugger REPL over a
// set of internal/debug.Probe components, built on
// github.com/peterh/liner for history-aware line editing.
package monitor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/kamek-retro/saturncore/internal/debug"
)

// Component pairs a human-facing name with its probe and inbox, so the
// REPL can address "sh2m", "sh2s", "m68k", "scudsp" etc. by name.
type Component struct {
	Name  string
	Probe debug.Probe
	Inbox debug.Inbox
}

// Monitor drives the REPL loop.
type Monitor struct {
	components map[string]*Component
	order      []string
	out        io.Writer
	line       *liner.State
}

// New returns a Monitor with no components registered yet.
func New(out io.Writer) *Monitor {
	return &Monitor{components: make(map[string]*Component), out: out}
}

// Register adds a component under name.
func (m *Monitor) Register(c *Component) {
	if _, exists := m.components[c.Name]; !exists {
		m.order = append(m.order, c.Name)
	}
	m.components[c.Name] = c
}

// Run starts the interactive prompt loop, reading from the terminal via
// liner until the user types "quit" or sends EOF.
func (m *Monitor) Run() error {
	m.line = liner.NewLiner()
	defer m.line.Close()
	m.line.SetCtrlCAborts(true)

	for {
		input, err := m.line.Prompt("saturn> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		m.line.AppendHistory(input)
		if m.dispatch(strings.TrimSpace(input)) {
			return nil
		}
	}
}

// dispatch handles one command line; returns true if the REPL should
// exit.
func (m *Monitor) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(m.out, "commands: regs <comp>, step <comp>, break <comp> <addr>, mem <comp> <addr> <size>, list, quit")
	case "list":
		for _, name := range m.order {
			fmt.Fprintln(m.out, name)
		}
	case "regs":
		m.cmdRegs(args)
	case "step":
		m.cmdStep(args)
	case "break":
		m.cmdBreak(args)
	case "mem":
		m.cmdMem(args)
	default:
		fmt.Fprintf(m.out, "unknown command %q (try \"help\")\n", cmd)
	}
	return false
}

func (m *Monitor) find(name string) (*Component, bool) {
	c, ok := m.components[name]
	return c, ok
}

func (m *Monitor) cmdRegs(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(m.out, "usage: regs <component>")
		return
	}
	c, ok := m.find(args[0])
	if !ok {
		fmt.Fprintf(m.out, "unknown component %q\n", args[0])
		return
	}
	for _, r := range c.Probe.Registers() {
		fmt.Fprintf(m.out, "%-6s = %0*X\n", r.Name, r.BitWidth/4, r.Value)
	}
}

func (m *Monitor) cmdStep(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(m.out, "usage: step <component>")
		return
	}
	c, ok := m.find(args[0])
	if !ok {
		fmt.Fprintf(m.out, "unknown component %q\n", args[0])
		return
	}
	done := make(chan bool, 1)
	c.Inbox.Send(debug.Command{Resume: true, Done: done})
	<-done
	fmt.Fprintf(m.out, "%s: PC=%#x\n", c.Name, c.Probe.PC())
}

func (m *Monitor) cmdBreak(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.out, "usage: break <component> <addr>")
		return
	}
	c, ok := m.find(args[0])
	if !ok {
		fmt.Fprintf(m.out, "unknown component %q\n", args[0])
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 64)
	if err != nil {
		fmt.Fprintf(m.out, "bad address %q\n", args[1])
		return
	}
	c.Inbox.Send(debug.Command{SetBreakpoint: &addr})
	fmt.Fprintf(m.out, "breakpoint set at %#x on %s\n", addr, c.Name)
}

func (m *Monitor) cmdMem(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(m.out, "usage: mem <component> <addr> <size>")
		return
	}
	c, ok := m.find(args[0])
	if !ok {
		fmt.Fprintf(m.out, "unknown component %q\n", args[0])
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 64)
	if err != nil {
		fmt.Fprintf(m.out, "bad address %q\n", args[1])
		return
	}
	size, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(m.out, "bad size %q\n", args[2])
		return
	}
	data := c.Probe.ReadMemory(addr, size)
	fmt.Fprintf(m.out, "% X\n", data)
}
