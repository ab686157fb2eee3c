package monitor

import (
	"bytes"
	"testing"

	"github.com/kamek-retro/saturncore/internal/debug"
)

type fakeProbe struct {
	pc uint64
}

func (f *fakeProbe) ComponentName() string { return "fake" }
func (f *fakeProbe) AddressWidth() int     { return 32 }
func (f *fakeProbe) Registers() []debug.RegisterInfo {
	return []debug.RegisterInfo{{Name: "PC", BitWidth: 32, Value: f.pc, Group: "system"}}
}
func (f *fakeProbe) Register(name string) (uint64, bool) {
	if name == "PC" {
		return f.pc, true
	}
	return 0, false
}
func (f *fakeProbe) PC() uint64 { return f.pc }
func (f *fakeProbe) Disassemble(addr uint64, count int) []debug.DisassembledLine { return nil }
func (f *fakeProbe) ReadMemory(addr uint64, size int) []byte                     { return make([]byte, size) }

func TestRegsCommandPrintsRegisters(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	m.Register(&Component{Name: "cpu", Probe: &fakeProbe{pc: 0x1000}, Inbox: debug.NewInbox()})
	if m.dispatch("regs cpu") {
		t.Fatal("regs should not exit the REPL")
	}
	if !bytes.Contains(buf.Bytes(), []byte("PC")) {
		t.Fatalf("output = %q, want it to mention PC", buf.String())
	}
}

func TestQuitCommandExits(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	if !m.dispatch("quit") {
		t.Fatal("quit should signal exit")
	}
}

func TestUnknownComponentReportsError(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	m.dispatch("regs nope")
	if !bytes.Contains(buf.Bytes(), []byte("unknown component")) {
		t.Fatalf("output = %q, want an unknown-component message", buf.String())
	}
}
