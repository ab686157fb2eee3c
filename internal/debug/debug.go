// Package debug defines the tracer-facing surface every emulated
// processor exposes: register/memory probes safe to call from any
// thread, plus a write inbox that serializes mutations onto the owning
// component's own goroutine. The SH-2, M68K, SCU DSP and SCSP cores in
// this module do not implement Probe themselves; a caller supplies the
// implementation. Reads must be safe from any goroutine while writes are not, so
// the two concerns are split into a read-only Probe and a separate
// write Inbox rather than one monolithic interface.
package debug

// RegisterInfo describes one architectural register for display.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string // "general", "system", "status"
}

// DisassembledLine is one decoded instruction, for a monitor's listing.
type DisassembledLine struct {
	Address      uint64
	HexBytes     string
	Mnemonic     string
	Size         int
	IsPC         bool
	IsBranch     bool
	BranchTarget uint64
}

// BreakpointEvent is published when a component hits a breakpoint or
// watchpoint.
type BreakpointEvent struct {
	ComponentID string
	Address     uint64

	IsWatch       bool
	WatchAddr     uint64
	WatchOldValue uint32
	WatchNewValue uint32
}

// Probe is the read side of the tracer interface: safe to call from any
// goroutine. A call made concurrently with the owning component's own
// execution may observe a torn (partially updated) value — callers that
// need a consistent multi-field snapshot must pause the component first
// via an Inbox command.
type Probe interface {
	ComponentName() string
	AddressWidth() int

	Registers() []RegisterInfo
	Register(name string) (uint64, bool)
	PC() uint64

	Disassemble(addr uint64, count int) []DisassembledLine
	ReadMemory(addr uint64, size int) []byte
}

// Command is a request queued onto a component's Inbox: a mutation that
// must run on the component's own goroutine between instruction steps.
type Command struct {
	// Exactly one of these should be set.
	SetRegister  *SetRegisterCmd
	SetPC        *uint64
	WriteMemory  *WriteMemoryCmd
	Freeze       bool
	Resume       bool
	SetBreakpoint   *uint64
	ClearBreakpoint *uint64
	SetWatchpoint   *uint64
	ClearWatchpoint *uint64

	Done chan<- bool // optional: signaled (with success/failure) once applied
}

// SetRegisterCmd requests writing a named register.
type SetRegisterCmd struct {
	Name  string
	Value uint64
}

// WriteMemoryCmd requests a memory write.
type WriteMemoryCmd struct {
	Addr uint64
	Data []byte
}

// Inbox is a buffered channel of Commands a component drains once per
// Step(), guaranteeing writes never race with its own execution.
type Inbox chan Command

// NewInbox returns an Inbox with reasonable buffering for interactive
// debugger use (a human typing commands, not a hot loop).
func NewInbox() Inbox {
	return make(Inbox, 64)
}

// Send enqueues cmd, blocking only if the inbox is full.
func (ib Inbox) Send(cmd Command) {
	ib <- cmd
}

// Drain applies every currently-queued command via apply, intended to
// be called once per component Step(). apply is responsible for
// actually mutating component state and signaling cmd.Done.
func (ib Inbox) Drain(apply func(Command)) {
	for {
		select {
		case cmd := <-ib:
			apply(cmd)
		default:
			return
		}
	}
}

// BreakpointSet tracks plain and watch breakpoints for one component,
// shared logic every Probe implementation's owner can embed.
type BreakpointSet struct {
	breakpoints map[uint64]bool
	watchpoints map[uint64]uint32 // address -> last observed value
}

// NewBreakpointSet returns an empty set.
func NewBreakpointSet() *BreakpointSet {
	return &BreakpointSet{
		breakpoints: make(map[uint64]bool),
		watchpoints: make(map[uint64]uint32),
	}
}

func (b *BreakpointSet) SetBreakpoint(addr uint64)   { b.breakpoints[addr] = true }
func (b *BreakpointSet) ClearBreakpoint(addr uint64) { delete(b.breakpoints, addr) }
func (b *BreakpointSet) HasBreakpoint(addr uint64) bool { return b.breakpoints[addr] }
func (b *BreakpointSet) ClearAllBreakpoints()        { b.breakpoints = make(map[uint64]bool) }

func (b *BreakpointSet) ListBreakpoints() []uint64 {
	out := make([]uint64, 0, len(b.breakpoints))
	for a := range b.breakpoints {
		out = append(out, a)
	}
	return out
}

func (b *BreakpointSet) SetWatchpoint(addr uint64, initial uint32) {
	b.watchpoints[addr] = initial
}
func (b *BreakpointSet) ClearWatchpoint(addr uint64) { delete(b.watchpoints, addr) }

// CheckWatch reports whether addr is watched and its value changed,
// updating the stored value as a side effect.
func (b *BreakpointSet) CheckWatch(addr uint64, newValue uint32) (old uint32, changed bool) {
	prev, watched := b.watchpoints[addr]
	if !watched || prev == newValue {
		return 0, false
	}
	b.watchpoints[addr] = newValue
	return prev, true
}
