package debug

import "testing"

func TestBreakpointSetLifecycle(t *testing.T) {
	b := NewBreakpointSet()
	b.SetBreakpoint(0x1000)
	if !b.HasBreakpoint(0x1000) {
		t.Fatal("breakpoint should be set")
	}
	b.ClearBreakpoint(0x1000)
	if b.HasBreakpoint(0x1000) {
		t.Fatal("breakpoint should be cleared")
	}
}

func TestWatchpointDetectsChange(t *testing.T) {
	b := NewBreakpointSet()
	b.SetWatchpoint(0x2000, 5)
	if _, changed := b.CheckWatch(0x2000, 5); changed {
		t.Fatal("same value should not report a change")
	}
	old, changed := b.CheckWatch(0x2000, 9)
	if !changed || old != 5 {
		t.Fatalf("CheckWatch = (%d, %v), want (5, true)", old, changed)
	}
}

func TestInboxDrainAppliesQueuedCommands(t *testing.T) {
	ib := NewInbox()
	applied := 0
	ib.Send(Command{SetPC: ptr(uint64(0x100))})
	ib.Send(Command{Freeze: true})
	ib.Drain(func(cmd Command) { applied++ })
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	// Drain again with nothing queued must return immediately.
	ib.Drain(func(cmd Command) { applied++ })
	if applied != 2 {
		t.Fatal("Drain should not block or re-apply when the inbox is empty")
	}
}

func ptr(v uint64) *uint64 { return &v }
