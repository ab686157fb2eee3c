package scu

import "testing"

type fakeMem struct {
	m map[uint32]uint32
}

func newFakeMem() *fakeMem { return &fakeMem{m: map[uint32]uint32{}} }

func (f *fakeMem) Read32(addr uint32) uint32     { return f.m[addr] }
func (f *fakeMem) Write32(addr uint32, v uint32) { f.m[addr] = v }
func (f *fakeMem) Read8(addr uint32) uint8       { return byte(f.m[addr]) }
func (f *fakeMem) Write8(addr uint32, v uint8)   { f.m[addr] = uint32(v) }

func TestHighestPriorityWins(t *testing.T) {
	s := New(nil)
	var gotVec uint8
	var gotLvl int
	s.InterruptSink = func(vector uint8, level int) { gotVec, gotLvl = vector, level }

	s.Raise(SourceTimer1) // lower priority
	s.Raise(SourceVBlankIn) // higher priority
	if gotVec != vectorFor[SourceVBlankIn] || gotLvl != levelFor[SourceVBlankIn] {
		t.Fatalf("sink got vector %#x level %d, want VBlankIn's", gotVec, gotLvl)
	}
}

func TestMaskSuppressesDelivery(t *testing.T) {
	s := New(nil)
	calls := 0
	s.InterruptSink = func(vector uint8, level int) { calls++ }
	s.Mask(SourceVBlankIn, true)
	s.Raise(SourceVBlankIn)
	if calls != 0 {
		t.Fatalf("masked source should not notify, got %d calls", calls)
	}
	s.Mask(SourceVBlankIn, false)
	if calls != 1 {
		t.Fatalf("unmasking a pending source should notify, got %d calls", calls)
	}
}

func TestDMATransferAndEndInterrupt(t *testing.T) {
	s := New(nil)
	mem := newFakeMem()
	mem.m[0x1000] = 0xAABBCCDD
	s.Channels[1] = DMAChannel{Index: 1, Src: 0x1000, Dst: 0x2000, Count: 4}

	raised := false
	s.InterruptSink = func(vector uint8, level int) {
		if vector == vectorFor[SourceDMAEnd1] {
			raised = true
		}
	}
	s.TriggerDMA(1, mem)

	if mem.m[0x2000] != 0xAABBCCDD {
		t.Fatalf("dst = %#x, want 0xAABBCCDD", mem.m[0x2000])
	}
	if !raised {
		t.Fatal("DMA completion should raise SourceDMAEnd1")
	}
}

func TestChannelZeroCountIsClampedTo1MiB(t *testing.T) {
	s := New(nil)
	s.Channels[0] = DMAChannel{Index: 0, Count: 1 << 21}
	if got := maxCount(0); got != 1<<20 {
		t.Fatalf("maxCount(0) = %d, want 1MiB", got)
	}
	s.TriggerDMA(0, newFakeMem())
	if got := s.Channels[0].Count; got != 1<<20 {
		t.Fatalf("channel 0 Count = %d after trigger, want 1MiB", got)
	}
}
