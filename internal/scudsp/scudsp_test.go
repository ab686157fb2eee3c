package scudsp

import "testing"

type fakeMem struct {
	m map[uint32]uint32
}

func newFakeMem() *fakeMem { return &fakeMem{m: map[uint32]uint32{}} }

func (f *fakeMem) Read32(addr uint32) uint32  { return f.m[addr] }
func (f *fakeMem) Write32(addr uint32, v uint32) { f.m[addr] = v }

func TestNopAddEndSequence(t *testing.T) {
	d := New()
	d.Load([]uint32{
		0x00000000,                      // NOP
		BuildOperation(AluADD, MoveAluToAC), // ADD; MOV ALU,AC
		BuildEnd(false),                 // END
	})
	d.AC = 1
	d.P = 1
	d.Start()
	mem := newFakeMem()
	for i := 0; i < 3; i++ {
		d.Step(mem)
	}
	if d.PC != 3 {
		t.Fatalf("PC = %d, want 3", d.PC)
	}
	if d.AC != 2 {
		t.Fatalf("AC = %d, want 2", d.AC)
	}
	if d.ALU != 2 {
		t.Fatalf("ALU = %d, want 2", d.ALU)
	}
	if d.State != Stopped {
		t.Fatalf("State = %v, want Stopped", d.State)
	}
	if d.EndTriggered {
		t.Fatal("plain END must not set EndTriggered")
	}
}

func TestENDITriggersInterruptFlag(t *testing.T) {
	d := New()
	d.Load([]uint32{BuildEnd(true)})
	d.Start()
	d.Step(newFakeMem())
	if !d.EndTriggered {
		t.Fatal("ENDI must set EndTriggered")
	}
	if d.State != Stopped {
		t.Fatal("ENDI must stop the DSP")
	}
}

func TestDMAInternalToExternalBurst(t *testing.T) {
	d := New()
	d.Data[3][0], d.Data[3][1], d.Data[3][2], d.Data[3][3] = 7, 8, 9, 10
	d.RA0 = 0x6001000
	d.WA0 = 0x6002000
	d.Load([]uint32{
		BuildDMA(DmaInternalToExternal, false, 3, false, 4),
		BuildEnd(false),
	})
	d.Start()
	mem := newFakeMem()
	d.Step(mem) // DMA instruction
	want := []uint32{7, 8, 9, 10}
	for i, w := range want {
		got := mem.m[0x6002000+uint32(i*4)]
		if got != w {
			t.Fatalf("word %d = %d, want %d", i, got, w)
		}
	}
	if d.WA0 != 0x6002010 {
		t.Fatalf("WA0 = %#x, want 0x6002010", d.WA0)
	}
	if d.RA0 != 0x6001000 {
		t.Fatalf("RA0 should be untouched by an internal->external DMA, got %#x", d.RA0)
	}
}

func TestLPSUnderflowSetsLOPToMax(t *testing.T) {
	d := New()
	d.LOP = 0
	d.Load([]uint32{BuildLPS()})
	d.Start()
	d.Step(newFakeMem())
	if d.LOP != lopMask {
		t.Fatalf("LOP = %#x, want %#x after LPS underflow", d.LOP, lopMask)
	}
}

func TestBTMLoopsThenFallsThrough(t *testing.T) {
	d := New()
	d.LOP = 2
	d.Load([]uint32{
		BuildLPS(),                          // 0: TOP = 1
		BuildOperation(AluADD, MoveAluToAC), // 1: loop body
		BuildBTM(),                          // 2: branch to TOP while LOP>0
		BuildEnd(false),                     // 3
	})
	d.P = 1
	d.Start()
	mem := newFakeMem()
	for i := 0; i < 8 && d.State == Running; i++ {
		d.Step(mem)
	}
	if d.AC != 3 {
		t.Fatalf("AC = %d, want 3 (loop body ran once, then once more per LOP count)", d.AC)
	}
	if d.State != Stopped {
		t.Fatal("program should have reached END")
	}
}

func TestJMPConditional(t *testing.T) {
	d := New()
	d.Load([]uint32{
		BuildJMP(CondAlways, 3),
		BuildEnd(true), // should be skipped
		0,
		BuildEnd(false), // landing pad
	})
	d.Start()
	mem := newFakeMem()
	d.Step(mem)
	if d.PC != 3 {
		t.Fatalf("PC = %d, want 3 after unconditional JMP", d.PC)
	}
	d.Step(mem)
	if d.EndTriggered {
		t.Fatal("should have landed on plain END, not ENDI")
	}
}
