package sh2

import (
	"encoding/binary"
	"testing"
)

type fakeBus struct {
	mem [0x10000]byte
}

func (b *fakeBus) Read8(addr uint32) uint8  { return b.mem[addr&0xFFFF] }
func (b *fakeBus) Read16(addr uint32) uint16 {
	return binary.BigEndian.Uint16(b.mem[addr&0xFFFF:])
}
func (b *fakeBus) Read32(addr uint32) uint32 {
	return binary.BigEndian.Uint32(b.mem[addr&0xFFFF:])
}
func (b *fakeBus) Write8(addr uint32, v uint8) { b.mem[addr&0xFFFF] = v }
func (b *fakeBus) Write16(addr uint32, v uint16) {
	binary.BigEndian.PutUint16(b.mem[addr&0xFFFF:], v)
}
func (b *fakeBus) Write32(addr uint32, v uint32) {
	binary.BigEndian.PutUint32(b.mem[addr&0xFFFF:], v)
}

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	bus.Write32(0, 0x1000) // reset PC vector
	bus.Write32(4, 0x2000) // reset SP vector
	return New(bus), bus
}

func TestResetLoadsVectorsAndMasksInterrupts(t *testing.T) {
	c, _ := newTestCPU()
	if c.PC != 0x1000 {
		t.Fatalf("PC = %#x, want 0x1000", c.PC)
	}
	if c.R[15] != 0x2000 {
		t.Fatalf("R15 = %#x, want 0x2000", c.R[15])
	}
	if c.srLevel() != 0xF {
		t.Fatalf("SR level = %d, want 0xF", c.srLevel())
	}
}

func TestMovImmediateAndAdd(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(0x1000, 0xE105) // MOV #5,R1
	bus.Write16(0x1002, 0x7103) // ADD #3,R1
	c.Step()
	c.Step()
	if c.R[1] != 8 {
		t.Fatalf("R1 = %d, want 8", c.R[1])
	}
}

func TestBRADelaySlotExecutesBeforeJump(t *testing.T) {
	c, bus := newTestCPU()
	// BRA to the instruction right after the delay slot, delay slot MOV #1,R0
	bus.Write16(0x1000, 0xA001) // BRA disp=1 -> target = PC(0x1002)+1*2 = 0x1004
	bus.Write16(0x1002, 0xE001) // delay slot: MOV #1,R0
	bus.Write16(0x1004, 0xE0FF) // target: MOV #-1,R0 (0xFF as int8 = -1)
	c.Step()
	if c.R[0] != 1 {
		t.Fatalf("delay slot should have run first: R0 = %d, want 1", c.R[0])
	}
	if c.PC != 0x1004 {
		t.Fatalf("PC = %#x, want 0x1004 after BRA", c.PC)
	}
}

func TestDIVUSingleOverflowSaturates(t *testing.T) {
	var d DIVU
	d.DVSR = 0
	d.WriteDVDNT(100)
	if d.DVCR&dvcrOverflow == 0 {
		t.Fatal("dividing by zero should set the overflow flag")
	}
	if d.DVDNTL != 0x7FFFFFFF {
		t.Fatalf("DVDNTL = %#x, want 0x7FFFFFFF for positive-dividend overflow", d.DVDNTL)
	}
}

func TestDIVU32Div32(t *testing.T) {
	var d DIVU
	d.DVSR = 7
	d.WriteDVDNT(100)
	if d.DVDNTL != 14 {
		t.Fatalf("quotient = %d, want 14", int32(d.DVDNTL))
	}
	if d.DVDNTH != 2 {
		t.Fatalf("remainder = %d, want 2", int32(d.DVDNTH))
	}
}

func TestCacheFillAndLRUEviction(t *testing.T) {
	var c Cache
	addr := uint32(0x1230)
	for way := 0; way < 4; way++ {
		c.Fill(addr+uint32(way)<<10, [16]byte{})
	}
	// A fifth fill to the same set must evict the least-recently-used way.
	c.Fill(addr+4<<10, [16]byte{1})
	hits := 0
	for way := 0; way < 4; way++ {
		if c.Lookup(addr + uint32(way)<<10) >= 0 {
			hits++
		}
	}
	if hits != 3 {
		t.Fatalf("expected exactly one eviction, got %d of 4 original fills still present", hits)
	}
}

func TestDMACTransfersAndSetsTransferEnd(t *testing.T) {
	var d DMAC
	mem := &fakeBus{}
	mem.Write8(0x10, 0xAB)
	d.OR = 1
	d.Channels[0] = DMAChannel{SAR: 0x10, DAR: 0x20, TCR: 1, CHCR: chcrDE}
	completed := -1
	d.Run(0, mem, func(ch int) { completed = ch })
	if mem.Read8(0x20) != 0xAB {
		t.Fatalf("dst byte = %#x, want 0xAB", mem.Read8(0x20))
	}
	if d.Channels[0].CHCR&chcrTE == 0 {
		t.Fatal("CHCR TE bit should be set after transfer")
	}
	if completed != 0 {
		t.Fatalf("onComplete channel = %d, want 0", completed)
	}
}

func TestFRTCompareMatchRaisesFlagOnce(t *testing.T) {
	f := FRT{OCRA: 5, TCR: 3} // prescale /1
	var flags uint8
	hits := 0
	for i := 0; i < 10; i++ {
		nf := f.Tick(1)
		if nf&ftcsrOCFA != 0 {
			hits++
		}
		flags |= nf
	}
	if flags&ftcsrOCFA == 0 {
		t.Fatal("expected OCFA to have been raised once FRC reached OCRA")
	}
	if hits != 1 {
		t.Fatalf("OCFA reported %d times while FRC ran 1..10, want once", hits)
	}
}

func TestWDTOverflowInIntervalMode(t *testing.T) {
	w := WDT{WTCNT: 0xFE, WTCSR: 0x20} // TME set, interval mode (bit6=0), prescale /2
	overflowed := false
	for i := 0; i < 10 && !overflowed; i++ {
		overflowed = w.Tick(2)
	}
	if !overflowed {
		t.Fatal("WDT should overflow and report it")
	}
	if w.IsWatchdogMode() {
		t.Fatal("WTCSR bit6 was not set; should be interval-timer mode")
	}
}

func TestBSCWriteGuardedRejectsWrongKey(t *testing.T) {
	var b BSC
	if b.WriteGuarded(&b.RTCSR, 0x00, 0xFF) {
		t.Fatal("write without the 0xA5 key should be rejected")
	}
	if b.RTCSR != 0 {
		t.Fatal("rejected write must not modify the register")
	}
	if !b.WriteGuarded(&b.RTCSR, 0xA5, 0x10) {
		t.Fatal("write with the correct key should succeed")
	}
	if b.RTCSR != 0x10 {
		t.Fatalf("RTCSR = %#x, want 0x10", b.RTCSR)
	}
}
