package scsp

import "testing"

type fakeRAM struct {
	data []byte
}

func (r *fakeRAM) Read8(addr uint32) uint8 { return r.data[addr] }
func (r *fakeRAM) Read16(addr uint32) uint16 {
	return uint16(r.data[addr])<<8 | uint16(r.data[addr+1])
}

func TestPitchStepZeroOctaveNoFraction(t *testing.T) {
	step := pitchStep(0) // OCT=0, FNS=0
	want := uint32(1 << 10 << 6)
	if step != want {
		t.Fatalf("pitchStep(0) = %#x, want %#x", step, want)
	}
}

func TestKeyOnStartsAttackAtMaxAttenuation(t *testing.T) {
	var s Slot
	s.EG.Level = 0
	s.KeyOn()
	if s.EG.State != Attack || s.EG.Level != 0x3FF {
		t.Fatalf("KeyOn state=%v level=%d, want Attack/0x3FF", s.EG.State, s.EG.Level)
	}
}

func TestEnvelopeReachesSustainThenRelease(t *testing.T) {
	var s Slot
	s.EG.AttackRate = 63
	s.EG.Decay1Rate = 20
	s.EG.DecayLevel = 0x100
	s.KeyOn()
	for i := 0; i < 50 && s.EG.State == Attack; i++ {
		s.stepEnvelope()
	}
	if s.EG.State != Decay1 {
		t.Fatalf("state = %v, want Decay1 after attack completes", s.EG.State)
	}
	s.KeyOff()
	if s.EG.State != Release {
		t.Fatal("KeyOff must force Release regardless of phase")
	}
}

func TestStepMixesEnabledSlotToOutput(t *testing.T) {
	ram := &fakeRAM{data: make([]byte, 64)}
	ram.data[0] = 0x7F
	ram.data[1] = 0xFF // sample ~= 32767

	e := New(ram)
	e.Slots[0].Enabled = true
	e.Slots[0].Volume = 31
	e.Slots[0].Pan = 16
	e.Slots[0].EG.Level = 0 // no attenuation

	l, r := e.Step()
	if l == 0 && r == 0 {
		t.Fatal("enabled slot with full volume should produce non-zero output")
	}
}

func TestDSPNoOpProgramLeavesStateZero(t *testing.T) {
	d := NewDSP(nil, 0, 0)
	d.Step()
	for i, v := range d.Temp {
		if v != 0 {
			t.Fatalf("Temp[%d] = %d after no-op program, want 0", i, v)
		}
	}
}

func TestDSPRingBufferDelay(t *testing.T) {
	ring := &fakeRingMem{data: make(map[uint32]uint16)}
	d := NewDSP(ring, 0, 4)
	d.Mems[0] = 1000
	d.Program[0] = Instruction{
		UseInput: true, InputTemp: -1, InputMems: 0,
		WriteTemp: true, DestTemp: 0,
		WriteRing: true, RingOffset: 0,
	}
	d.Step()
	if ring.data[0] != uint16(1000) {
		t.Fatalf("ring[0] = %d, want 1000", ring.data[0])
	}
}

type fakeRingMem struct {
	data map[uint32]uint16
}

func (r *fakeRingMem) Read16(addr uint32) uint16     { return r.data[addr] }
func (r *fakeRingMem) Write16(addr uint32, v uint16) { r.data[addr] = v }
