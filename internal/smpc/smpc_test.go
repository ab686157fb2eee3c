package smpc

import "testing"

func TestINTBACKReportsOneDigitalPad(t *testing.T) {
	s := New()
	s.WriteCOMREG(CmdINTBACK)
	if s.OREG[0] != 0xF1 {
		t.Fatalf("OREG[0] = %#x, want 0xF1", s.OREG[0])
	}
}

func TestPadButtonClearsActiveLowBit(t *testing.T) {
	s := New()
	s.Pad.A = true
	s.WriteCOMREG(CmdINTBACK)
	enc := uint16(s.OREG[1])<<8 | uint16(s.OREG[2])
	if enc&(1<<4) != 0 {
		t.Fatal("pressed A should clear its active-low bit")
	}
	if enc&(1<<5) == 0 {
		t.Fatal("unpressed B should leave its bit set")
	}
}

func TestResetDisableSuppressesSoftReset(t *testing.T) {
	s := New()
	requested := false
	s.ResetRequest = func(hard bool) { requested = true }
	s.WriteCOMREG(CmdRESDISA)
	s.RequestSoftReset()
	if requested {
		t.Fatal("soft reset must be suppressed after RESDISA")
	}
	s.WriteCOMREG(CmdRESENAB)
	s.RequestSoftReset()
	if !requested {
		t.Fatal("soft reset should work again after RESENAB")
	}
}

func TestClockChangeForwardsRequest(t *testing.T) {
	s := New()
	var got bool
	var called bool
	s.ClockChangeRequest = func(is352 bool) { got = is352; called = true }
	s.WriteCOMREG(CmdCKCHG352)
	if !called || !got {
		t.Fatal("CKCHG352 should forward is352=true")
	}
}
