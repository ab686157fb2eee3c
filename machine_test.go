package saturncore

import (
	"testing"

	"github.com/kamek-retro/saturncore/internal/scu"
	"github.com/kamek-retro/saturncore/internal/smpc"
)

func TestNewWiresEveryComponent(t *testing.T) {
	m := New()
	if m.Bus == nil || m.Scheduler == nil || m.SH2Master == nil || m.SH2Slave == nil ||
		m.M68K == nil || m.SCU == nil || m.SCSP == nil || m.SMPC == nil || m.Backup == nil {
		t.Fatal("New() left a component unconstructed")
	}
}

func TestRunFrameAdvancesEveryComponentClock(t *testing.T) {
	m := New()
	m.Reset(true)

	before := m.Scheduler.Now()
	m.RunFrame()
	if m.Scheduler.Now() != before+m.cyclesPerFrame {
		t.Fatalf("Now() = %d, want %d", m.Scheduler.Now(), before+m.cyclesPerFrame)
	}
}

func TestRunFrameInvokesFrameCompleteCallback(t *testing.T) {
	m := New()
	m.Reset(true)

	var called int
	m.FrameCompleteCallback = func() { called++ }
	m.RunFrame()
	if called != 1 {
		t.Fatalf("FrameCompleteCallback called %d times, want 1", called)
	}
}

func TestRunFrameRaisesVBlankOnSCU(t *testing.T) {
	m := New()
	m.Reset(true)

	m.SCU.Mask(scu.SourceVBlankIn, false)
	var gotVector uint8
	var gotLevel int
	m.SCU.InterruptSink = func(vector uint8, level int) {
		gotVector, gotLevel = vector, level
		m.SH2Master.RequestIRL(level, vector)
	}

	m.RunFrame()
	if gotLevel == 0 {
		t.Fatal("RunFrame did not deliver a VBlank-In interrupt to the SH-2 master")
	}
	_ = gotVector
}

func TestLoadIPLRejectsOversizeImage(t *testing.T) {
	m := New()
	if err := m.LoadIPL(make([]byte, 600*1024)); err == nil {
		t.Fatal("LoadIPL accepted a 600KiB image, want an error (max 512KiB)")
	}
	if err := m.LoadIPL(nil); err == nil {
		t.Fatal("LoadIPL accepted an empty image, want an error")
	}
}

func TestLoadIPLInstallsAtBootAddress(t *testing.T) {
	m := New()
	rom := make([]byte, 4)
	rom[0] = 0xAB
	if err := m.LoadIPL(rom); err != nil {
		t.Fatalf("LoadIPL: %v", err)
	}
	if got := m.Bus.Read8(0x00000000); got != 0xAB {
		t.Fatalf("Bus.Read8(0) = 0x%02X, want 0xAB", got)
	}
}

func TestResetHardZeroesWorkRAM(t *testing.T) {
	m := New()
	m.WorkRAMLow.Write8(0x1234, 0x55)
	m.Reset(true)
	if got := m.WorkRAMLow.Read8(0x1234); got != 0 {
		t.Fatalf("work RAM byte after hard reset = 0x%02X, want 0", got)
	}
}

func TestResetSoftPreservesWorkRAM(t *testing.T) {
	m := New()
	m.WorkRAMLow.Write8(0x1234, 0x55)
	m.Reset(false)
	if got := m.WorkRAMLow.Read8(0x1234); got != 0x55 {
		t.Fatalf("work RAM byte after soft reset = 0x%02X, want 0x55 (preserved)", got)
	}
}

// TestSMPCRegionRoutesCOMREGWrites confirms a guest write to COMREG's bus
// offset reaches smpc.WriteCOMREG's command dispatch rather than just
// storing the byte, and that OREG stays readable at its offset.
func TestSMPCRegionRoutesCOMREGWrites(t *testing.T) {
	m := New()

	m.Bus.Write8(smpcBase+0x07, smpc.CmdRESDISA)
	if got := m.Bus.Read8(smpcBase + 0x08 + 31); got != smpc.CmdRESDISA {
		t.Fatalf("OREG[31] echo = 0x%02X, want 0x%02X (CmdRESDISA)", got, smpc.CmdRESDISA)
	}
}

func TestSMPCResetRequestReachesMachine(t *testing.T) {
	m := New()
	m.WorkRAMLow.Write8(0, 0x42)

	m.Bus.Write8(smpcBase+0x07, smpc.CmdRESENAB)
	m.SMPC.RequestSoftReset()

	if m.WorkRAMLow.Read8(0) != 0x42 {
		t.Fatal("a soft reset through SMPC should not zero work RAM")
	}
}
