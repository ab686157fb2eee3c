// Package saturncore wires together the bus, scheduler, both CPU cores,
// the SCU and its DSP, the SCSP (its DSP is not constructed here), SMPC, and backup memory
// into one runnable machine: construct every subsystem, cross-wire their
// interrupt and reset lines, and expose a small lifecycle API (LoadIPL,
// Reset, RunFrame, the frame/sample callback sinks).
package saturncore

import (
	"fmt"

	"github.com/kamek-retro/saturncore/internal/backup"
	"github.com/kamek-retro/saturncore/internal/bus"
	"github.com/kamek-retro/saturncore/internal/logsink"
	"github.com/kamek-retro/saturncore/internal/m68k"
	"github.com/kamek-retro/saturncore/internal/scheduler"
	"github.com/kamek-retro/saturncore/internal/scsp"
	"github.com/kamek-retro/saturncore/internal/scu"
	"github.com/kamek-retro/saturncore/internal/scudsp"
	"github.com/kamek-retro/saturncore/internal/sh2"
	"github.com/kamek-retro/saturncore/internal/smpc"
)

// Clock ratios relative to the reference (SH-2 master) clock, matching
// the real Saturn's generated clocks.
const (
	refClockHz      = 28_636_360
	sh2ClockRatio   = 1
	m68kClockRatio  = 4 // the 68EC000 runs at a quarter of the reference clock (~7.2MHz)
	scspSampleRatio = 28_636_360 / 44_100
)

// Component IDs for the scheduler's per-component clock ratio table.
const (
	compSH2Master scheduler.ComponentID = iota
	compSH2Slave
	compM68K
	compSCSPSample
	compVBlank
)

// Reasons distinguish the scheduler events this machine schedules.
const (
	reasonSH2MasterTick scheduler.Reason = iota
	reasonSH2SlaveTick
	reasonM68KTick
	reasonSCSPSample
	reasonVBlank
)

// FrameCompleteFunc is invoked once per emulated video frame.
type FrameCompleteFunc func()

// SampleFunc receives one stereo audio sample pair from the SCSP.
type SampleFunc func(left, right int16)

// CDDAFunc supplies one stereo PCM sample pair of CD audio per call.
// Disc I/O itself is out of scope for this core, so the data source is
// a caller-supplied function rather than a built-in disc reader.
type CDDAFunc func() (left, right int16)

// Machine is a complete, runnable Saturn core.
type Machine struct {
	Bus       *bus.Bus
	Scheduler *scheduler.Scheduler
	Log       *logsink.Logger

	SH2Master *sh2.CPU
	SH2Slave  *sh2.CPU
	M68K      *m68k.CPU
	SCU       *scu.SCU
	SCSP      *scsp.Engine
	SMPC      *smpc.SMPC
	Backup    *backup.Volume

	WorkRAMLow  *bus.RAM
	WorkRAMHigh *bus.RAM
	SoundRAM    *bus.RAM

	FrameCompleteCallback     FrameCompleteFunc
	VDP1FrameCompleteCallback FrameCompleteFunc
	SCSPSampleCallback        SampleFunc
	CDDACallback              CDDAFunc

	cyclesPerFrame int64
}

// New builds a Machine with every subsystem constructed and wired, but
// not yet reset (call Reset(true) before RunFrame).
func New() *Machine {
	m := &Machine{
		Scheduler: scheduler.New(),
		Log:       logsink.New(nil, logsink.LevelWarn, "saturncore"),
	}

	m.WorkRAMLow = bus.NewRAM(1 << 20)   // 1MiB low work RAM
	m.WorkRAMHigh = bus.NewRAM(1 << 20)  // 1MiB high work RAM
	m.SoundRAM = bus.NewRAM(512 * 1024)  // 512KiB sound RAM

	m.Bus = bus.New()
	m.Bus.AddRegion(m.WorkRAMLow.Region("work-ram-low", 0x00200000))
	m.Bus.AddRegion(m.WorkRAMHigh.Region("work-ram-high", 0x06000000))
	m.Bus.AddRegion(m.SoundRAM.Region("sound-ram", 0x05A00000))

	dsp := scudsp.New()
	m.SCU = scu.New(dsp)
	m.SCSP = scsp.New(soundRAMAdapter{m.SoundRAM})
	m.SMPC = smpc.New()
	vol, _ := backup.NewVolume(backup.Size32K)
	m.Backup = vol

	m.SH2Master = sh2.New(busAdapter{m.Bus})
	m.SH2Slave = sh2.New(busAdapter{m.Bus})
	m.M68K = m68k.New(busAdapter{m.Bus})

	m.Bus.AddRegion(smpcRegion(m.SMPC))

	m.SCU.InterruptSink = func(vector uint8, level int) {
		m.SH2Master.RequestIRL(level, vector)
	}
	m.SMPC.ResetRequest = func(hard bool) { m.Reset(hard) }
	m.SMPC.ClockChangeRequest = func(is352 bool) {
		// The rescale uses a 1:1 ratio, so every outstanding event keeps
		// its target; is352 is not used and the component clock ratios
		// set below stay unchanged.
		m.Scheduler.RescaleReferenceClock(1, 1)
	}

	m.Scheduler.SetClockRatio(compSH2Master, sh2ClockRatio, 1)
	m.Scheduler.SetClockRatio(compSH2Slave, sh2ClockRatio, 1)
	m.Scheduler.SetClockRatio(compM68K, 1, m68kClockRatio)
	m.Scheduler.SetClockRatio(compSCSPSample, 1, scspSampleRatio)

	m.cyclesPerFrame = refClockHz / 60
	m.scheduleCoreTicks()

	return m
}

// scheduleCoreTicks registers the recurring scheduler events that drive
// every component at its own rate: each handler reschedules itself one
// period ahead after running, so RunFrame need only drain the scheduler
// up to the frame boundary rather than stepping every component in
// lockstep.
//
// The SCU DSP has no clock ratio of its own: it runs opportunistically
// off spare SCU bus cycles, so it piggybacks on the master SH-2's tick
// here rather than getting a separate recurring event.
func (m *Machine) scheduleCoreTicks() {
	m.scheduleRecurring(m.Scheduler.ToRefCycles(compSH2Master, 1), reasonSH2MasterTick, func() {
		m.SH2Master.Step()
		m.SCU.StepDSP(dspMemAdapter{m.Bus})
	})
	m.scheduleRecurring(m.Scheduler.ToRefCycles(compSH2Slave, 1), reasonSH2SlaveTick, func() {
		m.SH2Slave.Step()
	})
	m.scheduleM68KTicks()
	m.scheduleRecurring(m.Scheduler.ToRefCycles(compSCSPSample, 1), reasonSCSPSample, func() {
		l, r := m.SCSP.Step()
		if m.SCSPSampleCallback != nil {
			m.SCSPSampleCallback(l, r)
		}
	})
	m.scheduleRecurring(m.cyclesPerFrame, reasonVBlank, func() {
		m.SCU.Raise(scu.SourceVBlankIn)
	})
}

// scheduleM68KTicks drives the sound CPU one instruction at a time, each
// firing rescheduling the next one after exactly as many component
// cycles as the instruction just executed actually cost, per its own
// per-opcode cycle-cost table (internal/m68k/ops.go) rather than a
// fixed period shared by every instruction regardless of cost.
func (m *Machine) scheduleM68KTicks() {
	var tick scheduler.Handler
	tick = func(now int64, r scheduler.Reason, arg int64) {
		n := m.M68K.Step()
		period := m.Scheduler.ToRefCycles(compM68K, int64(n))
		if period <= 0 {
			period = 1
		}
		m.Scheduler.Schedule(period, tick, reasonM68KTick, 0)
	}
	m.Scheduler.Schedule(m.Scheduler.ToRefCycles(compM68K, 1), tick, reasonM68KTick, 0)
}

// scheduleRecurring enqueues step to run every period reference cycles,
// forever, by having each firing reschedule the next one.
func (m *Machine) scheduleRecurring(period int64, reason scheduler.Reason, step func()) {
	if period <= 0 {
		period = 1
	}
	var tick scheduler.Handler
	tick = func(now int64, r scheduler.Reason, arg int64) {
		step()
		m.Scheduler.Schedule(period, tick, reason, 0)
	}
	m.Scheduler.Schedule(period, tick, reason, 0)
}

// busAdapter narrows internal/bus.Bus down to the Read/Write8/16/32
// interface each CPU core expects.
type busAdapter struct{ b *bus.Bus }

func (a busAdapter) Read8(addr uint32) uint8    { return a.b.Read8(addr) }
func (a busAdapter) Read16(addr uint32) uint16  { return a.b.Read16(addr) }
func (a busAdapter) Read32(addr uint32) uint32  { return a.b.Read32(addr) }
func (a busAdapter) Write8(addr uint32, v uint8)   { a.b.Write8(addr, v) }
func (a busAdapter) Write16(addr uint32, v uint16) { a.b.Write16(addr, v) }
func (a busAdapter) Write32(addr uint32, v uint32) { a.b.Write32(addr, v) }

type soundRAMAdapter struct{ r *bus.RAM }

func (a soundRAMAdapter) Read8(addr uint32) uint8   { return a.r.Read8(addr) }
func (a soundRAMAdapter) Read16(addr uint32) uint16 { return a.r.Read16(addr) }

// Reset performs a hard (power-on) or soft reset. A hard reset also
// reformats work RAM to zero; a soft reset leaves memory contents
// intact, matching the real reset-button behavior.
func (m *Machine) Reset(hard bool) {
	if hard {
		for _, ram := range []*bus.RAM{m.WorkRAMLow, m.WorkRAMHigh, m.SoundRAM} {
			b := ram.Bytes()
			for i := range b {
				b[i] = 0
			}
		}
	}
	m.SH2Master.Reset()
	m.SH2Slave.Reset()
	m.M68K.Reset()
}

// FactoryReset discards and rebuilds the entire machine, including a
// freshly formatted backup memory volume.
func (m *Machine) FactoryReset() {
	*m = *New()
}

// LoadIPL installs the boot ROM image at the IPL address.
func (m *Machine) LoadIPL(rom []byte) error {
	if len(rom) == 0 || len(rom) > 512*1024 {
		return fmt.Errorf("saturncore: IPL image size %d out of range", len(rom))
	}
	ram := bus.NewRAM(nextPow2(len(rom)))
	copy(ram.Bytes(), rom)
	m.Bus.AddRegion(ram.Region("ipl-rom", 0x00000000))
	return nil
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// RunFrame drains the scheduler through exactly one video frame's worth
// of reference clock ticks. Every component steps itself through the
// recurring events scheduleCoreTicks registered at construction time, at
// the rate its own clock ratio dictates — RunFrame's job is only to
// advance the reference clock and fire the frame-complete callback at
// the boundary.
func (m *Machine) RunFrame() {
	limit := m.Scheduler.Now() + m.cyclesPerFrame
	m.Scheduler.RunUntil(limit)
	if m.FrameCompleteCallback != nil {
		m.FrameCompleteCallback()
	}
}

type dspMemAdapter struct{ b *bus.Bus }

func (a dspMemAdapter) Read32(addr uint32) uint32    { return a.b.Read32(addr) }
func (a dspMemAdapter) Write32(addr uint32, v uint32) { a.b.Write32(addr, v) }

// smpcBase is where the SMPC's command/status and peripheral-data
// registers sit in the Saturn's address space. The byte layout below
// (IREG, then COMREG, then OREG, then SR/SF, all contiguous) trades the
// real hardware's interleaved odd-byte-only addressing for a flat,
// easier-to-decode layout. The address is given already masked to
// bus.AddressMask, as bus.Region requires.
const smpcBase = 0x00100000

// smpcRegion exposes an SMPC's registers as byte-addressable bus
// offsets so guest code can drive the command/status handshake and read
// back peripheral data.
func smpcRegion(s *smpc.SMPC) *bus.Region {
	const (
		offIREG0 = 0x00 // 7 bytes
		offCOMREG = 0x07
		offOREG0 = 0x08 // 32 bytes
		offSR    = 0x28
		offSF    = 0x29
		size     = 0x2A
	)
	return &bus.Region{
		Name:             "smpc",
		Start:            smpcBase,
		End:              smpcBase + size - 1,
		WriteSideEffects: true,
		Read8: func(addr uint32) uint8 {
			off := addr - smpcBase
			switch {
			case off < offCOMREG:
				return s.IREG[off-offIREG0]
			case off == offCOMREG:
				return s.COMREG
			case off < offSR:
				return s.OREG[off-offOREG0]
			case off == offSR:
				return s.SR
			case off == offSF:
				return s.SF
			}
			return 0
		},
		Write8: func(addr uint32, v uint8) {
			off := addr - smpcBase
			switch {
			case off < offCOMREG:
				s.IREG[off-offIREG0] = v
			case off == offCOMREG:
				s.WriteCOMREG(v)
			}
			// OREG, SR, and SF are host-to-guest only; guest writes to
			// them are ignored, matching real hardware's read-only ports.
		},
	}
}
