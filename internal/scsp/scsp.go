// Package scsp implements the Saturn Custom Sound Processor: 32 PCM
// voice slots (8- or 16-bit samples; the ADPCM flag is not decoded)
// driven by a 7-step micro-pipeline, a shared envelope generator and LFO
// per slot, and the SCSP DSP's 128-step effects engine.
package scsp

// EGState is the envelope generator's phase.
type EGState int

const (
	Attack EGState = iota
	Decay1
	Decay2
	Release
)

// LFO waveform selectors.
const (
	LFOSaw = iota
	LFOSquare
	LFOTriangle
	LFONoise
)

// SoundRAM abstracts the SCSP's view of sound RAM, from which PCM
// sample data is read.
type SoundRAM interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
}

// Slot is one of the 32 SCSP voice generators.
type Slot struct {
	Enabled bool

	StartAddr  uint32
	LoopStart  uint16
	LoopEnd    uint16
	LoopMode   int // 0=off,1=normal,2=reverse,3=alternating
	PCM8       bool
	ADPCM      bool

	PitchWords uint16 // OCT:FNS pitch register
	phaseAcc   uint32 // 16.16 fixed point sample position

	EG struct {
		State          EGState
		Level          int32 // 10-bit attenuation, 0=max volume
		AttackRate     uint8
		Decay1Rate     uint8
		Decay2Rate     uint8
		ReleaseRate    uint8
		DecayLevel     int32
		KeyRateScaling uint8
	}

	LFO struct {
		Waveform  int
		Frequency uint8
		AmpDepth  uint8
		PitchDepth uint8
		phase     uint8
	}

	XORMask uint16 // waveform XOR for noise-like timbres

	Volume  uint8 // 0..31 total level
	Pan     uint8 // 0..31

	lfsr uint32 // shared-style per-slot noise generator seed
}

// Engine holds all 32 slots and produces mixed output samples.
type Engine struct {
	Slots [32]Slot
	RAM   SoundRAM

	MasterVolume uint8

	DSP *DSP
}

// New returns an Engine with every slot disabled and the LFSR seeded to
// a fixed non-zero value (an all-zero LFSR never produces noise).
func New(ram SoundRAM) *Engine {
	e := &Engine{RAM: ram, MasterVolume: 0x0F}
	for i := range e.Slots {
		e.Slots[i].lfsr = 0xACE1
	}
	return e
}

// pitchStep converts a 16-bit OCT:FNS pitch register to a 16.16 fixed
// point phase increment per sample.
func pitchStep(pitch uint16) uint32 {
	oct := int32(int8(pitch>>11) << 4 >> 4) // sign-extend 4-bit OCT
	fns := uint32(pitch & 0x3FF)
	base := uint32(1<<10) + fns // implicit leading 1
	if oct >= 0 {
		return base << uint32(oct) << 6
	}
	return (base << 6) >> uint32(-oct)
}

var lfoFreqTable = [32]uint32{
	// Coarser at low indices, matching the real SCSP's logarithmic LFO
	// rate table.
	1020, 892, 764, 636, 508, 444, 380, 316, 252, 220, 188, 156, 124, 108, 92, 76,
	60, 52, 44, 36, 28, 24, 20, 16, 12, 10, 8, 6, 4, 3, 2, 1,
}

func (s *Slot) lfoValue() int32 {
	s.lfsr = s.lfsr<<1 ^ (((s.lfsr >> 17) ^ (s.lfsr >> 16)) & 1)
	switch s.LFO.Waveform {
	case LFOSaw:
		return int32(s.LFO.phase) - 128
	case LFOSquare:
		if s.LFO.phase < 128 {
			return 127
		}
		return -128
	case LFOTriangle:
		p := int32(s.LFO.phase)
		if p < 128 {
			return p*2 - 128
		}
		return 128 - (p-128)*2
	case LFONoise:
		return int32(int8(s.lfsr & 0xFF))
	default:
		return 0
	}
}

// stepEnvelope advances one slot's ADSR state machine by one sample,
// using a key-rate-scaled step derived from its rate register.
func (s *Slot) stepEnvelope() {
	rate := func(r uint8) int32 {
		scaled := int32(r) + int32(s.EG.KeyRateScaling)
		if scaled > 63 {
			scaled = 63
		}
		if scaled < 1 {
			return 0
		}
		return 1 << uint(scaled/4)
	}
	switch s.EG.State {
	case Attack:
		s.EG.Level -= rate(s.EG.AttackRate)
		if s.EG.Level <= 0 {
			s.EG.Level = 0
			s.EG.State = Decay1
		}
	case Decay1:
		s.EG.Level += rate(s.EG.Decay1Rate)
		if s.EG.Level >= s.EG.DecayLevel {
			s.EG.Level = s.EG.DecayLevel
			s.EG.State = Decay2
		}
	case Decay2:
		s.EG.Level += rate(s.EG.Decay2Rate)
		if s.EG.Level > 0x3FF {
			s.EG.Level = 0x3FF
		}
	case Release:
		s.EG.Level += rate(s.EG.ReleaseRate)
		if s.EG.Level > 0x3FF {
			s.EG.Level = 0x3FF
		}
	}
}

// KeyOn starts a slot's envelope from Attack at maximum attenuation.
func (s *Slot) KeyOn() {
	s.EG.State = Attack
	s.EG.Level = 0x3FF
	s.phaseAcc = 0
}

// KeyOff transitions a slot into Release regardless of its current
// envelope phase.
func (s *Slot) KeyOff() {
	s.EG.State = Release
}

// readSample fetches one signed 16-bit PCM sample at the slot's current
// phase, honoring its loop mode.
func (s *Slot) readSample(ram SoundRAM) int32 {
	pos := uint16(s.phaseAcc >> 16)
	if s.LoopMode != 0 && pos >= s.LoopEnd {
		switch s.LoopMode {
		case 1: // normal: wrap to loop start
			pos = s.LoopStart
			s.phaseAcc = uint32(s.LoopStart) << 16
		case 2, 3: // reverse / alternating: clamp; full reverse playback
			// needs a bidirectional counter this pipeline doesn't model.
			pos = s.LoopEnd
		}
	}
	addr := s.StartAddr + uint32(pos)*2
	if s.PCM8 {
		return int32(int8(ram.Read8(addr))) << 8
	}
	v := ram.Read16(addr)
	return int32(int16(v))
}

// Step advances every enabled slot by one sample and returns the mixed
// (left, right) output. The real hardware's 7-step micro-pipeline
// (phase/pitch-LFO, address+modulation, waveform+XOR, interpolation +
// envelope + amp-LFO, level calc, sound-stack write) is collapsed here
// into one function per slot since the pipeline's staging only matters
// for cycle-exact timing, which this engine does not expose. Samples are
// read at the integer phase position with no interpolation, and no
// sound-stack is written.
func (e *Engine) Step() (left, right int16) {
	var sumL, sumR int32
	for i := range e.Slots {
		s := &e.Slots[i]
		if !s.Enabled {
			continue
		}
		raw := s.readSample(e.RAM)
		raw ^= int32(s.XORMask)

		s.LFO.phase++
		lfo := s.lfoValue()
		ampMod := (lfo * int32(s.LFO.AmpDepth)) >> 8

		s.stepEnvelope()
		atten := s.EG.Level + ampMod
		if atten < 0 {
			atten = 0
		}
		gain := (0x3FF - atten) // 10-bit linear-ish gain
		sample := (raw * gain) >> 10

		sample = sample * int32(s.Volume) / 31

		panL, panR := panGains(s.Pan)
		sumL += sample * panL / 31
		sumR += sample * panR / 31

		step := pitchStep(s.PitchWords)
		pitchMod := (lfo * int32(s.LFO.PitchDepth)) >> 10
		s.phaseAcc += uint32(int32(step) + pitchMod)
	}
	return clamp16(sumL), clamp16(sumR)
}

func panGains(pan uint8) (l, r int32) {
	if pan < 16 {
		return 31, int32(pan) * 2
	}
	return int32(31-pan) * 2, 31
}

func clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
