package scsp

// DSP implements the SCSP's effects processor: a 128-step program
// memory, scratch/coefficient/address memories, and a ring buffer used
// for delay-line effects.
//
// The real DSP's 64-bit instruction word's exact field layout is not
// preserved bit-for-bit here (see DESIGN.md) in favor of a Go-native
// struct-of-fields representation, with explicit fields in place of
// packed bitfields for each decoded instruction.
type DSP struct {
	Temp   [128]int32 // TEMP: per-slot-group scratch
	Mems   [32]int32  // MEMS: persistent across samples
	Coef   [64]int16  // COEF: fixed-point filter coefficients
	Madrs  [32]uint16 // MADRS: ring-buffer base addresses
	Mixs   [16]int32  // MIXS: mixer input accumulators
	Efreg  [16]int32  // EFREG: final effect output registers
	Exts   [2]int32   // EXTS: external (CD/digital) inputs

	Program [128]Instruction

	RingBase   uint32
	RingLength uint32 // MDEC_CT wraps at this length
	ringPos    uint32

	Ring RingMemory
}

// RingMemory is the delay-line backing store, a dedicated slice of
// sound RAM.
type RingMemory interface {
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
}

// Instruction is one SCSP DSP program step, one entry of the full
// 128-entry program memory.
type Instruction struct {
	// ALU inputs: read from TEMP, MEMS, MIXS or EXTS. The first source,
	// in that order, whose index is in range is used; a negative index
	// excludes that source. There is no immediate input.
	InputTemp, InputMems, InputMixs, InputExts int
	UseInput                                   bool

	// Coefficient multiply against COEF[CoefIndex].
	UseCoef   bool
	CoefIndex int

	// Ring-buffer read/write for delay effects.
	ReadRing, WriteRing bool
	RingOffset          uint32

	// Destination: TEMP, MEMS or EFREG index, gated by the matching
	// Write* flag (the zero Instruction is a true no-op: it must not
	// implicitly write index 0 of anything).
	WriteTemp, WriteMems, WriteEfreg       bool
	DestTemp, DestMems, DestEfreg          int
}

// NewDSP returns a DSP with an all-zero (no-op) program.
func NewDSP(ring RingMemory, base, length uint32) *DSP {
	return &DSP{Ring: ring, RingBase: base, RingLength: length}
}

// Step runs the full 128-step program once, for one sample period: the
// DSP runs once per sample tick rather than once per bus cycle.
func (d *DSP) Step() {
	for i := range d.Program {
		d.exec(&d.Program[i])
	}
	d.ringPos++
	if d.RingLength > 0 {
		d.ringPos %= d.RingLength
	}
}

func (d *DSP) exec(instr *Instruction) {
	var acc int32
	if instr.UseInput {
		switch {
		case instr.InputTemp >= 0 && instr.InputTemp < len(d.Temp):
			acc = d.Temp[instr.InputTemp]
		case instr.InputMems >= 0 && instr.InputMems < len(d.Mems):
			acc = d.Mems[instr.InputMems]
		case instr.InputMixs >= 0 && instr.InputMixs < len(d.Mixs):
			acc = d.Mixs[instr.InputMixs]
		case instr.InputExts >= 0 && instr.InputExts < len(d.Exts):
			acc = d.Exts[instr.InputExts]
		}
	}

	if instr.ReadRing && d.Ring != nil {
		addr := d.RingBase + (d.ringPos+instr.RingOffset)%maxu32(d.RingLength, 1)
		acc += int32(int16(d.Ring.Read16(addr)))
	}

	if instr.UseCoef && instr.CoefIndex >= 0 && instr.CoefIndex < len(d.Coef) {
		acc = (acc * int32(d.Coef[instr.CoefIndex])) >> 13
	}

	if instr.WriteRing && d.Ring != nil {
		addr := d.RingBase + (d.ringPos+instr.RingOffset)%maxu32(d.RingLength, 1)
		d.Ring.Write16(addr, uint16(int16(acc)))
	}

	if instr.WriteTemp && instr.DestTemp >= 0 && instr.DestTemp < len(d.Temp) {
		d.Temp[instr.DestTemp] = acc
	}
	if instr.WriteMems && instr.DestMems >= 0 && instr.DestMems < len(d.Mems) {
		d.Mems[instr.DestMems] = acc
	}
	if instr.WriteEfreg && instr.DestEfreg >= 0 && instr.DestEfreg < len(d.Efreg) {
		d.Efreg[instr.DestEfreg] = acc
	}
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
