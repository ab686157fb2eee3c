// Package scu implements the System Control Unit: interrupt aggregation
// from every Saturn interrupt source and three DMA channels. The SCU's
// timer and illegal-access status registers are not modeled. The DSP
// itself lives in internal/scudsp; this package steps it and raises its
// end interrupt.
package scu

import (
	"sort"

	"github.com/kamek-retro/saturncore/internal/scudsp"
)

// Source names every interrupt the SCU aggregates, in descending
// priority order.
type Source int

const (
	SourceVBlankIn Source = iota
	SourceVBlankOut
	SourceHBlankIn
	SourceTimer0
	SourceTimer1
	SourceDSPEnd
	SourceSoundRequest
	SourceSystemManager
	SourcePadInterrupt
	SourceDMAEnd0
	SourceDMAEnd1
	SourceDMAEnd2
	SourceDMAIllegal
	SourceSpriteDrawEnd
	sourceCount
)

var priority = map[Source]int{
	SourceVBlankIn:       0,
	SourceVBlankOut:      1,
	SourceHBlankIn:       2,
	SourceTimer0:         3,
	SourceTimer1:         4,
	SourceDSPEnd:         5,
	SourceSoundRequest:   6,
	SourceSystemManager:  7,
	SourcePadInterrupt:   8,
	SourceDMAEnd0:        9,
	SourceDMAEnd1:        10,
	SourceDMAEnd2:        11,
	SourceDMAIllegal:     12,
	SourceSpriteDrawEnd:  13,
}

// vectorFor is the SH-2 exception vector number associated with each SCU
// interrupt source.
var vectorFor = map[Source]uint8{
	SourceVBlankIn:      0x40,
	SourceVBlankOut:     0x41,
	SourceHBlankIn:      0x42,
	SourceTimer0:        0x43,
	SourceTimer1:        0x44,
	SourceDSPEnd:        0x45,
	SourceSoundRequest:  0x46,
	SourceSystemManager: 0x47,
	SourcePadInterrupt:  0x48,
	SourceDMAEnd0:       0x49,
	SourceDMAEnd1:       0x4A,
	SourceDMAEnd2:       0x4B,
	SourceDMAIllegal:    0x4C,
	SourceSpriteDrawEnd: 0x4D,
}

// levelFor is the SH-2 IRL interrupt level associated with each source.
var levelFor = map[Source]int{
	SourceVBlankIn:      15,
	SourceVBlankOut:     14,
	SourceHBlankIn:      13,
	SourceTimer0:        12,
	SourceTimer1:        11,
	SourceDSPEnd:        10,
	SourceSoundRequest:  9,
	SourceSystemManager: 8,
	SourcePadInterrupt:  8,
	SourceDMAEnd0:       7,
	SourceDMAEnd1:       7,
	SourceDMAEnd2:       7,
	SourceDMAIllegal:    6,
	SourceSpriteDrawEnd: 5,
}

// Memory is the SCU's view of the rest of the address space, used by its
// DMA channels.
type Memory interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
}

// DMAChannel is one of the SCU's three DMA channels. Channel 0 can move
// up to 1MiB per transfer; channels 1 and 2 are limited to 4KiB.
type DMAChannel struct {
	Index     int
	Src, Dst  uint32
	Count     uint32
	SrcAdd    int32
	DstAdd    int32
	Active    bool
	Indirect  bool
	onEnd     Source
}

func maxCount(index int) uint32 {
	if index == 0 {
		return 1 << 20
	}
	return 1 << 12
}

// SCU owns interrupt state, the three DMA channels, and the SCU DSP.
type SCU struct {
	DSP *scudsp.DSP

	pending  [sourceCount]bool
	mask     [sourceCount]bool
	Channels [3]DMAChannel

	// InterruptSink receives (vector, level) of the highest-priority
	// unmasked pending interrupt after every Raise or Mask call that
	// leaves at least one such interrupt pending. Wired to the
	// SH-2 core's external interrupt input.
	InterruptSink func(vector uint8, level int)
}

// New returns an SCU with all sources unmasked and no pending interrupts.
func New(dsp *scudsp.DSP) *SCU {
	s := &SCU{DSP: dsp}
	for i := range s.Channels {
		s.Channels[i] = DMAChannel{Index: i}
	}
	return s
}

// Raise marks src pending and notifies InterruptSink of the
// highest-priority unmasked pending source, which may be an
// already-pending source other than src.
func (s *SCU) Raise(src Source) {
	s.pending[src] = true
	s.notify()
}

// Mask enables or disables delivery of src without discarding it.
func (s *SCU) Mask(src Source, masked bool) {
	s.mask[src] = masked
	s.notify()
}

// Acknowledge clears a pending source once the SH-2 has taken it.
func (s *SCU) Acknowledge(src Source) {
	s.pending[src] = false
}

func (s *SCU) notify() {
	best, ok := s.highestPending()
	if !ok || s.InterruptSink == nil {
		return
	}
	s.InterruptSink(vectorFor[best], levelFor[best])
}

func (s *SCU) highestPending() (Source, bool) {
	var candidates []Source
	for src := Source(0); src < sourceCount; src++ {
		if s.pending[src] && !s.mask[src] {
			candidates = append(candidates, src)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return priority[candidates[i]] < priority[candidates[j]]
	})
	return candidates[0], true
}

// TriggerDMA starts channel ch if it is configured and not already
// running, performing the whole transfer synchronously (the scheduler
// models its duration via the caller's clock-ratio bookkeeping).
func (s *SCU) TriggerDMA(ch int, mem Memory) {
	c := &s.Channels[ch]
	if c.Active || c.Count == 0 {
		return
	}
	if c.Count > maxCount(ch) {
		c.Count = maxCount(ch)
	}
	c.Active = true
	defer func() { c.Active = false }()

	for i := uint32(0); i < c.Count; i += 4 {
		v := mem.Read32(c.Src)
		mem.Write32(c.Dst, v)
		if c.SrcAdd != 0 {
			c.Src = uint32(int64(c.Src) + int64(c.SrcAdd))
		}
		if c.DstAdd != 0 {
			c.Dst = uint32(int64(c.Dst) + int64(c.DstAdd))
		}
	}
	s.Raise(dmaEndSource(ch))
}

func dmaEndSource(ch int) Source {
	switch ch {
	case 0:
		return SourceDMAEnd0
	case 1:
		return SourceDMAEnd1
	default:
		return SourceDMAEnd2
	}
}

// StepDSP advances the SCU DSP by one instruction, raising SourceDSPEnd
// if it just hit ENDI.
func (s *SCU) StepDSP(mem scudsp.Memory) {
	if s.DSP == nil {
		return
	}
	s.DSP.Step(mem)
	if s.DSP.EndTriggered {
		s.DSP.EndTriggered = false
		s.Raise(SourceDSPEnd)
	}
}
