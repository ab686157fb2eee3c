// Package bus implements the Saturn's shared 27-bit address space: a
// partition table keyed by the high address bits, region-specific widths,
// side-effect-free peek/poke shadow paths, and the open-bus fallback
// pattern observed on real hardware.
package bus

import "fmt"

// Width is an access width in bits.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// AddressMask restricts addresses to the documented 27-bit Saturn bus.
const AddressMask = 0x07FFFFFF

// Region is one partition of the address space. Accessor functions are
// nil for widths the region does not support; such accesses return the
// open-bus pattern instead of faulting the host.
type Region struct {
	Name  string
	Start uint32
	End   uint32 // inclusive, already masked to AddressMask

	ReadSideEffects  bool
	WriteSideEffects bool

	Read8   func(addr uint32) uint8
	Write8  func(addr uint32, v uint8)
	Read16  func(addr uint32) uint16
	Write16 func(addr uint32, v uint16)
	Read32  func(addr uint32) uint32
	Write32 func(addr uint32, v uint32)

	// Peek/Poke variants skip side effects entirely, for debuggers. When
	// nil, the bus falls back to Read/Write (valid only when the region
	// declares no side effects on that path).
	Peek8  func(addr uint32) uint8
	Poke8  func(addr uint32, v uint8)
	Peek16 func(addr uint32) uint16
	Poke16 func(addr uint32, v uint16)
	Peek32 func(addr uint32) uint32
	Poke32 func(addr uint32, v uint32)
}

func (r *Region) contains(addr uint32) bool { return addr >= r.Start && addr <= r.End }

// Bus routes every CPU/DMA access through a fixed partition table. It
// never raises for misaligned or misrouted accesses itself — that is
// each processor's own job (address-error exception); the bus just
// returns the open-bus pattern for anything it can't service.
type Bus struct {
	regions []*Region
	// byTopBits indexes regions by addr>>20 for O(1) common-case lookup;
	// regions spanning multiple 1MiB buckets are registered under each.
	byTopBits map[uint32][]*Region
}

// New returns an empty bus; call AddRegion to populate the partition table.
func New() *Bus {
	return &Bus{byTopBits: make(map[uint32][]*Region)}
}

// AddRegion installs a partition. Regions must not overlap; AddRegion
// panics on overlap since that is a construction-time programming error,
// never a guest-triggered condition.
func (b *Bus) AddRegion(r *Region) {
	for _, existing := range b.regions {
		if r.Start <= existing.End && existing.Start <= r.End {
			panic(fmt.Sprintf("bus: region %q overlaps %q", r.Name, existing.Name))
		}
	}
	b.regions = append(b.regions, r)
	first := r.Start >> 20
	last := r.End >> 20
	for bucket := first; bucket <= last; bucket++ {
		b.byTopBits[bucket] = append(b.byTopBits[bucket], r)
	}
}

func (b *Bus) find(addr uint32) *Region {
	addr &= AddressMask
	for _, r := range b.byTopBits[addr>>20] {
		if r.contains(addr) {
			return r
		}
	}
	return nil
}

// openBusSeqRead reproduces the documented "00 00 00 01 00 02 ..."
// open-bus pattern for a width-mismatched or unmapped access. The
// sequence numbers increment every 16-bit lane, matching observed SH-2
// open-bus captures; behavior for masters other than the SH-2 has not
// been independently verified.
func openBusSeqRead(addr uint32, width Width) uint32 {
	lane := uint32((addr >> 1) & 0xFFFF)
	switch width {
	case Width8:
		if addr&1 == 0 {
			return 0
		}
		return lane & 0xFF
	case Width16:
		return lane
	default:
		hi := lane
		lo := (lane + 1) & 0xFFFF
		return hi<<16 | lo
	}
}

func (b *Bus) Read8(addr uint32) uint8 {
	r := b.find(addr)
	if r == nil || r.Read8 == nil {
		return uint8(openBusSeqRead(addr, Width8))
	}
	return r.Read8(addr)
}

func (b *Bus) Write8(addr uint32, v uint8) {
	r := b.find(addr)
	if r == nil || r.Write8 == nil {
		return
	}
	r.Write8(addr, v)
}

func (b *Bus) Read16(addr uint32) uint16 {
	r := b.find(addr)
	if r == nil || r.Read16 == nil {
		return uint16(openBusSeqRead(addr, Width16))
	}
	return r.Read16(addr)
}

func (b *Bus) Write16(addr uint32, v uint16) {
	r := b.find(addr)
	if r == nil || r.Write16 == nil {
		return
	}
	r.Write16(addr, v)
}

func (b *Bus) Read32(addr uint32) uint32 {
	r := b.find(addr)
	if r == nil || r.Read32 == nil {
		return openBusSeqRead(addr, Width32)
	}
	return r.Read32(addr)
}

func (b *Bus) Write32(addr uint32, v uint32) {
	r := b.find(addr)
	if r == nil || r.Write32 == nil {
		return
	}
	r.Write32(addr, v)
}

// Peek8 reads without side effects. Falls back to Read8 when the region
// declares no read side effects and provides no explicit Peek8.
func (b *Bus) Peek8(addr uint32) uint8 {
	r := b.find(addr)
	if r == nil {
		return uint8(openBusSeqRead(addr, Width8))
	}
	if r.Peek8 != nil {
		return r.Peek8(addr)
	}
	if !r.ReadSideEffects && r.Read8 != nil {
		return r.Read8(addr)
	}
	return 0
}

// Poke8 writes without side effects (e.g. exposing a write-only register
// for inspection). Falls back to Write8 when the region has none.
func (b *Bus) Poke8(addr uint32, v uint8) {
	r := b.find(addr)
	if r == nil {
		return
	}
	if r.Poke8 != nil {
		r.Poke8(addr, v)
		return
	}
	if !r.WriteSideEffects && r.Write8 != nil {
		r.Write8(addr, v)
	}
}

func (b *Bus) Peek16(addr uint32) uint16 {
	r := b.find(addr)
	if r == nil {
		return uint16(openBusSeqRead(addr, Width16))
	}
	if r.Peek16 != nil {
		return r.Peek16(addr)
	}
	if !r.ReadSideEffects && r.Read16 != nil {
		return r.Read16(addr)
	}
	return 0
}

func (b *Bus) Poke16(addr uint32, v uint16) {
	r := b.find(addr)
	if r == nil {
		return
	}
	if r.Poke16 != nil {
		r.Poke16(addr, v)
		return
	}
	if !r.WriteSideEffects && r.Write16 != nil {
		r.Write16(addr, v)
	}
}

func (b *Bus) Peek32(addr uint32) uint32 {
	r := b.find(addr)
	if r == nil {
		return openBusSeqRead(addr, Width32)
	}
	if r.Peek32 != nil {
		return r.Peek32(addr)
	}
	if !r.ReadSideEffects && r.Read32 != nil {
		return r.Read32(addr)
	}
	return 0
}

func (b *Bus) Poke32(addr uint32, v uint32) {
	r := b.find(addr)
	if r == nil {
		return
	}
	if r.Poke32 != nil {
		r.Poke32(addr, v)
		return
	}
	if !r.WriteSideEffects && r.Write32 != nil {
		r.Write32(addr, v)
	}
}

// Regions returns the partition table in registration order, for the
// memory-dump host feature and debugger region listings.
func (b *Bus) Regions() []*Region {
	out := make([]*Region, len(b.regions))
	copy(out, b.regions)
	return out
}
