package bus

import "encoding/binary"

// RAM is a flat byte array exposed as a Region with ordinary big-endian
// semantics, matching the wire endianness both CPUs expect. It supports
// 8/16/32-bit access and has no side effects, so its Peek/Poke paths are
// just its Read/Write paths.
type RAM struct {
	bytes []byte
	mask  uint32 // wraps addresses within the backing array (mirroring)
}

// NewRAM allocates size bytes of backing storage. size must be a power of
// two so address mirroring (addr & mask) behaves like real SH-2 WRAM.
func NewRAM(size int) *RAM {
	if size <= 0 || size&(size-1) != 0 {
		panic("bus: RAM size must be a power of two")
	}
	return &RAM{bytes: make([]byte, size), mask: uint32(size - 1)}
}

func (m *RAM) Bytes() []byte { return m.bytes }

func (m *RAM) Read8(addr uint32) uint8 { return m.bytes[addr&m.mask] }
func (m *RAM) Write8(addr uint32, v uint8) {
	m.bytes[addr&m.mask] = v
}

func (m *RAM) Read16(addr uint32) uint16 {
	off := addr & m.mask &^ 1
	return binary.BigEndian.Uint16(m.bytes[off : off+2])
}
func (m *RAM) Write16(addr uint32, v uint16) {
	off := addr & m.mask &^ 1
	binary.BigEndian.PutUint16(m.bytes[off:off+2], v)
}

func (m *RAM) Read32(addr uint32) uint32 {
	off := addr & m.mask &^ 3
	return binary.BigEndian.Uint32(m.bytes[off : off+4])
}
func (m *RAM) Write32(addr uint32, v uint32) {
	off := addr & m.mask &^ 3
	binary.BigEndian.PutUint32(m.bytes[off:off+4], v)
}

// Region builds a bus.Region backed by this RAM, covering [start, start+size).
func (m *RAM) Region(name string, start uint32) *Region {
	end := start + uint32(len(m.bytes)) - 1
	return &Region{
		Name: name, Start: start, End: end,
		Read8: m.Read8, Write8: m.Write8,
		Read16: m.Read16, Write16: m.Write16,
		Read32: m.Read32, Write32: m.Write32,
	}
}
