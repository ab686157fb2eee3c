// Package backup emulates the Saturn's backup-memory subsystem: a
// journaled block-allocated file directory atop a flat byte array, plus
// the two on-disk host layouts (Ymir and BUP/Vmem) used to import and
// export individual files.
package backup

import (
	"encoding/binary"
	"errors"
)

// Supported volume sizes in bytes.
const (
	Size32K  = 32 * 1024
	Size512K = 512 * 1024
	Size1M   = 1024 * 1024
	Size2M   = 2 * 1024 * 1024
	Size4M   = 4 * 1024 * 1024
)

const (
	blockSize    = 64
	volumeMagic  = "BKMM"
	nameMax      = 11
	commentMax   = 10
	headerBlocks = 1

	// Chain-table entries are 32 bits: bit 31 marks a head (directory)
	// block, the low 31 bits hold either a block index or one of the
	// two sentinels below. 31 bits of index space is never exhausted by
	// a real volume (max 65536 blocks at the largest supported size),
	// unlike a 16-bit index which collides with the sentinels on a full
	// 4MiB volume.
	headFlag   = uint32(1) << 31
	indexMask  = headFlag - 1
	freeBlock  = indexMask     // 0x7FFFFFFF: block unused
	endOfChain = indexMask - 1 // 0x7FFFFFFE: last block in a file's chain
)

// File is one backup-memory save file, independent of on-disk encoding.
type File struct {
	Name     string // up to 11 bytes
	Comment  string // up to 10 bytes
	Language byte   // 0..5
	Date     uint32 // minutes since 1980-01-01
	Data     []byte
}

// ErrInvalidSize reports a volume byte-array length that is not one of
// the five supported sizes.
var ErrInvalidSize = errors.New("backup: invalid volume size")

func validSize(n int) bool {
	switch n {
	case Size32K, Size512K, Size1M, Size2M, Size4M:
		return true
	default:
		return false
	}
}

// Volume is a block-allocated filesystem over a flat byte array.
type Volume struct {
	data       []byte
	numBlocks  int
	tableStart int // block index where the next-pointer table begins
	tableLen   int // blocks occupied by the next-pointer table
	dataStart  int // first block available for file storage
}

// NewVolume formats a fresh volume of the given size. Returns
// ErrInvalidSize if size is not one of the five supported sizes.
func NewVolume(size int) (*Volume, error) {
	if !validSize(size) {
		return nil, ErrInvalidSize
	}
	v := &Volume{data: make([]byte, size)}
	v.layout()
	v.Format()
	return v, nil
}

// LoadVolume wraps an existing byte array (e.g. read from a save file or
// cartridge) as a Volume without reformatting it.
func LoadVolume(data []byte) (*Volume, error) {
	if !validSize(len(data)) {
		return nil, ErrInvalidSize
	}
	v := &Volume{data: data}
	v.layout()
	return v, nil
}

func (v *Volume) layout() {
	v.numBlocks = len(v.data) / blockSize
	v.tableStart = headerBlocks
	// 4 bytes per block-chain entry.
	entryBytes := v.numBlocks * 4
	v.tableLen = (entryBytes + blockSize - 1) / blockSize
	v.dataStart = v.tableStart + v.tableLen
}

// Bytes exposes the raw backing array (e.g. for cartridge memory maps).
func (v *Volume) Bytes() []byte { return v.data }

func (v *Volume) block(i int) []byte {
	off := i * blockSize
	return v.data[off : off+blockSize]
}

func (v *Volume) rawEntry(i int) uint32 {
	idx := i * 4
	return binary.BigEndian.Uint32(v.data[v.tableStart*blockSize+idx:])
}

func (v *Volume) setRawEntry(i int, raw uint32) {
	idx := i * 4
	binary.BigEndian.PutUint32(v.data[v.tableStart*blockSize+idx:], raw)
}

// chainEntry returns the next-block pointer (or a sentinel), with the
// head flag masked off.
func (v *Volume) chainEntry(i int) uint32 { return v.rawEntry(i) & indexMask }

// setChainEntry sets the next-block pointer, preserving the head flag.
func (v *Volume) setChainEntry(i int, next uint32) {
	v.setRawEntry(i, (v.rawEntry(i)&headFlag)|(next&indexMask))
}

func (v *Volume) isHeadBlock(i int) bool { return v.rawEntry(i)&headFlag != 0 }

func (v *Volume) markHead(i int, isHead bool) {
	raw := v.rawEntry(i) & indexMask
	if isHead {
		raw |= headFlag
	}
	v.setRawEntry(i, raw)
}

// Format re-initializes the volume: writes the header magic and marks
// every data block free. Exposed to the emulated system as the `format`
// operation.
func (v *Volume) Format() {
	for i := range v.data {
		v.data[i] = 0
	}
	copy(v.block(0), []byte(volumeMagic))
	for i := 0; i < v.numBlocks; i++ {
		v.setRawEntry(i, freeBlock)
	}
}

func (v *Volume) allocBlock() (int, bool) {
	for i := v.dataStart; i < v.numBlocks; i++ {
		if v.chainEntry(i) == freeBlock {
			return i, true
		}
	}
	return 0, false
}

func (v *Volume) freeChain(head int) {
	b := head
	for b != int(endOfChain) && b != int(freeBlock) {
		next := v.chainEntry(b)
		v.setRawEntry(b, freeBlock)
		b = int(next)
	}
}

// List enumerates file head blocks in storage order.
func (v *Volume) List() []string {
	var names []string
	for i := v.dataStart; i < v.numBlocks; i++ {
		if v.chainEntry(i) == freeBlock {
			continue
		}
		if !v.isHeadBlock(i) {
			continue
		}
		names = append(names, v.headName(i))
	}
	return names
}

func (v *Volume) headName(i int) string {
	raw := v.block(i)[0:nameMax]
	return trimNul(raw)
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (v *Volume) findHead(name string) (int, bool) {
	for i := v.dataStart; i < v.numBlocks; i++ {
		if v.chainEntry(i) == freeBlock {
			continue
		}
		if v.isHeadBlock(i) && v.headName(i) == name {
			return i, true
		}
	}
	return 0, false
}

// Read returns the named file's metadata and data, or false if absent.
// Exposed to the emulated system as the `read` operation.
func (v *Volume) Read(name string) (File, bool) {
	head, ok := v.findHead(name)
	if !ok {
		return File{}, false
	}
	hb := v.block(head)
	f := File{
		Name:     trimNul(hb[0:nameMax]),
		Comment:  trimNul(hb[nameMax : nameMax+commentMax]),
		Language: hb[nameMax+commentMax],
		Date:     binary.BigEndian.Uint32(hb[nameMax+commentMax+1:]),
	}
	size := binary.BigEndian.Uint32(hb[nameMax+commentMax+5:])
	f.Data = make([]byte, 0, size)

	b := int(v.chainEntry(head))
	for b != int(endOfChain) && uint32(len(f.Data)) < size {
		chunk := v.block(b)
		remaining := size - uint32(len(f.Data))
		n := uint32(len(chunk))
		if remaining < n {
			n = remaining
		}
		f.Data = append(f.Data, chunk[:n]...)
		b = int(v.chainEntry(b))
	}
	return f, true
}

// requiredBlocks returns how many blocks (one head + ceil(len/blockSize)
// data blocks) storing f would need.
func requiredBlocks(dataLen int) int {
	return 1 + (dataLen+blockSize-1)/blockSize
}

// freeBlockCount reports how many data blocks are unallocated.
func (v *Volume) freeBlockCount() int {
	n := 0
	for i := v.dataStart; i < v.numBlocks; i++ {
		if v.chainEntry(i) == freeBlock {
			n++
		}
	}
	return n
}

// Write stores f, replacing any existing file of the same name. Exposed
// to the emulated system as the `write` operation. Returns false if
// there is insufficient space.
func (v *Volume) Write(f File) bool {
	if existing, ok := v.findHead(f.Name); ok {
		v.Delete(f.Name)
		_ = existing
	}
	need := requiredBlocks(len(f.Data))
	if v.freeBlockCount() < need {
		return false
	}

	head, _ := v.allocBlock()
	v.setRawEntry(head, endOfChain)
	v.markHead(head, true)

	hb := v.block(head)
	for i := range hb {
		hb[i] = 0
	}
	copy(hb[0:nameMax], []byte(f.Name))
	copy(hb[nameMax:nameMax+commentMax], []byte(f.Comment))
	hb[nameMax+commentMax] = f.Language
	binary.BigEndian.PutUint32(hb[nameMax+commentMax+1:], f.Date)
	binary.BigEndian.PutUint32(hb[nameMax+commentMax+5:], uint32(len(f.Data)))

	prev := head
	remaining := f.Data
	for len(remaining) > 0 {
		blk, ok := v.allocBlock()
		if !ok {
			// Shouldn't happen: freeBlockCount() checked above, but
			// stay defensive against directory corruption.
			v.freeChain(head)
			return false
		}
		v.setChainEntry(prev, uint32(blk))
		v.setRawEntry(blk, endOfChain)
		n := blockSize
		if len(remaining) < n {
			n = len(remaining)
		}
		copy(v.block(blk), remaining[:n])
		remaining = remaining[n:]
		prev = blk
	}
	return true
}

// Delete removes the named file, freeing its blocks. Exposed to the
// emulated system as the `delete` operation. Reports whether the file
// existed.
func (v *Volume) Delete(name string) bool {
	head, ok := v.findHead(name)
	if !ok {
		return false
	}
	v.freeChain(head)
	return true
}
