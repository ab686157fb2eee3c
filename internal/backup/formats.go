package backup

import (
	"encoding/binary"
	"errors"
)

// Ymir format: a little-endian single-file container.
const (
	ymirMagic    = "YmBP"
	ymirHeaderSz = 0x22
)

// ErrBadMagic reports a host file whose magic does not match the format
// being decoded.
var ErrBadMagic = errors.New("backup: bad magic")

// ErrTruncated reports a host file shorter than its declared data size.
var ErrTruncated = errors.New("backup: file truncated")

// EncodeYmir serializes f into the Ymir on-disk layout.
func EncodeYmir(f File) []byte {
	out := make([]byte, ymirHeaderSz+len(f.Data))
	copy(out[0x00:], ymirMagic)
	copy(out[0x04:0x04+nameMax], []byte(f.Name))
	out[0x0F] = f.Language
	copy(out[0x10:0x10+commentMax], []byte(f.Comment))
	binary.LittleEndian.PutUint32(out[0x1A:], f.Date)
	binary.LittleEndian.PutUint32(out[0x1E:], uint32(len(f.Data)))
	copy(out[0x22:], f.Data)
	return out
}

// DecodeYmir parses the Ymir on-disk layout. Round-trips with EncodeYmir
// exactly.
func DecodeYmir(raw []byte) (File, error) {
	if len(raw) < ymirHeaderSz {
		return File{}, ErrTruncated
	}
	if string(raw[0:4]) != ymirMagic {
		return File{}, ErrBadMagic
	}
	size := binary.LittleEndian.Uint32(raw[0x1E:])
	if len(raw) < ymirHeaderSz+int(size) {
		return File{}, ErrTruncated
	}
	f := File{
		Name:     trimNul(raw[0x04 : 0x04+nameMax]),
		Language: raw[0x0F],
		Comment:  trimNul(raw[0x10 : 0x10+commentMax]),
		Date:     binary.LittleEndian.Uint32(raw[0x1A:]),
		Data:     append([]byte(nil), raw[0x22:0x22+size]...),
	}
	return f, nil
}

// BUP format: a big-endian Vmem-compatible single-file container. The
// save-ID field always encodes as zero; round-tripping through this
// format is therefore lossy on that one field.
const (
	bupMagic    = "Vmem"
	bupHeaderSz = 0x40
)

// EncodeBUP serializes f into the BUP/Vmem on-disk layout.
func EncodeBUP(f File) []byte {
	out := make([]byte, bupHeaderSz+len(f.Data))
	copy(out[0x00:], bupMagic)
	// save ID (0x04), BUP_* call counters (0x08), padding (0x0C): all zero.
	copy(out[0x10:0x10+nameMax+1], []byte(f.Name)) // 12 bytes, null-terminated
	copy(out[0x1C:0x1C+commentMax+1], []byte(f.Comment))
	out[0x27] = f.Language
	binary.BigEndian.PutUint32(out[0x28:], f.Date)
	binary.BigEndian.PutUint32(out[0x2C:], uint32(len(f.Data)))
	rawBlocks := (len(f.Data) + blockSize - 1) / blockSize
	binary.BigEndian.PutUint16(out[0x30:], uint16(rawBlocks))
	binary.BigEndian.PutUint32(out[0x34:], f.Date)
	copy(out[0x40:], f.Data)
	return out
}

// DecodeBUP parses the BUP/Vmem on-disk layout.
func DecodeBUP(raw []byte) (File, error) {
	if len(raw) < bupHeaderSz {
		return File{}, ErrTruncated
	}
	if string(raw[0:4]) != bupMagic {
		return File{}, ErrBadMagic
	}
	size := binary.BigEndian.Uint32(raw[0x2C:])
	if len(raw) < bupHeaderSz+int(size) {
		return File{}, ErrTruncated
	}
	f := File{
		Name:     trimNul(raw[0x10 : 0x10+nameMax+1]),
		Comment:  trimNul(raw[0x1C : 0x1C+commentMax+1]),
		Language: raw[0x27],
		Date:     binary.BigEndian.Uint32(raw[0x28:]),
		Data:     append([]byte(nil), raw[0x40:0x40+size]...),
	}
	return f, nil
}

// ImportResult is the host-facing outcome of ImportFile.
type ImportResult int

const (
	Imported ImportResult = iota
	Overwritten
	FileExists
	NoSpace
)

// ImportFile writes f into the volume. With overwrite=false, an existing
// file of the same name is left untouched and FileExists is returned.
func (v *Volume) ImportFile(f File, overwrite bool) ImportResult {
	_, exists := v.findHead(f.Name)
	if exists && !overwrite {
		return FileExists
	}
	if !v.Write(f) {
		return NoSpace
	}
	if exists {
		return Overwritten
	}
	return Imported
}

// Export returns the named file, or false if it does not exist.
func (v *Volume) Export(name string) (File, bool) {
	return v.Read(name)
}

// ExportAll returns every file on the volume.
func (v *Volume) ExportAll() []File {
	names := v.List()
	files := make([]File, 0, len(names))
	for _, n := range names {
		if f, ok := v.Read(n); ok {
			files = append(files, f)
		}
	}
	return files
}

// LoadResult is the outcome of LoadFromBytes.
type LoadResult int

const (
	LoadSuccess LoadResult = iota
	LoadFilesystemError
	LoadInvalidSize
)

// LoadFromBytes wraps raw volume bytes (e.g. read from a host file by the
// caller — disc/file I/O itself is out of scope for this package) as a
// Volume, validating its size.
func LoadFromBytes(raw []byte) (*Volume, LoadResult) {
	if !validSize(len(raw)) {
		return nil, LoadInvalidSize
	}
	v, err := LoadVolume(raw)
	if err != nil {
		return nil, LoadFilesystemError
	}
	return v, LoadSuccess
}
