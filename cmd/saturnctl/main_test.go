package main

import (
	"os"
	"testing"

	"github.com/kamek-retro/saturncore/internal/backup"
)

func TestEncodeDecodeForRoundTrip(t *testing.T) {
	for _, format := range []string{"ymir", "bup"} {
		f := backup.File{Name: "TESTFILE", Comment: "hi", Data: []byte{1, 2, 3, 4}}
		raw := encodeFor(format, f)
		got, err := decodeFor(format, raw)
		if err != nil {
			t.Fatalf("decodeFor(%q): %v", format, err)
		}
		if got.Name != f.Name {
			t.Fatalf("decodeFor(%q).Name = %q, want %q", format, got.Name, f.Name)
		}
	}
}

func TestDecodeForUnknownFormat(t *testing.T) {
	if _, err := decodeFor("nope", nil); err == nil {
		t.Fatal("decodeFor with an unknown format should fail")
	}
}

func TestIPLCmdRejectsOutOfRangeSize(t *testing.T) {
	cmd := newIPLCmd()
	dir := t.TempDir()
	path := dir + "/empty.bin"
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("ipl-check on a zero-byte file should fail")
	}
}
