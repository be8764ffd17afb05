package romset

import (
	"context"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestValidateReportsMatchingChecksumAndSize(t *testing.T) {
	dir := t.TempDir()
	data := []byte("nes rom bytes")
	path := writeTemp(t, dir, "game.rom", data)
	want := crc32.ChecksumIEEE(data)

	results, err := Validate(context.Background(), []Entry{
		{Name: "game", Path: path, Kind: KindROM, WantCRC32: want, WantSize: int64(len(data))},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !OK(results) {
		t.Fatalf("expected a clean validation, got %+v", results)
	}
	if results[0].GotCRC32 != want || results[0].GotSize != int64(len(data)) {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestValidateFlagsChecksumMismatchWithoutAbortingOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeTemp(t, dir, "good.rom", []byte("correct"))
	bad := writeTemp(t, dir, "bad.rom", []byte("tampered"))

	entries := []Entry{
		{Name: "good", Path: good, Kind: KindROM, WantCRC32: crc32.ChecksumIEEE([]byte("correct"))},
		{Name: "bad", Path: bad, Kind: KindROM, WantCRC32: crc32.ChecksumIEEE([]byte("correct"))},
	}
	results, err := Validate(context.Background(), entries)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("good entry reported an error: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrChecksumMismatch) {
		t.Fatalf("bad entry error = %v, want ErrChecksumMismatch", results[1].Err)
	}
	failures := Failures(results)
	if len(failures) != 1 || failures[0].Entry.Name != "bad" {
		t.Fatalf("Failures = %+v, want just the bad entry", failures)
	}
}

func TestValidateReportsMissingFile(t *testing.T) {
	results, err := Validate(context.Background(), []Entry{
		{Name: "missing", Path: "/nonexistent/path/missing.rom", Kind: KindBIOS},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if results[0].Err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestDetectKindFromExtension(t *testing.T) {
	tests := map[string]Kind{
		"game.rom":  KindROM,
		"system.bios": KindBIOS,
		"track.cue": KindCDTrack,
		"disc.iso":  KindCDTrack,
		"unknown.xyz": KindROM,
	}
	for path, want := range tests {
		if got := DetectKind(path); got != want {
			t.Errorf("DetectKind(%q) = %v, want %v", path, got, want)
		}
	}
}
