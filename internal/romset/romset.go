// Package romset validates a batch of ROM/BIOS/CD-track image files
// before machine_init, concurrently since each entry is pure I/O and
// touches no core state (spec.md's scheduler model stays single-threaded
// and is never shared with this package).
package romset

import (
	"context"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Kind classifies what an Entry's file is expected to supply.
type Kind int

const (
	KindROM Kind = iota
	KindBIOS
	KindCDTrack
)

// Entry describes one image file a system description requires before it
// can start: WantCRC32/WantSize of zero skip that particular check.
type Entry struct {
	Name      string
	Path      string
	Kind      Kind
	WantCRC32 uint32
	WantSize  int64
}

// Result is the validation outcome for one Entry. Err is non-nil when
// the file is missing, unreadable, or fails a checksum/size check that
// was requested; a nil Err with GotCRC32 still populated lets callers
// that didn't request a check record what they found for later logging.
type Result struct {
	Entry    Entry
	GotSize  int64
	GotCRC32 uint32
	Err      error
}

var (
	// ErrSizeMismatch is wrapped into Result.Err when Entry.WantSize is
	// set and the file's actual size differs.
	ErrSizeMismatch = errors.New("romset: size mismatch")
	// ErrChecksumMismatch is wrapped into Result.Err when Entry.WantCRC32
	// is set and the computed CRC32 differs.
	ErrChecksumMismatch = errors.New("romset: checksum mismatch")
)

// Validate checks every entry concurrently via an errgroup.Group, one
// goroutine per entry, and returns one Result per entry in input order.
// A single entry's failure never aborts the others: errgroup is used
// purely for fan-out and ctx cancellation, not for propagating the first
// error as fatal. Validate itself only returns an error if ctx is
// cancelled or already done when called.
func Validate(ctx context.Context, entries []Entry) ([]Result, error) {
	results := make([]Result, len(entries))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		eg.Go(func() error {
			results[i] = validateOne(egCtx, e)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func validateOne(ctx context.Context, e Entry) Result {
	if err := ctx.Err(); err != nil {
		return Result{Entry: e, Err: err}
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return Result{Entry: e, Err: err}
	}
	defer f.Close()

	hasher := crc32.NewIEEE()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return Result{Entry: e, Err: err}
	}

	res := Result{Entry: e, GotSize: size, GotCRC32: hasher.Sum32()}
	if e.WantSize != 0 && size != e.WantSize {
		res.Err = ErrSizeMismatch
		return res
	}
	if e.WantCRC32 != 0 && res.GotCRC32 != e.WantCRC32 {
		res.Err = ErrChecksumMismatch
		return res
	}
	return res
}

// DetectKind guesses an Entry's Kind from its file extension, matching
// the teacher's extension-sniffing idiom in detectMediaType.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".bios":
		return KindBIOS
	case ".cue", ".bin2", ".img", ".iso":
		return KindCDTrack
	default:
		return KindROM
	}
}

// OK reports whether every result validated cleanly.
func OK(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Failures returns only the results with a non-nil Err, in input order.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
