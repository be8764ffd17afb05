// Package headless provides no-op/in-memory backends satisfying the
// frontend contracts, used by every package's tests so they never touch
// a display, speaker, or real filesystem layout beyond a scratch dir.
package headless

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/intuitionamiga/emux/frontend"
)

// FileIO implements frontend.FileIO against three real host directories,
// one per category. Grounded on the teacher's FileIODevice.sanitizePath:
// same reject-absolute/reject-".." rule, generalized from a single
// baseDir to three category roots.
type FileIO struct {
	Data, System, Config string
}

func (h *FileIO) root(category frontend.Category) string {
	switch category {
	case frontend.CategorySystem:
		return h.System
	case frontend.CategoryConfig:
		return h.Config
	default:
		return h.Data
	}
}

var errPathEscapesRoot = errors.New("frontend/headless: path escapes category root")

func (h *FileIO) resolve(category frontend.Category, path string) (string, error) {
	if filepath.IsAbs(path) || strings.Contains(path, "..") {
		return "", errPathEscapesRoot
	}
	root := h.root(category)
	full := filepath.Join(root, path)
	rel, err := filepath.Rel(root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errPathEscapesRoot
	}
	return full, nil
}

// Open implements frontend.FileIO, creating the file if absent so
// first-run battery-RAM saves succeed without a pre-existing file.
func (h *FileIO) Open(category frontend.Category, path string) (frontend.File, error) {
	full, err := h.resolve(category, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Map reads the requested region into an owned byte slice. Real mmap
// isn't wired here: none of the pack's examples import an mmap library,
// and the only file-backed region this core persists (battery RAM) is
// tens of kilobytes at most, so a plain read/write round trip through
// Open is sufficient and is what BatteryBackedRAM actually uses; Map
// exists to satisfy frontend.FileIO for front ends that do have a real
// mmap available.
func (h *FileIO) Map(category frontend.Category, path string, offset, size int64) ([]byte, error) {
	f, err := h.Open(category, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, size)
	n, err := f.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

// Unmap is a no-op: Map never holds an OS mapping open.
func (h *FileIO) Unmap(data []byte) error { return nil }
