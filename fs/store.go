// Package fs provides the local download directory.
package fs

import (
	"path/filepath"
	"strings"

	"github.com/fwojciec/exportsync"
	"github.com/spf13/afero"
)

// Ensure Store implements exportsync.LocalStore at compile time.
var _ exportsync.LocalStore = (*Store)(nil)

// Store is a flat directory of downloaded files. A file under its final
// name counts as downloaded; there is no manifest or checksum, so a
// corrupted file with a final name is also treated as downloaded.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a Store rooted at dir on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Ensure creates the directory if absent and verifies it accepts writes.
func (s *Store) Ensure() error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return exportsync.Errorf(exportsync.ESETUP, "cannot create downloads directory %s: %v", s.dir, err)
	}

	probe, err := afero.TempFile(s.fs, s.dir, ".exportsync-probe-*")
	if err != nil {
		return exportsync.Errorf(exportsync.ESETUP, "downloads directory %s is not writable: %v", s.dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := s.fs.Remove(name); err != nil {
		return exportsync.Errorf(exportsync.ESETUP, "cannot clean up in downloads directory %s: %v", s.dir, err)
	}
	return nil
}

// CleanPartials removes files left by interrupted downloads.
func (s *Store) CleanPartials() (int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, exportsync.Errorf(exportsync.ESETUP, "cannot list downloads directory %s: %v", s.dir, err)
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), exportsync.PartialSuffix) {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, exportsync.Errorf(exportsync.ESETUP, "cannot remove partial download %s: %v", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Exists reports whether name is present in the store.
func (s *Store) Exists(name string) (bool, error) {
	return afero.Exists(s.fs, s.Path(name))
}

// Path returns the full path of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}
