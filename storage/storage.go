// Package storage persists cartridge save RAM next to the ROM it belongs to,
// or under a dedicated save directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const saveRAMExt = ".srm"

// Store reads and writes .srm files.
type Store struct {
	fs  afero.Fs
	dir string // empty: save beside the ROM
}

// New creates a Store on fs. When dir is empty, save files live beside the
// ROM.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// SaveRAMPath returns the save file path for romPath.
func (s *Store) SaveRAMPath(romPath string) string {
	base := strings.TrimSuffix(romPath, filepath.Ext(romPath)) + saveRAMExt
	if s.dir == "" {
		return base
	}
	return filepath.Join(s.dir, filepath.Base(base))
}

// LoadSaveRAM returns the persisted save RAM for romPath, or nil when there
// is none.
func (s *Store) LoadSaveRAM(romPath string) ([]byte, error) {
	path := s.SaveRAMPath(romPath)
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteSaveRAM persists data for romPath atomically. Empty data is not
// written.
func (s *Store) WriteSaveRAM(romPath string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	path := s.SaveRAMPath(romPath)
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
