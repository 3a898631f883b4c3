package passtable

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LoadFile reads a Table from the file at path.
// If the file doesn't exist, the returned error matches fs.ErrNotExist and callers may start with New instead.
func LoadFile(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // The store location is chosen by the user.
	if err != nil {
		return nil, fmt.Errorf("failed to open password table '%s': %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	t, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load password table '%s': %w", path, err)
	}
	return t, nil
}

// SaveFile writes the Table to a temporary file next to path and renames it over path.
// If the file at path was saved after this Table was loaded, nothing is written and ErrStaleStore is returned.
// A file that isn't a password table at all is replaced, but one with a damaged or newer header is left alone.
func (t *Table) SaveFile(path string) error {
	onDisk, err := fileRevision(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, errNotTable):
		t.log.Warn("Overwriting file that is not a password table", zap.String("path", path))
	case err != nil:
		return fmt.Errorf("refusing to overwrite '%s': %w", path, err)
	case onDisk > t.revision:
		return fmt.Errorf("%w: '%s' is at revision %d, table is at %d", ErrStaleStore, path, onDisk, t.revision)
	}

	prev := t.revision
	t.revision++
	if err := t.writeFile(path); err != nil {
		t.revision = prev
		return err
	}
	t.log.Debug("Saved password table", zap.String("path", path), zap.Int("entries", len(t.entries)), zap.Uint64("revision", t.revision))
	return nil
}

func (t *Table) writeFile(path string) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for '%s': %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := tmp.Chmod(0600); err != nil {
		return fmt.Errorf("failed to set permissions on '%s': %w", tmp.Name(), err)
	}
	if err := t.Save(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync '%s': %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace '%s': %w", path, err)
	}
	return nil
}

// fileRevision reads only the header of the file at path.
func fileRevision(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // The store location is chosen by the user.
	if err != nil {
		return 0, fmt.Errorf("failed to open password table '%s': %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	h, _, err := readHeader(f)
	if err != nil {
		return 0, err
	}
	return h.revision, nil
}
