package rendezvous

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileAdapter stores one file per rendezvous key under Dir, letting
// several agent invocations on the same host share state via the
// filesystem (spec.md §4.3 file variant).
type FileAdapter struct {
	Dir string
}

// NewFileAdapter returns a FileAdapter rooted at dir. dir is created on
// first use, not here, mirroring the teacher's lazy directory creation.
func NewFileAdapter(dir string) *FileAdapter {
	return &FileAdapter{Dir: dir}
}

func (a *FileAdapter) path(key string) string {
	return filepath.Join(a.Dir, key)
}

// Get reads the file for key, if present.
func (a *FileAdapter) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rendezvous: file adapter get %q: %w", key, err)
	}
	return data, true, nil
}

// Put writes value for key via write-temp-then-rename, so a concurrent
// reader never observes a partial write (spec.md §4.3 "all-or-nothing").
func (a *FileAdapter) Put(key string, value []byte) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("rendezvous: file adapter mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(a.Dir, ".sgmagent-put-*.tmp")
	if err != nil {
		return fmt.Errorf("rendezvous: file adapter create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("rendezvous: file adapter write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("rendezvous: file adapter close temp: %w", err)
	}
	if err := os.Rename(tmpPath, a.path(key)); err != nil {
		return fmt.Errorf("rendezvous: file adapter rename: %w", err)
	}
	return nil
}

// PutChecked writes value for key only if key is not already present,
// using O_CREATE|O_EXCL for a real atomic create-if-absent on the
// underlying filesystem.
func (a *FileAdapter) PutChecked(key string, value []byte) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("rendezvous: file adapter mkdir: %w", err)
	}
	f, err := os.OpenFile(a.path(key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrKeyExists
		}
		return fmt.Errorf("rendezvous: file adapter put_checked %q: %w", key, err)
	}
	defer f.Close()
	if _, err := f.Write(value); err != nil {
		return fmt.Errorf("rendezvous: file adapter write %q: %w", key, err)
	}
	return nil
}
