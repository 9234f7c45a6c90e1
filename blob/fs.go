package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FS stores each object as a file under a root directory.
type FS struct {
	root string
}

// NewFS returns a filesystem store rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root %q: %w", dir, err)
	}
	return &FS{root: dir}, nil
}

func (f *FS) path(name string) string { return filepath.Join(f.root, filepath.Base(name)) }

func (f *FS) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %q: %w", name, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %q: %w", name, err)
	}
	return data, nil
}

// Put writes through a temporary file and renames it into place, so a
// crash mid-write never leaves a truncated object behind.
func (f *FS) Put(_ context.Context, name string, data []byte) error {
	dst := f.path(name)
	tmp, err := os.CreateTemp(f.root, filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing blob %q: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing blob %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing blob %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing blob %q: %w", name, err)
	}
	return nil
}

var _ Store = (*FS)(nil)
