package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileExt = ".bundle"

// FileStore keeps one file per key below Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) Name() string { return "file" }

func (f *FileStore) path(key string) string {
	return filepath.Join(f.Dir, key+fileExt)
}

// Put writes blob to a temporary file in Dir, syncs it and renames it over the
// previous file, so readers see either the old or the new bundle.
func (f *FileStore) Put(_ context.Context, key string, blob []byte) (err error) {
	tmp, err := os.CreateTemp(f.Dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("artifact: rename: %w", err)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", key, err)
	}
	return blob, nil
}
