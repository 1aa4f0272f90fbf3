package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

// FileStore keeps the credential as a JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the credential file. A missing file yields apperr.ErrNotFound.
func (s *FileStore) Load(_ context.Context) (model.Credential, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Credential{}, fmt.Errorf("credential file %s: %w", s.Path, apperr.ErrNotFound)
		}
		return model.Credential{}, fmt.Errorf("read %s: %w: %w", s.Path, apperr.ErrStorage, err)
	}
	cred, err := decode(data)
	if err != nil {
		return model.Credential{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	return cred, nil
}

// Save replaces the credential file via a temp file, rename and directory sync.
func (s *FileStore) Save(_ context.Context, cred model.Credential) error {
	data, err := encode(cred)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w: %w", dir, apperr.ErrStorage, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w: %w", apperr.ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w: %w", apperr.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w: %w", apperr.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w: %w", apperr.ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace %s: %w: %w", s.Path, apperr.ErrStorage, err)
	}
	return syncDir(dir)
}

// syncDir flushes the directory entry so a completed rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", dir, apperr.ErrStorage, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w: %w", dir, apperr.ErrStorage, err)
	}
	return nil
}
