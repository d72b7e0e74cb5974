package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps files under a root directory on the local disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(name string, r io.Reader) error {
	full, err := s.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create patient directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	full, err := s.fullPath(name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalStore) Delete(name string) error {
	full, err := s.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(name string) bool {
	full, err := s.fullPath(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(full)
	return statErr == nil
}

// fullPath resolves a stored name, refusing anything escaping the root.
func (s *LocalStore) fullPath(name string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(name))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path %q", name)
	}
	return full, nil
}
