package studycache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON file per key under a directory.
type FileStore struct {
	rootDir string
}

func NewFileStore(directory string) (*FileStore, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", directory, err)
	}
	return &FileStore{
		rootDir: directory,
	}, nil
}

var fileNameReplacer = strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_")

func (store *FileStore) filePath(key string) string {
	return filepath.Join(store.rootDir, fileNameReplacer.Replace(key)+".json")
}

func (store *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	contents, err := os.ReadFile(store.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("os.ReadFile > %w", err)
	}
	return contents, true, nil
}

// Put writes the value to a temporary file and renames it over the entry, so readers never see a partial entry.
func (store *FileStore) Put(_ context.Context, key string, value []byte) error {
	file, err := os.CreateTemp(store.rootDir, ".entry-*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp > %w", err)
	}
	tempPath := file.Name()
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if _, err := file.Write(value); err != nil {
		_ = file.Close()
		return fmt.Errorf("file.Write > %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close > %w", err)
	}
	if err := os.Rename(tempPath, store.filePath(key)); err != nil {
		return fmt.Errorf("os.Rename > %w", err)
	}
	return nil
}
