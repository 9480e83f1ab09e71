package storage

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// FileBackend serves file:// locators from the local filesystem.
type FileBackend struct {
	fs afero.Fs
}

// NewFileBackend creates a backend over the OS filesystem.
func NewFileBackend() *FileBackend {
	return &FileBackend{fs: afero.NewOsFs()}
}

// NewFileBackendWithFs creates a backend over an explicit filesystem.
// Tests use this with an in-memory afero.MemMapFs.
func NewFileBackendWithFs(fs afero.Fs) *FileBackend {
	return &FileBackend{fs: fs}
}

func filePath(locator string) string {
	return strings.TrimPrefix(locator, "file://")
}

// Open returns a reader for the file's content.
func (b *FileBackend) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	f, err := b.fs.Open(filePath(locator))
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}
	return f, nil
}

// Write persists data to the file, overwriting previous content.
func (b *FileBackend) Write(ctx context.Context, locator string, data []byte) error {
	if err := afero.WriteFile(b.fs, filePath(locator), data, 0o644); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}

// EnsureDir creates the directory and any parents. Idempotent.
func (b *FileBackend) EnsureDir(ctx context.Context, locator string) error {
	if err := b.fs.MkdirAll(filePath(locator), 0o755); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}

// List returns the files directly under the directory locator.
func (b *FileBackend) List(ctx context.Context, locator string) ([]EntryInfo, error) {
	infos, err := afero.ReadDir(b.fs, filePath(locator))
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}

	entries := make([]EntryInfo, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries = append(entries, EntryInfo{
			Path:    strings.TrimSuffix(locator, "/") + "/" + info.Name(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Remove deletes the file at the locator.
func (b *FileBackend) Remove(ctx context.Context, locator string) error {
	if err := b.fs.Remove(filePath(locator)); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}
