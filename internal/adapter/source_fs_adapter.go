// Package adapter contains UI-independent infrastructure adapters: source
// lookup, ephemeral files, the external editor, the interpreter and the
// report store.
package adapter

import (
	"context"
	"os"

	m "inplace.dev/pkg/inplace/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the editor session
// relies on. It hides direct `os` access so the session can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// CreateTemp creates an empty temporary file and returns its path.
	CreateTemp(ctx context.Context, pattern string) (m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// Remove deletes a single file.
	Remove(ctx context.Context, path m.Path) error

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct {
	dir string
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter creating
// temporary files in dir (the system default when empty).
func NewLocalSourceFSAdapter(dir string) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{dir: dir}
}

// CreateTemp creates an empty temporary file matching pattern.
func (a *LocalSourceFSAdapter) CreateTemp(ctx context.Context, pattern string) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(a.dir, pattern)
	if err != nil {
		return "", err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return m.Path(f.Name()), nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// Remove deletes the file at path. It does not look at ctx: cleanup must run
// even after cancellation.
func (a *LocalSourceFSAdapter) Remove(_ context.Context, path m.Path) error {
	return os.Remove(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.Stat(string(path))
}
