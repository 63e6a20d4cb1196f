package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inplace.dev/pkg/inplace/internal/adapter"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

const editFilePattern = "inplace_*.go"

// SourceProvider gives the editor session the text a unit currently runs.
type SourceProvider interface {
	CurrentSource(u *live.Unit) (m.SourceRecord, bool)
}

// EditorSession turns a unit into editable text, hands it to the user's
// editor and reads the result back. It never touches the registry state.
type EditorSession struct {
	sources SourceProvider
	lookup  *SourceLookup
	fs      adapter.SourceFSAdapter
	editor  adapter.EditorAdapter
}

// NewEditorSession constructs an EditorSession.
func NewEditorSession(sources SourceProvider, lookup *SourceLookup, fs adapter.SourceFSAdapter, editor adapter.EditorAdapter) *EditorSession {
	return &EditorSession{
		sources: sources,
		lookup:  lookup,
		fs:      fs,
		editor:  editor,
	}
}

// Presented returns the text the editor would be opened with: the active
// edit if there is one, the original declaration otherwise.
func (s *EditorSession) Presented(ctx context.Context, original *live.Unit) (string, error) {
	if rec, ok := s.sources.CurrentSource(original); ok {
		return rec.Text, nil
	}

	return s.lookup.Presentable(ctx, original)
}

// OpenForEdit blocks until the user closes the editor and returns the
// edited text. The temporary file is removed on every path.
func (s *EditorSession) OpenForEdit(ctx context.Context, original *live.Unit) (string, error) {
	text, err := s.Presented(ctx, original)
	if err != nil {
		return "", fmt.Errorf("source of %s: %w", original.Target(), err)
	}

	path, err := s.fs.CreateTemp(ctx, editFilePattern)
	if err != nil {
		return "", fmt.Errorf("create edit file: %w", err)
	}

	defer func() {
		if err := s.fs.Remove(context.WithoutCancel(ctx), path); err != nil {
			slog.Warn("Failed to remove edit file", "path", path, "error", err)
		}
	}()

	if err := s.fs.WriteFile(ctx, path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write edit file: %w", err)
	}

	slog.Debug("Opening editor", "unit", original.Target(), "path", path)

	if err := s.editor.Edit(ctx, string(path)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEditAborted, err)
	}

	edited, err := s.fs.ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read edit file: %w", err)
	}

	if strings.TrimSpace(string(edited)) == "" {
		return "", fmt.Errorf("%w: empty source", ErrEditAborted)
	}

	if string(edited) == text {
		return "", ErrNoChanges
	}

	return string(edited), nil
}
