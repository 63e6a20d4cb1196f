package adapter

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	m "inplace.dev/pkg/inplace/internal/model"
)

const journalDirName = "inplace"

// Journal is the append-only history of a session. Entries are spilled to
// disk so a long session does not keep every edited text in memory.
type Journal interface {
	Append(ctx context.Context, entry m.JournalEntry) (m.JournalEntry, error)
	Range(ctx context.Context, fn func(entry m.JournalEntry) error) error
	Len() uint64
	Path() string
	Close() error
}

// GobJournal stores entries as a stream of gob values in a temp file.
type GobJournal struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
	closed  bool
}

// NewGobJournal creates a journal file under dir. An empty dir means an
// "inplace" directory in the system temp dir.
func NewGobJournal(dir string) (*GobJournal, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), journalDirName)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create journal directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "journal-*.gob")
	if err != nil {
		slog.Error("failed to create journal file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create journal file: %w", err)
	}

	slog.Debug("created journal", "path", file.Name())

	return &GobJournal{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Append numbers entry and writes it. The stored entry is returned.
func (j *GobJournal) Append(ctx context.Context, entry m.JournalEntry) (m.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return m.JournalEntry{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return m.JournalEntry{}, fmt.Errorf("journal %s is closed", j.path)
	}

	entry.Seq = j.length + 1

	if err := j.encoder.Encode(entry); err != nil {
		slog.Error("failed to encode journal entry", "path", j.path, "seq", entry.Seq, "error", err)
		return m.JournalEntry{}, fmt.Errorf("failed to encode journal entry: %w", err)
	}

	j.length++

	return entry, nil
}

// Range calls fn with every entry, oldest first, stopping at the first error.
func (j *GobJournal) Range(ctx context.Context, fn func(entry m.JournalEntry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal reader", "path", j.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := range j.length {
		if err := ctx.Err(); err != nil {
			return err
		}

		var entry m.JournalEntry
		if err := decoder.Decode(&entry); err != nil {
			return fmt.Errorf("failed to decode journal entry %d: %w", i+1, err)
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of entries.
func (j *GobJournal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Path returns the journal file.
func (j *GobJournal) Path() string {
	return j.path
}

// Close closes the journal file. The file is left on disk. Further appends
// fail; Range still works.
func (j *GobJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	j.closed = true

	if err := j.file.Close(); err != nil {
		slog.Error("failed to close journal", "path", j.path, "error", err)
		return err
	}

	slog.Debug("closed journal", "path", j.path, "length", j.length)

	return nil
}
