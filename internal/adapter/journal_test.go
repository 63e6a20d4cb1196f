package adapter

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "inplace.dev/pkg/inplace/internal/model"
)

func collect(t *testing.T, j Journal) []m.JournalEntry {
	t.Helper()

	var entries []m.JournalEntry

	require.NoError(t, j.Range(context.Background(), func(e m.JournalEntry) error {
		entries = append(entries, e)
		return nil
	}))

	return entries
}

func TestGobJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the file under dir", func(t *testing.T) {
		dir := t.TempDir()

		j, err := NewGobJournal(dir)
		require.NoError(t, err)
		defer j.Close()

		assert.FileExists(t, j.Path())
		assert.Contains(t, j.Path(), dir)
		assert.Equal(t, uint64(0), j.Len())
		assert.Empty(t, collect(t, j))
	})

	t.Run("append numbers entries from one", func(t *testing.T) {
		j, err := NewGobJournal(t.TempDir())
		require.NoError(t, err)
		defer j.Close()

		now := time.Now().UTC().Truncate(time.Second)

		first, err := j.Append(ctx, m.JournalEntry{Time: now, Action: m.ActionInstall, Target: "calc.Inc", Hash: "abc", Text: "func inc() {}"})
		require.NoError(t, err)
		second, err := j.Append(ctx, m.JournalEntry{Time: now, Action: m.ActionRevert, Target: "calc.Inc"})
		require.NoError(t, err)

		assert.Equal(t, uint64(1), first.Seq)
		assert.Equal(t, uint64(2), second.Seq)
		assert.Equal(t, uint64(2), j.Len())

		entries := collect(t, j)
		require.Len(t, entries, 2)
		assert.Equal(t, first, entries[0])
		assert.Equal(t, second, entries[1])
		assert.True(t, now.Equal(entries[0].Time))
	})

	t.Run("range stops at callback error", func(t *testing.T) {
		j, err := NewGobJournal(t.TempDir())
		require.NoError(t, err)
		defer j.Close()

		for range 3 {
			_, err := j.Append(ctx, m.JournalEntry{Action: m.ActionInstall, Target: "calc.Inc"})
			require.NoError(t, err)
		}

		stop := errors.New("stop")
		calls := 0

		err = j.Range(ctx, func(m.JournalEntry) error {
			calls++
			if calls == 2 {
				return stop
			}

			return nil
		})

		require.ErrorIs(t, err, stop)
		assert.Equal(t, 2, calls)
	})

	t.Run("append after close fails and range still reads", func(t *testing.T) {
		j, err := NewGobJournal(t.TempDir())
		require.NoError(t, err)

		_, err = j.Append(ctx, m.JournalEntry{Action: m.ActionInstall, Target: "calc.Inc"})
		require.NoError(t, err)

		require.NoError(t, j.Close())
		require.NoError(t, j.Close())

		_, err = j.Append(ctx, m.JournalEntry{Action: m.ActionRevert, Target: "calc.Inc"})
		require.Error(t, err)
		assert.Len(t, collect(t, j), 1)
	})

	t.Run("canceled context", func(t *testing.T) {
		j, err := NewGobJournal(t.TempDir())
		require.NoError(t, err)
		defer j.Close()

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = j.Append(canceled, m.JournalEntry{})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, uint64(0), j.Len())
	})

	t.Run("missing directory is created", func(t *testing.T) {
		dir := t.TempDir() + "/nested/journal"

		j, err := NewGobJournal(dir)
		require.NoError(t, err)
		defer j.Close()

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}
