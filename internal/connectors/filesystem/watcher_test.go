package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func waitBatch(t *testing.T, ch <-chan []Change) []Change {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "channel closed before a batch arrived")
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change batch")
		return nil
	}
}

func hasChange(batch []Change, path string, kind ChangeKind) bool {
	for _, c := range batch {
		if c.Path == path && c.Kind == kind {
			return true
		}
	}
	return false
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created documents", func(t *testing.T) {
		dir := t.TempDir()
		w := NewWatcher(dir, WithDebounce(testDebounce))
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(dir, "new.txt")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

		batch := waitBatch(t, changes)
		assert.True(t, hasChange(batch, path, ChangeCreated), "batch: %+v", batch)
	})

	t.Run("reports deleted documents", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "old.md")
		require.NoError(t, os.WriteFile(path, []byte("# old"), 0o644))
		w := NewWatcher(dir, WithDebounce(testDebounce))
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(path))

		batch := waitBatch(t, changes)
		assert.True(t, hasChange(batch, path, ChangeDeleted), "batch: %+v", batch)
	})

	t.Run("watches directories created after start", func(t *testing.T) {
		dir := t.TempDir()
		w := NewWatcher(dir, WithDebounce(testDebounce))
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.Mkdir(sub, 0o755))
		time.Sleep(100 * time.Millisecond)
		path := filepath.Join(sub, "inner.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		batch := waitBatch(t, changes)
		assert.True(t, hasChange(batch, path, ChangeCreated), "batch: %+v", batch)
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		w := NewWatcher("/non/existent/path")

		changes, err := w.Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		w := NewWatcher(t.TempDir(), WithDebounce(testDebounce))
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := w.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error when closed", func(t *testing.T) {
		w := NewWatcher(t.TempDir())
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestWatcher_Close(t *testing.T) {
	w := NewWatcher(t.TempDir())

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestToChange(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   ChangeKind
		wantOK bool
	}{
		{"create txt", "/docs/a.txt", fsnotify.Create, ChangeCreated, true},
		{"write md", "/docs/a.md", fsnotify.Write, ChangeUpdated, true},
		{"remove pdf", "/docs/a.pdf", fsnotify.Remove, ChangeDeleted, true},
		{"rename", "/docs/a.txt", fsnotify.Rename, ChangeDeleted, true},
		{"chmod ignored", "/docs/a.txt", fsnotify.Chmod, 0, false},
		{"unsupported type", "/docs/a.png", fsnotify.Create, 0, false},
		{"hidden file", "/docs/.a.txt.swp", fsnotify.Write, 0, false},
		{"write and chmod", "/docs/a.txt", fsnotify.Write | fsnotify.Chmod, ChangeUpdated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, ok := toChange(fsnotify.Event{Name: tt.path, Op: tt.op})

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, change.Kind)
				assert.Equal(t, tt.path, change.Path)
			}
		})
	}
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeKind(99).String())
}
