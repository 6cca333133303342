package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoPaths(t *testing.T) {
	_, err := New(Config{}, func(context.Context, string) error { return nil })
	assert.Error(t, err)
}

func TestWatcher_CallsHandlerOnWrite(t *testing.T) {
	dir := t.TempDir()
	post := filepath.Join(dir, "post.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(post, []byte("embed::Dark Magician\n"), 0o644))

	changed := make(chan string, 10)
	w, err := New(Config{
		Paths:    []string{post},
		Debounce: 20 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, func(_ context.Context, path string) error {
		changed <- path
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(post, []byte("embed::Mirror Force\n"), 0o644))

	select {
	case path := <-changed:
		assert.Equal(t, post, path)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	for len(changed) > 0 {
		assert.Equal(t, post, <-changed)
	}
}
