package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	for _, id := range []string{"untitled", "notes-2024", "a.b"} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", "../etc/passwd", `dir\file`, "a/b", ".hidden"} {
		assert.True(t, errors.Is(ValidateID(id), ErrInvalidID), id)
	}
}

// exerciseStore runs the contract every backend must satisfy
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	text, err := store.Read(ctx, "untitled")
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, store.Write(ctx, "untitled", "first draft"))
	text, err = store.Read(ctx, "untitled")
	require.NoError(t, err)
	assert.Equal(t, "first draft", text)

	require.NoError(t, store.Write(ctx, "untitled", "second ✓"))
	text, err = store.Read(ctx, "untitled")
	require.NoError(t, err)
	assert.Equal(t, "second ✓", text)

	require.NoError(t, store.Write(ctx, "untitled", ""))
	text, err = store.Read(ctx, "untitled")
	require.NoError(t, err)
	assert.Equal(t, "", text)

	assert.True(t, errors.Is(store.Write(ctx, "../escape", "x"), ErrInvalidID))
	_, err = store.Read(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidID))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drafts")
	store, err := NewFileStore(dir, "md")
	require.NoError(t, err)

	exerciseStore(t, store)

	require.NoError(t, store.Write(context.Background(), "untitled", "on disk"))
	data, err := os.ReadFile(filepath.Join(dir, "untitled.md"))
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreConcurrentWritesLastWins(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), ".md")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, text := range []string{"one", "two", "three", "four"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			assert.NoError(t, store.Write(context.Background(), "untitled", text))
		}(text)
	}
	wg.Wait()

	text, err := store.Read(context.Background(), "untitled")
	require.NoError(t, err)
	assert.Contains(t, []string{"one", "two", "three", "four"}, text)
}

func TestFileStoreCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), ".md")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Write(ctx, "untitled", "x"), context.Canceled)
}

func TestFileStoreIDFromPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, ".md")
	require.NoError(t, err)

	id, ok := store.IDFromPath(filepath.Join(dir, "untitled.md"))
	assert.True(t, ok)
	assert.Equal(t, "untitled", id)

	_, ok = store.IDFromPath(filepath.Join(dir, ".draft-123.tmp"))
	assert.False(t, ok)
	_, ok = store.IDFromPath(filepath.Join(dir, "nested", "x.md"))
	assert.False(t, ok)
	_, ok = store.IDFromPath(filepath.Join(dir, "notes.txt"))
	assert.False(t, ok)
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, ".md")
	require.NoError(t, err)

	changes := make(chan string, 16)
	w, err := NewWatcher(store, logger.NewNop(), func(id, version string) {
		changes <- id + " " + version
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, store.Write(context.Background(), "untitled", "through the store"))
	want := "untitled " + utils.CalculateHash([]byte("through the store"))
	assert.Eventually(t, func() bool {
		v, ok := w.Version("untitled")
		return ok && "untitled "+v == want
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "untitled.md"), []byte("edited by hand"), 0644))
	assert.Eventually(t, func() bool {
		v, _ := w.Version("untitled")
		return v == utils.CalculateHash([]byte("edited by hand"))
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case got := <-changes:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("no change reported")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("DRAFTSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis test: DRAFTSYNC_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	prefix := "draftsync:test:" + utils.NewConnectionID() + ":"
	store, err := NewRedisStore(ctx, &redis.Options{Addr: addr}, prefix)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
	require.NoError(t, store.client.Del(ctx, prefix+"untitled").Err())
}

func TestRedisStoreFromClient(t *testing.T) {
	addr := os.Getenv("DRAFTSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis test: DRAFTSYNC_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	prefix := "draftsync:test:" + utils.NewConnectionID() + ":"
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisStoreFromClient(client, prefix)

	require.NoError(t, store.Write(ctx, "untitled", "shared client"))
	raw, err := client.Get(ctx, prefix+"untitled").Result()
	require.NoError(t, err)
	assert.Equal(t, "shared client", raw)
	require.NoError(t, client.Del(ctx, prefix+"untitled").Err())
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStoreFromClient(client, "draftsync:test:")
	defer store.Close()

	ctx := context.Background()
	_, err := store.Read(ctx, "untitled")
	assert.Error(t, err)
	assert.Error(t, store.Write(ctx, "untitled", "lost"))

	_, err = store.Read(ctx, "../escape")
	assert.ErrorIs(t, err, ErrInvalidID)
}
