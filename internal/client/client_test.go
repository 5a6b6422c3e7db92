package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"gihan9a/draftsync/internal/config"
	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/endpoint"
	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	draft.Store
}

func (failingStore) Write(ctx context.Context, id, text string) error {
	return errors.New("disk full")
}

func startServer(t *testing.T, store draft.Store) string {
	t.Helper()
	cfg := config.Default()
	ep, err := endpoint.New(endpoint.Config{DocumentID: cfg.Sync.DocumentID, ChunkSize: cfg.Sync.ChunkSize}, store, logger.NewNop())
	require.NoError(t, err)

	srv := server.NewDraftSyncServer(cfg, store, ep, logger.NewNop())
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Sync.Path
}

func TestPushPersistsText(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore()
	require.NoError(t, store.Write(ctx, "untitled", "draft v1"))
	url := startServer(t, store)

	c, err := Dial(ctx, nil, url, 64, logger.NewNop())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "draft v1", c.Baseline())

	texts := []string{
		"draft v1, extended",
		strings.Repeat("0123456789", 20),
		"prefix " + strings.Repeat("0123456789", 20),
		"",
	}
	for _, text := range texts {
		require.NoError(t, c.Push(ctx, text))
		assert.Equal(t, text, c.Baseline())

		stored, err := store.Read(ctx, "untitled")
		require.NoError(t, err)
		assert.Equal(t, text, stored)
	}
}

func TestPushUnchangedSendsNothing(t *testing.T) {
	ctx := context.Background()
	url := startServer(t, draft.NewMemoryStore())

	c, err := Dial(ctx, nil, url, 64, logger.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Push(ctx, ""))
	assert.Equal(t, "", c.Baseline())
}

func TestPushRejected(t *testing.T) {
	ctx := context.Background()
	url := startServer(t, failingStore{Store: draft.NewMemoryStore()})

	c, err := Dial(ctx, nil, url, 64, logger.NewNop())
	require.NoError(t, err)
	defer c.Close()

	err = c.Push(ctx, "lost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "", c.Baseline())
}

func TestDialInvalidChunkSize(t *testing.T) {
	_, err := Dial(context.Background(), nil, "ws://127.0.0.1:1/sync", 0, logger.NewNop())
	assert.Error(t, err)
}
