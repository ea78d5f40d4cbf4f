package queue

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bazachat/internal/models"
	"bazachat/internal/store"
)

func TestEnqueuePreservesOrder(t *testing.T) {
	q := New(store.NewMemory())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.Envelope{RecipientID: "r", Text: "first"}))
	require.NoError(t, q.Enqueue(ctx, models.Envelope{RecipientID: "r", Text: "second"}))

	envs, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	require.Equal(t, "first", envs[0].Text)
	require.Equal(t, "second", envs[1].Text)
}

func TestLoadAbsentKeyIsEmptyQueue(t *testing.T) {
	q := New(store.NewMemory())

	envs, err := q.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, envs)
}

func TestReplaceEmptyRemainderClearsKey(t *testing.T) {
	kv := store.NewMemory()
	q := New(kv)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.Envelope{RecipientID: "r", Text: "pending"}))
	require.NoError(t, q.Replace(ctx, nil))

	_, ok, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnvelopeWireFormat(t *testing.T) {
	kv := store.NewMemory()
	q := New(kv)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.Envelope{
		RecipientID:  "+250700000000",
		Text:         "Show bundles",
		LanguageHint: "en",
	}))

	raw, ok, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "+250700000000", entries[0]["recipientId"])
	require.Equal(t, "Show bundles", entries[0]["text"])
	require.Equal(t, "en", entries[0]["languageHint"])
	require.NotContains(t, entries[0], "attempts", "zero attempts stays off the wire")
}

func TestQueueSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	ctx := context.Background()

	kv, err := store.OpenSQLite(path)
	require.NoError(t, err)
	q := New(kv)
	require.NoError(t, q.Enqueue(ctx, models.Envelope{RecipientID: "r", Text: "held"}))
	require.NoError(t, kv.Close())

	kv, err = store.OpenSQLite(path)
	require.NoError(t, err)
	defer kv.Close()

	envs, err := New(kv).Load(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.Equal(t, "held", envs[0].Text)
}
