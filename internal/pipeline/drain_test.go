package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bazachat/internal/connectivity"
	"bazachat/internal/models"
	"bazachat/internal/queue"
	"bazachat/internal/store"
)

func enqueueAll(t *testing.T, q *queue.Store, envs ...models.Envelope) {
	t.Helper()
	for _, env := range envs {
		require.NoError(t, q.Enqueue(context.Background(), env))
	}
}

func TestDrainEmptyQueueMakesNoNetworkCalls(t *testing.T) {
	sender := &fakeSender{fn: func(models.ChatRequest) (*models.ChatResponse, error) {
		t.Fatal("no network call expected for an empty queue")
		return nil, nil
	}}
	p, _, _ := newTestPipeline(t, sender)

	require.NoError(t, p.Drain(context.Background()))
	require.Zero(t, sender.callCount())
}

func TestDrainFullSuccessClearsKey(t *testing.T) {
	kv := store.NewMemory()
	q := queue.New(kv)
	sender := &fakeSender{fn: func(models.ChatRequest) (*models.ChatResponse, error) {
		return &models.ChatResponse{Reply: "ok"}, nil
	}}
	p := New(sender, q, connectivity.NewMonitor(), Options{NewID: sequentialIDs()})

	enqueueAll(t, q,
		models.Envelope{RecipientID: "+250700000000", Text: "Show bundles"},
		models.Envelope{RecipientID: "+250700000000", Text: "My balance"},
	)

	require.NoError(t, p.Drain(context.Background()))
	require.Equal(t, 2, sender.callCount())

	_, ok, err := kv.Get(context.Background(), queue.Key)
	require.NoError(t, err)
	require.False(t, ok, "fully drained queue removes the key")
}

func TestDrainKeepsFailedEnvelopesInOrder(t *testing.T) {
	sender := &fakeSender{fn: func(req models.ChatRequest) (*models.ChatResponse, error) {
		if req.Message == "A" {
			return nil, fmt.Errorf("unreachable")
		}
		return &models.ChatResponse{Reply: "ok"}, nil
	}}
	p, q, _ := newTestPipeline(t, sender)

	enqueueAll(t, q,
		models.Envelope{RecipientID: "r", Text: "A"},
		models.Envelope{RecipientID: "r", Text: "B"},
	)

	require.NoError(t, p.Drain(context.Background()))
	require.Equal(t, 2, sender.callCount(), "every envelope is attempted")

	envs, err := q.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.Equal(t, "A", envs[0].Text)
	require.Equal(t, 1, envs[0].Attempts)

	// Drained sends never surface on the timeline.
	require.Empty(t, p.Timeline())
}

func TestDrainDropsEnvelopeAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{fn: func(models.ChatRequest) (*models.ChatResponse, error) {
		return nil, fmt.Errorf("still down")
	}}
	q := queue.New(store.NewMemory())
	p := New(sender, q, connectivity.NewMonitor(), Options{
		NewID:            sequentialIDs(),
		MaxDrainAttempts: 2,
	})

	enqueueAll(t, q, models.Envelope{RecipientID: "r", Text: "A"})

	require.NoError(t, p.Drain(context.Background()))
	n, err := q.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n, "first failure keeps the envelope")

	require.NoError(t, p.Drain(context.Background()))
	n, err = q.Len(context.Background())
	require.NoError(t, err)
	require.Zero(t, n, "second failure exhausts the attempt budget")
}

func TestDrainCoalescesConcurrentCalls(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	sender := &fakeSender{fn: func(models.ChatRequest) (*models.ChatResponse, error) {
		close(started)
		<-release
		return &models.ChatResponse{Reply: "ok"}, nil
	}}
	p, q, _ := newTestPipeline(t, sender)

	enqueueAll(t, q, models.Envelope{RecipientID: "r", Text: "A"})

	done := make(chan error, 1)
	go func() { done <- p.Drain(context.Background()) }()
	<-started

	// Second drain while the first is in flight is a no-op.
	require.NoError(t, p.Drain(context.Background()))
	require.Equal(t, 1, sender.callCount())

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not finish")
	}
}
