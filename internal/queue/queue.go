// Package queue persists the list of not-yet-confirmed outbound
// envelopes so undelivered messages survive offline periods and
// process restarts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bazachat/internal/models"
	"bazachat/internal/store"
)

// Key is the fixed durable-store key holding the serialized envelope list.
const Key = "unsent_messages_queue"

// Store owns the persisted envelope list. The full read-modify-write
// cycle on every mutation is a critical section; entries are removed
// only after a confirmed successful resend.
type Store struct {
	mu sync.Mutex
	kv store.KV
}

func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Enqueue appends an envelope to the persisted list.
func (s *Store) Enqueue(ctx context.Context, env models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	envs, err := s.load(ctx)
	if err != nil {
		return err
	}
	envs = append(envs, env)
	return s.save(ctx, envs)
}

// Load returns the persisted envelopes in enqueue order. An absent key
// is an empty queue, not an error.
func (s *Store) Load(ctx context.Context) ([]models.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Replace overwrites the persisted list with the given remainder,
// preserving the callers' ordering. An empty remainder clears the key
// entirely.
func (s *Store) Replace(ctx context.Context, envs []models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(envs) == 0 {
		if err := s.kv.Delete(ctx, Key); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		return nil
	}
	return s.save(ctx, envs)
}

// Len reports how many envelopes are currently persisted.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	envs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(envs), nil
}

func (s *Store) load(ctx context.Context) ([]models.Envelope, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var envs []models.Envelope
	if err := json.Unmarshal([]byte(raw), &envs); err != nil {
		return nil, fmt.Errorf("failed to decode queue: %w", err)
	}
	return envs, nil
}

func (s *Store) save(ctx context.Context, envs []models.Envelope) error {
	raw, err := json.Marshal(envs)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(raw)); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}
