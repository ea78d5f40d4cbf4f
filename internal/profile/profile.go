// Package profile manages the locally cached user profile backing the
// pipeline's recipient identity and language preference.
package profile

import (
	"context"
	"encoding/json"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"bazachat/internal/store"
)

// Key is the fixed durable-store key holding the cached profile.
const Key = "baza_user_profile"

const cacheKey = "profile"

// Profile is the locally cached subset of the user's server profile.
type Profile struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Language  string `json:"language,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Store persists the profile in the durable KV with an in-memory
// cache in front of it.
type Store struct {
	kv    store.KV
	cache *gocache.Cache
}

func NewStore(kv store.KV) *Store {
	return &Store{
		kv:    kv,
		cache: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

// Load returns the cached profile; a missing profile is zero-valued,
// not an error.
func (s *Store) Load(ctx context.Context) (Profile, error) {
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Profile), nil
	}

	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		return Profile{}, nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	s.cache.Set(cacheKey, p, gocache.NoExpiration)
	return p, nil
}

// Save merges the given fields over the stored profile and persists
// the result. Empty fields never clobber existing values, so a save
// without a language keeps the previously chosen one.
func (s *Store) Save(ctx context.Context, p Profile) (Profile, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return Profile{}, err
	}

	merged := existing
	if p.Name != "" {
		merged.Name = p.Name
	}
	if p.Phone != "" {
		merged.Phone = p.Phone
	}
	if p.Language != "" {
		merged.Language = p.Language
	}
	if p.AvatarURL != "" {
		merged.AvatarURL = p.AvatarURL
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(raw)); err != nil {
		return Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}

	s.cache.Set(cacheKey, merged, gocache.NoExpiration)
	log.Debug().Str("phone", merged.Phone).Str("language", merged.Language).Msg("Profile saved")
	return merged, nil
}

// Clear removes the cached profile (logout).
func (s *Store) Clear(ctx context.Context) error {
	s.cache.Delete(cacheKey)
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}
