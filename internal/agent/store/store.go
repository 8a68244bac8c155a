// Package store composes the remote profile service with the local SQLite
// mirror: reads go remote-first and fall back to the cache only when the
// backend is unreachable, so "offline but cached" stays distinct from
// genuine failure.
package store

import (
	"context"
	"errors"

	"github.com/avigen/faceguard/internal/agent/repositories/profiles"
	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/models"
)

// Remote is the subset of the profile-service client the store needs.
type Remote interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateFace(ctx context.Context, id, imageURL string, features []float64) error
}

// Store reads and writes the user's profile record. The second return value
// of Get reports whether the profile came from the local cache.
type Store interface {
	Get(ctx context.Context, id string) (*models.Profile, bool, error)
	UpdateFace(ctx context.Context, id, imageURL string, features []float64) error
}

type cacheThrough struct {
	remote Remote
	cache  profiles.Repository
	log    logging.Logger
}

func New(remote Remote, cache profiles.Repository, log logging.Logger) Store {
	return &cacheThrough{
		remote: remote,
		cache:  cache,
		log:    log.With("component", "store"),
	}
}

// Get reads the profile from the service and refreshes the cache. When the
// service is unreachable it serves the cached copy instead; every other
// error kind passes through untouched (authorization and not-found answers
// from the backend are authoritative, the cache must not mask them).
func (s *cacheThrough) Get(ctx context.Context, id string) (*models.Profile, bool, error) {
	p, err := s.remote.GetProfile(ctx, id)
	if err == nil {
		if cerr := s.cache.Save(ctx, p); cerr != nil {
			s.log.Warn(ctx, "failed to refresh cache", "id", id, "error", cerr)
		}
		return p, false, nil
	}

	if errors.Is(err, faceerr.ErrUnavailable) {
		cached, cerr := s.cache.Get(ctx, id)
		if cerr == nil {
			s.log.Info(ctx, "serving profile from cache", "id", id)
			return cached, true, nil
		}
		if !errors.Is(cerr, faceerr.ErrNotFound) {
			s.log.Warn(ctx, "cache read failed", "id", id, "error", cerr)
		}
		return nil, false, err
	}

	return nil, false, err
}

// UpdateFace writes through to the service and, on success, mirrors the
// change into the cache so an offline restart still sees the registration.
func (s *cacheThrough) UpdateFace(ctx context.Context, id, imageURL string, features []float64) error {
	if err := s.remote.UpdateFace(ctx, id, imageURL, features); err != nil {
		return err
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, faceerr.ErrNotFound) {
			s.log.Warn(ctx, "cache read failed after face update", "id", id, "error", err)
		}
		return nil
	}
	cached.SetFace(imageURL, features)
	if err := s.cache.Save(ctx, cached); err != nil {
		s.log.Warn(ctx, "failed to mirror face update into cache", "id", id, "error", err)
	}
	return nil
}
