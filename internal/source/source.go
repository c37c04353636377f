// Package source loads a session timeline from the backend, a local file or
// the offline cache behind one interface.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/sadopc/trackview/internal/clock"
	"github.com/sadopc/trackview/internal/logger"
	"github.com/sadopc/trackview/internal/timeline"
)

// Source yields a validated session. Load may be called repeatedly; every
// call returns a fresh copy.
type Source interface {
	Load(ctx context.Context) (*timeline.Session, error)
	// Key identifies the session for the cache and explanation history.
	Key() string
	Describe() string
}

// Fetcher is the part of the API client a Source needs.
type Fetcher interface {
	FetchSession(ctx context.Context, sessionID string) (*timeline.Session, error)
}

// Cache is the part of the store the sources need.
type Cache interface {
	SaveSession(key string, s *timeline.Session, fetchedAt time.Time) error
	LoadSession(key string) (*timeline.Session, time.Time, error)
}

// API fetches from the backend and refreshes the cache on success.
type API struct {
	client Fetcher
	cache  Cache
	id     string
	clock  clock.Clock
	log    zerolog.Logger
}

// NewAPI returns an API source. cache may be nil.
func NewAPI(client Fetcher, cache Cache, sessionID string, c clock.Clock) *API {
	if c == nil {
		c = clock.System{}
	}
	return &API{
		client: client,
		cache:  cache,
		id:     sessionID,
		clock:  c,
		log:    logger.With("source", "api"),
	}
}

func (a *API) Load(ctx context.Context) (*timeline.Session, error) {
	s, err := a.client.FetchSession(ctx, a.id)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.SaveSession(a.id, s, a.clock.Now()); err != nil {
			// A stale cache only affects offline mode.
			a.log.Warn().Err(err).Str("session_id", a.id).Msg("cache session")
		}
	}
	return s, nil
}

func (a *API) Key() string { return a.id }

func (a *API) Describe() string { return "session " + a.id }

// Offline serves the last cached copy of a session.
type Offline struct {
	cache Cache
	id    string
	clock clock.Clock

	// Load runs off the UI goroutine while Describe is rendered on it.
	mu        sync.Mutex
	fetchedAt time.Time
}

func NewOffline(cache Cache, sessionID string, c clock.Clock) *Offline {
	if c == nil {
		c = clock.System{}
	}
	return &Offline{cache: cache, id: sessionID, clock: c}
}

func (o *Offline) Load(_ context.Context) (*timeline.Session, error) {
	s, at, err := o.cache.LoadSession(o.id)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("cached session %s: %w", o.id, err)
	}
	o.mu.Lock()
	o.fetchedAt = at
	o.mu.Unlock()
	return s, nil
}

func (o *Offline) Key() string { return o.id }

func (o *Offline) Describe() string {
	o.mu.Lock()
	at := o.fetchedAt
	o.mu.Unlock()
	if at.IsZero() {
		return fmt.Sprintf("session %s (offline)", o.id)
	}
	return fmt.Sprintf("session %s (offline, fetched %s)", o.id, humanize.RelTime(at, o.clock.Now(), "ago", "from now"))
}
