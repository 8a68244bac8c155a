// Package profilesync maintains a locally observable copy of the user's
// profile record, tolerant of intermittent connectivity.
//
// The rules, in order of precedence:
//   - a read that fails with Unavailable retains the last known-good profile
//     (stale-but-usable) and reports Offline;
//   - a read that fails for any other reason clears the held profile and
//     reports that kind;
//   - a connectivity transition to online triggers exactly one load, and
//     only when the profile is missing or the last outcome was an error;
//   - a transition to offline marks the state Offline immediately;
//   - overlapping loads are deduplicated by an "already loading" check.
package profilesync

import (
	"context"
	"errors"
	"sync"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/models"
)

// Reader is the profile read surface the manager consumes. The bool result
// reports whether the profile came from the local cache.
type Reader interface {
	Get(ctx context.Context, id string) (*models.Profile, bool, error)
}

// Conn is the connectivity surface the manager consumes.
type Conn interface {
	Online() bool
	Subscribe() <-chan bool
	Unsubscribe(<-chan bool)
}

type Manager struct {
	store Reader
	conn  Conn
	log   logging.Logger

	mu       sync.Mutex
	identity string
	profile  *models.Profile
	outcome  Outcome
	loading  bool
}

func NewManager(store Reader, conn Conn, log logging.Logger) *Manager {
	return &Manager{
		store: store,
		conn:  conn,
		log:   log.With("component", "profilesync"),
	}
}

// SetIdentity binds the manager to a user and resets held state. Called on
// login and logout (with an empty id).
func (m *Manager) SetIdentity(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = id
	m.profile = nil
	m.outcome = Outcome{Status: StatusNone}
}

// Profile returns a copy of the held profile, or nil.
func (m *Manager) Profile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile.Clone()
}

// Outcome returns the outcome of the most recent read.
func (m *Manager) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Load fetches the profile for the bound identity. Concurrent calls collapse
// into one fetch. When connectivity is already known to be down the read is
// attempted anyway (a cache hit is still a success), with the error state
// pre-set to Offline in case it never completes.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	if m.loading || m.identity == "" {
		m.mu.Unlock()
		return
	}
	m.loading = true
	if !m.conn.Online() {
		m.outcome = Outcome{Status: StatusError, Err: faceerr.ErrUnavailable}
	}
	id := m.identity
	m.mu.Unlock()

	p, fromCache, err := m.store.Get(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	// The identity changed while the fetch was in flight; drop the result.
	if m.identity != id {
		return
	}

	switch {
	case err == nil:
		m.profile = p.Clone()
		if fromCache {
			m.outcome = Outcome{Status: StatusFromCache}
		} else {
			m.outcome = Outcome{Status: StatusFresh}
		}
	case errors.Is(err, faceerr.ErrUnavailable):
		// Keep whatever we had; stale data beats no data when offline.
		m.outcome = Outcome{Status: StatusError, Err: err}
	default:
		m.profile = nil
		m.outcome = Outcome{Status: StatusError, Err: err}
	}

	m.log.Debug(ctx, "profile load finished", "id", id, "status", m.outcome.Status.String(), "error", m.outcome.Err)
}

// Retry re-invokes Load regardless of current state.
func (m *Manager) Retry(ctx context.Context) {
	m.Load(ctx)
}

// ApplyEnrollment merges a successful enrollment into the held profile
// without invalidating other cached fields and without a refetch.
func (m *Manager) ApplyEnrollment(imageURL string, features []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return
	}
	m.profile.SetFace(imageURL, features)
}

// Run installs the connectivity subscription and reacts to transitions until
// ctx is cancelled. The subscription is torn down symmetrically.
func (m *Manager) Run(ctx context.Context) {
	sub := m.conn.Subscribe()
	defer m.conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-sub:
			if online {
				m.onOnline(ctx)
			} else {
				m.onOffline(ctx)
			}
		}
	}
}

// onOnline triggers exactly one load when the profile is missing or the last
// outcome was an error; a healthy held profile is left alone.
func (m *Manager) onOnline(ctx context.Context) {
	m.mu.Lock()
	needsLoad := m.identity != "" && (m.profile == nil || m.outcome.Status == StatusError)
	m.mu.Unlock()

	if needsLoad {
		m.Load(ctx)
	}
}

// onOffline marks the state Offline immediately, independent of any
// in-flight fetch. Held data is retained.
func (m *Manager) onOffline(ctx context.Context) {
	m.mu.Lock()
	m.outcome = Outcome{Status: StatusError, Err: faceerr.ErrUnavailable}
	m.mu.Unlock()
	m.log.Info(ctx, "marked offline")
}
