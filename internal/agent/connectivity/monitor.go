// Package connectivity turns the ambient "is the network up" question into
// an explicit, injectable object with subscription semantics, so the sync
// layer can react to transitions and tests can simulate them.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/avigen/faceguard/internal/logging"
)

// Prober checks backend reachability. The profile-service client satisfies
// this with its Ping method.
type Prober interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

// Monitor tracks a process-wide online/offline boolean and notifies
// subscribers on every transition. State also flips through SetOnline, which
// tests and the CLI's manual toggle use directly.
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      logging.Logger

	mu     sync.Mutex
	online bool
	subs   map[chan bool]struct{}
}

func NewMonitor(prober Prober, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
		log:      log.With("component", "connectivity"),
		subs:     map[chan bool]struct{}{},
	}
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel receiving the new state on every transition.
// The channel is buffered; a slow consumer misses intermediate flips but
// always sees the latest one.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription installed by Subscribe.
func (m *Monitor) Unsubscribe(ch <-chan bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		if sub == ch {
			delete(m.subs, sub)
			return
		}
	}
}

// SetOnline records the state and notifies subscribers if it changed.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	m.log.Info(context.Background(), "connectivity changed", "online", online)

	for _, sub := range subs {
		// Replace a stale pending value rather than blocking.
		select {
		case sub <- online:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- online:
			default:
			}
		}
	}
}

// Run probes the backend on a ticker until ctx is cancelled. The first probe
// happens immediately so the initial state settles fast.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := m.prober.Ping(probeCtx)
	cancel()
	m.SetOnline(err == nil)
}
