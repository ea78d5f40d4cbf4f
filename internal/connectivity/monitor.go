// Package connectivity tracks network reachability and triggers queue
// drains when the network comes back.
package connectivity

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Signal is one reachability report from the platform layer.
// InternetReachable is tri-state: nil means unknown and is treated
// optimistically.
type Signal struct {
	Connected         bool  `json:"connected"`
	InternetReachable *bool `json:"internetReachable"`
}

// Monitor reduces reachability signals to a single process-wide
// boolean and emits edge-triggered transitions. It starts optimistic
// (reachable) so the first send is attempted rather than queued.
type Monitor struct {
	mu        sync.Mutex
	reachable bool

	// online has capacity 1; rapid flapping collapses into a single
	// pending drain trigger.
	online chan struct{}
}

func NewMonitor() *Monitor {
	return &Monitor{
		reachable: true,
		online:    make(chan struct{}, 1),
	}
}

// Apply folds one reachability signal into the current state.
func (m *Monitor) Apply(sig Signal) {
	next := sig.Connected && (sig.InternetReachable == nil || *sig.InternetReachable)

	m.mu.Lock()
	changed := next != m.reachable
	m.reachable = next
	m.mu.Unlock()

	if !changed {
		return
	}

	log.Info().Bool("reachable", next).Msg("Connectivity changed")

	if next {
		select {
		case m.online <- struct{}{}:
		default:
		}
	}
}

// Reachable reports whether the network is currently considered usable.
func (m *Monitor) Reachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// Run consumes transitions to reachable and invokes drain once per
// transition, waiting for each drain to finish before reading the next
// one. Drains therefore never overlap. Run returns when ctx is done.
func (m *Monitor) Run(ctx context.Context, drain func(context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.online:
			if err := drain(ctx); err != nil {
				log.Error().Err(err).Msg("Queue drain failed")
			}
		}
	}
}
