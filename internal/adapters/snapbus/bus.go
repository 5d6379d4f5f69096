// Package snapbus is an in-memory fan-out of discovered snapshots, meant for
// UI-style consumers: several views can follow one collector, and a consumer
// that stops draining loses events instead of stalling the publisher.
package snapbus

import (
	"sync"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

var _ ports.SnapshotBus = (*Bus)(nil)

type Bus struct {
	mu    sync.Mutex
	subs  map[chan domain.Snapshot]struct{}
	alive bool
}

func New() *Bus {
	return &Bus{subs: make(map[chan domain.Snapshot]struct{}), alive: true}
}

// Sink returns a ports.Sink publishing into the bus, so the bus can be wired
// straight into a DispatchPool.
func (b *Bus) Sink() ports.Sink {
	return b.Publish
}

func (b *Bus) Publish(s domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// drop si le client est trop lent
		}
	}
}

func (b *Bus) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 64)
	b.mu.Lock()
	if !b.alive {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Close unsubscribes everyone; later Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.alive = false
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
