package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

// DispatchPool délivre les snapshots découverts au sink à travers un pool de
// workers ajustable à chaud. Seul le nombre de workers est borné: la file
// grandit à la demande, pour qu'un traitement aval lent (téléchargement,
// décodage...) ne bloque jamais le coordinateur qui découvre les heures
// suivantes. La contre-pression vient du coalescing des requêtes de
// couverture, pas d'ici.
//
// SetCount() peut être appelé plusieurs fois et est thread-safe.
type DispatchPool struct {
	parent context.Context

	logger zerolog.Logger
	sink   ports.Sink

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []domain.Snapshot
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatchPool(parent context.Context, logger zerolog.Logger, sink ports.Sink) *DispatchPool {
	if parent == nil {
		parent = context.Background()
	}
	p := &DispatchPool{
		parent: parent,
		logger: logger,
		sink:   sink,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *DispatchPool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancels)
}

func (p *DispatchPool) SetCount(n int) {
	if n <= 0 {
		n = 1
	}

	p.mu.Lock()
	current := len(p.cancels)

	if n == current {
		p.mu.Unlock()
		return
	}

	if n > current {
		for i := current; i < n; i++ {
			ctx, cancel := context.WithCancel(p.parent)
			// Réveille les workers en attente quand leur contexte tombe.
			context.AfterFunc(ctx, p.cond.Broadcast)
			p.cancels = append(p.cancels, cancel)
			idx := i
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.run(ctx, p.logger.With().Int("dispatcher", idx+1).Logger())
			}()
		}
		p.mu.Unlock()
		return
	}

	// n < current : stoppe les derniers workers
	toStop := append([]context.CancelFunc(nil), p.cancels[n:]...)
	p.cancels = p.cancels[:n]
	p.mu.Unlock()

	for _, cancel := range toStop {
		cancel()
	}
}

// Dispatch queues s for delivery and returns immediately; the queue grows as
// needed, so a slow sink delays delivery, never the caller.
func (p *DispatchPool) Dispatch(s domain.Snapshot) {
	p.mu.Lock()
	p.queue = append(p.queue, s)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *DispatchPool) run(ctx context.Context, logger zerolog.Logger) {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && ctx.Err() == nil {
			p.cond.Wait()
		}
		if ctx.Err() != nil {
			p.mu.Unlock()
			return
		}
		s := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		logger.Debug().Str("file", s.FileName).Msg("dispatching snapshot")
		p.sink(s)
	}
}

// Close stops every worker and waits for in-flight sink calls to finish.
// Queued but undelivered snapshots are dropped.
func (p *DispatchPool) Close() {
	p.mu.Lock()
	toStop := append([]context.CancelFunc(nil), p.cancels...)
	p.cancels = nil
	p.mu.Unlock()

	for _, cancel := range toStop {
		cancel()
	}
	p.wg.Wait()
}
