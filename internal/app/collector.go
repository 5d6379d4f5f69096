package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

// Collector keeps a contiguous time range of the archive discovered and feeds
// every snapshot found to its dispatch pool. All discovery state (engine,
// existence cache, covered range) is owned by the single coordinator
// goroutine started with Run; the only cross-thread structure is the one-slot
// cover-request mailbox.
type Collector struct {
	logger zerolog.Logger
	engine *Engine
	conn   ports.Reconnecter
	pool   *DispatchPool

	// Mailbox: la requête la plus récente écrase les précédentes. Un burst de
	// CoverRequested se réduit donc à la dernière intention ("coalescing").
	mu      sync.Mutex
	pending *domain.TimeRange
	covered *domain.TimeRange // written only by the coordinator; mu publishes it to Covered
	wake    chan struct{}
}

// NewCollector wires an engine, the connector to reopen on broken connections,
// and the pool that delivers snapshots to the sink.
func NewCollector(logger zerolog.Logger, engine *Engine, conn ports.Reconnecter, pool *DispatchPool) *Collector {
	return &Collector{
		logger: logger.With().Str("component", "collector").Logger(),
		engine: engine,
		conn:   conn,
		pool:   pool,
		wake:   make(chan struct{}, 1),
	}
}

// CoverRequested asks the coordinator to make sure [a, b) has been discovered.
// It never blocks: the request lands in the mailbox, replacing any request not
// yet picked up. Requests with a >= b (after normalization) are dropped.
func (c *Collector) CoverRequested(a, b domain.TimeValue) {
	from, err := domain.NormalizeInstant(a, false)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cover request dropped")
		return
	}
	to, err := domain.NormalizeInstant(b, false)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cover request dropped")
		return
	}
	if !from.Before(to) {
		c.logger.Warn().
			Time("from", from).
			Time("to", to).
			Msg("cover request dropped: empty range")
		return
	}

	c.mu.Lock()
	c.pending = &domain.TimeRange{From: from, To: to}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Covered returns the currently covered range, or nil before the first
// processed request.
func (c *Collector) Covered() *domain.TimeRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.covered == nil {
		return nil
	}
	r := *c.covered
	return &r
}

// Run is the coordinator loop. Start it once, in its own goroutine; it exits
// when ctx is canceled and survives every transient failure in between.
func (c *Collector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("collector stopped")
			return
		case <-c.wake:
		}

		req := c.takePending()
		if req == nil {
			continue
		}
		c.process(ctx, *req)
	}
}

func (c *Collector) takePending() *domain.TimeRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	req := c.pending
	c.pending = nil
	return req
}

// process grows the covered range to include req. Only the parts of req
// outside the already covered interval are discovered; the interior is never
// re-fetched. Pour deux plages disjointes, l'union englobante fait aussi
// découvrir le trou entre les deux — limitation connue de la stratégie de
// fusion, conservée telle quelle.
func (c *Collector) process(ctx context.Context, req domain.TimeRange) {
	old := c.covered
	if old == nil {
		c.cover(ctx, req.From, req.To)
		c.setCovered(req)
		return
	}

	merged := old.Union(req)
	c.cover(ctx, merged.From, old.From)
	c.cover(ctx, old.To, merged.To)
	c.setCovered(merged)
}

func (c *Collector) setCovered(r domain.TimeRange) {
	c.mu.Lock()
	c.covered = &r
	c.mu.Unlock()
}

// cover discovers [from, to) and dispatches every snapshot found. Empty
// intervals cost nothing. A broken connection mid-stream is recovered by
// reopening the connector; the coordinator keeps running either way.
func (c *Collector) cover(ctx context.Context, from, to time.Time) {
	if !from.Before(to) {
		return
	}

	it, err := c.engine.Discover(ctx, domain.At(from), domain.At(to))
	if err != nil {
		c.logger.Error().Err(err).Msg("discover rejected")
		return
	}

	n := 0
	for it.Next() {
		c.pool.Dispatch(it.Snapshot())
		n++
	}

	if err := it.Err(); err != nil {
		var connErr *ports.ConnectionError
		if errors.As(err, &connErr) {
			c.logger.Warn().Err(err).Msg("connection broken, reconnecting")
			if rerr := c.conn.Reconnect(); rerr != nil {
				c.logger.Error().Err(rerr).Msg("reconnect failed")
			}
			return
		}
		c.logger.Error().Err(err).Msg("discovery aborted")
		return
	}

	c.logger.Debug().
		Time("from", from).
		Time("to", to).
		Int("snapshots", n).
		Msg("range covered")
}
