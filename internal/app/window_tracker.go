package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
)

// coverRequester is the part of the Collector the tracker needs.
type coverRequester interface {
	CoverRequested(a, b domain.TimeValue)
}

// WindowTracker keeps a moving window of interest covered: every tick it asks
// the collector to cover [now-Span, now+Lead). Coalescing in the collector
// makes a fast tick harmless.
type WindowTracker struct {
	logger zerolog.Logger
	col    coverRequester

	TickInterval time.Duration
	Span         time.Duration // recul par rapport à maintenant
	Lead         time.Duration // avance par rapport à maintenant

	now func() time.Time
}

func NewWindowTracker(logger zerolog.Logger, col coverRequester) *WindowTracker {
	return &WindowTracker{
		logger:       logger.With().Str("component", "window_tracker").Logger(),
		col:          col,
		TickInterval: 10 * time.Second,
		Span:         time.Hour,
		Lead:         time.Minute,
		now:          time.Now,
	}
}

func (wt *WindowTracker) Run(ctx context.Context) {
	interval := wt.TickInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wt.tick()

	for {
		select {
		case <-ctx.Done():
			wt.logger.Info().Msg("window tracker stopped")
			return
		case <-ticker.C:
			wt.tick()
		}
	}
}

func (wt *WindowTracker) tick() {
	now := wt.now().UTC()
	from := now.Add(-wt.Span)
	to := now.Add(wt.Lead)
	if !from.Before(to) {
		return
	}
	wt.col.CoverRequested(domain.At(from), domain.At(to))
}
