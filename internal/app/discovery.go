package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

// Engine discovers snapshot files in the archive's fixed
// {base}/{kind}/{YYYY}/{MM}/{DD}/{HH}/ layout. It remembers which calendar
// levels exist so a region is never probed twice.
//
// Un Engine est piloté par un seul appelant à la fois (en pratique le
// coordinateur d'un Collector); son cache n'est pas synchronisé.
type Engine struct {
	baseURL string
	kind    domain.Kind
	fetcher ports.Fetcher
	cache   *existenceCache
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEngine construit un moteur de découverte pour un kind. Plusieurs Engine
// (un par kind) peuvent partager le même Fetcher.
func NewEngine(baseURL string, kind domain.Kind, fetcher ports.Fetcher, logger zerolog.Logger) *Engine {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Engine{
		baseURL: baseURL,
		kind:    kind,
		fetcher: fetcher,
		cache:   newExistenceCache(),
		logger:  logger.With().Str("kind", string(kind)).Logger(),
		now:     time.Now,
	}
}

func (e *Engine) yearURL(year int) string {
	return fmt.Sprintf("%s%s/%04d/", e.baseURL, e.kind, year)
}

func (e *Engine) monthURL(month domain.Date) string {
	return fmt.Sprintf("%s%02d/", e.yearURL(month.Year), int(month.Month))
}

func (e *Engine) dayURL(day domain.Date) string {
	return fmt.Sprintf("%s%02d/", e.monthURL(day.FirstOfMonth()), day.Day)
}

func (e *Engine) hourURL(hour time.Time) string {
	return fmt.Sprintf("%s%02d/", e.dayURL(domain.DateOf(hour)), hour.UTC().Hour())
}

// Discover returns a lazy, forward-only iterator over every snapshot whose
// timestamp lies in [from, to). A nil to defaults to now. The only boundary
// failures are ErrTypeMismatch and InvalidRangeError; everything past that is
// handled hour by hour (see SnapshotIter).
func (e *Engine) Discover(ctx context.Context, from, to domain.TimeValue) (*SnapshotIter, error) {
	fromT, err := domain.NormalizeInstant(from, false)
	if err != nil {
		return nil, err
	}

	var toT time.Time
	if to == nil {
		toT = e.now().UTC()
	} else {
		toT, err = domain.NormalizeInstant(to, false)
		if err != nil {
			return nil, err
		}
	}

	if !fromT.Before(toT) {
		return nil, &InvalidRangeError{From: fromT, To: toT}
	}

	return &SnapshotIter{
		ctx:      ctx,
		eng:      e,
		from:     fromT,
		to:       toT,
		hour:     domain.FloorHour(fromT),
		lastHour: domain.FloorHour(toT),
	}, nil
}

// snapshotsInHour lists one hour directory. A day already known missing costs
// nothing. A non-200 answer updates the existence cache via probe and yields
// an empty hour; only transport failures come back as errors.
func (e *Engine) snapshotsInHour(ctx context.Context, hour time.Time) ([]domain.Snapshot, error) {
	day := domain.DateOf(hour)
	if e.cache.isDayKnownMissing(day, e.kind) {
		return nil, nil
	}

	listingURL := e.hourURL(hour)
	_, body, err := e.fetcher.Fetch(ctx, listingURL, true)
	if err != nil {
		var statusErr *ports.UnexpectedStatusError
		if errors.As(err, &statusErr) {
			e.logger.Debug().
				Str("url", listingURL).
				Int("status", statusErr.Status).
				Msg("hour listing unavailable")
			if perr := e.probe(ctx, hour); perr != nil {
				return nil, perr
			}
			return nil, nil
		}
		return nil, err
	}

	return parseSnapshots(listingURL, body)
}

// probe walks year -> month -> day for hour, recording at each level whether
// the directory exists. Known levels are skipped without network traffic; a
// missing level stops the walk.
func (e *Engine) probe(ctx context.Context, hour time.Time) error {
	day := domain.DateOf(hour)
	month := day.FirstOfMonth()

	if e.cache.isYearMissing(day.Year, e.kind) {
		return nil
	}
	if !e.cache.isYearExisting(day.Year, e.kind) {
		ok, err := e.probeURL(ctx, e.yearURL(day.Year))
		if err != nil {
			return err
		}
		if !ok {
			e.cache.markYearMissing(day.Year, e.kind)
			return nil
		}
		e.cache.markYearExisting(day.Year, e.kind)
	}

	if e.cache.isMonthMissing(month, e.kind) {
		return nil
	}
	if !e.cache.isMonthExisting(month, e.kind) {
		ok, err := e.probeURL(ctx, e.monthURL(month))
		if err != nil {
			return err
		}
		if !ok {
			e.cache.markMonthMissing(month, e.kind)
			return nil
		}
		e.cache.markMonthExisting(month, e.kind)
	}

	if e.cache.isDayKnownMissing(day, e.kind) {
		return nil
	}
	if !e.cache.isDayExisting(day, e.kind) {
		ok, err := e.probeURL(ctx, e.dayURL(day))
		if err != nil {
			return err
		}
		if !ok {
			e.cache.markDayMissing(day, e.kind)
			return nil
		}
		e.cache.markDayExisting(day, e.kind)
	}
	return nil
}

func (e *Engine) probeURL(ctx context.Context, url string) (bool, error) {
	status, _, err := e.fetcher.Fetch(ctx, url, false)
	if err != nil {
		return false, err
	}
	return status == 200, nil
}

// SnapshotIter walks hour buckets lazily, one directory fetch at a time,
// bufio.Scanner style:
//
//	it, err := eng.Discover(ctx, from, to)
//	for it.Next() {
//		use(it.Snapshot())
//	}
//	if err := it.Err(); err != nil { ... }
//
// A failed hour never terminates the iteration; Err is only set for transport
// failures, qui coupent la séquence là où elle en était.
type SnapshotIter struct {
	ctx      context.Context
	eng      *Engine
	from     time.Time
	to       time.Time
	hour     time.Time
	lastHour time.Time

	queue []domain.Snapshot
	cur   domain.Snapshot
	err   error
	done  bool
}

// Next advances to the next snapshot in [from, to), fetching further hour
// listings as needed. It returns false when the range is exhausted or a
// transport failure occurred (check Err).
func (it *SnapshotIter) Next() bool {
	for {
		if it.done || it.err != nil {
			return false
		}
		if len(it.queue) > 0 {
			it.cur = it.queue[0]
			it.queue = it.queue[1:]
			return true
		}
		if it.hour.After(it.lastHour) {
			it.done = true
			return false
		}

		hour := it.hour
		it.hour = hour.Add(time.Hour)

		snaps, err := it.eng.snapshotsInHour(it.ctx, hour)
		if err != nil {
			it.err = err
			return false
		}
		for _, s := range snaps {
			if !s.Time.Before(it.from) && s.Time.Before(it.to) {
				it.queue = append(it.queue, s)
			}
		}
	}
}

// Snapshot returns the record produced by the last successful Next.
func (it *SnapshotIter) Snapshot() domain.Snapshot { return it.cur }

// Err returns the transport failure that terminated the iteration, if any.
func (it *SnapshotIter) Err() error { return it.err }
