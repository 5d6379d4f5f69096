package app

import "github.com/AstronomickaExpedice/bzarchive/internal/domain"

type yearKey struct {
	Year int
	Kind domain.Kind
}

type monthKey struct {
	Month domain.Date // first of month
	Kind  domain.Kind
}

type dayKey struct {
	Day  domain.Date
	Kind domain.Kind
}

// existenceCache remembers which calendar levels of the archive are known to
// exist or known to be absent, per kind. A level recorded missing stays
// missing for the life of the cache, so repeated queries for a resolved
// region cost no network traffic.
//
// Propriété d'un seul Engine, lui-même piloté par le seul coordinateur du
// Collector: aucun verrou nécessaire.
type existenceCache struct {
	existingYears  map[yearKey]struct{}
	existingMonths map[monthKey]struct{}
	existingDays   map[dayKey]struct{}

	missingYears  map[yearKey]struct{}
	missingMonths map[monthKey]struct{}
	missingDays   map[dayKey]struct{}
}

func newExistenceCache() *existenceCache {
	return &existenceCache{
		existingYears:  make(map[yearKey]struct{}),
		existingMonths: make(map[monthKey]struct{}),
		existingDays:   make(map[dayKey]struct{}),
		missingYears:   make(map[yearKey]struct{}),
		missingMonths:  make(map[monthKey]struct{}),
		missingDays:    make(map[dayKey]struct{}),
	}
}

// isDayKnownMissing reports whether day, its month or its year is recorded
// missing for kind. Checked coarsest-first, short-circuiting.
func (c *existenceCache) isDayKnownMissing(day domain.Date, kind domain.Kind) bool {
	if _, ok := c.missingYears[yearKey{day.Year, kind}]; ok {
		return true
	}
	if _, ok := c.missingMonths[monthKey{day.FirstOfMonth(), kind}]; ok {
		return true
	}
	_, ok := c.missingDays[dayKey{day, kind}]
	return ok
}

func (c *existenceCache) isYearExisting(year int, kind domain.Kind) bool {
	_, ok := c.existingYears[yearKey{year, kind}]
	return ok
}

func (c *existenceCache) isYearMissing(year int, kind domain.Kind) bool {
	_, ok := c.missingYears[yearKey{year, kind}]
	return ok
}

func (c *existenceCache) isMonthExisting(month domain.Date, kind domain.Kind) bool {
	_, ok := c.existingMonths[monthKey{month, kind}]
	return ok
}

func (c *existenceCache) isMonthMissing(month domain.Date, kind domain.Kind) bool {
	_, ok := c.missingMonths[monthKey{month, kind}]
	return ok
}

func (c *existenceCache) isDayExisting(day domain.Date, kind domain.Kind) bool {
	_, ok := c.existingDays[dayKey{day, kind}]
	return ok
}

func (c *existenceCache) markYearExisting(year int, kind domain.Kind) {
	c.existingYears[yearKey{year, kind}] = struct{}{}
}

func (c *existenceCache) markYearMissing(year int, kind domain.Kind) {
	c.missingYears[yearKey{year, kind}] = struct{}{}
}

func (c *existenceCache) markMonthExisting(month domain.Date, kind domain.Kind) {
	c.existingMonths[monthKey{month.FirstOfMonth(), kind}] = struct{}{}
}

func (c *existenceCache) markMonthMissing(month domain.Date, kind domain.Kind) {
	c.missingMonths[monthKey{month.FirstOfMonth(), kind}] = struct{}{}
}

func (c *existenceCache) markDayExisting(day domain.Date, kind domain.Kind) {
	c.existingDays[dayKey{day, kind}] = struct{}{}
}

func (c *existenceCache) markDayMissing(day domain.Date, kind domain.Kind) {
	c.missingDays[dayKey{day, kind}] = struct{}{}
}
