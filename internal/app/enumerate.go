package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
)

// Énumération des niveaux calendaires publiés par l'archive. Contrairement au
// probe, ces appels exigent un listing (non-200 = erreur); chaque niveau listé
// est enregistré existant, donc une énumération réchauffe le cache pour les
// découvertes qui suivent.

func (e *Engine) kindURL() string {
	return fmt.Sprintf("%s%s/", e.baseURL, e.kind)
}

// Years lists the years the archive publishes for the engine's kind, in
// listing order.
func (e *Engine) Years(ctx context.Context) ([]int, error) {
	entries, err := e.subdirs(ctx, e.kindURL())
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(entries))
	for _, en := range entries {
		e.cache.markYearExisting(en.Value, e.kind)
		years = append(years, en.Value)
	}
	return years, nil
}

// Months lists the months published for year, as first-of-month dates.
func (e *Engine) Months(ctx context.Context, year int) ([]domain.Date, error) {
	entries, err := e.subdirs(ctx, e.yearURL(year))
	if err != nil {
		return nil, err
	}
	e.cache.markYearExisting(year, e.kind)
	months := make([]domain.Date, 0, len(entries))
	for _, en := range entries {
		m := domain.Date{Year: year, Month: time.Month(en.Value), Day: 1}
		e.cache.markMonthExisting(m, e.kind)
		months = append(months, m)
	}
	return months, nil
}

// Days lists the days published for month.
func (e *Engine) Days(ctx context.Context, month domain.Date) ([]domain.Date, error) {
	month = month.FirstOfMonth()
	entries, err := e.subdirs(ctx, e.monthURL(month))
	if err != nil {
		return nil, err
	}
	e.cache.markMonthExisting(month, e.kind)
	days := make([]domain.Date, 0, len(entries))
	for _, en := range entries {
		d := domain.Date{Year: month.Year, Month: month.Month, Day: en.Value}
		e.cache.markDayExisting(d, e.kind)
		days = append(days, d)
	}
	return days, nil
}

func (e *Engine) subdirs(ctx context.Context, url string) ([]dirEntry, error) {
	_, body, err := e.fetcher.Fetch(ctx, url, true)
	if err != nil {
		return nil, err
	}
	return parseSubdirs(url, body)
}
