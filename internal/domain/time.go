package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrTypeMismatch est renvoyée quand une valeur de temps n'est pas exploitable
// (en pratique: une TimeValue nil passée à une frontière de l'API).
var ErrTypeMismatch = errors.New("unsupported time value")

// TimeValue couvre les représentations de temps acceptées aux frontières de
// l'API: timestamp unix, instant absolu, ou date calendaire. L'ensemble est
// fermé (méthode non exportée): pas de passthrough permissif.
type TimeValue interface {
	timeValue()
}

// Epoch is a unix timestamp in seconds.
type Epoch int64

func (Epoch) timeValue() {}

// Date is a calendar day. It doubles as the existence-cache key for day and
// month granularities (months use the first of the month).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) timeValue() {}

// DateOf returns the calendar day containing t (UTC).
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// FirstOfMonth returns the month key for d.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// Time returns midnight (UTC) of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

type instant struct {
	t time.Time
}

func (instant) timeValue() {}

// At wraps an absolute time so it can be passed as a TimeValue.
func At(t time.Time) TimeValue {
	return instant{t: t.UTC()}
}

// NormalizeInstant coerces v to an absolute UTC time. A Date maps to its
// midnight, or to 24:00 (midnight of the following day) when includingEndOfDay
// is set, which builds an inclusive upper bound out of a date-only value.
func NormalizeInstant(v TimeValue, includingEndOfDay bool) (time.Time, error) {
	switch v := v.(type) {
	case Epoch:
		return time.Unix(int64(v), 0).UTC(), nil
	case instant:
		return v.t, nil
	case Date:
		if includingEndOfDay {
			return time.Date(v.Year, v.Month, v.Day, 24, 0, 0, 0, time.UTC), nil
		}
		return v.Time(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %T", ErrTypeMismatch, v)
}

// NormalizeDate coerces v to its calendar day.
func NormalizeDate(v TimeValue) (Date, error) {
	switch v := v.(type) {
	case Epoch:
		return DateOf(time.Unix(int64(v), 0).UTC()), nil
	case instant:
		return DateOf(v.t), nil
	case Date:
		return v, nil
	}
	return Date{}, fmt.Errorf("%w: %T", ErrTypeMismatch, v)
}

// NormalizeMonth coerces v to the first day of its month.
func NormalizeMonth(v TimeValue) (Date, error) {
	d, err := NormalizeDate(v)
	if err != nil {
		return Date{}, err
	}
	return d.FirstOfMonth(), nil
}

// FloorHour truncates t to the start of its hour bucket (UTC).
func FloorHour(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}
