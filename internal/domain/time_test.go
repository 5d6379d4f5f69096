package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeInstant_Epoch(t *testing.T) {
	got, err := NormalizeInstant(Epoch(1421000000), false)
	if err != nil {
		t.Fatalf("NormalizeInstant: %v", err)
	}
	want := time.Date(2015, 1, 11, 18, 13, 20, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestNormalizeInstant_Instant(t *testing.T) {
	in := time.Date(2015, 1, 4, 3, 0, 0, 123_000_000, time.UTC)
	got, err := NormalizeInstant(At(in), false)
	if err != nil {
		t.Fatalf("NormalizeInstant: %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("want %s, got %s", in, got)
	}
}

func TestNormalizeInstant_Date(t *testing.T) {
	d := Date{Year: 2015, Month: time.January, Day: 4}

	got, err := NormalizeInstant(d, false)
	if err != nil {
		t.Fatalf("NormalizeInstant: %v", err)
	}
	if want := time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("midnight: want %s, got %s", want, got)
	}

	// 24:00 = minuit du jour suivant, pour construire une borne haute inclusive.
	got, err = NormalizeInstant(d, true)
	if err != nil {
		t.Fatalf("NormalizeInstant(end of day): %v", err)
	}
	if want := time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("end of day: want %s, got %s", want, got)
	}
}

func TestNormalizeInstant_NilIsTypeMismatch(t *testing.T) {
	if _, err := NormalizeInstant(nil, false); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := NormalizeDate(nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := NormalizeMonth(nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	want := Date{Year: 2015, Month: time.January, Day: 11}

	got, err := NormalizeDate(Epoch(1421000000))
	if err != nil {
		t.Fatalf("NormalizeDate(epoch): %v", err)
	}
	if got != want {
		t.Fatalf("epoch: want %v, got %v", want, got)
	}

	got, err = NormalizeDate(At(time.Date(2015, 1, 11, 18, 13, 20, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NormalizeDate(instant): %v", err)
	}
	if got != want {
		t.Fatalf("instant: want %v, got %v", want, got)
	}

	got, err = NormalizeDate(want)
	if err != nil {
		t.Fatalf("NormalizeDate(date): %v", err)
	}
	if got != want {
		t.Fatalf("date: want %v, got %v", want, got)
	}
}

func TestNormalizeMonth(t *testing.T) {
	got, err := NormalizeMonth(Date{Year: 2015, Month: time.January, Day: 11})
	if err != nil {
		t.Fatalf("NormalizeMonth: %v", err)
	}
	if want := (Date{Year: 2015, Month: time.January, Day: 1}); got != want {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestFloorHour(t *testing.T) {
	in := time.Date(2015, 1, 4, 3, 42, 59, 999, time.UTC)
	if got, want := FloorHour(in), time.Date(2015, 1, 4, 3, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestTimeRangeUnion(t *testing.T) {
	h := func(hour int) time.Time { return time.Date(2015, 1, 4, hour, 0, 0, 0, time.UTC) }

	a := TimeRange{From: h(5), To: h(10)}
	b := TimeRange{From: h(8), To: h(15)}
	u := a.Union(b)
	if !u.From.Equal(h(5)) || !u.To.Equal(h(15)) {
		t.Fatalf("union: got [%s, %s)", u.From, u.To)
	}

	// Bounding union: intervalles disjoints -> le trou est couvert aussi.
	c := TimeRange{From: h(20), To: h(22)}
	u = a.Union(c)
	if !u.From.Equal(h(5)) || !u.To.Equal(h(22)) {
		t.Fatalf("disjoint union: got [%s, %s)", u.From, u.To)
	}
}
