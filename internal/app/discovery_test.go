package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/adapters/archivehttp"
	"github.com/AstronomickaExpedice/bzarchive/internal/archivetest"
	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

func newTestEngine(t *testing.T, srv *archivetest.Server) *Engine {
	t.Helper()
	conn, err := archivehttp.New(srv.URL(), zerolog.Nop())
	if err != nil {
		t.Fatalf("archivehttp.New: %v", err)
	}
	if err := conn.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return NewEngine(srv.URL(), domain.KindSnapshots, conn, zerolog.Nop())
}

func collect(t *testing.T, it *SnapshotIter) []domain.Snapshot {
	t.Helper()
	var out []domain.Snapshot
	for it.Next() {
		out = append(out, it.Snapshot())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return out
}

func TestDiscover_SingleSnapshotFixture(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)

	taken := time.Date(2015, 1, 4, 3, 0, 0, 123_000_000, time.UTC)
	name := srv.Add("snapshots", taken, "sta")

	eng := newTestEngine(t, srv)
	it, err := eng.Discover(context.Background(),
		domain.At(time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC)),
		domain.At(time.Date(2015, 1, 4, 6, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := collect(t, it)
	if len(got) != 1 {
		t.Fatalf("expected exactly one snapshot, got %d: %+v", len(got), got)
	}
	if got[0].FileName != name {
		t.Fatalf("FileName: want %q, got %q", name, got[0].FileName)
	}
	if want := srv.URL() + "snapshots/2015/01/04/03/" + name; got[0].URL != want {
		t.Fatalf("URL: want %q, got %q", want, got[0].URL)
	}
	if !got[0].Time.Equal(taken) {
		t.Fatalf("Time: want %s, got %s", taken, got[0].Time)
	}
}

func TestDiscover_HalfOpenRange(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)

	before := time.Date(2015, 1, 4, 2, 59, 59, 999_000_000, time.UTC)
	atFrom := time.Date(2015, 1, 4, 3, 0, 0, 0, time.UTC)
	inside := time.Date(2015, 1, 4, 4, 59, 59, 999_000_000, time.UTC)
	atTo := time.Date(2015, 1, 4, 5, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{before, atFrom, inside, atTo} {
		srv.Add("snapshots", ts, "sta")
	}

	eng := newTestEngine(t, srv)
	it, err := eng.Discover(context.Background(), domain.At(atFrom), domain.At(atTo))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := collect(t, it)
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d: %+v", len(got), got)
	}
	for _, s := range got {
		if s.Time.Before(atFrom) || !s.Time.Before(atTo) {
			t.Fatalf("snapshot %s outside [from, to)", s.Time)
		}
	}
}

func TestDiscover_InvalidRange(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)
	eng := newTestEngine(t, srv)

	a := time.Date(2015, 1, 4, 3, 0, 0, 0, time.UTC)

	var rangeErr *InvalidRangeError
	if _, err := eng.Discover(context.Background(), domain.At(a), domain.At(a)); !errors.As(err, &rangeErr) {
		t.Fatalf("from == to: expected InvalidRangeError, got %v", err)
	}
	if _, err := eng.Discover(context.Background(), domain.At(a.Add(time.Hour)), domain.At(a)); !errors.As(err, &rangeErr) {
		t.Fatalf("from > to: expected InvalidRangeError, got %v", err)
	}
	if srv.TotalRequests() != 0 {
		t.Fatalf("InvalidRange must be rejected before any fetch, saw %d requests", srv.TotalRequests())
	}
}

func TestDiscover_NilToDefaultsToNow(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)

	taken := time.Date(2015, 1, 4, 3, 0, 0, 123_000_000, time.UTC)
	srv.Add("snapshots", taken, "sta")

	eng := newTestEngine(t, srv)
	eng.now = func() time.Time { return time.Date(2015, 1, 4, 4, 0, 0, 0, time.UTC) }

	it, err := eng.Discover(context.Background(), domain.At(time.Date(2015, 1, 4, 3, 0, 0, 0, time.UTC)), nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := collect(t, it); len(got) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(got))
	}
}

func TestDiscover_FailedHourIsSkippedAndDayMarkedMissing(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)

	// Le 4 janvier a des données à 03h; le 5 janvier n'existe pas du tout.
	taken := time.Date(2015, 1, 4, 3, 0, 0, 123_000_000, time.UTC)
	srv.Add("snapshots", taken, "sta")

	eng := newTestEngine(t, srv)
	it, err := eng.Discover(context.Background(),
		domain.At(time.Date(2015, 1, 4, 3, 0, 0, 0, time.UTC)),
		domain.At(time.Date(2015, 1, 5, 2, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := collect(t, it)
	if len(got) != 1 || !got[0].Time.Equal(taken) {
		t.Fatalf("expected the populated hour to survive, got %+v", got)
	}

	day5 := domain.Date{Year: 2015, Month: time.January, Day: 5}
	if !eng.cache.isDayKnownMissing(day5, domain.KindSnapshots) {
		t.Fatalf("expected 2015-01-05 to be recorded missing")
	}

	// La première heure du 5 a déclenché le probe; la seconde a été sautée
	// sans le moindre fetch.
	if n := srv.Requests("/snapshots/2015/01/05/00/"); n != 1 {
		t.Fatalf("hour 00 of missing day: want 1 request, got %d", n)
	}
	if n := srv.Requests("/snapshots/2015/01/05/01/"); n != 0 {
		t.Fatalf("hour 01 of missing day: want 0 requests, got %d", n)
	}

	// Une fois un jour résolu comme manquant, le re-parcourir ne coûte rien.
	total := srv.TotalRequests()
	it, err = eng.Discover(context.Background(),
		domain.At(time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC)),
		domain.At(time.Date(2015, 1, 5, 6, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := collect(t, it); len(got) != 0 {
		t.Fatalf("expected nothing from the missing day, got %+v", got)
	}
	if srv.TotalRequests() != total {
		t.Fatalf("missing day re-discovery must be free: %d -> %d requests", total, srv.TotalRequests())
	}
}

func TestDiscover_ResultsAreHourOrdered(t *testing.T) {
	srv := archivetest.New()
	t.Cleanup(srv.Close)

	times := []time.Time{
		time.Date(2015, 1, 4, 3, 10, 0, 0, time.UTC),
		time.Date(2015, 1, 4, 3, 40, 0, 0, time.UTC),
		time.Date(2015, 1, 4, 5, 5, 0, 0, time.UTC),
	}
	for _, ts := range times {
		srv.Add("snapshots", ts, "sta")
	}

	eng := newTestEngine(t, srv)
	it, err := eng.Discover(context.Background(),
		domain.At(time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC)),
		domain.At(time.Date(2015, 1, 4, 6, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	got := collect(t, it)
	if len(got) != len(times) {
		t.Fatalf("expected %d snapshots, got %d", len(times), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time.Before(got[i-1].Time) {
			t.Fatalf("snapshots out of order: %s before %s", got[i].Time, got[i-1].Time)
		}
	}
}

// fakeFetcher répond selon une table URL -> statut et compte les appels.
// Thread-safe: les tests du Collector l'utilisent depuis le coordinateur.
type fakeFetcher struct {
	mu       sync.Mutex
	statuses map[string]int
	bodies   map[string]string
	calls    map[string]int
	errs     []error // consommées une par une avant la table
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		statuses: make(map[string]int),
		bodies:   make(map[string]string),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, expectOK bool) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return 0, nil, err
	}
	status, ok := f.statuses[url]
	if !ok {
		status = 404
	}
	if expectOK && status != 200 {
		return status, nil, &ports.UnexpectedStatusError{URL: url, Status: status}
	}
	return status, []byte(f.bodies[url]), nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func TestProbe_CachesEveryLevel(t *testing.T) {
	f := newFakeFetcher()
	eng := NewEngine("http://a/", domain.KindSnapshots, f, zerolog.Nop())

	hour := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)

	// Année absente: un seul fetch, puis tout est servi par le cache.
	if err := eng.probe(context.Background(), hour); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if f.count("http://a/snapshots/2014/") != 1 {
		t.Fatalf("expected one probe of the year directory, got %d", f.count("http://a/snapshots/2014/"))
	}
	if !eng.cache.isDayKnownMissing(domain.DateOf(hour), domain.KindSnapshots) {
		t.Fatalf("day should inherit the missing year")
	}

	if err := eng.probe(context.Background(), hour); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if f.total() != 1 {
		t.Fatalf("second probe must be free, saw %d fetches", f.total())
	}
}

func TestProbe_StopsAtMissingMonth(t *testing.T) {
	f := newFakeFetcher()
	f.statuses["http://a/snapshots/2015/"] = 200
	eng := NewEngine("http://a/", domain.KindSnapshots, f, zerolog.Nop())

	hour := time.Date(2015, 2, 10, 0, 0, 0, 0, time.UTC)
	if err := eng.probe(context.Background(), hour); err != nil {
		t.Fatalf("probe: %v", err)
	}

	if f.count("http://a/snapshots/2015/") != 1 || f.count("http://a/snapshots/2015/02/") != 1 {
		t.Fatalf("expected year then month probes, got %v", f.calls)
	}
	if f.count("http://a/snapshots/2015/02/10/") != 0 {
		t.Fatalf("day must not be probed under a missing month")
	}

	// Un autre jour du même mois profite du cache sans réseau.
	other := time.Date(2015, 2, 20, 5, 0, 0, 0, time.UTC)
	before := f.total()
	if err := eng.probe(context.Background(), other); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if f.total() != before {
		t.Fatalf("probe under a missing month must be free")
	}
}

func TestProbe_KindsAreIndependent(t *testing.T) {
	f := newFakeFetcher()
	engA := NewEngine("http://a/", domain.KindSnapshots, f, zerolog.Nop())
	engB := NewEngine("http://a/", domain.Kind("meteors"), f, zerolog.Nop())

	hour := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := engA.probe(context.Background(), hour); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if err := engB.probe(context.Background(), hour); err != nil {
		t.Fatalf("probe: %v", err)
	}

	if f.count("http://a/snapshots/2014/") != 1 || f.count("http://a/meteors/2014/") != 1 {
		t.Fatalf("each kind probes its own namespace, got %v", f.calls)
	}
}
