package app

import (
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
)

// L'archive sert des pages d'index nginx/apache classiques; deux motifs
// suffisent à en extraire ce qui nous intéresse, sans parseur HTML complet.
var (
	// Sous-répertoires purement numériques (années, mois, jours, heures),
	// slash final optionnel.
	reSubdir = regexp.MustCompile(`href\s*=\s*"\s*(([0-9]+)/?)\s*"`)

	// Fichiers snapshot: YYYYMMDDHHmmss + millisecondes, tag station libre,
	// suffixe fixe.
	reSnapshot = regexp.MustCompile(`href\s*=\s*"\s*((\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})(\d{3})_(.*?)_snap\.fits)\s*/?\s*"`)
)

type dirEntry struct {
	URL   string
	Value int
}

// parseSubdirs extracts numeric sub-directory links from a listing page, in
// document order, resolved against the page's own URL.
func parseSubdirs(pageURL string, body []byte) ([]dirEntry, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var entries []dirEntry
	for _, m := range reSubdir.FindAllSubmatch(body, -1) {
		ref, err := url.Parse(string(m[1]))
		if err != nil {
			continue
		}
		v, err := strconv.Atoi(string(m[2]))
		if err != nil {
			continue
		}
		entries = append(entries, dirEntry{
			URL:   base.ResolveReference(ref).String(),
			Value: v,
		})
	}
	return entries, nil
}

// parseSnapshots extracts snapshot file links from an hour listing page, in
// document order. The timestamp is built straight from the captured fields,
// milliseconds included.
func parseSnapshots(pageURL string, body []byte) ([]domain.Snapshot, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var snaps []domain.Snapshot
	for _, m := range reSnapshot.FindAllSubmatch(body, -1) {
		name := string(m[1])
		ref, err := url.Parse(name)
		if err != nil {
			continue
		}

		year := atoi(m[2])
		month := atoi(m[3])
		day := atoi(m[4])
		hour := atoi(m[5])
		minute := atoi(m[6])
		second := atoi(m[7])
		milli := atoi(m[8])

		snaps = append(snaps, domain.Snapshot{
			FileName: name,
			URL:      base.ResolveReference(ref).String(),
			Time: time.Date(year, time.Month(month), day,
				hour, minute, second, milli*int(time.Millisecond), time.UTC),
		})
	}
	return snaps, nil
}

// atoi sur un groupe déjà validé par la regexp.
func atoi(b []byte) int {
	n, _ := strconv.Atoi(string(b))
	return n
}
