package sqlitecat

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

// Catalog records every snapshot the collector found, deduplicated by URL.
type Catalog struct {
	db   *sql.DB
	kind domain.Kind
}

func NewCatalog(db *sql.DB, kind domain.Kind) *Catalog {
	return &Catalog{db: db, kind: kind}
}

// Record inserts s, ignoring URLs already known. Un même snapshot redécouvert
// (re-cover d'une plage) ne crée donc pas de doublon.
func (c *Catalog) Record(ctx context.Context, s domain.Snapshot) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO snapshots(url, file_name, kind, taken_at, seen_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, s.URL, s.FileName, string(c.kind), s.Time.UTC().UnixMilli(), time.Now().UTC().Format(time.RFC3339))
	return err
}

// ByRange returns the recorded snapshots with taken_at in [from, to), in time
// order.
func (c *Catalog) ByRange(ctx context.Context, from, to time.Time) ([]domain.Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT url, file_name, taken_at FROM snapshots
		WHERE kind = ? AND taken_at >= ? AND taken_at < ?
		ORDER BY taken_at ASC
	`, string(c.kind), from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		var ms int64
		if err := rows.Scan(&s.URL, &s.FileName, &ms); err != nil {
			return nil, err
		}
		s.Time = time.UnixMilli(ms).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Sink adapts the catalog to the collector's sink signature. Insert failures
// are logged, never propagated: the sink contract has no error channel.
func (c *Catalog) Sink(ctx context.Context, logger zerolog.Logger) ports.Sink {
	return func(s domain.Snapshot) {
		if err := c.Record(ctx, s); err != nil {
			logger.Error().Err(err).Str("url", s.URL).Msg("catalog insert failed")
		}
	}
}
