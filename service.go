// Package bzarchive assemble le sous-système complet de découverte d'une
// archive Bolidozor à partir d'une Config: connecteur HTTP, moteur de
// découverte, collecteur, pool de livraison et, en option, le catalogue
// SQLite. Les paquets internes restent utilisables un par un; ce niveau ne
// fait que le câblage.
package bzarchive

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/adapters/archivehttp"
	"github.com/AstronomickaExpedice/bzarchive/internal/adapters/sqlitecat"
	"github.com/AstronomickaExpedice/bzarchive/internal/app"
	"github.com/AstronomickaExpedice/bzarchive/internal/config"
	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

// ErrBaseURLRequired is returned by New when the configuration names no
// archive to follow.
var ErrBaseURLRequired = errors.New("base url is required")

// Service regroupe les collaborateurs construits depuis une Config. Les
// champs exportés restent accessibles pour un câblage plus fin (abonner un
// snapbus, régler la fenêtre du Tracker...).
type Service struct {
	Connector *archivehttp.Connector
	Engine    *app.Engine
	Collector *app.Collector
	Tracker   *app.WindowTracker

	// Catalog est nil quand CatalogPath est vide.
	Catalog *sqlitecat.Catalog

	pool *app.DispatchPool
	db   *sqlitecat.DB
}

// New builds and connects the whole subsystem. sink receives every discovered
// snapshot; when cfg.CatalogPath is set, records also land in the SQLite
// catalog before reaching sink. A nil sink keeps only the catalog (or
// nothing).
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, sink ports.Sink) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	kind := domain.Kind(cfg.Kind)
	if kind == "" {
		kind = domain.KindSnapshots
	}
	if sink == nil {
		sink = func(domain.Snapshot) {}
	}

	conn, err := archivehttp.New(cfg.BaseURL, logger)
	if err != nil {
		return nil, err
	}
	conn.WithTimeout(cfg.HTTPTimeout)
	if err := conn.Connect(); err != nil {
		return nil, err
	}

	var (
		db      *sqlitecat.DB
		catalog *sqlitecat.Catalog
	)
	if cfg.CatalogPath != "" {
		db, err = sqlitecat.Open(ctx, cfg.CatalogPath)
		if err != nil {
			conn.Close()
			return nil, err
		}
		catalog = sqlitecat.NewCatalog(db.SQL, kind)
		record := catalog.Sink(ctx, logger)
		deliver := sink
		sink = func(s domain.Snapshot) {
			record(s)
			deliver(s)
		}
	}

	pool := app.NewDispatchPool(ctx, logger, sink)
	pool.SetCount(cfg.DispatchWorkers)

	eng := app.NewEngine(conn.BaseURL(), kind, conn, logger)
	col := app.NewCollector(logger, eng, conn, pool)

	return &Service{
		Connector: conn,
		Engine:    eng,
		Collector: col,
		Tracker:   app.NewWindowTracker(logger, col),
		Catalog:   catalog,
		pool:      pool,
		db:        db,
	}, nil
}

// Run starts the coordinator and the moving-window tracker and blocks until
// ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Collector.Run(ctx)
	}()
	s.Tracker.Run(ctx)
	<-done
}

// Close stops the delivery workers, tears the connection down and closes the
// catalog. Call it after the Run context is canceled.
func (s *Service) Close() {
	s.pool.Close()
	s.Connector.Close()
	if s.db != nil {
		_ = s.db.Close()
	}
}
