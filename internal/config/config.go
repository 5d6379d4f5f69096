package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// BaseURL d'une station, ex: http://space.astro.cz/bolidozor/OBSUPICE/OBSUPICE-R3/
	BaseURL string
	Kind    string

	HTTPTimeout     time.Duration
	DispatchWorkers int

	// CatalogPath active le catalogue SQLite quand non vide.
	CatalogPath string
}

func Default() Config {
	return Config{
		BaseURL:         envOr("BZ_BASE_URL", ""),
		Kind:            envOr("BZ_KIND", "snapshots"),
		HTTPTimeout:     envDurationOr("BZ_HTTP_TIMEOUT", 20*time.Second),
		DispatchWorkers: envIntOr("BZ_DISPATCH_WORKERS", 3),
		CatalogPath:     envOr("BZ_CATALOG_PATH", ""),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
