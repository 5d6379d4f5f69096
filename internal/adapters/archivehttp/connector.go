// Package archivehttp parle au dépôt HTTP d'une station : une seule connexion
// keep-alive par URL de base, partagée par tous les kinds servis dessous.
package archivehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AstronomickaExpedice/bzarchive/internal/buildinfo"
	"github.com/AstronomickaExpedice/bzarchive/internal/ports"
)

const defaultTimeout = 20 * time.Second

// Connector implémente ports.Fetcher et ports.Reconnecter au-dessus d'un
// http.Client limité à une connexion persistante vers l'hôte.
type Connector struct {
	baseURL string
	logger  zerolog.Logger
	timeout time.Duration

	mu     sync.Mutex
	client *http.Client
}

// New validates baseURL (scheme and host required, trailing slash added) and
// returns an unconnected Connector. Connect must be called before Fetch.
func New(baseURL string, logger zerolog.Logger) (*Connector, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Connector{
		baseURL: u.String(),
		logger:  logger,
		timeout: defaultTimeout,
	}, nil
}

// WithTimeout overrides the per-request timeout.
func (c *Connector) WithTimeout(d time.Duration) *Connector {
	if d > 0 {
		c.timeout = d
	}
	return c
}

func (c *Connector) BaseURL() string { return c.baseURL }

// Connect opens the keep-alive connection pool (one connection). It must be
// called once before Fetch; calling it on an already connected Connector is a
// no-op.
func (c *Connector) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}
	c.client = &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			MaxConnsPerHost:     1,
			MaxIdleConnsPerHost: 1,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	c.logger.Debug().Str("base_url", c.baseURL).Msg("connected")
	return nil
}

// Close tears the connection down. Idempotent.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return
	}
	if t, ok := c.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	c.client = nil
	c.logger.Debug().Str("base_url", c.baseURL).Msg("closed")
}

// Reconnect remplace la connexion après une coupure en cours de réponse.
func (c *Connector) Reconnect() error {
	c.Close()
	return c.Connect()
}

// Fetch issues a GET for url and reads the whole body. With expectOK set, a
// non-200 status is returned as *ports.UnexpectedStatusError; without it the
// status is data and the caller decides what absence means.
func (c *Connector) Fetch(ctx context.Context, rawURL string, expectOK bool) (int, []byte, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return 0, nil, ports.ErrNotConnected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Connection", "Keep-Alive")
	req.Header.Set("User-Agent", "bzarchive/"+buildinfo.Version)

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &ports.ConnectionError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Coupure en cours de lecture: le Collector ferme et rouvre.
		return resp.StatusCode, nil, &ports.ConnectionError{URL: rawURL, Err: err}
	}

	if expectOK && resp.StatusCode != http.StatusOK {
		return resp.StatusCode, body, &ports.UnexpectedStatusError{URL: rawURL, Status: resp.StatusCode}
	}
	return resp.StatusCode, body, nil
}
