package ports

import (
	"context"

	"github.com/AstronomickaExpedice/bzarchive/internal/domain"
)

// Fetcher issues GET requests against the archive. When expectOK is set, a
// non-200 response is reported as *UnexpectedStatusError; otherwise the status
// is returned as data so the caller can treat 404-class answers as "absent".
type Fetcher interface {
	Fetch(ctx context.Context, url string, expectOK bool) (status int, body []byte, err error)
}

// Reconnecter permet de remplacer la connexion sous-jacente après une coupure
// en cours de réponse.
type Reconnecter interface {
	Reconnect() error
}

// Sink receives discovered snapshots, one call per record.
type Sink func(domain.Snapshot)

// SnapshotBus fans discovered snapshots out to any number of subscribers.
type SnapshotBus interface {
	Publish(domain.Snapshot)
	Subscribe() (ch <-chan domain.Snapshot, cancel func())
}
