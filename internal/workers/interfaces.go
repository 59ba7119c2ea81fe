// Package workers runs the background maintenance jobs of the auth service
// next to the transport servers.
package workers

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/store"
)

// Worker is a background job. Run blocks until ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// ExpiredSessionDeleter is the slice of [store.SessionRepository] the
// sweeper needs.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Pruner drops stale keys from a cache that does not expire them itself.
type Pruner interface {
	Prune() int
}

var (
	_ ExpiredSessionDeleter = (store.SessionRepository)(nil)
	_ Pruner                = (*cache.MemoryCache)(nil)
)
