// Package store persists game sessions. Two backends share one interface: a
// Redis-backed cache with sliding TTL, and an in-process map used on its own
// or as the Redis fallback. The in-process map has no TTL and is not visible
// to other processes.
package store

import (
	"context"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/models"
)

// Store is last-writer-wins; callers serialize their own read-modify-write.
// Backend unavailability is never returned as an error.
type Store interface {
	// Get returns the session or false when it is absent or expired.
	Get(ctx context.Context, id string) (*models.Session, bool)
	// Put writes the session and refreshes its TTL. Only encoding failures
	// are reported.
	Put(ctx context.Context, session *models.Session, ttl time.Duration) error
	// Delete removes the session; deleting an absent id is a no-op.
	Delete(ctx context.Context, id string)
	// Backend names the backend currently serving requests.
	Backend() string
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
