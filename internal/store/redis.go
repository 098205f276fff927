package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "game:"

// Redis stores sessions in Redis with SETEX semantics. Every write is
// mirrored into an in-process Memory store; when Redis cannot be reached,
// reads and writes are served from that mirror until Redis answers again.
// Writes and deletes that Redis missed are replayed from the mirror on the
// next read of that id once Redis is back.
type Redis struct {
	client   *redis.Client
	fallback *Memory
	degraded atomic.Bool

	mu      sync.Mutex
	pending map[string]pendingWrite
}

// pendingWrite is a mutation Redis has not acknowledged yet.
type pendingWrite struct {
	deleted bool
	expires time.Time
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client:   client,
		fallback: NewMemory(),
		pending:  make(map[string]pendingWrite),
	}
}

func key(id string) string {
	return keyPrefix + id
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, id string) (*models.Session, bool) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.fail("get", err)
		return r.fallback.Get(ctx, id)
	}
	r.recovered()

	if handled, ok := r.replay(ctx, id); handled {
		if !ok {
			return nil, false
		}
		return r.fallback.Get(ctx, id)
	}
	if errors.Is(err, redis.Nil) {
		// Expired or deleted elsewhere; drop the stale mirror copy.
		r.fallback.Delete(ctx, id)
		return nil, false
	}

	session, err := models.Decode(id, data)
	if err != nil {
		log.Printf("store: redis decode failed id=%s: %v", id, err)
		return nil, false
	}
	r.fallback.putRaw(id, data)
	return session, true
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, session *models.Session, ttl time.Duration) error {
	data, err := models.Encode(session)
	if err != nil {
		return err
	}
	r.fallback.putRaw(session.ID, data)
	if err := r.client.Set(ctx, key(session.ID), data, ttl).Err(); err != nil {
		r.fail("put", err)
		r.markPending(session.ID, pendingWrite{expires: expiry(ttl)})
		return nil
	}
	r.recovered()
	r.clearPending(session.ID)
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, id string) {
	r.fallback.Delete(ctx, id)
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		r.fail("delete", err)
		r.markPending(id, pendingWrite{deleted: true})
		return
	}
	r.recovered()
	r.clearPending(id)
}

// replay pushes a mutation Redis missed for id. handled reports whether id
// had one; ok reports whether the session still exists afterwards.
func (r *Redis) replay(ctx context.Context, id string) (handled, ok bool) {
	r.mu.Lock()
	p, found := r.pending[id]
	r.mu.Unlock()
	if !found {
		return false, false
	}

	if p.deleted {
		if err := r.client.Del(ctx, key(id)).Err(); err != nil {
			r.fail("replay delete", err)
			return true, false
		}
		r.clearPending(id)
		log.Printf("store: replayed delete id=%s", id)
		return true, false
	}

	data, inMirror := r.fallback.getRaw(id)
	ttl := time.Duration(0)
	if !p.expires.IsZero() {
		ttl = time.Until(p.expires)
	}
	if !inMirror || (!p.expires.IsZero() && ttl <= 0) {
		r.clearPending(id)
		r.fallback.Delete(ctx, id)
		_ = r.client.Del(ctx, key(id)).Err()
		return true, false
	}
	if err := r.client.Set(ctx, key(id), data, ttl).Err(); err != nil {
		r.fail("replay put", err)
		return true, true
	}
	r.clearPending(id)
	log.Printf("store: replayed write id=%s", id)
	return true, true
}

func (r *Redis) markPending(id string, p pendingWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[id] = p
}

func (r *Redis) clearPending(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Backend implements Store.
func (r *Redis) Backend() string {
	if r.degraded.Load() {
		return BackendMemory
	}
	return BackendRedis
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// fail records a failed Redis call. Cancelled or timed out requests say
// nothing about Redis itself and do not switch the backend.
func (r *Redis) fail(op string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Printf("store: redis %s interrupted: %v", op, err)
		return
	}
	r.degrade(op, err)
}

func (r *Redis) degrade(op string, err error) {
	if !r.degraded.Swap(true) {
		log.Printf("store: redis unavailable during %s, serving from memory: %v", op, err)
	}
}

func (r *Redis) recovered() {
	if r.degraded.Swap(false) {
		log.Printf("store: redis reachable again")
	}
}

// Open selects the backend from a Redis URL. An empty URL yields a Memory
// store. An unreachable Redis still yields a Redis store that starts degraded
// and retries on every operation.
func Open(ctx context.Context, redisURL string) (Store, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		log.Printf("store: no redis url configured, using in-memory store")
		return NewMemory(), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 || opts.DialTimeout > time.Second {
		opts.DialTimeout = time.Second
	}
	s := NewRedis(redis.NewClient(opts))

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.degrade("ping", err)
	} else {
		log.Printf("store: redis connected addr=%s", opts.Addr)
	}
	return s, nil
}
