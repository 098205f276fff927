// Package realtime fans game events out to live connections. The Registry
// owns the per-game subscriber sets; transports only see Register,
// Unregister and Broadcast.
package realtime

import (
	"context"
	"log"
	"sync"
)

// Subscriber is one live connection bound to a game.
type Subscriber interface {
	// ID identifies the connection in logs.
	ID() string
	// Send delivers one event. An error marks the subscriber as dead.
	Send(ctx context.Context, ev Event) error
	// Close releases the connection. It must be safe to call more than once.
	Close() error
}

// Registry tracks subscribers per game id.
type Registry struct {
	Debug bool

	mu    sync.Mutex
	games map[string]map[Subscriber]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]map[Subscriber]struct{})}
}

// Register adds a subscriber to the game.
func (r *Registry) Register(gameID string, s Subscriber) {
	r.mu.Lock()
	subs, ok := r.games[gameID]
	if !ok {
		subs = make(map[Subscriber]struct{})
		r.games[gameID] = subs
	}
	subs[s] = struct{}{}
	n := len(subs)
	r.mu.Unlock()

	log.Printf("realtime: register game_id=%s sub=%s connections=%d", gameID, s.ID(), n)
}

// Unregister removes a subscriber. It reports whether the subscriber was
// still registered; unregistering twice is a no-op.
func (r *Registry) Unregister(gameID string, s Subscriber) bool {
	r.mu.Lock()
	subs, ok := r.games[gameID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, ok := subs[s]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(subs, s)
	n := len(subs)
	if n == 0 {
		delete(r.games, gameID)
	}
	r.mu.Unlock()

	log.Printf("realtime: unregister game_id=%s sub=%s connections=%d", gameID, s.ID(), n)
	return true
}

// Count returns the number of live subscribers for a game.
func (r *Registry) Count(gameID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games[gameID])
}

// Broadcast delivers ev to every subscriber of the game and returns how many
// deliveries succeeded. Subscribers whose delivery fails are closed and
// pruned; the failure is not reported to the caller. Cancellation of ctx does
// not cut the fanout short: each subscriber bounds its own send.
func (r *Registry) Broadcast(ctx context.Context, gameID string, ev Event) int {
	ctx = context.WithoutCancel(ctx)

	// Collect subscribers while holding the lock, send without it.
	r.mu.Lock()
	subs := make([]Subscriber, 0, len(r.games[gameID]))
	for s := range r.games[gameID] {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	if len(subs) == 0 {
		if r.Debug {
			log.Printf("realtime: broadcast game_id=%s event=%s skipped no_connections", gameID, ev.Type)
		}
		return 0
	}

	delivered := 0
	var dead []Subscriber
	for _, s := range subs {
		if err := s.Send(ctx, ev); err != nil {
			if r.Debug {
				log.Printf("realtime: send failed game_id=%s sub=%s: %v", gameID, s.ID(), err)
			}
			dead = append(dead, s)
			continue
		}
		delivered++
	}
	for _, s := range dead {
		r.Unregister(gameID, s)
		_ = s.Close()
	}

	log.Printf("realtime: broadcast game_id=%s event=%s delivered=%d pruned=%d", gameID, ev.Type, delivered, len(dead))
	return delivered
}
