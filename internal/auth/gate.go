package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/models"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

const (
	msgGameNotFound = "Game not found or already over."
	msgInitRequired = "Open the game from the button in the group chat message."
	msgMembersOnly  = "Only registered players can receive live updates."
)

// Gate resolves the session for a caller. The HTTP path is lenient: no
// credential means anonymous read access, and a valid credential for an
// unknown player adds them to the roster. The streaming path only admits
// players already on the roster.
type Gate struct {
	store    store.Store
	verifier *Verifier
	ttl      time.Duration
}

// NewGate creates a gate over the session store.
func NewGate(st store.Store, verifier *Verifier, ttl time.Duration) *Gate {
	return &Gate{store: st, verifier: verifier, ttl: ttl}
}

// ForRequest authorizes an HTTP request against the game.
func (g *Gate) ForRequest(ctx context.Context, gameID, initData string) (*models.Session, error) {
	ident, err := g.verifier.Verify(initData)
	if errors.Is(err, ErrMissing) {
		session, ok := g.store.Get(ctx, gameID)
		if !ok {
			return nil, apperr.New(apperr.CodeNotFound, msgGameNotFound)
		}
		return session, nil
	}
	if err != nil {
		log.Printf("auth: http rejected game_id=%s: %v", gameID, err)
		return nil, apperr.Wrap(apperr.CodeUnauthorized, msgInitRequired, err)
	}

	session, ok := g.store.Get(ctx, gameID)
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, msgGameNotFound)
	}
	if !session.Players.Has(ident.ID) {
		if session.Players == nil {
			session.Players = make(models.Roster)
		}
		session.Players[ident.ID] = ident.DisplayName()
		if err := g.store.Put(ctx, session, g.ttl); err != nil {
			return nil, err
		}
		log.Printf("auth: late join game_id=%s user_id=%s name=%q", gameID, ident.ID, ident.DisplayName())
	}
	return session, nil
}

// ForStream authorizes a websocket or SSE subscription. The credential is
// mandatory and the caller must already be on the roster.
func (g *Gate) ForStream(ctx context.Context, gameID, initData string) (*models.Session, Identity, error) {
	ident, err := g.verifier.Verify(initData)
	if err != nil {
		log.Printf("auth: stream rejected game_id=%s: %v", gameID, err)
		return nil, Identity{}, apperr.Wrap(apperr.CodeUnauthorized, msgInitRequired, err)
	}
	session, ok := g.store.Get(ctx, gameID)
	if !ok {
		return nil, Identity{}, apperr.New(apperr.CodeNotFound, msgGameNotFound)
	}
	if !session.Players.Has(ident.ID) {
		log.Printf("auth: stream forbidden game_id=%s user_id=%s not on roster", gameID, ident.ID)
		return nil, Identity{}, apperr.New(apperr.CodeForbidden, msgMembersOnly)
	}
	return session, ident, nil
}
