package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/gorilla/websocket"
)

// Close codes sent when a websocket subscription is refused.
const (
	CloseUnauthorized = 4401
	CloseForbidden    = 4403
	CloseNotFound     = 4404
)

const maxClientMessage = 4096

// NewUpgrader returns the websocket upgrader used for game streams. The web
// client is served from another origin, so every origin is accepted.
func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

func closeCodeFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return CloseNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return CloseForbidden
	default:
		return CloseUnauthorized
	}
}

// HandleWS streams game events over a websocket. The connection is accepted
// before auth so a refusal can carry a close code the client understands.
func (ctx *Context) HandleWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	_, ident, authErr := ctx.Gate.ForStream(r.Context(), gameID, r.URL.Query().Get("init_data"))

	conn, err := ctx.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HandleWS: upgrade failed game_id=%s: %v", gameID, err)
		return
	}
	sock := realtime.NewSocket(conn, game.SendTimeout)

	if authErr != nil {
		code := closeCodeFor(authErr)
		log.Printf("HandleWS: rejected game_id=%s close=%d", gameID, code)
		_ = sock.CloseWith(code, apperr.MessageOf(authErr))
		return
	}

	ctx.Registry.Register(gameID, sock)
	defer func() {
		ctx.Registry.Unregister(gameID, sock)
		_ = sock.Close()
	}()
	log.Printf("HandleWS: accepted game_id=%s user_id=%s", gameID, ident.ID)

	stop := make(chan struct{})
	defer close(stop)
	go ctx.pingLoop(sock, stop)

	conn.SetReadLimit(maxClientMessage)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Debug || !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("HandleWS: disconnect game_id=%s user_id=%s: %v", gameID, ident.ID, err)
			}
			return
		}
	}
}

// pingLoop keeps idle connections alive until stop is closed or a ping fails.
func (ctx *Context) pingLoop(sock *realtime.Socket, stop <-chan struct{}) {
	ticker := time.NewTicker(ctx.keepalive())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := sock.Ping(); err != nil {
				_ = sock.Close()
				return
			}
		}
	}
}
