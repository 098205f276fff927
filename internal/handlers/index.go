package handlers

import (
	"net/http"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/auth"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
	"github.com/gorilla/websocket"
)

// Context holds shared application dependencies
type Context struct {
	Store      store.Store
	Gate       *auth.Gate
	Manager    *game.Manager
	Engine     *game.Engine
	Registry   *realtime.Registry
	Upgrader   websocket.Upgrader
	PublicURL  string
	ChatSecret string
	Keepalive  time.Duration
	Debug      bool
}

// Routes registers every endpoint on mux.
func (ctx *Context) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", ctx.HandleHealth)

	mux.HandleFunc("GET /api/games/{id}", ctx.HandleGameState)
	mux.HandleFunc("GET /api/games/{id}/qr", ctx.HandleJoinQR)
	mux.HandleFunc("POST /api/games/{id}/action", ctx.HandleAction)
	mux.HandleFunc("POST /api/games/{id}/start", ctx.HandleStart)
	mux.HandleFunc("POST /api/games/{id}/time_up", ctx.HandleTimeUp)
	mux.HandleFunc("POST /api/games/{id}/door_opened", ctx.HandleDoorOpened)

	mux.HandleFunc("POST /api/chats/{chat_id}/registration", ctx.requireChatSecret(ctx.HandleStartRegistration))
	mux.HandleFunc("POST /api/chats/{chat_id}/players", ctx.requireChatSecret(ctx.HandleAddPlayer))
	mux.HandleFunc("POST /api/chats/{chat_id}/finish", ctx.requireChatSecret(ctx.HandleFinishRegistration))
	mux.HandleFunc("DELETE /api/chats/{chat_id}/game", ctx.requireChatSecret(ctx.HandleEndGame))

	mux.HandleFunc("GET /ws/games/{id}", ctx.HandleWS)
	mux.HandleFunc("GET /sse/games/{id}", ctx.HandleSSE)
}

// HandleHealth reports liveness and the active session backend.
func (ctx *Context) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  ctx.Store.Backend(),
	})
}

func (ctx *Context) keepalive() time.Duration {
	if ctx.Keepalive > 0 {
		return ctx.Keepalive
	}
	return game.KeepaliveInterval
}
