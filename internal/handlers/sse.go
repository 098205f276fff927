package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
)

// HandleSSE streams game events as server-sent events. Only players on the
// roster may subscribe; rejections are plain HTTP errors.
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeInternal, "streaming unsupported"))
		return
	}

	_, ident, err := ctx.Gate.ForStream(r.Context(), gameID, r.URL.Query().Get("init_data"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx/proxies
	w.WriteHeader(http.StatusOK)

	queue := realtime.NewQueue(game.SubscriberBuffer, game.SendTimeout)
	ctx.Registry.Register(gameID, queue)
	defer func() {
		ctx.Registry.Unregister(gameID, queue)
		_ = queue.Close()
	}()

	if err := realtime.WriteComment(w, "connected"); err != nil {
		return
	}
	flusher.Flush()

	interval := ctx.keepalive()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	reqCtx := r.Context()
	for {
		select {
		case <-reqCtx.Done():
			log.Printf("HandleSSE: client disconnected game_id=%s user_id=%s", gameID, ident.ID)
			return
		case <-queue.Done():
			log.Printf("HandleSSE: subscriber dropped game_id=%s user_id=%s", gameID, ident.ID)
			return
		case ev := <-queue.Events():
			if ctx.Debug {
				log.Printf("HandleSSE: sending event=%s to user_id=%s", ev.Type, ident.ID)
			}
			if err := realtime.WriteSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
			timer.Reset(interval)
		case <-timer.C:
			if err := realtime.WriteComment(w, "keepalive"); err != nil {
				return
			}
			flusher.Flush()
			timer.Reset(interval)
		}
	}
}
