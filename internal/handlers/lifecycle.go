package handlers

import (
	"log"
	"net/http"
	"time"
)

// HandleStart records the shared start time of a game
func (ctx *Context) HandleStart(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	session, err := ctx.Gate.ForRequest(r.Context(), gameID, initDataFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	startedAt, set, err := ctx.Manager.RecordStart(r.Context(), session)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ctx.Debug {
		log.Printf("HandleStart: game_id=%s newly_set=%v", gameID, set)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"started_at": startedAt.UTC().Format(time.RFC3339Nano),
	})
}

// HandleTimeUp ends a game whose timer ran out
func (ctx *Context) HandleTimeUp(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	session, err := ctx.Gate.ForRequest(r.Context(), gameID, initDataFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx.Manager.TimeUp(r.Context(), session)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "game_over"})
}

// HandleDoorOpened opens the exit once every puzzle is solved
func (ctx *Context) HandleDoorOpened(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	session, err := ctx.Gate.ForRequest(r.Context(), gameID, initDataFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ctx.Manager.DoorOpened(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
