package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/render"
)

type actionRequest struct {
	ItemID     string `json:"item_id"`
	Answer     string `json:"answer"`
	SolverName string `json:"solver_name"`
}

type actionResponse struct {
	OK      bool   `json:"ok"`
	GameID  string `json:"game_id"`
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// HandleGameState returns the client view of a game, applying the room
// first when the stored session has none.
func (ctx *Context) HandleGameState(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	session, err := ctx.Gate.ForRequest(r.Context(), gameID, initDataFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ctx.Manager.EnsureRoom(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, render.State(session))
}

// HandleAction submits an answer for one item
func (ctx *Context) HandleAction(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "item_id is required"))
		return
	}

	session, err := ctx.Gate.ForRequest(r.Context(), gameID, initDataFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ctx.Manager.EnsureRoom(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}

	if ctx.Debug {
		log.Printf("HandleAction: game_id=%s item=%s", gameID, req.ItemID)
	}
	res, err := ctx.Engine.Submit(r.Context(), session, req.ItemID, req.Answer, req.SolverName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		OK:      true,
		GameID:  gameID,
		Correct: res.Correct,
		Message: res.Message,
	})
}

// HandleJoinQR serves a PNG QR code of the game's join link
func (ctx *Context) HandleJoinQR(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if _, ok := ctx.Store.Get(r.Context(), gameID); !ok {
		writeError(w, r, apperr.New(apperr.CodeNotFound, "Game not found or already over."))
		return
	}
	png, err := render.JoinQR(game.JoinURL(ctx.PublicURL, gameID), render.QRSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
