package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/game"
	"github.com/aaronzipp/escape-room-live/internal/models"
)

// chatSecretHeader authenticates the chat bot on registration endpoints.
const chatSecretHeader = "X-Chat-Secret"

type registrationRequest struct {
	HostID string `json:"host_id"`
}

type addPlayerRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type addPlayerResponse struct {
	Added   bool          `json:"added"`
	Players models.Roster `json:"players"`
}

type gameReadyResponse struct {
	GameID  string `json:"game_id"`
	JoinURL string `json:"join_url"`
}

// requireChatSecret guards chat-command endpoints. Without a configured
// secret they are disabled.
func (ctx *Context) requireChatSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(chatSecretHeader)
		if ctx.ChatSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(ctx.ChatSecret)) != 1 {
			writeError(w, r, apperr.New(apperr.CodeForbidden, "Chat endpoints require a valid secret."))
			return
		}
		next(w, r)
	}
}

// HandleStartRegistration opens registration in a chat
func (ctx *Context) HandleStartRegistration(w http.ResponseWriter, r *http.Request) {
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req registrationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := ctx.Manager.StartRegistration(r.Context(), chatID, req.HostID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleAddPlayer registers a player in a chat's open registration
func (ctx *Context) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addPlayerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	added, err := ctx.Manager.AddPlayer(chatID, req.PlayerID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addPlayerResponse{Added: added, Players: ctx.Manager.Players(chatID)})
}

// HandleFinishRegistration creates the game and returns its join link
func (ctx *Context) HandleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := ctx.Manager.FinishRegistration(r.Context(), chatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameReadyResponse{
		GameID:  session.ID,
		JoinURL: game.JoinURL(ctx.PublicURL, session.ID),
	})
}

// HandleEndGame ends the chat's current game
func (ctx *Context) HandleEndGame(w http.ResponseWriter, r *http.Request) {
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gameID, err := ctx.Manager.EndByChat(r.Context(), chatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "game_id": gameID})
}
