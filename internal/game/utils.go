package game

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// NewGameID mints an opaque game id.
func NewGameID() string {
	return uuid.NewString()
}

// JoinURL returns the link players open to enter a game. An empty base
// yields a relative link.
func JoinURL(publicURL, gameID string) string {
	base := strings.TrimRight(strings.TrimSpace(publicURL), "/")
	return base + "/game?game_id=" + url.QueryEscape(gameID)
}
