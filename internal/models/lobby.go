package models

import "sync"

// Lobby holds the registration state of one chat. It lives for as long as the
// chat uses the bot; each finished registration produces a new Session.
type Lobby struct {
	ChatID  int64
	HostID  string
	Players Roster
	Phase   Phase
	GameID  string
	mu      sync.Mutex
}

// NewLobby creates an empty lobby in the registering phase.
func NewLobby(chatID int64) *Lobby {
	return &Lobby{
		ChatID:  chatID,
		Players: make(Roster),
		Phase:   PhaseRegistering,
	}
}

// Lock acquires the lobby's lock
func (l *Lobby) Lock() {
	l.mu.Lock()
}

// Unlock releases the lobby's lock
func (l *Lobby) Unlock() {
	l.mu.Unlock()
}

// Reset clears the roster and any game id and reopens registration
// (must be called with lock held).
func (l *Lobby) Reset() {
	l.Players = make(Roster)
	l.Phase = PhaseRegistering
	l.GameID = ""
	l.HostID = ""
}
