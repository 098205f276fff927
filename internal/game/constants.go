package game

import "time"

const (
	// DefaultSessionTTL is how long an untouched session document is kept
	DefaultSessionTTL = 24 * time.Hour

	// SubscriberBuffer is the buffer size for SSE event queues
	SubscriberBuffer = 16

	// SendTimeout bounds a single delivery to one subscriber
	SendTimeout = time.Second

	// KeepaliveInterval is the idle time after which a streaming connection
	// gets a no-op frame
	KeepaliveInterval = 20 * time.Second

	// ReasonTimeout and ReasonEnded are the game_over reasons
	ReasonTimeout = "timeout"
	ReasonEnded   = "ended"
)

// User-facing messages.
const (
	msgRegistrationClosed = "Registration is not open in this chat."
	msgGameRunning        = "A game is already running in this chat."
	msgNoPlayers          = "No players registered yet."
	msgNoChat             = "No game in this chat."
	msgUnknownItem        = "Unknown item."
	msgExamineOnly        = "This item has nothing to unlock, just look around."
	msgDoorNotReady       = "Not every puzzle in the room is solved yet."
)
