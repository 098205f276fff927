package realtime

import "time"

// EventType is the discriminator carried in the "event" field.
type EventType string

const (
	EventPuzzleSolved EventType = "puzzle_solved"
	EventDoorOpened   EventType = "door_opened"
	EventGameOver     EventType = "game_over"
	EventGameStarted  EventType = "game_started"
)

// Event is pushed to every live subscriber of a game. Optional fields are
// omitted from the wire form when empty.
type Event struct {
	Type       EventType  `json:"event"`
	ItemID     string     `json:"item_id,omitempty"`
	ItemLabel  string     `json:"item_label,omitempty"`
	Answer     string     `json:"answer,omitempty"`
	SolverName string     `json:"solver_name,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// PuzzleSolved announces that an item was solved.
func PuzzleSolved(itemID, itemLabel, answer, solverName string) Event {
	return Event{
		Type:       EventPuzzleSolved,
		ItemID:     itemID,
		ItemLabel:  itemLabel,
		Answer:     answer,
		SolverName: solverName,
	}
}

// DoorOpened tells every client to play the door animation.
func DoorOpened() Event {
	return Event{Type: EventDoorOpened}
}

// GameOver ends the game for every client.
func GameOver(reason string) Event {
	return Event{Type: EventGameOver, Reason: reason}
}

// GameStarted carries the recorded start time so clients share one timer.
func GameStarted(startedAt time.Time) Event {
	at := startedAt.UTC()
	return Event{Type: EventGameStarted, StartedAt: &at}
}
