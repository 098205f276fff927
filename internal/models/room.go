package models

// ActionKind distinguishes informational items from answer-accepting ones.
type ActionKind string

const (
	ActionExamine ActionKind = "examine"
	ActionUnlock  ActionKind = "unlock"
)

// RoomItem is a clickable object placed in the room image.
type RoomItem struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	ActionType ActionKind `json:"action_type"`
}

// PuzzleDefinition is the task attached to a room item. CorrectAnswer and
// Aliases never leave the server.
type PuzzleDefinition struct {
	Kind          ActionKind `json:"type"`
	Backstory     string     `json:"backstory"`
	EncodedClue   string     `json:"encoded_clue,omitempty"`
	PromptText    string     `json:"prompt_text,omitempty"`
	CorrectAnswer string     `json:"correct_answer,omitempty"`
	Aliases       []string   `json:"correct_answer_aliases,omitempty"`
}

// AcceptsAnswer reports whether answers may be submitted for this puzzle.
func (p PuzzleDefinition) AcceptsAnswer() bool {
	return p.Kind == ActionUnlock && p.CorrectAnswer != ""
}
