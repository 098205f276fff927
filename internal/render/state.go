// Package render builds the client-facing views of a session: the JSON game
// state and the QR image for the join link.
package render

import (
	"sort"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/models"
)

// Puzzle is the client view of a puzzle. Answers are never included.
type Puzzle struct {
	ItemID      string            `json:"item_id"`
	Kind        models.ActionKind `json:"type"`
	Backstory   string            `json:"backstory"`
	EncodedClue string            `json:"encoded_clue,omitempty"`
	PromptText  string            `json:"prompt_text,omitempty"`
}

// GameState is the response of GET /api/games/{id}.
type GameState struct {
	GameID          string            `json:"game_id"`
	Players         map[string]string `json:"players"`
	GameActive      bool              `json:"game_active"`
	DoorOpened      bool              `json:"door_opened,omitempty"`
	RoomName        string            `json:"room_name"`
	RoomDescription string            `json:"room_description"`
	RoomLore        string            `json:"room_lore"`
	RoomItems       []models.RoomItem `json:"room_items"`
	Puzzles         []Puzzle          `json:"puzzles"`
	Puzzle          *Puzzle           `json:"puzzle,omitempty"`
	SolvedItemIDs   []string          `json:"solved_item_ids"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
}

// State projects a session into the client view. Puzzles follow room item
// order; puzzles without a placed item come last, sorted by id. Puzzle is
// the first unlock puzzle in that order.
func State(s *models.Session) GameState {
	out := GameState{
		GameID:          s.ID,
		Players:         map[string]string(s.Players.Clone()),
		GameActive:      s.GameActive,
		DoorOpened:      s.DoorOpened,
		RoomName:        s.RoomName,
		RoomDescription: s.RoomDescription,
		RoomLore:        s.RoomLore,
		RoomItems:       append([]models.RoomItem{}, s.RoomItems...),
		Puzzles:         []Puzzle{},
		SolvedItemIDs:   s.SolvedItemIDs(),
		StartedAt:       s.StartedAt,
	}

	for _, id := range puzzleOrder(s) {
		p := s.RoomPuzzles[id]
		view := Puzzle{
			ItemID:      id,
			Kind:        p.Kind,
			Backstory:   p.Backstory,
			EncodedClue: p.EncodedClue,
			PromptText:  p.PromptText,
		}
		out.Puzzles = append(out.Puzzles, view)
		if p.Kind == models.ActionUnlock && out.Puzzle == nil {
			first := view
			out.Puzzle = &first
		}
	}
	return out
}

func puzzleOrder(s *models.Session) []string {
	ids := make([]string, 0, len(s.RoomPuzzles))
	placed := make(map[string]bool, len(s.RoomItems))
	for _, it := range s.RoomItems {
		placed[it.ID] = true
		if _, ok := s.RoomPuzzles[it.ID]; ok {
			ids = append(ids, it.ID)
		}
	}
	var rest []string
	for id := range s.RoomPuzzles {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
