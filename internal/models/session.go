package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Session is the persisted document for one game instance. The JSON shape is
// shared with the chat bot and the web client and must stay stable.
type Session struct {
	ID              string                      `json:"-"`
	ChatID          int64                       `json:"chat_id"`
	Players         Roster                      `json:"players"`
	GameActive      bool                        `json:"game_active"`
	StartedAt       *time.Time                  `json:"started_at,omitempty"`
	RoomName        string                      `json:"room_name"`
	RoomDescription string                      `json:"room_description"`
	RoomLore        string                      `json:"room_lore"`
	RoomItems       []RoomItem                  `json:"room_items"`
	RoomPuzzles     map[string]PuzzleDefinition `json:"room_puzzles"`
	RoomSolved      map[string]SolveStatus      `json:"room_solved"`
	DoorOpened      bool                        `json:"door_opened"`
}

// SolveStatus is the per-item solved marker stored in room_solved.
type SolveStatus string

const (
	StatusNotSolved SolveStatus = "not_solved"
	StatusSolved    SolveStatus = "solved"
)

// Roster maps player id to display name. Ids are strings on the wire.
type Roster map[string]string

// Has reports whether playerID is on the roster.
func (r Roster) Has(playerID string) bool {
	_, ok := r[playerID]
	return ok
}

// Clone returns an independent copy of the roster.
func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for id, name := range r {
		out[id] = name
	}
	return out
}

// HasRoom reports whether room content has been applied to the session.
func (s *Session) HasRoom() bool {
	return len(s.RoomItems) > 0 && len(s.RoomPuzzles) > 0
}

// Item looks up a room item by id.
func (s *Session) Item(itemID string) (RoomItem, bool) {
	for _, it := range s.RoomItems {
		if it.ID == itemID {
			return it, true
		}
	}
	return RoomItem{}, false
}

// ItemLabel returns the display label for an item, falling back to its id.
func (s *Session) ItemLabel(itemID string) string {
	if it, ok := s.Item(itemID); ok {
		if label := strings.TrimSpace(it.Label); label != "" {
			return label
		}
	}
	return itemID
}

// IsSolved reports whether the item is marked solved.
func (s *Session) IsSolved(itemID string) bool {
	return s.RoomSolved[itemID] == StatusSolved
}

// MarkSolved records the item as solved. Unknown items are rejected so that
// room_solved only ever references items in the room.
func (s *Session) MarkSolved(itemID string) error {
	if _, ok := s.RoomPuzzles[itemID]; !ok {
		return fmt.Errorf("mark solved: unknown item %q", itemID)
	}
	if s.RoomSolved == nil {
		s.RoomSolved = make(map[string]SolveStatus)
	}
	s.RoomSolved[itemID] = StatusSolved
	return nil
}

// SolvedItemIDs lists solved items in room item order, then any remaining
// solved puzzles without a placed item.
func (s *Session) SolvedItemIDs() []string {
	ids := make([]string, 0, len(s.RoomSolved))
	seen := make(map[string]bool, len(s.RoomItems))
	for _, it := range s.RoomItems {
		seen[it.ID] = true
		if s.IsSolved(it.ID) {
			ids = append(ids, it.ID)
		}
	}
	for id := range s.RoomSolved {
		if !seen[id] && s.IsSolved(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// AllUnlocksSolved reports whether every unlock puzzle in the room is solved.
func (s *Session) AllUnlocksSolved() bool {
	for id, p := range s.RoomPuzzles {
		if p.Kind == ActionUnlock && !s.IsSolved(id) {
			return false
		}
	}
	return true
}

// Encode serializes the session document.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode session: nil session")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode parses a session document and assigns it the given id.
func Decode(id string, data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	s.ID = id
	if s.Players == nil {
		s.Players = make(Roster)
	}
	if s.RoomPuzzles == nil {
		s.RoomPuzzles = make(map[string]PuzzleDefinition)
	}
	if s.RoomSolved == nil {
		s.RoomSolved = make(map[string]SolveStatus)
	}
	return &s, nil
}
