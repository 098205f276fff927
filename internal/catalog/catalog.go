// Package catalog holds the static room definitions: items, puzzles and the
// prerequisite graph between puzzles. A Catalog is immutable once loaded.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aaronzipp/escape-room-live/internal/models"
)

//go:embed rooms/demo_room.json
var demoRoom []byte

const (
	defaultSuccessMessage = "Correct!"
	defaultWrongMessage   = "Wrong answer, try again."
	defaultBlockMessage   = "Solve the other puzzles in the room first."
)

// CaesarShift is the code point offset used for encoded clues.
const CaesarShift = 3

type roomFile struct {
	Name                string                `json:"room_name"`
	Description         string                `json:"room_description"`
	Lore                string                `json:"room_lore"`
	SuccessMessage      string                `json:"success_message"`
	WrongMessage        string                `json:"wrong_message"`
	DefaultBlockMessage string                `json:"default_block_message"`
	Items               []models.RoomItem     `json:"items"`
	Puzzles             map[string]puzzleFile `json:"puzzles"`
	Dependencies        map[string][]string   `json:"dependencies"`
	BlockMessages       map[string]string     `json:"block_messages"`
}

type puzzleFile struct {
	models.PuzzleDefinition
	EncodeAnswer   bool   `json:"encode_answer"`
	SuccessMessage string `json:"success_message"`
}

// Catalog is the authored content of one room.
type Catalog struct {
	name            string
	description     string
	lore            string
	items           []models.RoomItem
	puzzles         map[string]models.PuzzleDefinition
	deps            map[string][]string
	blockMessages   map[string]string
	successMessages map[string]string
	successMessage  string
	wrongMessage    string
	blockMessage    string
}

// Load reads a room definition from path, or the embedded demo room when
// path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(demoRoom)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading room %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing room %s: %w", path, err)
	}
	return c, nil
}

// Demo returns the embedded demo room.
func Demo() *Catalog {
	c, err := Parse(demoRoom)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded demo room is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates a room definition.
func Parse(data []byte) (*Catalog, error) {
	var rf roomFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}

	c := &Catalog{
		name:            rf.Name,
		description:     rf.Description,
		lore:            rf.Lore,
		puzzles:         make(map[string]models.PuzzleDefinition, len(rf.Puzzles)),
		deps:            make(map[string][]string, len(rf.Dependencies)),
		blockMessages:   make(map[string]string, len(rf.BlockMessages)),
		successMessages: make(map[string]string),
		successMessage:  firstNonEmpty(rf.SuccessMessage, defaultSuccessMessage),
		wrongMessage:    firstNonEmpty(rf.WrongMessage, defaultWrongMessage),
		blockMessage:    firstNonEmpty(rf.DefaultBlockMessage, defaultBlockMessage),
	}

	itemIDs := make(map[string]bool, len(rf.Items))
	for _, it := range rf.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("room item with empty id")
		}
		if itemIDs[it.ID] {
			return nil, fmt.Errorf("duplicate room item %q", it.ID)
		}
		if it.ActionType == "" {
			it.ActionType = models.ActionExamine
		}
		itemIDs[it.ID] = true
		c.items = append(c.items, it)
	}

	for id, pf := range rf.Puzzles {
		if !itemIDs[id] {
			return nil, fmt.Errorf("puzzle %q has no room item", id)
		}
		p := pf.PuzzleDefinition
		if p.Kind == "" {
			p.Kind = models.ActionExamine
			if p.CorrectAnswer != "" {
				p.Kind = models.ActionUnlock
			}
		}
		if p.Kind == models.ActionUnlock && strings.TrimSpace(p.CorrectAnswer) == "" {
			return nil, fmt.Errorf("unlock puzzle %q has no answer", id)
		}
		if pf.EncodeAnswer && p.EncodedClue == "" {
			p.EncodedClue = CaesarEncode(p.CorrectAnswer, CaesarShift)
		}
		if pf.SuccessMessage != "" {
			c.successMessages[id] = pf.SuccessMessage
		}
		c.puzzles[id] = p
	}

	for id, prereqs := range rf.Dependencies {
		if !itemIDs[id] {
			return nil, fmt.Errorf("dependency for unknown item %q", id)
		}
		set := make(map[string]bool, len(prereqs))
		for _, dep := range prereqs {
			if !itemIDs[dep] {
				return nil, fmt.Errorf("item %q depends on unknown item %q", id, dep)
			}
			set[dep] = true
		}
		list := make([]string, 0, len(set))
		for dep := range set {
			list = append(list, dep)
		}
		sort.Strings(list)
		c.deps[id] = list
	}
	for id, msg := range rf.BlockMessages {
		c.blockMessages[id] = msg
	}
	return c, nil
}

// Name returns the room name.
func (c *Catalog) Name() string { return c.name }

// Items returns a copy of the ordered room items.
func (c *Catalog) Items() []models.RoomItem {
	return append([]models.RoomItem(nil), c.items...)
}

// Puzzle looks up the puzzle attached to an item.
func (c *Catalog) Puzzle(itemID string) (models.PuzzleDefinition, bool) {
	p, ok := c.puzzles[itemID]
	return p, ok
}

// DependenciesOf returns the items that must be solved before itemID, sorted.
func (c *Catalog) DependenciesOf(itemID string) []string {
	return append([]string(nil), c.deps[itemID]...)
}

// BlockMessage returns the message shown when itemID has unmet prerequisites.
func (c *Catalog) BlockMessage(itemID string) string {
	if msg, ok := c.blockMessages[itemID]; ok && msg != "" {
		return msg
	}
	return c.blockMessage
}

// SuccessMessage returns the message shown after solving itemID.
func (c *Catalog) SuccessMessage(itemID string) string {
	if msg, ok := c.successMessages[itemID]; ok {
		return msg
	}
	return c.successMessage
}

// WrongMessage returns the fixed message for incorrect answers.
func (c *Catalog) WrongMessage() string {
	return c.wrongMessage
}

// ApplyRoom copies the room content into a session. Solved state is left as is.
func (c *Catalog) ApplyRoom(s *models.Session) {
	s.RoomName = c.name
	s.RoomDescription = c.description
	s.RoomLore = c.lore
	s.RoomItems = c.Items()
	s.RoomPuzzles = make(map[string]models.PuzzleDefinition, len(c.puzzles))
	for id, p := range c.puzzles {
		p.Aliases = append([]string(nil), p.Aliases...)
		s.RoomPuzzles[id] = p
	}
	if s.RoomSolved == nil {
		s.RoomSolved = make(map[string]models.SolveStatus)
	}
}

// NeedsRoom reports whether a session is missing room content.
func (c *Catalog) NeedsRoom(s *models.Session) bool {
	return !s.HasRoom() || len(s.RoomItems) < len(c.items)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
