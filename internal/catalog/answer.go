package catalog

import (
	"strconv"
	"strings"

	"github.com/aaronzipp/escape-room-live/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace and case-folds s for comparison.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// MatchAnswer reports whether raw matches the puzzle's canonical answer or
// one of its aliases.
func MatchAnswer(p models.PuzzleDefinition, raw string) bool {
	got := Normalize(raw)
	if Normalize(p.CorrectAnswer) == got {
		return true
	}
	for _, alias := range p.Aliases {
		alias = strings.TrimSpace(alias)
		if alias != "" && Normalize(alias) == got {
			return true
		}
	}
	return false
}

// CaesarEncode shifts each code point of the trimmed password and joins the
// results with dashes ("KEY" -> "78-72-92").
func CaesarEncode(password string, shift int) string {
	password = strings.TrimSpace(password)
	if password == "" {
		return ""
	}
	parts := make([]string, 0, len(password))
	for _, r := range password {
		parts = append(parts, strconv.Itoa(int(r)+shift))
	}
	return strings.Join(parts, "-")
}
