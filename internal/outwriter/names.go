package outwriter

import (
	"strings"
	"unicode"

	"github.com/huangsam/repolens/internal/contract"
)

// authorColumnWidth bounds the author column of commit tables.
const authorColumnWidth = 20

// cleanNameParts trims surrounding punctuation from each name part and drops empty ones.
func cleanNameParts(parts []string) []string {
	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\'' && r != '.'
		})
		cp = strings.TrimSuffix(cp, ".")
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	return cleaned
}

// abbreviateAuthor shortens "Samuel Huang" to "Samuel H" for narrow table columns.
// Single-word names and bot accounts are returned as they are.
func abbreviateAuthor(name string) string {
	trimmed := strings.TrimSpace(name)
	if strings.Contains(trimmed, "[bot]") {
		return strings.Join(strings.Fields(trimmed), " ")
	}

	trimmed = strings.Trim(trimmed, "()\"'`")
	cleaned := cleanNameParts(strings.Fields(trimmed))
	switch len(cleaned) {
	case 0:
		return trimmed
	case 1:
		return cleaned[0]
	}
	last := []rune(cleaned[len(cleaned)-1])
	return cleaned[0] + " " + string(last[0])
}

// authorCell formats an author for a table column.
func authorCell(name string) string {
	return contract.TruncateText(abbreviateAuthor(name), authorColumnWidth)
}
