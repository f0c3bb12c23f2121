package collector

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

const maxSummaryRunes = 500

// SanitizeText strips markup and normalizes a feed-provided string into plain
// text: tags removed, entities decoded, whitespace collapsed, Unicode
// normalized to NFC, capped at 500 runes.
func SanitizeText(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = norm.NFC.String(text)

	runes := []rune(text)
	if len(runes) > maxSummaryRunes {
		text = string(runes[:maxSummaryRunes])
	}
	return text
}
