package digest

import (
	"unicode"
)

// DetectLanguage classifies a title as "ja" or "en". Any character from the
// Hiragana, Katakana or CJK ideograph ranges marks the title Japanese;
// everything else is treated as English.
func DetectLanguage(title string) string {
	for _, r := range title {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return "ja"
		}
	}
	return "en"
}
