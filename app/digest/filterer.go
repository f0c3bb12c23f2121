package digest

import (
	"strings"

	"github.com/yknsg/ainews-digest/app/scoring"
)

// Filter applies a subscriber's category and language preferences to scored
// articles. Pure function: no I/O, input order preserved.
//
// An empty category list bypasses the category filter; language "both"
// bypasses the language filter. An article must pass every active filter.
func Filter(articles []scoring.ScoredArticle, categories []string, language string) []scoring.ScoredArticle {
	filtered := make([]scoring.ScoredArticle, 0, len(articles))

	for _, article := range articles {
		if len(categories) > 0 && !matchesAnyCategory(article, categories) {
			continue
		}
		if language != "both" && DetectLanguage(article.Title) != language {
			continue
		}
		filtered = append(filtered, article)
	}

	return filtered
}

func matchesAnyCategory(article scoring.ScoredArticle, categories []string) bool {
	text := strings.ToLower(article.Title + " " + article.Summary)

	for _, category := range categories {
		for _, keyword := range CategoryKeywords[category] {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}
