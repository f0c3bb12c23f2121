package scoring

import (
	"github.com/yknsg/ainews-digest/app/collector"
)

// ScoredArticle is a collected article annotated with popularity signals.
type ScoredArticle struct {
	collector.Article

	HatenaCount     int
	HackerNewsScore int
	RedditScore     int
	PopularityScore int
}

// Signal weights for the popularity formula.
const (
	hatenaWeight      = 3.0
	hackerNewsWeight  = 2.0
	redditWeight      = 1.0
	multiSourceWeight = 10.0
)

// PopularityScore combines the raw signals into a single integer score.
// Appearing in more than one source earns a bonus per extra source; the
// weighted sum is truncated, not rounded.
func PopularityScore(hatenaCount, hackerNewsScore, redditScore, sourceCount int) int {
	bonus := 0.0
	if sourceCount > 1 {
		bonus = float64(sourceCount-1) * multiSourceWeight
	}
	score := float64(hatenaCount)*hatenaWeight +
		float64(hackerNewsScore)*hackerNewsWeight +
		float64(redditScore)*redditWeight +
		bonus
	return int(score)
}
