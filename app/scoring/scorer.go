package scoring

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/yknsg/ainews-digest/app/collector"
)

const maxSignalFetch = 50

// Scorer annotates collected articles with external popularity signals and
// orders them by score. Signal lookups degrade to zero on failure; scoring
// never fails an article.
type Scorer struct {
	hatena   *HatenaClient
	hnSearch *HNSearchClient
}

func NewScorer(hatena *HatenaClient, hnSearch *HNSearchClient) *Scorer {
	return &Scorer{hatena: hatena, hnSearch: hnSearch}
}

// Score fetches signals for every article with bounded concurrency and
// returns the articles sorted by popularity, highest first. The sort is
// stable: equally scored articles keep their collection order.
func (s *Scorer) Score(ctx context.Context, articles []collector.Article) []ScoredArticle {
	scored := make([]ScoredArticle, len(articles))
	semaphore := make(chan struct{}, maxSignalFetch)
	var wg sync.WaitGroup

	for i, article := range articles {
		wg.Add(1)
		go func(i int, article collector.Article) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			scored[i] = s.scoreOne(ctx, article)
		}(i, article)
	}
	wg.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PopularityScore > scored[j].PopularityScore
	})

	return scored
}

func (s *Scorer) scoreOne(ctx context.Context, article collector.Article) ScoredArticle {
	hatenaCount, err := s.hatena.BookmarkCount(ctx, article.URL)
	if err != nil {
		slog.Warn("Hatena signal lookup failed, using 0", "url", article.URL, "error", err)
		hatenaCount = 0
	}

	hnScore, err := s.hnSearch.Points(ctx, article.URL)
	if err != nil {
		slog.Warn("Hacker News signal lookup failed, using 0", "url", article.URL, "error", err)
		hnScore = 0
	}

	// Reddit is carried in the formula at weight 1.0 but has no live signal
	// source wired yet, so it contributes 0.
	redditScore := 0

	return ScoredArticle{
		Article:         article,
		HatenaCount:     hatenaCount,
		HackerNewsScore: hnScore,
		RedditScore:     redditScore,
		PopularityScore: PopularityScore(hatenaCount, hnScore, redditScore, article.SourceCount),
	}
}
