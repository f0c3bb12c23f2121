package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// Collector gathers candidate articles from the configured RSS sources and
// from Hacker News, deduplicated by normalized URL.
type Collector struct {
	sources    []Source
	hackerNews *HackerNewsClient
	httpClient *http.Client
	lookback   time.Duration
	userAgent  string
}

func New(sources []Source, hackerNews *HackerNewsClient, httpClient *http.Client, lookback time.Duration, userAgent string) *Collector {
	return &Collector{
		sources:    sources,
		hackerNews: hackerNews,
		httpClient: httpClient,
		lookback:   lookback,
		userAgent:  userAgent,
	}
}

// Collect fetches every source concurrently and merges the results in
// configured source order, with Hacker News stories last. A single failing
// source is logged and skipped; Collect fails only when every source fails.
func (c *Collector) Collect(ctx context.Context) ([]Article, error) {
	cutoff := time.Now().UTC().Add(-c.lookback)

	perSource := make([][]Article, len(c.sources))
	errs := make([]error, len(c.sources)+1)
	var hnArticles []Article

	var wg sync.WaitGroup
	for i, source := range c.sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			articles, err := c.fetchFeed(ctx, source, cutoff)
			if err != nil {
				slog.Warn("Failed to fetch feed", "source", source.Name, "url", source.URL, "error", err)
				errs[i] = err
				return
			}
			perSource[i] = articles
		}(i, source)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		articles, err := c.hackerNews.FetchTopAIStories(ctx, cutoff)
		if err != nil {
			slog.Warn("Failed to fetch Hacker News stories", "error", err)
			errs[len(c.sources)] = err
			return
		}
		hnArticles = articles
	}()

	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(errs) {
		return nil, fmt.Errorf("all %d sources failed to fetch", failed)
	}

	merged := make([]Article, 0)
	for _, articles := range perSource {
		merged = append(merged, articles...)
	}
	merged = append(merged, hnArticles...)

	deduped := dedupe(merged)

	slog.Debug("Collection finished", "collected", len(merged), "unique", len(deduped), "failed_sources", failed)
	return deduped, nil
}

func (c *Collector) fetchFeed(ctx context.Context, source Source, cutoff time.Time) ([]Article, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient
	parser.UserAgent = c.userAgent

	feed, err := parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		publishedAt := item.PublishedParsed
		if publishedAt == nil {
			publishedAt = item.UpdatedParsed
		}
		// Items older than the lookback window are stale; items with no
		// parseable date pass through rather than being guessed at.
		if publishedAt != nil && publishedAt.Before(cutoff) {
			continue
		}

		article := Article{
			URL:         item.Link,
			Title:       SanitizeText(item.Title),
			Summary:     SanitizeText(item.Description),
			Source:      source.Name,
			PublishedAt: publishedAt,
			SourceCount: 1,
		}
		if item.Image != nil {
			article.ThumbnailURL = item.Image.URL
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// dedupe keeps the first occurrence of each normalized URL and counts how
// many sources carried it; the count later feeds the popularity score.
func dedupe(articles []Article) []Article {
	seen := make(map[string]int, len(articles))
	deduped := make([]Article, 0, len(articles))

	for _, article := range articles {
		key := NormalizeURL(article.URL)
		if idx, ok := seen[key]; ok {
			deduped[idx].SourceCount++
			// A later duplicate can still contribute fields the first
			// occurrence was missing.
			if deduped[idx].Summary == "" && article.Summary != "" {
				deduped[idx].Summary = article.Summary
			}
			if deduped[idx].ThumbnailURL == "" && article.ThumbnailURL != "" {
				deduped[idx].ThumbnailURL = article.ThumbnailURL
			}
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, article)
	}

	return deduped
}
