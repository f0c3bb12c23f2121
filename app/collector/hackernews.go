package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	maxTopStories = 100
	maxItemFetch  = 50
)

// aiKeywords is the allow-list used to pick AI-related stories out of the
// general Hacker News front page. Matching is a case-insensitive substring
// check against the title.
var aiKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "ml",
	"gpt", "llm", "openai", "anthropic", "claude", "chatgpt",
	"deep learning", "neural", "transformer",
}

// HackerNewsClient fetches top stories from the Hacker News Firebase API.
type HackerNewsClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHackerNewsClient(baseURL string, httpClient *http.Client) *HackerNewsClient {
	return &HackerNewsClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type hnItem struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
}

// FetchTopAIStories returns the AI-related stories among the current top 100,
// in front-page rank order. Item detail fetches run concurrently but are
// capped; a single failed item is skipped rather than failing the batch.
func (c *HackerNewsClient) FetchTopAIStories(ctx context.Context, cutoff time.Time) ([]Article, error) {
	ids, err := c.fetchTopStoryIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > maxTopStories {
		ids = ids[:maxTopStories]
	}

	items := make([]*hnItem, len(ids))
	semaphore := make(chan struct{}, maxItemFetch)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			item, err := c.fetchItem(ctx, id)
			if err != nil {
				return
			}
			items[i] = item
		}(i, id)
	}
	wg.Wait()

	articles := make([]Article, 0)
	for _, item := range items {
		if item == nil || item.Type != "story" || item.Title == "" {
			continue
		}
		if !IsAIRelated(item.Title) {
			continue
		}

		publishedAt := time.Unix(item.Time, 0).UTC()
		if publishedAt.Before(cutoff) {
			continue
		}

		url := item.URL
		if url == "" {
			// Ask HN and similar text posts have no external URL.
			url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
		}

		articles = append(articles, Article{
			URL:         url,
			Title:       SanitizeText(item.Title),
			Source:      "Hacker News",
			PublishedAt: &publishedAt,
			SourceCount: 1,
		})
	}

	return articles, nil
}

func (c *HackerNewsClient) fetchTopStoryIDs(ctx context.Context) ([]int, error) {
	body, err := c.get(ctx, c.baseURL+"/topstories.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse top stories response: %w", err)
	}
	return ids, nil
}

func (c *HackerNewsClient) fetchItem(ctx context.Context, id int) (*hnItem, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id))
	if err != nil {
		return nil, err
	}

	var item hnItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HackerNewsClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// IsAIRelated reports whether a title matches the AI keyword allow-list.
func IsAIRelated(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range aiKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
