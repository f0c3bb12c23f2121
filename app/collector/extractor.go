package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// SummaryExtractor backfills missing article summaries by fetching the page
// and extracting its readable text. Used for sources that carry no summary,
// such as Hacker News stories.
type SummaryExtractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewSummaryExtractor(httpClient *http.Client, userAgent string) *SummaryExtractor {
	return &SummaryExtractor{httpClient: httpClient, userAgent: userAgent}
}

// Extract returns a sanitized plain-text summary for the page at rawURL.
func (e *SummaryExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := SanitizeText(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from %s", rawURL)
	}

	slog.Debug("Summary extracted", "url", rawURL, "length", len(text))
	return text, nil
}
