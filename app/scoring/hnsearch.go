package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HNSearchClient queries the Algolia Hacker News search API for the points a
// URL has collected on Hacker News.
type HNSearchClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHNSearchClient(baseURL string, httpClient *http.Client) *HNSearchClient {
	return &HNSearchClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type hnSearchResponse struct {
	Hits []struct {
		Points int `json:"points"`
	} `json:"hits"`
}

// Points returns the highest point count among search hits for the URL, or 0
// when the URL was never submitted.
func (c *HNSearchClient) Points(ctx context.Context, articleURL string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/v1/search?query=%s&restrictSearchableAttributes=url",
		c.baseURL, url.QueryEscape(articleURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search Hacker News: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d from search API", resp.StatusCode)
	}

	var result hnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse search response: %w", err)
	}

	points := 0
	for _, hit := range result.Hits {
		if hit.Points > points {
			points = hit.Points
		}
	}

	return points, nil
}
