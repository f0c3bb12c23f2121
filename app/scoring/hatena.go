package scoring

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HatenaClient queries the Hatena bookmark count API. The endpoint returns
// the count as a bare integer body.
type HatenaClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHatenaClient(baseURL string, httpClient *http.Client) *HatenaClient {
	return &HatenaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BookmarkCount returns the number of Hatena bookmarks for a URL.
func (c *HatenaClient) BookmarkCount(ctx context.Context, articleURL string) (int, error) {
	endpoint := fmt.Sprintf("%s/count/entry?url=%s", c.baseURL, url.QueryEscape(articleURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bookmark count: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d from bookmark count API", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("failed to read bookmark count body: %w", err)
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse bookmark count '%s': %w", strings.TrimSpace(string(body)), err)
	}

	return count, nil
}
