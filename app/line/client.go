package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client pushes messages to subscribers through the LINE Messaging API.
type Client struct {
	baseURL      string
	channelToken string
	httpClient   *http.Client
}

func NewClient(baseURL, channelToken string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		channelToken: channelToken,
		httpClient:   httpClient,
	}
}

type pushRequest struct {
	To       string           `json:"to"`
	Messages []map[string]any `json:"messages"`
}

// PushText sends a plain text message to a user.
func (c *Client) PushText(ctx context.Context, userID, text string) error {
	return c.push(ctx, userID, []map[string]any{
		{"type": "text", "text": text},
	})
}

// PushFlex sends a flex message with the given alt text and contents.
func (c *Client) PushFlex(ctx context.Context, userID, altText string, contents map[string]any) error {
	return c.push(ctx, userID, []map[string]any{
		{"type": "flex", "altText": altText, "contents": contents},
	})
}

func (c *Client) push(ctx context.Context, userID string, messages []map[string]any) error {
	payload, err := json.Marshal(pushRequest{To: userID, Messages: messages})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/bot/message/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	slog.Debug("Message pushed", "user_id", userID, "messages", len(messages))
	return nil
}
