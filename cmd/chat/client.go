package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

type apiClient struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

type chatResponse struct {
	Mode     string                 `json:"mode"`
	Reply    string                 `json:"reply"`
	Passages []domain.PassageRecord `json:"passages"`
	Error    string                 `json:"error"`
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
}

// send posts one turn to /api/chat. The session id minted by the server on
// the first call is reused afterwards.
func (c *apiClient) send(ctx context.Context, mode domain.PersonaMode, message string) (*chatResponse, error) {
	body, err := json.Marshal(map[string]string{"message": message, "mode": string(mode)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set("X-Session-Id", c.sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	if id := resp.Header.Get("X-Session-Id"); id != "" {
		c.sessionID = id
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, out.Error)
	}
	return &out, nil
}

func (r *chatResponse) render() string {
	if r.Reply != "" {
		return r.Reply
	}
	if len(r.Passages) == 0 {
		return domain.NoPassagesFound
	}
	return domain.RenderPassages(r.Passages)
}
