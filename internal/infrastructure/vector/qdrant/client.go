package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/resilience"
)

// Client stores one point per corpus passage; the point id is the passage position.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return NewWithExecutor(baseURL, collection, nil)
}

func NewWithExecutor(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Upsert(ctx context.Context, positions []int, vectors [][]float32) error {
	if len(positions) == 0 {
		return nil
	}
	if len(positions) != len(vectors) {
		return fmt.Errorf("positions/vectors mismatch")
	}
	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      uint64         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(positions))
	for i, pos := range positions {
		points = append(points, point{
			ID:      uint64(pos),
			Vector:  vectors[i],
			Payload: map[string]any{"position": pos},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.execute(ctx, "qdrant.upsert", http.MethodPut, url, map[string]any{"points": points}, nil)
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	candidates []int,
	limit int,
) ([]domain.ScoredPassage, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	ids := make([]uint64, 0, len(candidates))
	rank := make(map[int]int, len(candidates))
	for i, pos := range candidates {
		ids = append(ids, uint64(pos))
		rank[pos] = i
	}

	// Request every candidate; candidate order settles equal scores at the
	// limit boundary, which qdrant leaves unordered.
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        len(candidates),
		"with_payload": false,
		"filter": map[string]any{
			"must": []map[string]any{
				{"has_id": ids},
			},
		},
	}

	var searchResp struct {
		Result []struct {
			ID    uint64  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.execute(ctx, "qdrant.search", http.MethodPost, url, reqBody, &searchResp); err != nil {
		return nil, err
	}

	out := make([]domain.ScoredPassage, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		pos := int(r.ID)
		if _, ok := rank[pos]; !ok {
			continue
		}
		out = append(out, domain.ScoredPassage{Index: pos, Score: r.Score})
	}
	// Qdrant does not define an order for equal scores.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return rank[out[i].Index] < rank[out[j].Index]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.execute(ctx, "qdrant.ensure_collection", http.MethodPut, url, reqBody, nil)
	if err != nil && !isConflict(err) {
		return err
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) execute(ctx context.Context, operation, method, url string, payload any, out any) error {
	call := func(callCtx context.Context) error {
		return c.doJSON(callCtx, operation, method, url, payload, out)
	}
	if c.executor == nil {
		return call(ctx)
	}
	err := c.executor.Execute(ctx, operation, call, classifyQdrantError)
	if err != nil && resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

type statusError struct {
	operation  string
	statusCode int
	status     string
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("%s status: %s: %s", e.operation, e.status, e.body)
}

func (c *Client) doJSON(ctx context.Context, operation, method, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			operation:  operation,
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
