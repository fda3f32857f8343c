package embedcache

import (
	"context"
	"errors"
	"testing"
)

type countingEmbedder struct {
	queries int
	err     error
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	c.queries++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{3, 4}, nil
}

func TestEmbedQueryHitsCache(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := Wrap(inner, 4)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	first, err := cached.EmbedQuery(context.Background(), "madeleine")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	first[0] = 99

	second, err := cached.EmbedQuery(context.Background(), "madeleine")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if inner.queries != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.queries)
	}
	if second[0] != 3 {
		t.Fatalf("cached vector was mutated through caller alias: %v", second)
	}
}

func TestEmbedQueryDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	cached, _ := Wrap(inner, 4)
	for i := 0; i < 2; i++ {
		if _, err := cached.EmbedQuery(context.Background(), "q"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if inner.queries != 2 {
		t.Fatalf("expected errors to bypass cache, got %d calls", inner.queries)
	}
}

func TestWrapDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	got, err := Wrap(inner, 0)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	if got != inner {
		t.Fatalf("expected passthrough when disabled")
	}
}
