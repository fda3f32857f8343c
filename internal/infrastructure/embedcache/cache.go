// Package embedcache memoizes query embeddings in a bounded LRU.
package embedcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

type Embedder struct {
	next  ports.Embedder
	cache *lru.Cache[string, []float32]
}

// Wrap returns next unchanged when size <= 0.
func Wrap(next ports.Embedder, size int) (ports.Embedder, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}
	return &Embedder{next: next, cache: cache}, nil
}

// Embed is not cached.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.Embed(ctx, texts)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return clone(v), nil
	}
	v, err := e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, clone(v))
	return v, nil
}

// Callers normalize returned vectors in place.
func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
