package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

const defaultTopK = 2

// SemanticRanker scores lexical candidates against the query embedding using the
// passage vectors precomputed by CorpusIndexer.
type SemanticRanker struct {
	embedder ports.Embedder
	index    ports.PassageVectorIndex
}

func NewSemanticRanker(embedder ports.Embedder, index ports.PassageVectorIndex) *SemanticRanker {
	return &SemanticRanker{embedder: embedder, index: index}
}

func (r *SemanticRanker) Rank(
	ctx context.Context,
	query string,
	candidates []domain.IndexedPassage,
	k int,
) ([]domain.PassageRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = defaultTopK
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstream, "embed query", err)
	}
	domain.Normalize(queryVector)

	byPosition := make(map[int]domain.PassageRecord, len(candidates))
	positions := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := byPosition[c.Index]; dup {
			continue
		}
		byPosition[c.Index] = c.Passage
		positions = append(positions, c.Index)
	}

	hits, err := r.index.Search(ctx, queryVector, positions, k)
	if err != nil {
		return nil, fmt.Errorf("search passage vectors: %w", err)
	}

	out := make([]domain.PassageRecord, 0, k)
	for _, hit := range hits {
		rec, ok := byPosition[hit.Index]
		if !ok {
			continue
		}
		out = append(out, rec)
		if len(out) == k {
			break
		}
	}
	return out, nil
}
