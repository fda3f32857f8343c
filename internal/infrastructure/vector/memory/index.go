package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// Index is a brute-force in-process passage vector index. Vectors are
// expected to be L2-normalized so the dot product is the cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[int][]float32
}

func NewIndex() *Index {
	return &Index{vectors: make(map[int][]float32)}
}

func (ix *Index) Upsert(_ context.Context, positions []int, vectors [][]float32) error {
	if len(positions) != len(vectors) {
		return fmt.Errorf("positions/vectors mismatch: %d != %d", len(positions), len(vectors))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, pos := range positions {
		v := vectors[i]
		if len(v) == 0 {
			return fmt.Errorf("empty vector for passage %d", pos)
		}
		if ix.dimension == 0 {
			ix.dimension = len(v)
		}
		if len(v) != ix.dimension {
			return fmt.Errorf("vector dimension mismatch for passage %d: %d != %d", pos, len(v), ix.dimension)
		}
		stored := make([]float32, len(v))
		copy(stored, v)
		ix.vectors[pos] = stored
	}
	return nil
}

func (ix *Index) Search(_ context.Context, queryVector []float32, candidates []int, limit int) ([]domain.ScoredPassage, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.dimension != 0 && len(queryVector) != ix.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(queryVector), ix.dimension)
	}

	hits := make([]domain.ScoredPassage, 0, len(candidates))
	for _, pos := range candidates {
		v, ok := ix.vectors[pos]
		if !ok {
			return nil, fmt.Errorf("passage %d is not indexed", pos)
		}
		hits = append(hits, domain.ScoredPassage{Index: pos, Score: domain.Dot(queryVector, v)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}
