package memory

import (
	"context"
	"testing"
)

func TestSearchOrdersByScoreAndKeepsTieOrder(t *testing.T) {
	ix := NewIndex()
	err := ix.Upsert(context.Background(), []int{0, 1, 2, 3}, [][]float32{
		{1, 0},
		{0, 1},
		{0, 1},
		{0.6, 0.8},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := ix.Search(context.Background(), []float32{0, 1}, []int{2, 0, 1, 3}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	// 2 and 1 tie at 1.0 and keep candidate order.
	if hits[0].Index != 2 || hits[1].Index != 1 || hits[2].Index != 3 {
		t.Fatalf("unexpected order %+v", hits)
	}
}

func TestSearchOnlyScoresCandidates(t *testing.T) {
	ix := NewIndex()
	_ = ix.Upsert(context.Background(), []int{0, 1}, [][]float32{{1, 0}, {0, 1}})

	hits, err := ix.Search(context.Background(), []float32{1, 0}, []int{1}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Index != 1 {
		t.Fatalf("expected only candidate 1, got %+v", hits)
	}
}

func TestSearchRejectsUnindexedCandidate(t *testing.T) {
	ix := NewIndex()
	_ = ix.Upsert(context.Background(), []int{0}, [][]float32{{1, 0}})
	if _, err := ix.Search(context.Background(), []float32{1, 0}, []int{5}, 2); err == nil {
		t.Fatalf("expected error for unindexed passage")
	}
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	ix := NewIndex()
	if err := ix.Upsert(context.Background(), []int{0, 1}, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
