package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

const defaultEmbedBatchSize = 32

// CorpusIndexer embeds every passage once so requests only embed the query.
type CorpusIndexer struct {
	embedder  ports.Embedder
	index     ports.PassageVectorIndex
	batchSize int
}

func NewCorpusIndexer(embedder ports.Embedder, index ports.PassageVectorIndex, batchSize int) *CorpusIndexer {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &CorpusIndexer{embedder: embedder, index: index, batchSize: batchSize}
}

func (ix *CorpusIndexer) Build(ctx context.Context, corpus *domain.Corpus) error {
	start := time.Now()
	total := corpus.Len()

	for from := 0; from < total; from += ix.batchSize {
		to := from + ix.batchSize
		if to > total {
			to = total
		}

		texts := make([]string, 0, to-from)
		positions := make([]int, 0, to-from)
		for i := from; i < to; i++ {
			texts = append(texts, corpus.At(i).Text)
			positions = append(positions, i)
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return domain.WrapError(domain.ErrUpstream, "embed passages", err)
		}
		if len(vectors) != len(texts) {
			return domain.WrapError(domain.ErrUpstream, "embed passages",
				fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors)))
		}
		for _, v := range vectors {
			domain.Normalize(v)
		}

		if err := ix.index.Upsert(ctx, positions, vectors); err != nil {
			return fmt.Errorf("upsert passage vectors [%d,%d): %w", from, to, err)
		}
		slog.Debug("corpus_index_batch", "from", from, "to", to, "total", total)
	}

	slog.Info("corpus_indexed",
		"passages", total,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return nil
}
