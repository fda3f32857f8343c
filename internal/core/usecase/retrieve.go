package usecase

import (
	"context"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

type keywordSource interface {
	Expand(ctx context.Context, query string) ([]string, error)
}

type passageRanker interface {
	Rank(ctx context.Context, query string, candidates []domain.IndexedPassage, k int) ([]domain.PassageRecord, error)
}

// RetrieveUseCase sequences keyword expansion, lexical filtering and semantic ranking.
type RetrieveUseCase struct {
	corpus   *domain.Corpus
	keywords keywordSource
	ranker   passageRanker
	topK     int
}

func NewRetrieveUseCase(
	corpus *domain.Corpus,
	keywords keywordSource,
	ranker passageRanker,
	topK int,
) *RetrieveUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RetrieveUseCase{
		corpus:   corpus,
		keywords: keywords,
		ranker:   ranker,
		topK:     topK,
	}
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string) (domain.RetrievalResult, error) {
	keywords, err := uc.keywords.Expand(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	candidates := FilterPassages(keywords, uc.corpus)
	trace := domain.RetrievalTrace{Keywords: keywords, Candidates: len(candidates)}
	if len(candidates) == 0 {
		return domain.RetrievalResult{Passages: []domain.PassageRecord{}, Trace: trace}, nil
	}

	passages, err := uc.ranker.Rank(ctx, query, candidates, uc.topK)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	if passages == nil {
		passages = []domain.PassageRecord{}
	}
	trace.Returned = len(passages)
	return domain.RetrievalResult{Passages: passages, Trace: trace}, nil
}
