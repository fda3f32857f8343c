package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

type generatorFake struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	err      error
	calls    [][]domain.Message
}

func (f *generatorFake) Generate(_ context.Context, messages []domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	captured := make([]domain.Message, len(messages))
	copy(captured, messages)
	f.calls = append(f.calls, captured)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) > 0 {
		out := f.replies[0]
		f.replies = f.replies[1:]
		return out, nil
	}
	return f.fallback, nil
}

// vocabEmbedder gives every distinct word its own dimension, so texts sharing
// no words are orthogonal.
type vocabEmbedder struct {
	mu      sync.Mutex
	vocab   map[string]int
	err     error
	queries []string
}

const vocabDims = 256

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: make(map[string]int)}
}

func (e *vocabEmbedder) vector(text string) []float32 {
	v := make([]float32, vocabDims)
	for _, w := range splitWordsLower(text) {
		idx, ok := e.vocab[w]
		if !ok {
			idx = len(e.vocab) % vocabDims
			e.vocab[w] = idx
		}
		v[idx]++
	}
	return v
}

func (e *vocabEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, e.vector(t))
	}
	return out, nil
}

func (e *vocabEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

type indexFake struct {
	vectors   map[int][]float32
	upserts   int
	searchErr error
	searched  [][]int
}

func newIndexFake() *indexFake {
	return &indexFake{vectors: make(map[int][]float32)}
}

func (f *indexFake) Upsert(_ context.Context, positions []int, vectors [][]float32) error {
	f.upserts++
	for i, p := range positions {
		f.vectors[p] = vectors[i]
	}
	return nil
}

func (f *indexFake) Search(_ context.Context, query []float32, candidates []int, limit int) ([]domain.ScoredPassage, error) {
	f.searched = append(f.searched, candidates)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	hits := make([]domain.ScoredPassage, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, domain.ScoredPassage{Index: c, Score: domain.Dot(query, f.vectors[c])})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type storeFake struct {
	mu        sync.Mutex
	sessions  map[string][]domain.Message
	appendErr error
	listErr   error
}

func newStoreFake() *storeFake {
	return &storeFake{sessions: make(map[string][]domain.Message)}
}

func (s *storeFake) AppendTurn(_ context.Context, sessionID string, user, assistant domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], user, assistant)
	return nil
}

func (s *storeFake) ListMessages(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Message, len(s.sessions[sessionID]))
	copy(out, s.sessions[sessionID])
	return out, nil
}

func (s *storeFake) len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[sessionID])
}

type publisherFake struct {
	events []domain.TurnCompleted
	err    error
}

func (p *publisherFake) PublishTurnCompleted(_ context.Context, event domain.TurnCompleted) error {
	p.events = append(p.events, event)
	return p.err
}

func testCorpus(texts ...string) *domain.Corpus {
	records := make([]domain.PassageRecord, 0, len(texts))
	for i, t := range texts {
		records = append(records, domain.PassageRecord{
			Book:    "A",
			Chapter: strings.Repeat("I", i+1),
			Text:    t,
		})
	}
	return domain.NewCorpus(records)
}

func indexedCorpus(t interface{ Fatalf(string, ...any) }, corpus *domain.Corpus, embedder *vocabEmbedder) *indexFake {
	index := newIndexFake()
	if err := NewCorpusIndexer(embedder, index, 2).Build(context.Background(), corpus); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return index
}
