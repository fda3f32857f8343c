package ports

import (
	"context"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// TextGenerator turns a role-tagged message sequence into one generated message.
type TextGenerator interface {
	Generate(ctx context.Context, messages []domain.Message) (string, error)
}

// Embedder builds vectors for passage and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PassageVectorIndex holds one normalized vector per corpus position.
type PassageVectorIndex interface {
	Upsert(ctx context.Context, positions []int, vectors [][]float32) error
	// Search scores only the given candidate positions and returns at most limit
	// hits in descending score order, ties kept in candidate order.
	Search(ctx context.Context, queryVector []float32, candidates []int, limit int) ([]domain.ScoredPassage, error)
}

// ConversationStore is the append-only per-session message log.
type ConversationStore interface {
	// AppendTurn appends the user and assistant messages atomically.
	AppendTurn(ctx context.Context, sessionID string, user, assistant domain.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// TurnPublisher announces completed turns to interested consumers.
type TurnPublisher interface {
	PublishTurnCompleted(ctx context.Context, event domain.TurnCompleted) error
}
