package ports

import (
	"context"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// PersonaChat is the inbound contract for one conversational turn in a persona mode.
type PersonaChat interface {
	Chat(ctx context.Context, sessionID string, mode domain.PersonaMode, message string) (*domain.ChatReply, error)
}

// PassageRetriever is the inbound contract for the keyword -> lexical -> semantic pipeline.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string) (domain.RetrievalResult, error)
}

// HistoryReader exposes the read side of a session's conversation.
type HistoryReader interface {
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
}
