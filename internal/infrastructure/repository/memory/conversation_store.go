package memory

import (
	"context"
	"sync"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// ConversationStore keeps session history in process memory. It is lost on restart.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Message
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{sessions: make(map[string][]domain.Message)}
}

func (s *ConversationStore) AppendTurn(_ context.Context, sessionID string, user, assistant domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], cloneMessage(user), cloneMessage(assistant))
	return nil
}

func (s *ConversationStore) ListMessages(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]domain.Message, 0, len(history))
	for _, m := range history {
		out = append(out, cloneMessage(m))
	}
	return out, nil
}

func cloneMessage(m domain.Message) domain.Message {
	if m.Passages != nil {
		passages := make([]domain.PassageRecord, len(m.Passages))
		copy(passages, m.Passages)
		m.Passages = passages
	}
	return m
}
