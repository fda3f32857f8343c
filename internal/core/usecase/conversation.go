package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

// ConversationManager owns per-session history. Every mutation goes through
// AppendTurn, and Lock serializes whole turns of one session.
type ConversationManager struct {
	store ports.ConversationStore
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewConversationManager(store ports.ConversationStore) *ConversationManager {
	return &ConversationManager{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		locks: make(map[string]*sessionLock),
	}
}

// Lock blocks until no other turn of sessionID is in progress. The returned
// func releases it.
func (m *ConversationManager) Lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

func (m *ConversationManager) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	msgs, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return msgs, nil
}

func (m *ConversationManager) AppendTurn(ctx context.Context, sessionID string, user, assistant domain.Message) error {
	now := m.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if assistant.CreatedAt.IsZero() {
		assistant.CreatedAt = now
	}
	if err := m.store.AppendTurn(ctx, sessionID, user, assistant); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ComposePrompt returns [system] ++ history ++ [pending] ++ [extra], extra being optional.
func (m *ConversationManager) ComposePrompt(
	ctx context.Context,
	sessionID string,
	systemPrompt string,
	pending domain.Message,
	extra *domain.Message,
) ([]domain.Message, error) {
	history, err := m.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Message, 0, len(history)+3)
	out = append(out, domain.TextMessage(domain.RoleSystem, systemPrompt))
	out = append(out, history...)
	out = append(out, pending)
	if extra != nil {
		out = append(out, *extra)
	}
	return out, nil
}
