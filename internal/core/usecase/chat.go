package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

type PersonaChatUseCase struct {
	conversations *ConversationManager
	generator     ports.TextGenerator
	retriever     ports.PassageRetriever
	publisher     ports.TurnPublisher
	now           func() time.Time
}

func NewPersonaChatUseCase(
	conversations *ConversationManager,
	generator ports.TextGenerator,
	retriever ports.PassageRetriever,
	publisher ports.TurnPublisher,
) *PersonaChatUseCase {
	return &PersonaChatUseCase{
		conversations: conversations,
		generator:     generator,
		retriever:     retriever,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Chat runs one turn. A blank message is answered with the fixed placeholder and
// leaves history untouched. A successful turn appends exactly the user message
// and the assistant reply; a failed one appends nothing.
func (uc *PersonaChatUseCase) Chat(
	ctx context.Context,
	sessionID string,
	mode domain.PersonaMode,
	message string,
) (*domain.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return &domain.ChatReply{Mode: mode, Reply: domain.EmptyMessageReply, Rejected: true}, nil
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("session id is required"))
	}

	unlock := uc.conversations.Lock(sessionID)
	defer unlock()

	user := domain.TextMessage(domain.RoleUser, message)

	var (
		reply     *domain.ChatReply
		assistant domain.Message
		err       error
	)
	switch mode {
	case domain.ModeRefineProse:
		reply, assistant, err = uc.plainGenerate(ctx, sessionID, mode, user)
	case domain.ModeExploreLostTime:
		reply, assistant, err = uc.explore(ctx, message)
	default:
		mode = domain.ModeQA
		reply, assistant, err = uc.retrieveThenRespond(ctx, sessionID, mode, user)
	}
	if err != nil {
		return nil, err
	}
	reply.Mode = mode

	if err := uc.conversations.AppendTurn(ctx, sessionID, user, assistant); err != nil {
		return nil, err
	}

	uc.publish(ctx, sessionID, reply)
	return reply, nil
}

func (uc *PersonaChatUseCase) plainGenerate(
	ctx context.Context,
	sessionID string,
	mode domain.PersonaMode,
	user domain.Message,
) (*domain.ChatReply, domain.Message, error) {
	prompt, err := uc.conversations.ComposePrompt(ctx, sessionID, mode.SystemPrompt(), user, nil)
	if err != nil {
		return nil, domain.Message{}, err
	}
	text, err := uc.generate(ctx, prompt)
	if err != nil {
		return nil, domain.Message{}, err
	}
	return &domain.ChatReply{Reply: text}, domain.TextMessage(domain.RoleAssistant, text), nil
}

func (uc *PersonaChatUseCase) explore(ctx context.Context, query string) (*domain.ChatReply, domain.Message, error) {
	result, err := uc.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, domain.Message{}, err
	}
	assistant := domain.Message{Role: domain.RoleAssistant, Passages: result.Passages}
	if result.Empty() {
		assistant.Content = domain.NoPassagesFound
	}
	return &domain.ChatReply{Passages: result.Passages, Trace: &result.Trace}, assistant, nil
}

func (uc *PersonaChatUseCase) retrieveThenRespond(
	ctx context.Context,
	sessionID string,
	mode domain.PersonaMode,
	user domain.Message,
) (*domain.ChatReply, domain.Message, error) {
	result, err := uc.retriever.Retrieve(ctx, user.Content)
	if err != nil {
		return nil, domain.Message{}, err
	}

	contextMsg := buildContextMessage(result)
	prompt, err := uc.conversations.ComposePrompt(ctx, sessionID, mode.SystemPrompt(), user, &contextMsg)
	if err != nil {
		return nil, domain.Message{}, err
	}
	text, err := uc.generate(ctx, prompt)
	if err != nil {
		return nil, domain.Message{}, err
	}

	return &domain.ChatReply{
		Reply: formatQAReply(result, text),
		Trace: &result.Trace,
	}, domain.TextMessage(domain.RoleAssistant, text), nil
}

func (uc *PersonaChatUseCase) generate(ctx context.Context, prompt []domain.Message) (string, error) {
	text, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstream, "generate reply", err)
	}
	return text, nil
}

func (uc *PersonaChatUseCase) publish(ctx context.Context, sessionID string, reply *domain.ChatReply) {
	if uc.publisher == nil {
		return
	}
	event := domain.TurnCompleted{
		SessionID: sessionID,
		Mode:      reply.Mode,
		Passages:  len(reply.Passages),
		At:        uc.now(),
	}
	if reply.Trace != nil {
		event.Keywords = reply.Trace.Keywords
		event.Candidates = reply.Trace.Candidates
		event.Passages = reply.Trace.Returned
	}
	if err := uc.publisher.PublishTurnCompleted(ctx, event); err != nil {
		slog.WarnContext(ctx, "turn_event_publish_failed",
			"session_id", sessionID,
			"mode", string(reply.Mode),
			"error", err,
		)
	}
}
