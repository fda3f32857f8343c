package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

func TestAppendTurnKeepsPairsTogether(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendTurn(ctx, "s1",
				domain.TextMessage(domain.RoleUser, fmt.Sprintf("q%d", i)),
				domain.TextMessage(domain.RoleAssistant, fmt.Sprintf("a%d", i)),
			)
		}(i)
	}
	wg.Wait()

	msgs, _ := store.ListMessages(ctx, "s1")
	if len(msgs) != 40 {
		t.Fatalf("expected 40 messages, got %d", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if msgs[i].Role != domain.RoleUser || msgs[i+1].Role != domain.RoleAssistant {
			t.Fatalf("pair %d interleaved: %+v %+v", i/2, msgs[i], msgs[i+1])
		}
		if msgs[i].Content[1:] != msgs[i+1].Content[1:] {
			t.Fatalf("pair %d mismatched: %q %q", i/2, msgs[i].Content, msgs[i+1].Content)
		}
	}
}

func TestListMessagesReturnsCopies(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()
	_ = store.AppendTurn(ctx, "s1",
		domain.TextMessage(domain.RoleUser, "q"),
		domain.Message{Role: domain.RoleAssistant, Passages: []domain.PassageRecord{{Text: "original"}}},
	)

	msgs, _ := store.ListMessages(ctx, "s1")
	msgs[1].Passages[0].Text = "changed"

	again, _ := store.ListMessages(ctx, "s1")
	if again[1].Passages[0].Text != "original" {
		t.Fatalf("store history was mutated through a returned slice")
	}
	if other, _ := store.ListMessages(ctx, "s2"); len(other) != 0 {
		t.Fatalf("sessions must be isolated")
	}
}
