package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func (r *chatResponse) validate() error {
	if r.Message.Role == "" {
		return fmt.Errorf("%w: response carries no message", ErrMalformedReply)
	}
	if strings.TrimSpace(r.Message.Content) == "" {
		return domain.ErrEmptyReply
	}
	return nil
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (r *embedResponse) validate() error {
	for i, vector := range r.Embeddings {
		if len(vector) == 0 {
			return fmt.Errorf("%w: embedding %d is empty", ErrMalformedReply, i)
		}
	}
	return nil
}

// toChatMessages flattens structured passage entries into plain text.
func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Text()})
	}
	return out
}
