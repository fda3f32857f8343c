package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation. Content is empty when the
// entry carries structured passages instead of text.
type Message struct {
	Role      Role            `json:"role"`
	Content   string          `json:"content,omitempty"`
	Passages  []PassageRecord `json:"passages,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func TextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

type ChatReply struct {
	Mode     PersonaMode     `json:"mode"`
	Reply    string          `json:"reply,omitempty"`
	Passages []PassageRecord `json:"passages,omitempty"`
	Rejected bool            `json:"-"`

	Trace *RetrievalTrace `json:"-"`
}

type TurnCompleted struct {
	SessionID  string      `json:"session_id"`
	Mode       PersonaMode `json:"mode"`
	Keywords   []string    `json:"keywords,omitempty"`
	Candidates int         `json:"candidates"`
	Passages   int         `json:"passages"`
	At         time.Time   `json:"at"`
}

// Text renders the message for a text-only consumer such as the generator.
func (m Message) Text() string {
	if m.Content != "" || len(m.Passages) == 0 {
		return m.Content
	}
	return RenderPassages(m.Passages)
}

func RenderPassages(passages []PassageRecord) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s, %s\n%s", i+1, p.Book, p.Chapter, p.Text)
	}
	return b.String()
}
