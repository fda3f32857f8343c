package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
)

const defaultKeywordLimit = 10

type KeywordExpander struct {
	generator ports.TextGenerator
	limit     int
}

func NewKeywordExpander(generator ports.TextGenerator, limit int) *KeywordExpander {
	if limit <= 0 {
		limit = defaultKeywordLimit
	}
	return &KeywordExpander{generator: generator, limit: limit}
}

// Expand asks the generator for related single-word keywords and tokenizes the
// free-text reply. The result is de-duplicated, keeps first-seen order and holds
// at most limit entries. It may be empty.
func (e *KeywordExpander) Expand(ctx context.Context, query string) ([]string, error) {
	messages := []domain.Message{
		domain.TextMessage(domain.RoleUser, buildKeywordPrompt(query, e.limit)),
	}
	raw, err := e.generator.Generate(ctx, messages)
	if domain.IsKind(err, domain.ErrEmptyReply) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstream, "expand keywords", err)
	}
	return parseKeywords(raw, e.limit), nil
}

func buildKeywordPrompt(query string, limit int) string {
	return fmt.Sprintf(`Give up to %d single-word keywords related to the question below,
in the context of Marcel Proust's "In Search of Lost Time".
Return only the keywords separated by commas. No numbering, no explanations.

Question:
%s
`, limit, query)
}

func parseKeywords(raw string, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		// "Here are some keywords:" style preambles.
		if strings.HasSuffix(line, ":") {
			continue
		}
		for _, token := range splitWordsLower(line) {
			if isNoiseToken(token) {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
