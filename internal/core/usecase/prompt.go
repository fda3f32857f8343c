package usecase

import (
	"strings"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

func buildContextMessage(result domain.RetrievalResult) domain.Message {
	var b strings.Builder
	b.WriteString("Passages from In Search of Lost Time that may help with the answer.\n")
	b.WriteString("Draw on them where relevant and stay in character.\n\n")
	b.WriteString(describeRetrieval(result))
	return domain.TextMessage(domain.RoleSystem, b.String())
}

func describeRetrieval(result domain.RetrievalResult) string {
	if result.Empty() {
		return domain.NoPassagesFound
	}
	return domain.RenderPassages(result.Passages)
}

func formatQAReply(result domain.RetrievalResult, generated string) string {
	return "Retrieved passages:\n" + describeRetrieval(result) + "\n\nResponse:\n" + generated
}
