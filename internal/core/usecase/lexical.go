package usecase

import (
	"strings"

	"github.com/kirillkom/lost-time-companion/internal/core/domain"
)

// FilterPassages keeps every passage whose lowercased text contains at least one
// keyword as a substring. Matching is not whole-word: "sea" also
// matches "season". Corpus order is preserved.
func FilterPassages(keywords []string, corpus *domain.Corpus) []domain.IndexedPassage {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	var out []domain.IndexedPassage
	for i := 0; i < corpus.Len(); i++ {
		text := corpus.LowerText(i)
		for _, term := range terms {
			if strings.Contains(text, term) {
				out = append(out, domain.IndexedPassage{Index: i, Passage: corpus.At(i)})
				break
			}
		}
	}
	return out
}
