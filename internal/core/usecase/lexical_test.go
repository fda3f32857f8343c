package usecase

import (
	"strings"
	"testing"
)

func TestFilterPassagesSubstringMatch(t *testing.T) {
	corpus := testCorpus("The season at Balbec", "Méséglise way", "A calm SEA")
	got := FilterPassages([]string{"sea"}, corpus)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 2 {
		t.Fatalf("expected corpus order [0 2], got [%d %d]", got[0].Index, got[1].Index)
	}
}

func TestFilterPassagesEmptyKeywords(t *testing.T) {
	corpus := testCorpus("anything at all")
	if got := FilterPassages(nil, corpus); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if got := FilterPassages([]string{" ", ""}, corpus); len(got) != 0 {
		t.Fatalf("expected empty result for blank keywords, got %v", got)
	}
}

func TestFilterPassagesSoundAndComplete(t *testing.T) {
	corpus := testCorpus(
		"the sea was calm",
		"memory is a strange tide",
		"Albertine disappeared",
		"a cup of tea and a madeleine",
		"the steeples of Martinville",
	)
	keywords := []string{"tide", "tea", "steeple"}

	got := FilterPassages(keywords, corpus)
	kept := make(map[int]bool, len(got))
	for _, p := range got {
		kept[p.Index] = true
	}

	for i := 0; i < corpus.Len(); i++ {
		lowered := strings.ToLower(corpus.At(i).Text)
		matches := false
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				matches = true
			}
		}
		if matches != kept[i] {
			t.Fatalf("passage %d: contains keyword=%v but kept=%v", i, matches, kept[i])
		}
	}
}

func TestFilterPassagesBothScenarioPassages(t *testing.T) {
	corpus := testCorpus("the sea was calm", "memory is a strange tide")
	got := FilterPassages([]string{"tide", "memory", "sea"}, corpus)
	if len(got) != 2 {
		t.Fatalf("expected both passages, got %d", len(got))
	}
}
