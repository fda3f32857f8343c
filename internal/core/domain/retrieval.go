package domain

type ScoredPassage struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RetrievalResult holds at most top-K passages ordered by descending similarity.
// An empty Passages slice means nothing relevant matched.
type RetrievalResult struct {
	Passages []PassageRecord `json:"passages"`
	Trace    RetrievalTrace  `json:"-"`
}

func (r RetrievalResult) Empty() bool {
	return len(r.Passages) == 0
}

type RetrievalTrace struct {
	Keywords   []string
	Candidates int
	Returned   int
}
