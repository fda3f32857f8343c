package domain

import "strings"

// PassageRecord is one pre-parsed excerpt of the corpus.
type PassageRecord struct {
	Book    string `json:"book" yaml:"book"`
	Chapter string `json:"chapter" yaml:"chapter"`
	Text    string `json:"text" yaml:"text"`
}

// IndexedPassage pairs a record with its position in the corpus.
type IndexedPassage struct {
	Index   int
	Passage PassageRecord
}

// Corpus is fixed after NewCorpus returns. Callers only get copies of the records.
type Corpus struct {
	records []PassageRecord
	lowered []string
}

func NewCorpus(records []PassageRecord) *Corpus {
	c := &Corpus{
		records: make([]PassageRecord, len(records)),
		lowered: make([]string, len(records)),
	}
	copy(c.records, records)
	for i, rec := range c.records {
		c.lowered[i] = strings.ToLower(rec.Text)
	}
	return c
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

func (c *Corpus) At(i int) PassageRecord {
	return c.records[i]
}

// LowerText returns the lowercased text of passage i, computed at load.
func (c *Corpus) LowerText(i int) string {
	return c.lowered[i]
}

func (c *Corpus) Records() []PassageRecord {
	if c == nil {
		return nil
	}
	out := make([]PassageRecord, len(c.records))
	copy(out, c.records)
	return out
}
