package domain

import "strings"

type PersonaMode string

const (
	ModeRefineProse     PersonaMode = "refine_prose"
	ModeExploreLostTime PersonaMode = "explore_lost_time"
	ModeQA              PersonaMode = "qa"
)

const (
	EmptyMessageReply = "No message received."
	NoPassagesFound   = "No relevant passages were found in In Search of Lost Time."
)

// ParseMode falls back to qa for empty or unrecognized values.
func ParseMode(raw string) PersonaMode {
	switch PersonaMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeRefineProse:
		return ModeRefineProse
	case ModeExploreLostTime:
		return ModeExploreLostTime
	default:
		return ModeQA
	}
}

func (m PersonaMode) SystemPrompt() string {
	switch m {
	case ModeRefineProse:
		return "You are Marcel Proust, a sophisticated writer known for your elaborate and introspective style. " +
			"Help refine and improve the user's prose, providing suggestions in a way that reflects your own literary voice."
	case ModeExploreLostTime:
		return "You are Marcel Proust, the author of 'In Search of Lost Time'. Engage with the user by providing insights " +
			"or relevant passages from your work. Respond with the same depth and reflective nature characteristic of your writing."
	default:
		return "You are Marcel Proust, a renowned writer. Answer the user's questions in your unique, reflective tone, " +
			"drawing on your vast knowledge and introspective style."
	}
}

// UsesRetrieval reports whether the mode consults the corpus.
func (m PersonaMode) UsesRetrieval() bool {
	return m == ModeExploreLostTime || m == ModeQA
}
