package extraction

import (
	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenBudget is the context ceiling applied when none is configured.
const DefaultTokenBudget = 128000

// TokenGuard estimates request size against a model's context limit before
// any structuring call is made. Its purpose is cost avoidance: an
// over-budget request never reaches the LLM.
type TokenGuard struct {
	model  string
	budget int
}

// NewTokenGuard creates a TokenGuard for the given model name. A budget of
// zero or less falls back to DefaultTokenBudget.
func NewTokenGuard(model string, budget int) *TokenGuard {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &TokenGuard{model: model, budget: budget}
}

// Count returns the summed token count of the messages using the model's
// tokenizer. When the model's encoding is unknown the count is 0 and the
// caller proceeds (fail-open, matching the original behavior).
func (g *TokenGuard) Count(messages []string) int {
	enc, err := tiktoken.EncodingForModel(g.model)
	if err != nil {
		return 0
	}

	total := 0
	for _, m := range messages {
		total += len(enc.Encode(m, nil, nil))
	}
	return total
}

// Within reports whether the messages fit the budget, along with the
// estimated token count.
func (g *TokenGuard) Within(messages []string) (int, bool) {
	count := g.Count(messages)
	return count, count <= g.budget
}
