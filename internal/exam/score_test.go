package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepv/driving-backend/internal/model"
)

func choiceQuestion(id, answer string, opts ...model.Option) model.Question {
	return model.Question{
		ID:      id,
		Text:    "q " + id,
		Options: model.OptionList(opts),
		Answer:  answer,
		Type:    model.QuestionTypeChoice,
	}
}

func TestResolveCorrectKeyByKey(t *testing.T) {
	q := choiceQuestion("quick-1", "B",
		model.Option{Key: "A", Text: "go"},
		model.Option{Key: "B", Text: "stop"},
	)
	assert.Equal(t, "B", ResolveCorrectKey(q))
}

func TestResolveCorrectKeyByText(t *testing.T) {
	q := choiceQuestion("quick-2", "stop",
		model.Option{Key: "A", Text: "go"},
		model.Option{Key: "B", Text: "stop"},
	)
	assert.Equal(t, "B", ResolveCorrectKey(q))
}

func TestResolveCorrectKeyFallsBackToRawAnswer(t *testing.T) {
	q := choiceQuestion("quick-3", "yes",
		model.Option{Key: "A", Text: "go"},
	)
	assert.Equal(t, "yes", ResolveCorrectKey(q))
}

// Two options carrying the same text are ambiguous; the earlier one wins.
// Pinned so a bank with that defect grades consistently across releases.
func TestResolveCorrectKeyDuplicateTextEarlierWins(t *testing.T) {
	q := choiceQuestion("quick-4", "stop",
		model.Option{Key: "A", Text: "stop"},
		model.Option{Key: "B", Text: "stop"},
	)
	assert.Equal(t, "A", ResolveCorrectKey(q))
}

func TestScoreCountsResolvedMatches(t *testing.T) {
	bank := map[string]model.Question{
		"quick-1": choiceQuestion("quick-1", "A", model.Option{Key: "A", Text: "a"}, model.Option{Key: "B", Text: "b"}),
		"quick-2": choiceQuestion("quick-2", "b", model.Option{Key: "A", Text: "a"}, model.Option{Key: "B", Text: "b"}),
		"quick-3": choiceQuestion("quick-3", "A", model.Option{Key: "A", Text: "a"}),
		"quick-4": choiceQuestion("quick-4", "B", model.Option{Key: "A", Text: "a"}, model.Option{Key: "B", Text: "b"}),
		"quick-5": choiceQuestion("quick-5", "A", model.Option{Key: "A", Text: "a"}),
	}
	lookup := func(id string) (model.Question, bool) {
		q, ok := bank[id]
		return q, ok
	}

	ids := []string{"quick-1", "quick-2", "quick-3", "quick-4", "quick-5"}
	answers := map[string]string{
		"quick-1": "A", // correct by key
		"quick-2": "B", // correct via text resolution
		"quick-3": "A", // correct
		"quick-4": "A", // wrong
		// quick-5 unanswered
	}

	assert.Equal(t, 3, Score(lookup, ids, answers, 1))

	// Pure: same inputs, same result.
	assert.Equal(t, 3, Score(lookup, ids, answers, 1))

	// Per-question weight scales linearly.
	assert.Equal(t, 6, Score(lookup, ids, answers, 2))
}

func TestScoreSkipsUnknownIDs(t *testing.T) {
	lookup := func(string) (model.Question, bool) { return model.Question{}, false }
	assert.Equal(t, 0, Score(lookup, []string{"gone-1"}, map[string]string{"gone-1": "A"}, 1))
}
