package exam

import "github.com/deepv/driving-backend/internal/model"

// ResolveCorrectKey finds the option key graded as correct for a question.
// The bank's answer field may hold either an option key ("A") or an option's
// text verbatim, so options are scanned in display order and the first one
// matching on key or text wins, falling back to the raw answer value.
//
// Known edge case inherited from the bank format: two options with identical
// text make the text match ambiguous and the earlier option wins. That is a
// data-quality problem in the source bank, not something graded around here.
func ResolveCorrectKey(q model.Question) string {
	for _, opt := range q.Options {
		if q.Answer == opt.Key {
			return opt.Key
		}
		if q.Answer == opt.Text {
			return opt.Key
		}
	}
	return q.Answer
}

// Score grades a fixed exam draw against the recorded answers: one point
// per question whose selected key resolves to the correct key. Unanswered
// questions and ids missing from the lookup score zero. Pure function, safe
// to call repeatedly with the same inputs.
func Score(lookup func(id string) (model.Question, bool), questionIDs []string, answers map[string]string, scorePerQuestion int) int {
	score := 0
	for _, id := range questionIDs {
		q, ok := lookup(id)
		if !ok {
			continue
		}
		if answers[id] == ResolveCorrectKey(q) {
			score += scorePerQuestion
		}
	}
	return score
}
