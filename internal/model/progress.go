package model

// ExamRecord is one entry of the append-only mock-exam history.
// Date is a millisecond epoch timestamp, Duration is in seconds.
type ExamRecord struct {
	Date     int64 `json:"date"`
	Score    int   `json:"score"`
	Duration int   `json:"duration"`
	Bank     Bank  `json:"bank"`
}

// UserProgress is the single atomically-replaceable progress record for one
// user. The JSON field names are the storage payload format and must stay
// stable across releases.
type UserProgress struct {
	CurrentBank  Bank              `json:"currentBank"`
	CurrentIndex map[Bank]int      `json:"currentIndex"`
	AnsweredIDs  []string          `json:"answeredIds"`
	HiddenIDs    []string          `json:"hiddenIds"`
	Notes        map[string]string `json:"notes"`
	Mistakes     []string          `json:"mistakes"`
	Favorites    []string          `json:"favorites"`
	ExamHistory  []ExamRecord      `json:"examHistory"`
}

// DefaultProgress returns the zero-state a fresh user starts from.
func DefaultProgress() UserProgress {
	return UserProgress{
		CurrentBank:  BankQuick,
		CurrentIndex: map[Bank]int{BankQuick: 0, BankFull: 0},
		AnsweredIDs:  []string{},
		HiddenIDs:    []string{},
		Notes:        map[string]string{},
		Mistakes:     []string{},
		Favorites:    []string{},
		ExamHistory:  []ExamRecord{},
	}
}

// Clone returns a deep copy so callers can never mutate the ledger's record.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.CurrentIndex = make(map[Bank]int, len(p.CurrentIndex))
	for k, v := range p.CurrentIndex {
		out.CurrentIndex[k] = v
	}
	out.AnsweredIDs = append([]string(nil), p.AnsweredIDs...)
	out.HiddenIDs = append([]string(nil), p.HiddenIDs...)
	out.Mistakes = append([]string(nil), p.Mistakes...)
	out.Favorites = append([]string(nil), p.Favorites...)
	out.Notes = make(map[string]string, len(p.Notes))
	for k, v := range p.Notes {
		out.Notes[k] = v
	}
	out.ExamHistory = append([]ExamRecord(nil), p.ExamHistory...)
	return out
}

// ProgressPatch is a partial update of the top-level cursor fields. The
// cursor sub-map is merged key-by-key with a monotonic tie-break; a nil
// CurrentBank leaves the active bank untouched.
type ProgressPatch struct {
	CurrentBank  *Bank        `json:"currentBank,omitempty"`
	CurrentIndex map[Bank]int `json:"currentIndex,omitempty"`
}

// QuestionIDRequest is the payload for id-keyed progress mutations.
type QuestionIDRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
}

// NoteRequest upserts a free-text note for a question. An empty note is
// valid and stored as-is.
type NoteRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Note       string `json:"note"`
}

// SetBankRequest switches the active bank.
type SetBankRequest struct {
	Bank Bank `json:"bank" binding:"required,oneof=quick full"`
}

// CursorRequest advances the sequential-practice resume point for a bank.
type CursorRequest struct {
	Bank  Bank `json:"bank" binding:"required,oneof=quick full"`
	Index int  `json:"index" binding:"min=0"`
}

// ConfirmRequest gates destructive actions (reset, submit, hide, leave).
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}
