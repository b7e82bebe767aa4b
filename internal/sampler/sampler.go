// Package sampler implements random practice: uniform draws from the pool
// of not-yet-answered, not-hidden questions, with a back-navigable history
// stack.
package sampler

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/autoadvance"
	"github.com/deepv/driving-backend/internal/exam"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/progress"
	"github.com/deepv/driving-backend/internal/settings"
)

// View is the sampler state handed to the presentation boundary.
type View struct {
	CurrentID   string `json:"current_id,omitempty"`
	Done        bool   `json:"done"`
	Remaining   int    `json:"remaining"`
	HistoryMode bool   `json:"history_mode"`
	HistoryLen  int    `json:"history_len"`
	// Answered reveals whether the shown question was ever answered; the
	// selected option is not recorded per draw, so a revisited question
	// shows its answer without the original selection.
	Answered bool `json:"answered"`
}

// Sampler is one user's random-practice session over one bank. Exclusions
// live in the ledger, so the pool is recomputed from it before every draw
// rather than cached; a question answered or hidden between draws can never
// come up again.
type Sampler struct {
	mu        sync.Mutex
	ledger    *progress.Ledger
	questions []model.Question
	byID      map[string]model.Question
	log       zerolog.Logger

	current     string
	done        bool
	historyMode bool
	// Back stack, unbounded. Depth is capped in practice by the bank size
	// times revisits per sitting; accepted for this version.
	history []string

	advance *autoadvance.Scheduler
	rng     *rand.Rand
	closed  bool
}

// New creates a sampler and draws the first question. An already exhausted
// pool starts directly in the terminal done state.
func New(ledger *progress.Ledger, questions []model.Question, settingsStore *settings.Store, log zerolog.Logger) *Sampler {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	s := &Sampler{
		ledger:    ledger,
		questions: questions,
		byID:      byID,
		log:       log.With().Str("component", "random_sampler").Logger(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.advance = autoadvance.New(settingsStore, model.ModeRandom, s.autoNext)

	s.mu.Lock()
	s.drawLocked()
	s.mu.Unlock()
	return s
}

// SetRand overrides the draw RNG. Test hook.
func (s *Sampler) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// poolLocked recomputes the eligible ids fresh from the ledger.
func (s *Sampler) poolLocked() []string {
	p := s.ledger.Progress()

	answered := make(map[string]struct{}, len(p.AnsweredIDs))
	for _, id := range p.AnsweredIDs {
		answered[id] = struct{}{}
	}
	hidden := make(map[string]struct{}, len(p.HiddenIDs))
	for _, id := range p.HiddenIDs {
		hidden[id] = struct{}{}
	}

	pool := make([]string, 0, len(s.questions))
	for _, q := range s.questions {
		if _, ok := answered[q.ID]; ok {
			continue
		}
		if _, ok := hidden[q.ID]; ok {
			continue
		}
		pool = append(pool, q.ID)
	}
	return pool
}

// drawLocked picks the next question uniformly. An empty pool is the
// terminal "all done" state, not an error.
func (s *Sampler) drawLocked() {
	pool := s.poolLocked()
	if len(pool) == 0 {
		s.current = ""
		s.done = true
		return
	}
	s.current = pool[s.rng.Intn(len(pool))]
	s.done = false
}

// Next pushes the current question onto the back stack, leaves history
// mode, and draws fresh.
func (s *Sampler) Next() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" {
		s.history = append(s.history, s.current)
	}
	s.historyMode = false
	s.drawLocked()
	return s.viewLocked()
}

// Back pops the most recent question for a read-only re-view. There is no
// forward stack and no redo: the question being left is simply dropped.
func (s *Sampler) Back() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return s.viewLocked()
	}

	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.historyMode = true
	s.done = false
	return s.viewLocked()
}

// Answer grades the selected key for the current question, records it in
// the ledger, and queues the wrong ones for review. Answers while
// re-viewing history (or with nothing shown) are silently ignored.
func (s *Sampler) Answer(key string) (correct, applied bool) {
	s.mu.Lock()
	if s.historyMode || s.current == "" {
		s.mu.Unlock()
		return false, false
	}

	id := s.current
	q, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return false, false
	}

	correct = exam.ResolveCorrectKey(q) == key
	s.ledger.MarkAnswered(id)
	if !correct {
		s.ledger.AddMistake(id)
	}

	s.advance.Trigger(correct)
	return correct, true
}

// Hide removes the current question from all future draws and immediately
// moves on. Requires explicit confirmation; unconfirmed calls do nothing.
func (s *Sampler) Hide(confirm bool) (View, bool) {
	if !confirm {
		return s.ViewState(), false
	}

	s.mu.Lock()
	id := s.current
	s.mu.Unlock()
	if id == "" {
		return s.ViewState(), false
	}

	s.ledger.MarkHidden(id)
	return s.Next(), true
}

// ViewState returns the current sampler state.
func (s *Sampler) ViewState() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close cancels the pending auto-advance timer. Idempotent.
func (s *Sampler) Close() {
	s.advance.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Sampler) viewLocked() View {
	v := View{
		CurrentID:   s.current,
		Done:        s.done,
		Remaining:   len(s.poolLocked()),
		HistoryMode: s.historyMode,
		HistoryLen:  len(s.history),
	}
	if s.current != "" {
		p := s.ledger.Progress()
		for _, id := range p.AnsweredIDs {
			if id == s.current {
				v.Answered = true
				break
			}
		}
	}
	return v
}

// autoNext is the auto-advance callback.
func (s *Sampler) autoNext() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Next()
}
