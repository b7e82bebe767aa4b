// Package exam implements the timed mock-exam state machine: a bounded
// three-state session (intro, active, finished) with a 1 Hz countdown, a
// crash-recovery snapshot separate from the progress ledger, and fixed-draw
// scoring.
package exam

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/autoadvance"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/settings"
	"github.com/deepv/driving-backend/internal/storage"
)

var (
	// ErrNotActive is returned when an operation requires an active session.
	ErrNotActive = errors.New("exam session is not active")
	// ErrConfirmationRequired gates irreversible transitions.
	ErrConfirmationRequired = errors.New("explicit confirmation required")
	// ErrNoRecovery is returned when no recovery snapshot is pending.
	ErrNoRecovery = errors.New("no recovery snapshot pending")
	// ErrAlreadyActive is returned when starting over a running session.
	ErrAlreadyActive = errors.New("exam session already active")
)

// Config holds the exam parameters. Defaults mirror the real test: 100
// questions, 45 minutes, pass at 90, 1 point each, 5 minute resume window.
type Config struct {
	TotalQuestions   int
	Duration         time.Duration
	PassScore        int
	ScorePerQuestion int
	ResumeWindow     time.Duration
	TickInterval     time.Duration
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		TotalQuestions:   100,
		Duration:         45 * time.Minute,
		PassScore:        90,
		ScorePerQuestion: 1,
		ResumeWindow:     5 * time.Minute,
		TickInterval:     time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TotalQuestions <= 0 {
		c.TotalQuestions = d.TotalQuestions
	}
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.PassScore <= 0 {
		c.PassScore = d.PassScore
	}
	if c.ScorePerQuestion <= 0 {
		c.ScorePerQuestion = d.ScorePerQuestion
	}
	if c.ResumeWindow <= 0 {
		c.ResumeWindow = d.ResumeWindow
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	return c
}

// View is the read model handed to the presentation boundary.
type View struct {
	State           model.ExamState   `json:"state"`
	PendingRecovery bool              `json:"pending_recovery"`
	QuestionIDs     []string          `json:"question_ids,omitempty"`
	Answers         map[string]string `json:"answers,omitempty"`
	CurrentIndex    int               `json:"current_index"`
	CurrentID       string            `json:"current_id,omitempty"`
	TimeLeft        int               `json:"time_left"`
	AnsweredCount   int               `json:"answered_count"`
	Score           int               `json:"score"`
	Passed          bool              `json:"passed"`
	AutoSubmitted   bool              `json:"auto_submitted"`
}

// Session is one user's exam state machine. It exclusively owns the
// recovery snapshot under its storage key and touches the progress ledger
// only through the onFinish callback.
type Session struct {
	mu    sync.Mutex
	cfg   Config
	store storage.Store
	key   string
	log   zerolog.Logger
	bank  model.Bank

	questions []model.Question
	byID      map[string]model.Question

	state         model.ExamState
	questionIDs   []string
	answers       map[string]string
	cursor        int
	timeLeft      int
	score         int
	passed        bool
	autoSubmitted bool

	pending *model.ExamSnapshot

	ticker   *time.Ticker
	stopTick chan struct{}
	advance  *autoadvance.Scheduler

	now      func() time.Time
	rng      *rand.Rand
	onFinish func(model.ExamRecord)
	closed   bool
}

// NewSession creates a session in the intro state and checks the snapshot
// key for a recoverable crash. A snapshot younger than the resume window is
// held as a pending offer; anything older (its timer conceptually already
// expired) is discarded on the spot.
func NewSession(ctx context.Context, cfg Config, st storage.Store, key string, bank model.Bank, questions []model.Question, settingsStore *settings.Store, onFinish func(model.ExamRecord), log zerolog.Logger) *Session {
	cfg = cfg.withDefaults()

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	s := &Session{
		cfg:       cfg,
		store:     st,
		key:       key,
		log:       log.With().Str("component", "exam_session").Logger(),
		bank:      bank,
		questions: questions,
		byID:      byID,
		state:     model.ExamStateIntro,
		answers:   map[string]string{},
		timeLeft:  int(cfg.Duration.Seconds()),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		onFinish:  onFinish,
	}
	s.advance = autoadvance.New(settingsStore, model.ModeExam, s.autoNext)

	s.loadRecovery(ctx)
	return s
}

// SetClock overrides the wall clock. Test hook.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetRand overrides the draw RNG. Test hook.
func (s *Session) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

func (s *Session) loadRecovery(ctx context.Context) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("snapshot read failed, starting at intro")
		return
	}
	if !ok {
		return
	}

	var snap model.ExamSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn().Err(err).Msg("snapshot corrupt, discarding")
		s.removeSnapshot(ctx)
		return
	}

	if snap.State != model.ExamStateActive {
		s.removeSnapshot(ctx)
		return
	}

	elapsed := s.now().UnixMilli() - snap.Timestamp
	if elapsed >= s.cfg.ResumeWindow.Milliseconds() {
		s.log.Info().Int64("age_ms", elapsed).Msg("snapshot stale, discarding")
		s.removeSnapshot(ctx)
		return
	}

	s.pending = &snap
}

// Resume accepts or declines the pending recovery offer. Accepting restores
// the draw, answers and cursor, and charges the elapsed wall-clock seconds
// against the remaining time, clamped at zero (which auto-submits at once).
// Declining deletes the snapshot and stays at intro.
func (s *Session) Resume(ctx context.Context, accept bool) error {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return ErrNoRecovery
	}

	snap := s.pending
	s.pending = nil

	if !accept {
		s.removeSnapshot(ctx)
		s.mu.Unlock()
		return nil
	}

	s.questionIDs = snap.QuestionIDs
	s.answers = snap.Answers
	if s.answers == nil {
		s.answers = map[string]string{}
	}
	s.cursor = clamp(snap.CurrentIndex, 0, len(s.questionIDs)-1)

	elapsedSec := int((s.now().UnixMilli() - snap.Timestamp) / 1000)
	s.timeLeft = snap.TimeLeft - elapsedSec
	if s.timeLeft < 0 {
		s.timeLeft = 0
	}

	s.state = model.ExamStateActive
	s.autoSubmitted = false

	if s.timeLeft == 0 {
		rec := s.finishLocked(ctx, true)
		s.mu.Unlock()
		s.notifyFinish(rec)
		return nil
	}

	s.persistLocked(ctx)
	s.startTickerLocked()
	s.mu.Unlock()
	return nil
}

// PendingRecovery reports whether a resume offer is waiting.
func (s *Session) PendingRecovery() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Start begins a fresh exam: a uniform random permutation of the whole
// question list (rand.Shuffle is a Fisher-Yates; never a comparator-based
// shuffle, which is biased), truncated to the configured draw size. A pool
// smaller than the draw size simply yields a shorter exam. Starting always
// overwrites any prior snapshot.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == model.ExamStateActive {
		s.mu.Unlock()
		return ErrAlreadyActive
	}

	s.pending = nil

	ids := make([]string, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	if len(ids) > s.cfg.TotalQuestions {
		ids = ids[:s.cfg.TotalQuestions]
	}

	s.questionIDs = ids
	s.answers = map[string]string{}
	s.cursor = 0
	s.timeLeft = int(s.cfg.Duration.Seconds())
	s.score = 0
	s.passed = false
	s.autoSubmitted = false
	s.state = model.ExamStateActive

	s.persistLocked(ctx)
	s.startTickerLocked()
	s.mu.Unlock()
	return nil
}

// Answer records the selected option key for the current question,
// overwriting any prior selection. Answers submitted outside an active
// session are silently ignored (locked question, not an error). Returns
// whether the selection was graded correct and whether it was applied.
func (s *Session) Answer(ctx context.Context, key string) (correct, applied bool) {
	s.mu.Lock()
	if s.state != model.ExamStateActive || len(s.questionIDs) == 0 {
		s.mu.Unlock()
		return false, false
	}

	id := s.questionIDs[s.cursor]
	s.answers[id] = key

	if q, ok := s.byID[id]; ok {
		correct = ResolveCorrectKey(q) == key
	}

	s.persistLocked(ctx)
	s.mu.Unlock()

	s.advance.Trigger(correct)
	return correct, true
}

// Navigate moves the cursor, absolute when to is non-nil, otherwise by
// step. Out-of-range targets clamp; never an error.
func (s *Session) Navigate(ctx context.Context, to *int, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.ExamStateActive || len(s.questionIDs) == 0 {
		return
	}

	target := s.cursor + step
	if to != nil {
		target = *to
	}
	target = clamp(target, 0, len(s.questionIDs)-1)
	if target == s.cursor {
		return
	}
	s.cursor = target
	s.persistLocked(ctx)
}

// Submit finishes the exam on the user's explicit confirmation. There is
// no way back to active; answers are locked from here on.
func (s *Session) Submit(ctx context.Context, confirm bool) (View, error) {
	if !confirm {
		return s.View(), ErrConfirmationRequired
	}

	s.mu.Lock()
	if s.state != model.ExamStateActive {
		s.mu.Unlock()
		return s.View(), ErrNotActive
	}
	rec := s.finishLocked(ctx, false)
	s.mu.Unlock()

	s.notifyFinish(rec)
	return s.View(), nil
}

// Reset returns to intro from a finished (or never-started) session and
// deletes any snapshot. Resetting a running exam requires going through
// Submit or Leave first.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.ExamStateActive {
		return ErrNotActive
	}

	s.state = model.ExamStateIntro
	s.questionIDs = nil
	s.answers = map[string]string{}
	s.cursor = 0
	s.timeLeft = int(s.cfg.Duration.Seconds())
	s.score = 0
	s.passed = false
	s.autoSubmitted = false
	s.removeSnapshot(ctx)
	return nil
}

// View returns a copy of the current state for the presentation boundary.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:           s.state,
		PendingRecovery: s.pending != nil,
		CurrentIndex:    s.cursor,
		TimeLeft:        s.timeLeft,
		AnsweredCount:   len(s.answers),
		Score:           s.score,
		Passed:          s.passed,
		AutoSubmitted:   s.autoSubmitted,
	}
	if len(s.questionIDs) > 0 {
		v.QuestionIDs = append([]string(nil), s.questionIDs...)
		v.CurrentID = s.questionIDs[s.cursor]
		v.Answers = make(map[string]string, len(s.answers))
		for k, val := range s.answers {
			v.Answers[k] = val
		}
	}
	return v
}

// Close tears the session down without finishing it. The snapshot is left
// in place on purpose: an active exam interrupted by a disconnect must stay
// recoverable within the resume window.
func (s *Session) Close() {
	s.advance.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTickerLocked()
}

// finishLocked performs the active -> finished transition. Callers hold
// s.mu and forward the returned record to notifyFinish after unlocking.
func (s *Session) finishLocked(ctx context.Context, auto bool) model.ExamRecord {
	s.stopTickerLocked()
	s.advance.Cancel()

	s.score = Score(s.lookup, s.questionIDs, s.answers, s.cfg.ScorePerQuestion)
	s.passed = s.score >= s.cfg.PassScore
	s.autoSubmitted = auto
	s.state = model.ExamStateFinished

	// The snapshot must never outlive an active session.
	s.removeSnapshot(ctx)

	return model.ExamRecord{
		Date:     s.now().UnixMilli(),
		Score:    s.score,
		Duration: int(s.cfg.Duration.Seconds()) - s.timeLeft,
		Bank:     s.bank,
	}
}

func (s *Session) notifyFinish(rec model.ExamRecord) {
	if s.onFinish != nil {
		s.onFinish(rec)
	}
}

func (s *Session) lookup(id string) (model.Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// autoNext is the auto-advance callback; a plain "go to next item".
func (s *Session) autoNext() {
	s.Navigate(context.Background(), nil, 1)
}

func (s *Session) startTickerLocked() {
	s.stopTickerLocked()
	if s.closed {
		return
	}
	s.ticker = time.NewTicker(s.cfg.TickInterval)
	s.stopTick = make(chan struct{})
	go s.run(s.ticker, s.stopTick)
}

func (s *Session) stopTickerLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stopTick)
		s.ticker = nil
		s.stopTick = nil
	}
}

func (s *Session) run(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.tick() {
				return
			}
		}
	}
}

// tick decrements the countdown once. Reaching exactly zero while active is
// the single automatic transition to finished. Returns true when the loop
// should exit.
func (s *Session) tick() bool {
	ctx := context.Background()

	s.mu.Lock()
	if s.state != model.ExamStateActive {
		s.mu.Unlock()
		return true
	}

	if s.timeLeft > 0 {
		s.timeLeft--
	}

	if s.timeLeft == 0 {
		rec := s.finishLocked(ctx, true)
		s.mu.Unlock()
		s.notifyFinish(rec)
		s.log.Info().Msg("exam time expired, auto-submitted")
		return true
	}

	s.persistLocked(ctx)
	s.mu.Unlock()
	return false
}

// persistLocked rewrites the recovery snapshot. Only ever called while
// active; storage failure is non-fatal, the in-memory machine stays
// authoritative.
func (s *Session) persistLocked(ctx context.Context) {
	snap := model.ExamSnapshot{
		State:        model.ExamStateActive,
		QuestionIDs:  s.questionIDs,
		Answers:      s.answers,
		CurrentIndex: s.cursor,
		TimeLeft:     s.timeLeft,
		Timestamp:    s.now().UnixMilli(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot marshal failed")
		return
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		s.log.Warn().Err(err).Msg("snapshot write failed")
	}
}

func (s *Session) removeSnapshot(ctx context.Context) {
	if err := s.store.Remove(ctx, s.key); err != nil {
		s.log.Warn().Err(err).Msg("snapshot remove failed")
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
