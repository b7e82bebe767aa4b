// Package engine owns the per-user runtime: one progress ledger and one
// settings store per user, constructed once and handed by reference to the
// per-screen exam session and random sampler instances.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/bank"
	"github.com/deepv/driving-backend/internal/config"
	"github.com/deepv/driving-backend/internal/exam"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/progress"
	"github.com/deepv/driving-backend/internal/sampler"
	"github.com/deepv/driving-backend/internal/settings"
	"github.com/deepv/driving-backend/internal/storage"
)

// Recorder archives finished exams asynchronously (the history worker
// queue). May be nil in tooling contexts.
type Recorder interface {
	Enqueue(ctx context.Context, userID int, rec model.ExamRecord)
}

// Engine holds the live per-user state machines.
type Engine struct {
	mu       sync.Mutex
	cfg      *config.Config
	store    storage.Store
	corpus   *bank.Corpus
	recorder Recorder
	log      zerolog.Logger
	users    map[int]*UserState
}

// New creates the engine.
func New(cfg *config.Config, store storage.Store, corpus *bank.Corpus, recorder Recorder, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		corpus:   corpus,
		recorder: recorder,
		log:      log.With().Str("component", "engine").Logger(),
		users:    make(map[int]*UserState),
	}
}

// User returns the runtime for a user, creating and loading it on first
// touch. The ledger load happens exactly once, before any mutation can
// schedule a save.
func (e *Engine) User(ctx context.Context, userID int) *UserState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u, ok := e.users[userID]; ok {
		return u
	}

	log := e.log.With().Int("user_id", userID).Logger()

	ledger := progress.NewLedger(e.store, config.StorageKey.UserProgressKey(userID), e.cfg.SaveDebounce, log)
	ledger.Load(ctx)

	u := &UserState{
		engine:   e,
		userID:   userID,
		Ledger:   ledger,
		Settings: settings.NewStore(ctx, e.store, config.StorageKey.SettingsKey(userID), log),
		log:      log,
	}
	e.users[userID] = u
	return u
}

// Shutdown tears down every live user: pending timers canceled, unsaved
// progress flushed.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	users := make([]*UserState, 0, len(e.users))
	for _, u := range e.users {
		users = append(users, u)
	}
	e.users = make(map[int]*UserState)
	e.mu.Unlock()

	for _, u := range users {
		u.close(ctx)
	}
	e.log.Info().Int("users", len(users)).Msg("engine shut down")
}

// UserState is one user's live session bundle. Ledger and Settings live for
// the whole process; the exam session and sampler are created lazily per
// "screen" and torn down explicitly.
type UserState struct {
	engine *Engine
	userID int
	log    zerolog.Logger

	Ledger   *progress.Ledger
	Settings *settings.Store

	mu      sync.Mutex
	exam    *exam.Session
	sampler *sampler.Sampler
}

// Exam returns the user's exam session, creating one (and checking for a
// recoverable snapshot) on first access. The draw pool is the full question
// list of the user's active bank.
func (u *UserState) Exam(ctx context.Context) *exam.Session {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.exam != nil {
		return u.exam
	}

	e := u.engine
	bankName := u.Ledger.Progress().CurrentBank
	cfg := exam.Config{
		TotalQuestions: e.cfg.ExamQuestions,
		Duration:       e.cfg.ExamDuration,
		PassScore:      e.cfg.ExamPassScore,
		ResumeWindow:   e.cfg.ExamResumeWindow,
	}

	userID := u.userID
	u.exam = exam.NewSession(
		ctx,
		cfg,
		e.store,
		config.StorageKey.ExamSnapshotKey(userID),
		bankName,
		e.corpus.Questions(bankName),
		u.Settings,
		func(rec model.ExamRecord) {
			u.Ledger.AppendExamRecord(rec)
			if e.recorder != nil {
				e.recorder.Enqueue(context.Background(), userID, rec)
			}
		},
		u.log,
	)
	return u.exam
}

// LeaveExam detaches from the exam screen. Leaving an active exam requires
// confirmation (the soft exit guard); the snapshot is deliberately kept so
// the session stays recoverable within the resume window.
func (u *UserState) LeaveExam(confirm bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.exam == nil {
		return nil
	}
	if u.exam.View().State == model.ExamStateActive && !confirm {
		return exam.ErrConfirmationRequired
	}
	u.exam.Close()
	u.exam = nil
	return nil
}

// Sampler returns the user's random-practice session, creating one on
// first access over the active bank.
func (u *UserState) Sampler(ctx context.Context) *sampler.Sampler {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.sampler != nil {
		return u.sampler
	}

	bankName := u.Ledger.Progress().CurrentBank
	u.sampler = sampler.New(u.Ledger, u.engine.corpus.Questions(bankName), u.Settings, u.log)
	return u.sampler
}

// ReleaseSampler tears the sampler down, canceling its pending timers.
func (u *UserState) ReleaseSampler() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sampler != nil {
		u.sampler.Close()
		u.sampler = nil
	}
}

// SetBank switches the active bank and drops the bank-scoped live sessions
// so they rebuild over the new bank. Each bank keeps its own cursor.
func (u *UserState) SetBank(bank model.Bank) {
	u.Ledger.SetBank(bank)

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sampler != nil {
		u.sampler.Close()
		u.sampler = nil
	}
	if u.exam != nil && u.exam.View().State != model.ExamStateActive {
		u.exam.Close()
		u.exam = nil
	}
}

func (u *UserState) close(ctx context.Context) {
	u.mu.Lock()
	if u.exam != nil {
		u.exam.Close()
		u.exam = nil
	}
	if u.sampler != nil {
		u.sampler.Close()
		u.sampler = nil
	}
	u.mu.Unlock()

	u.Ledger.Close(ctx)
}
