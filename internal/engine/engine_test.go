package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/bank"
	"github.com/deepv/driving-backend/internal/config"
	"github.com/deepv/driving-backend/internal/exam"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/storage"
)

type recordedExam struct {
	userID int
	rec    model.ExamRecord
}

type fakeRecorder struct {
	records []recordedExam
}

func (r *fakeRecorder) Enqueue(_ context.Context, userID int, rec model.ExamRecord) {
	r.records = append(r.records, recordedExam{userID: userID, rec: rec})
}

func testCorpus() *bank.Corpus {
	q := func(id string) model.Question {
		return model.Question{
			ID:     id,
			Answer: "A",
			Options: model.OptionList{
				{Key: "A", Text: "right"},
				{Key: "B", Text: "wrong"},
			},
		}
	}
	return bank.NewCorpus(map[model.Bank][]model.Question{
		model.BankQuick: {q("quick-1"), q("quick-2"), q("quick-3")},
		model.BankFull:  {q("full-1"), q("full-2")},
	})
}

func newTestEngine(t *testing.T, rec Recorder) (*Engine, *storage.MemoryStore) {
	t.Helper()
	st := storage.NewMemoryStore()
	cfg := &config.Config{
		SaveDebounce:     10 * time.Millisecond,
		ExamQuestions:    2,
		ExamDuration:     45 * time.Minute,
		ExamPassScore:    2,
		ExamResumeWindow: 5 * time.Minute,
	}
	e := New(cfg, st, testCorpus(), rec, zerolog.Nop())
	t.Cleanup(func() { e.Shutdown(context.Background()) })
	return e, st
}

func TestUserStateIsCreatedOnceAndShared(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	u1 := e.User(context.Background(), 1)
	u2 := e.User(context.Background(), 1)
	assert.Same(t, u1, u2)

	other := e.User(context.Background(), 2)
	assert.NotSame(t, u1, other)
}

func TestFinishedExamReachesLedgerAndRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	e, _ := newTestEngine(t, rec)
	u := e.User(context.Background(), 7)

	session := u.Exam(context.Background())
	require.NoError(t, session.Start(context.Background()))
	session.Answer(context.Background(), "A")

	_, err := session.Submit(context.Background(), true)
	require.NoError(t, err)

	history := u.Ledger.Progress().ExamHistory
	require.Len(t, history, 1)
	assert.Equal(t, model.BankQuick, history[0].Bank)

	require.Len(t, rec.records, 1)
	assert.Equal(t, 7, rec.records[0].userID)
	assert.Equal(t, history[0].Score, rec.records[0].rec.Score)
}

func TestLeaveActiveExamRequiresConfirmation(t *testing.T) {
	e, st := newTestEngine(t, nil)
	u := e.User(context.Background(), 1)

	session := u.Exam(context.Background())
	require.NoError(t, session.Start(context.Background()))

	assert.ErrorIs(t, u.LeaveExam(false), exam.ErrConfirmationRequired)

	require.NoError(t, u.LeaveExam(true))

	// The snapshot stays behind, so the next exam screen offers recovery.
	_, ok, err := st.Get(context.Background(), config.StorageKey.ExamSnapshotKey(1))
	require.NoError(t, err)
	require.True(t, ok)

	fresh := u.Exam(context.Background())
	assert.True(t, fresh.PendingRecovery())
}

func TestLeaveInactiveExamNeedsNoConfirmation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	u := e.User(context.Background(), 1)

	u.Exam(context.Background())
	assert.NoError(t, u.LeaveExam(false))
	assert.NoError(t, u.LeaveExam(false), "no exam screen at all is fine too")
}

func TestSetBankRebuildsSamplerOverNewBank(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	u := e.User(context.Background(), 1)

	s1 := u.Sampler(context.Background())
	u.SetBank(model.BankFull)
	s2 := u.Sampler(context.Background())

	assert.NotSame(t, s1, s2)
	assert.Equal(t, model.BankFull, u.Ledger.Progress().CurrentBank)

	view := s2.ViewState()
	assert.Contains(t, []string{"full-1", "full-2"}, view.CurrentID)
}

func TestSetBankKeepsActiveExam(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	u := e.User(context.Background(), 1)

	session := u.Exam(context.Background())
	require.NoError(t, session.Start(context.Background()))

	u.SetBank(model.BankFull)
	assert.Same(t, session, u.Exam(context.Background()), "a running exam is never dropped")
}

func TestShutdownFlushesLedgers(t *testing.T) {
	e, st := newTestEngine(t, nil)
	u := e.User(context.Background(), 1)
	u.Ledger.MarkAnswered("quick-1")

	e.Shutdown(context.Background())

	_, ok, err := st.Get(context.Background(), config.StorageKey.UserProgressKey(1))
	require.NoError(t, err)
	assert.True(t, ok)
}
