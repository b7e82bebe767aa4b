package progress

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/storage"
)

const progressKey = "user:1:user_progress"

func newTestLedger(t *testing.T, st storage.Store, debounce time.Duration) *Ledger {
	t.Helper()
	l := NewLedger(st, progressKey, debounce, zerolog.Nop())
	l.Load(context.Background())
	t.Cleanup(func() { l.Close(context.Background()) })
	return l
}

func storedProgress(t *testing.T, st *storage.MemoryStore) model.UserProgress {
	t.Helper()
	raw, ok, err := st.Get(context.Background(), progressKey)
	require.NoError(t, err)
	require.True(t, ok, "no progress record persisted")
	var p model.UserProgress
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestMarkAnsweredIsIdempotent(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.MarkAnswered("quick-1")
	l.MarkAnswered("quick-1")
	l.MarkAnswered("quick-2")

	assert.Equal(t, []string{"quick-1", "quick-2"}, l.Progress().AnsweredIDs)
}

func TestHideUnhideRoundTrip(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.MarkHidden("quick-3")
	l.MarkHidden("quick-3")
	assert.Equal(t, []string{"quick-3"}, l.Progress().HiddenIDs)

	l.UnhideQuestion("quick-3")
	l.UnhideQuestion("quick-3")
	assert.Empty(t, l.Progress().HiddenIDs)
}

func TestMistakeQueuePreservesInsertionOrder(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.AddMistake("quick-5")
	l.AddMistake("quick-2")
	l.AddMistake("quick-5")
	assert.Equal(t, []string{"quick-5", "quick-2"}, l.Progress().Mistakes)

	l.RemoveMistake("quick-5")
	assert.Equal(t, []string{"quick-2"}, l.Progress().Mistakes)
}

func TestToggleFavoriteFlips(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.ToggleFavorite("quick-1")
	assert.Equal(t, []string{"quick-1"}, l.Progress().Favorites)
	l.ToggleFavorite("quick-1")
	assert.Empty(t, l.Progress().Favorites)
}

func TestNotesUpsertAndKeepEmptyString(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.UpdateNote("quick-1", "tricky sign")
	l.UpdateNote("quick-1", "")

	note, ok := l.Progress().Notes["quick-1"]
	require.True(t, ok, "empty note must stay stored")
	assert.Equal(t, "", note)
}

func TestCursorNeverRegresses(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankQuick: 5}})
	assert.Equal(t, 5, l.Progress().CurrentIndex[model.BankQuick])

	// Re-visiting an earlier question must not move the resume point back.
	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankQuick: 3}})
	assert.Equal(t, 5, l.Progress().CurrentIndex[model.BankQuick])

	// Equal index is accepted (a no-op), larger advances.
	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankQuick: 5}})
	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankQuick: 6}})
	assert.Equal(t, 6, l.Progress().CurrentIndex[model.BankQuick])
}

func TestBanksKeepIndependentCursors(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)

	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankQuick: 7}})
	l.SetBank(model.BankFull)
	l.UpdateProgress(model.ProgressPatch{CurrentIndex: map[model.Bank]int{model.BankFull: 2}})

	p := l.Progress()
	assert.Equal(t, model.BankFull, p.CurrentBank)
	assert.Equal(t, 7, p.CurrentIndex[model.BankQuick])
	assert.Equal(t, 2, p.CurrentIndex[model.BankFull])
}

func TestDebounceCoalescesBurstIntoOneWrite(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, 20*time.Millisecond)

	for i := 0; i < 20; i++ {
		l.MarkAnswered("quick-" + string(rune('a'+i)))
	}

	require.Eventually(t, func() bool {
		return st.SetCount(progressKey) > 0
	}, time.Second, 5*time.Millisecond)

	// One write holding the final composite state.
	assert.Equal(t, 1, st.SetCount(progressKey))
	assert.Len(t, storedProgress(t, st).AnsweredIDs, 20)
}

func TestLoadMergesSavedRecordOntoDefaults(t *testing.T) {
	st := storage.NewMemoryStore()
	// A record from an older version: no hiddenIds, no full-bank cursor.
	saved := `{"currentBank":"full","currentIndex":{"quick":4},"answeredIds":["quick-1"]}`
	require.NoError(t, st.Set(context.Background(), progressKey, []byte(saved)))

	l := newTestLedger(t, st, time.Hour)
	p := l.Progress()

	assert.Equal(t, model.BankFull, p.CurrentBank)
	assert.Equal(t, 4, p.CurrentIndex[model.BankQuick])
	assert.Equal(t, 0, p.CurrentIndex[model.BankFull])
	assert.Equal(t, []string{"quick-1"}, p.AnsweredIDs)
	assert.NotNil(t, p.HiddenIDs)
	assert.NotNil(t, p.Notes)
	assert.Empty(t, p.ExamHistory)
}

func TestLoadCorruptRecordSeedsDefaults(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), progressKey, []byte("{broken")))

	l := newTestLedger(t, st, time.Hour)
	assert.Equal(t, model.DefaultProgress(), l.Progress())
}

func TestResetRequiresConfirmation(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)
	l.MarkAnswered("quick-1")

	assert.False(t, l.Reset(false))
	assert.Equal(t, []string{"quick-1"}, l.Progress().AnsweredIDs)

	assert.True(t, l.Reset(true))
	assert.Equal(t, model.DefaultProgress(), l.Progress())
}

func TestStorageFailureDegradesToMemoryOnly(t *testing.T) {
	st := storage.NewMemoryStore()
	st.SetFailing(true)

	l := newTestLedger(t, st, 10*time.Millisecond)
	l.MarkAnswered("quick-1")
	l.Flush(context.Background())

	// Mutations keep working without storage.
	assert.Equal(t, []string{"quick-1"}, l.Progress().AnsweredIDs)
	assert.Equal(t, 0, st.SetCount(progressKey))

	// Once storage recovers, the next save lands the full state.
	st.SetFailing(false)
	l.MarkAnswered("quick-2")
	require.Eventually(t, func() bool {
		return st.SetCount(progressKey) > 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"quick-1", "quick-2"}, storedProgress(t, st).AnsweredIDs)
}

func TestCloseFlushesUnsavedState(t *testing.T) {
	st := storage.NewMemoryStore()
	l := NewLedger(st, progressKey, time.Hour, zerolog.Nop())
	l.Load(context.Background())

	l.AppendExamRecord(model.ExamRecord{Date: 1700000000000, Score: 93, Duration: 1800, Bank: model.BankQuick})
	l.Close(context.Background())

	p := storedProgress(t, st)
	require.Len(t, p.ExamHistory, 1)
	assert.Equal(t, 93, p.ExamHistory[0].Score)
}

func TestProgressReturnsIsolatedCopy(t *testing.T) {
	st := storage.NewMemoryStore()
	l := newTestLedger(t, st, time.Hour)
	l.MarkAnswered("quick-1")

	p := l.Progress()
	p.AnsweredIDs[0] = "tampered"
	p.CurrentIndex[model.BankQuick] = 99

	fresh := l.Progress()
	assert.Equal(t, []string{"quick-1"}, fresh.AnsweredIDs)
	assert.Equal(t, 0, fresh.CurrentIndex[model.BankQuick])
}
