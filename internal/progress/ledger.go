// Package progress implements the ledger: the canonical, single-writer
// record of a user's practice progress with debounced persistence.
package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/storage"
)

// DefaultDebounce coalesces rapid sequential answers into one disk write.
const DefaultDebounce = 500 * time.Millisecond

// Ledger owns one user's UserProgress record. All mutations go through its
// methods; callers only ever see copies. Every mutation re-arms a single
// debounce timer, so a burst of changes produces exactly one write holding
// the final composite state.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	log      zerolog.Logger
	debounce time.Duration

	progress model.UserProgress
	loaded   bool
	dirty    bool
	closed   bool
	timer    *time.Timer
}

// NewLedger creates an unloaded Ledger. Call Load before mutating; saves
// scheduled before the initial load completes are ignored so a premature
// default-state write can never race the real load.
func NewLedger(st storage.Store, key string, debounce time.Duration, log zerolog.Logger) *Ledger {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Ledger{
		store:    st,
		key:      key,
		log:      log.With().Str("component", "progress_ledger").Logger(),
		debounce: debounce,
		progress: model.DefaultProgress(),
	}
}

// Load reads the persisted record once at startup. An absent record seeds
// the zero-state; a present one is shallow-merged onto the defaults, with
// the per-bank cursor sub-map merged key-by-key so banks added after the
// user's first save still start at zero. A storage failure degrades to
// memory-only operation.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return
	}

	raw, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		l.log.Warn().Err(err).Msg("progress load failed, continuing memory-only")
		l.loaded = true
		return
	}
	if !ok {
		l.loaded = true
		return
	}

	var saved model.UserProgress
	if err := json.Unmarshal(raw, &saved); err != nil {
		l.log.Warn().Err(err).Msg("progress record corrupt, seeding defaults")
		l.loaded = true
		return
	}

	merged := model.DefaultProgress()
	if saved.CurrentBank.Valid() {
		merged.CurrentBank = saved.CurrentBank
	}
	for bank, idx := range saved.CurrentIndex {
		merged.CurrentIndex[bank] = idx
	}
	if saved.AnsweredIDs != nil {
		merged.AnsweredIDs = saved.AnsweredIDs
	}
	if saved.HiddenIDs != nil {
		merged.HiddenIDs = saved.HiddenIDs
	}
	if saved.Notes != nil {
		merged.Notes = saved.Notes
	}
	if saved.Mistakes != nil {
		merged.Mistakes = saved.Mistakes
	}
	if saved.Favorites != nil {
		merged.Favorites = saved.Favorites
	}
	if saved.ExamHistory != nil {
		merged.ExamHistory = saved.ExamHistory
	}

	l.progress = merged
	l.loaded = true
}

// Progress returns a deep copy of the current record.
func (l *Ledger) Progress() model.UserProgress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress.Clone()
}

// MarkAnswered records that a question was ever answered. No-op if already
// present.
func (l *Ledger) MarkAnswered(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if contains(l.progress.AnsweredIDs, id) {
		return
	}
	l.progress.AnsweredIDs = append(l.progress.AnsweredIDs, id)
	l.scheduleSave()
}

// MarkHidden excludes a question from every mode. No-op if already hidden.
func (l *Ledger) MarkHidden(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if contains(l.progress.HiddenIDs, id) {
		return
	}
	l.progress.HiddenIDs = append(l.progress.HiddenIDs, id)
	l.scheduleSave()
}

// UnhideQuestion re-admits a hidden question. No-op if not hidden.
func (l *Ledger) UnhideQuestion(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := remove(l.progress.HiddenIDs, id)
	if len(next) == len(l.progress.HiddenIDs) {
		return
	}
	l.progress.HiddenIDs = next
	l.scheduleSave()
}

// AddMistake appends to the error-review queue, preserving insertion order.
// No-op if already queued.
func (l *Ledger) AddMistake(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if contains(l.progress.Mistakes, id) {
		return
	}
	l.progress.Mistakes = append(l.progress.Mistakes, id)
	l.scheduleSave()
}

// RemoveMistake drops a question from the error-review queue.
func (l *Ledger) RemoveMistake(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := remove(l.progress.Mistakes, id)
	if len(next) == len(l.progress.Mistakes) {
		return
	}
	l.progress.Mistakes = next
	l.scheduleSave()
}

// UpdateNote unconditionally upserts a note. An empty string is a valid
// note; presentation decides whether to treat it as "no note".
func (l *Ledger) UpdateNote(id, note string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress.Notes[id] = note
	l.scheduleSave()
}

// ToggleFavorite flips a question's favorite status.
func (l *Ledger) ToggleFavorite(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if contains(l.progress.Favorites, id) {
		l.progress.Favorites = remove(l.progress.Favorites, id)
	} else {
		l.progress.Favorites = append(l.progress.Favorites, id)
	}
	l.scheduleSave()
}

// SetBank switches the active bank. The other bank keeps its own cursor.
func (l *Ledger) SetBank(bank model.Bank) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.progress.CurrentBank == bank {
		return
	}
	l.progress.CurrentBank = bank
	l.scheduleSave()
}

// UpdateProgress shallow-merges a partial update. Cursor entries only move
// forward: the saved value is a high-water resume point, so re-visiting an
// earlier question never regresses it.
func (l *Ledger) UpdateProgress(patch model.ProgressPatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	if patch.CurrentBank != nil && *patch.CurrentBank != l.progress.CurrentBank {
		l.progress.CurrentBank = *patch.CurrentBank
		changed = true
	}
	for bank, idx := range patch.CurrentIndex {
		if idx >= l.progress.CurrentIndex[bank] {
			if l.progress.CurrentIndex[bank] != idx {
				l.progress.CurrentIndex[bank] = idx
				changed = true
			}
		}
	}
	if changed {
		l.scheduleSave()
	}
}

// AppendExamRecord appends to the write-only mock-exam history.
func (l *Ledger) AppendExamRecord(rec model.ExamRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress.ExamHistory = append(l.progress.ExamHistory, rec)
	l.scheduleSave()
}

// Reset replaces the whole record with the zero-state. The confirm flag is
// required because the action is irreversible; without it nothing happens.
func (l *Ledger) Reset(confirm bool) bool {
	if !confirm {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = model.DefaultProgress()
	l.scheduleSave()
	return true
}

// Flush persists immediately, canceling any pending debounce timer.
func (l *Ledger) Flush(ctx context.Context) {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()
	l.save(ctx)
}

// Close cancels the debounce timer and writes any unsaved state. The ledger
// refuses further scheduled saves afterwards.
func (l *Ledger) Close(ctx context.Context) {
	l.mu.Lock()
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	dirty := l.dirty
	l.mu.Unlock()

	if dirty {
		l.save(ctx)
	}
}

// scheduleSave re-arms the single debounce timer. Callers hold l.mu.
// Ignored before Load completes and after Close.
func (l *Ledger) scheduleSave() {
	l.dirty = true
	if !l.loaded || l.closed {
		return
	}
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.debounce, func() {
		l.save(context.Background())
	})
}

// save marshals the latest in-memory state and writes it. Storage failures
// leave dirty set so the next mutation retries.
func (l *Ledger) save(ctx context.Context) {
	l.mu.Lock()
	raw, err := json.Marshal(l.progress)
	if err != nil {
		l.mu.Unlock()
		l.log.Error().Err(err).Msg("progress marshal failed")
		return
	}
	l.dirty = false
	l.mu.Unlock()

	if err := l.store.Set(ctx, l.key, raw); err != nil {
		l.log.Warn().Err(err).Msg("progress save failed, keeping in-memory state")
		l.mu.Lock()
		l.dirty = true
		l.mu.Unlock()
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
