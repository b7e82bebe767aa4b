package autoadvance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/settings"
	"github.com/deepv/driving-backend/internal/storage"
)

func testSettings(t *testing.T, mutate func(*settings.Store)) *settings.Store {
	t.Helper()
	st := settings.NewStore(context.Background(), storage.NewMemoryStore(), "user:1:settings", zerolog.Nop())
	// Short delay so tests finish fast.
	st.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{Delay: intPtr(10)})
	if mutate != nil {
		mutate(st)
	}
	return st
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestTriggerFiresAfterDelay(t *testing.T) {
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeRandom, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(true)

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestIncorrectAnswerNeverTriggers(t *testing.T) {
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeRandom, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(false)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestGlobalSwitchGatesTrigger(t *testing.T) {
	st := testSettings(t, func(st *settings.Store) {
		st.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{Enabled: boolPtr(false)})
	})

	var fired atomic.Int32
	s := New(st, model.ModeRandom, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(true)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestModeOverrideGatesTrigger(t *testing.T) {
	// Exam mode ships overridden to false by default.
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeExam, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(true)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestRapidTriggersSupersedeNotQueue(t *testing.T) {
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeRandom, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(true)
	s.Trigger(true)
	s.Trigger(true)

	require.Eventually(t, func() bool {
		return fired.Load() > 0
	}, time.Second, 5*time.Millisecond)

	// Give a queued-up duplicate time to betray itself.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCancelDropsPendingAdvance(t *testing.T) {
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeRandom, func() { fired.Add(1) })
	defer s.Stop()

	s.Trigger(true)
	s.Cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// Cancel does not stop the scheduler; a new trigger still works.
	s.Trigger(true)
	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStopRefusesFurtherTriggers(t *testing.T) {
	var fired atomic.Int32
	s := New(testSettings(t, nil), model.ModeRandom, func() { fired.Add(1) })

	s.Trigger(true)
	s.Stop()
	s.Trigger(true)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
