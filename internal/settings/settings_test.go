package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/storage"
)

const settingsKey = "user:1:settings"

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestFreshStoreServesDefaults(t *testing.T) {
	st := storage.NewMemoryStore()
	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())

	got := s.Settings()
	assert.True(t, got.AutoAdvance.Enabled)
	assert.Equal(t, 500, got.AutoAdvance.Delay)
	assert.Equal(t, map[model.PracticeMode]bool{model.ModeExam: false}, got.AutoAdvance.ModeOverrides)
	assert.True(t, got.SoundEnabled)
	assert.False(t, got.DarkMode)
}

func TestLoadMergesSavedRecordOntoDefaults(t *testing.T) {
	st := storage.NewMemoryStore()
	// Older record: zero delay, no exam override, one custom override.
	saved := `{"autoAdvance":{"enabled":false,"delay":0,"modeOverrides":{"random":false}},"soundEnabled":false,"darkMode":true}`
	require.NoError(t, st.Set(context.Background(), settingsKey, []byte(saved)))

	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())
	got := s.Settings()

	assert.False(t, got.AutoAdvance.Enabled)
	assert.Equal(t, 500, got.AutoAdvance.Delay, "zero delay falls back to default")
	assert.Equal(t, map[model.PracticeMode]bool{
		model.ModeExam:   false,
		model.ModeRandom: false,
	}, got.AutoAdvance.ModeOverrides)
	assert.False(t, got.SoundEnabled)
	assert.True(t, got.DarkMode)
}

func TestLoadKeepsDefaultsForAbsentFields(t *testing.T) {
	st := storage.NewMemoryStore()
	// Record written before autoAdvance and soundEnabled existed.
	require.NoError(t, st.Set(context.Background(), settingsKey, []byte(`{"darkMode":true}`)))

	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())
	got := s.Settings()

	assert.True(t, got.AutoAdvance.Enabled, "absent field keeps its default")
	assert.Equal(t, 500, got.AutoAdvance.Delay)
	assert.True(t, got.SoundEnabled)
	assert.True(t, got.DarkMode)
}

func TestCorruptRecordFallsBackToDefaults(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), settingsKey, []byte("{broken")))

	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())
	assert.Equal(t, model.DefaultSettings(), s.Settings())
}

func TestUpdateSavesImmediately(t *testing.T) {
	st := storage.NewMemoryStore()
	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())

	got := s.Update(context.Background(), model.UpdateSettingsRequest{DarkMode: boolPtr(true)})
	assert.True(t, got.DarkMode)
	assert.True(t, got.SoundEnabled, "untouched field keeps its value")

	assert.Equal(t, 1, st.SetCount(settingsKey))

	raw, ok, err := st.Get(context.Background(), settingsKey)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted model.AppSettings
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.True(t, persisted.DarkMode)
}

func TestUpdateAutoAdvanceMergesOverrides(t *testing.T) {
	st := storage.NewMemoryStore()
	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())

	got := s.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{
		Delay:         intPtr(1000),
		ModeOverrides: map[model.PracticeMode]bool{model.ModeMistake: false},
	})

	assert.Equal(t, 1000, got.AutoAdvance.Delay)
	assert.Equal(t, map[model.PracticeMode]bool{
		model.ModeExam:    false,
		model.ModeMistake: false,
	}, got.AutoAdvance.ModeOverrides)
	assert.True(t, got.AutoAdvance.Enabled, "enabled untouched")
}

func TestModeEnabledSemantics(t *testing.T) {
	st := storage.NewMemoryStore()
	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())

	// Default: global on, exam overridden off, the rest inherit.
	assert.True(t, s.ModeEnabled(model.ModeSequence))
	assert.True(t, s.ModeEnabled(model.ModeRandom))
	assert.False(t, s.ModeEnabled(model.ModeExam))

	// Global off beats any override.
	s.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{Enabled: boolPtr(false)})
	assert.False(t, s.ModeEnabled(model.ModeRandom))

	// An explicit true override still needs the global switch.
	s.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{
		ModeOverrides: map[model.PracticeMode]bool{model.ModeRandom: true},
	})
	assert.False(t, s.ModeEnabled(model.ModeRandom))

	s.UpdateAutoAdvance(context.Background(), model.UpdateAutoAdvanceRequest{Enabled: boolPtr(true)})
	assert.True(t, s.ModeEnabled(model.ModeRandom))
}

func TestSettingsReturnsIsolatedCopy(t *testing.T) {
	st := storage.NewMemoryStore()
	s := NewStore(context.Background(), st, settingsKey, zerolog.Nop())

	got := s.Settings()
	got.AutoAdvance.ModeOverrides[model.ModeRandom] = false

	assert.True(t, s.ModeEnabled(model.ModeRandom))
}
