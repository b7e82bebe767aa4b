// Package settings owns the per-user AppSettings record. Unlike the
// progress ledger there is no debounce: the record is tiny and every change
// is re-saved in full immediately.
package settings

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/storage"
)

// Store is the single writer-owner of one user's AppSettings.
type Store struct {
	mu    sync.Mutex
	store storage.Store
	key   string
	log   zerolog.Logger

	settings model.AppSettings
}

// NewStore creates a Store and synchronously loads the persisted record,
// merging it field-wise onto the defaults so records written by older
// versions still pick up new defaults. Storage failure degrades to the
// defaults with a warning.
func NewStore(ctx context.Context, st storage.Store, key string, log zerolog.Logger) *Store {
	s := &Store{
		store:    st,
		key:      key,
		log:      log.With().Str("component", "settings_store").Logger(),
		settings: model.DefaultSettings(),
	}

	raw, ok, err := st.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings load failed, using defaults")
		return s
	}
	if !ok {
		return s
	}

	// Pointer fields so absent keys (records written before a field
	// existed) are distinguishable from explicit false and keep the default.
	var saved struct {
		AutoAdvance *struct {
			Enabled *bool                       `json:"enabled"`
			Delay   *int                        `json:"delay"`
			Modes   map[model.PracticeMode]bool `json:"modeOverrides"`
		} `json:"autoAdvance"`
		SoundEnabled *bool `json:"soundEnabled"`
		DarkMode     *bool `json:"darkMode"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		s.log.Warn().Err(err).Msg("settings record corrupt, using defaults")
		return s
	}

	merged := model.DefaultSettings()
	if saved.SoundEnabled != nil {
		merged.SoundEnabled = *saved.SoundEnabled
	}
	if saved.DarkMode != nil {
		merged.DarkMode = *saved.DarkMode
	}
	if aa := saved.AutoAdvance; aa != nil {
		if aa.Enabled != nil {
			merged.AutoAdvance.Enabled = *aa.Enabled
		}
		if aa.Delay != nil && *aa.Delay > 0 {
			merged.AutoAdvance.Delay = *aa.Delay
		}
		for mode, enabled := range aa.Modes {
			merged.AutoAdvance.ModeOverrides[mode] = enabled
		}
	}
	s.settings = merged
	return s
}

// Settings returns a copy of the current record.
func (s *Store) Settings() model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Update applies a partial top-level update.
func (s *Store) Update(ctx context.Context, req model.UpdateSettingsRequest) model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.SoundEnabled != nil {
		s.settings.SoundEnabled = *req.SoundEnabled
	}
	if req.DarkMode != nil {
		s.settings.DarkMode = *req.DarkMode
	}

	s.save(ctx)
	return s.settings.Clone()
}

// UpdateAutoAdvance applies a partial auto-advance update; mode overrides
// are merged key-by-key.
func (s *Store) UpdateAutoAdvance(ctx context.Context, req model.UpdateAutoAdvanceRequest) model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Enabled != nil {
		s.settings.AutoAdvance.Enabled = *req.Enabled
	}
	if req.Delay != nil {
		s.settings.AutoAdvance.Delay = *req.Delay
	}
	for mode, enabled := range req.ModeOverrides {
		s.settings.AutoAdvance.ModeOverrides[mode] = enabled
	}

	s.save(ctx)
	return s.settings.Clone()
}

// ModeEnabled reports whether auto-advance applies to mode: the global
// switch must be on and the mode must not be explicitly overridden to false.
func (s *Store) ModeEnabled(mode model.PracticeMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settings.AutoAdvance.Enabled {
		return false
	}
	if override, ok := s.settings.AutoAdvance.ModeOverrides[mode]; ok && !override {
		return false
	}
	return true
}

// Delay returns the configured auto-advance delay in milliseconds.
func (s *Store) Delay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.AutoAdvance.Delay
}

// save persists the full record. Failures are logged and the in-memory
// record stays authoritative; the next change retries.
func (s *Store) save(ctx context.Context) {
	raw, err := json.Marshal(s.settings)
	if err != nil {
		s.log.Error().Err(err).Msg("settings marshal failed")
		return
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		s.log.Warn().Err(err).Msg("settings save failed, keeping in-memory state")
	}
}
