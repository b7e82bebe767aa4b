package model

// PracticeMode tags the answering mode a component runs in. Auto-advance
// can be toggled per mode independently of the global switch.
type PracticeMode string

const (
	ModeSequence PracticeMode = "sequence"
	ModeRandom   PracticeMode = "random"
	ModeExam     PracticeMode = "exam"
	ModeMistake  PracticeMode = "mistake"
)

// AutoAdvance configures the delayed jump to the next question after a
// correct answer. A mode absent from ModeOverrides inherits Enabled; an
// explicit false disables the mode regardless of the global switch.
type AutoAdvance struct {
	Enabled       bool                  `json:"enabled"`
	Delay         int                   `json:"delay"` // milliseconds
	ModeOverrides map[PracticeMode]bool `json:"modeOverrides"`
}

// AppSettings is the small per-user settings record. It is saved in full on
// every change, no debounce.
type AppSettings struct {
	AutoAdvance  AutoAdvance `json:"autoAdvance"`
	SoundEnabled bool        `json:"soundEnabled"`
	DarkMode     bool        `json:"darkMode"`
}

// DefaultSettings returns the defaults for a fresh user. Exam mode starts
// with auto-advance off so a timed test never skips on its own.
func DefaultSettings() AppSettings {
	return AppSettings{
		AutoAdvance: AutoAdvance{
			Enabled: true,
			Delay:   500,
			ModeOverrides: map[PracticeMode]bool{
				ModeExam: false,
			},
		},
		SoundEnabled: true,
		DarkMode:     false,
	}
}

// Clone returns a deep copy of the settings record.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.AutoAdvance.ModeOverrides = make(map[PracticeMode]bool, len(s.AutoAdvance.ModeOverrides))
	for k, v := range s.AutoAdvance.ModeOverrides {
		out.AutoAdvance.ModeOverrides[k] = v
	}
	return out
}

// UpdateSettingsRequest is a partial settings update; nil fields are left
// unchanged.
type UpdateSettingsRequest struct {
	SoundEnabled *bool `json:"sound_enabled"`
	DarkMode     *bool `json:"dark_mode"`
}

// UpdateAutoAdvanceRequest is a partial auto-advance update.
type UpdateAutoAdvanceRequest struct {
	Enabled       *bool                 `json:"enabled"`
	Delay         *int                  `json:"delay" binding:"omitempty,min=0,max=10000"`
	ModeOverrides map[PracticeMode]bool `json:"mode_overrides"`
}
