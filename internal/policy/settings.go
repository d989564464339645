package policy

import "math"

// Mode selects the redaction policy used by auto redaction.
type Mode string

const (
	ModePoetry  Mode = "poetry"
	ModePrivacy Mode = "privacy"
	ModeRandom  Mode = "random"
)

// DefaultIntensity is used when no usable intensity is supplied.
const DefaultIntensity = 0.5

// Settings configure a single auto-redaction pass.
type Settings struct {
	Intensity       float64 `json:"intensity" yaml:"intensity"`
	Mode            Mode    `json:"mode" yaml:"mode"`
	KeepProperNouns bool    `json:"keepProperNouns" yaml:"keep_proper_nouns"`
	KeepLongWords   bool    `json:"keepLongWords" yaml:"keep_long_words"`
	KeepNumbers     bool    `json:"keepNumbers" yaml:"keep_numbers"`
}

// DefaultSettings returns the settings used when a command supplies none.
func DefaultSettings() Settings {
	return Settings{
		Intensity:       DefaultIntensity,
		Mode:            ModePoetry,
		KeepProperNouns: true,
		KeepLongWords:   true,
		KeepNumbers:     false,
	}
}

// Preset returns the keep-flags associated with a mode at default intensity.
// Unknown modes get the poetry preset.
func Preset(m Mode) Settings {
	s := DefaultSettings()
	switch m {
	case ModePrivacy:
		s.Mode = ModePrivacy
		s.KeepProperNouns = false
	case ModeRandom:
		s.Mode = ModeRandom
		s.KeepProperNouns = false
		s.KeepLongWords = false
	}
	return s
}

// Modes lists the supported modes.
func Modes() []Mode {
	return []Mode{ModePoetry, ModePrivacy, ModeRandom}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePoetry, ModePrivacy, ModeRandom:
		return true
	}
	return false
}

// Normalize substitutes defaults for values that are out of range. It never
// fails.
func (s Settings) Normalize() Settings {
	if math.IsNaN(s.Intensity) || s.Intensity < 0 || s.Intensity > 1 {
		s.Intensity = DefaultIntensity
	}
	if !s.Mode.Valid() {
		s.Mode = ModePoetry
	}
	return s
}

// BaseMinGap is the minimum distance between visible words in poetry mode.
func (s Settings) BaseMinGap() int {
	return int(math.Floor(s.Intensity*10)) + 1
}

// MinWordLength is the length below which poetry mode always redacts.
func (s Settings) MinWordLength() int {
	if s.KeepLongWords {
		return 4
	}
	return 2
}
