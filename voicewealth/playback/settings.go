package playback

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const (
	MinVolume = 0.0
	MaxVolume = 1.0
	MinRate   = 0.5
	MaxRate   = 2.0
)

// Settings are applied to the next speech request. Changing them never interrupts active speech.
type Settings struct {
	Volume     float64
	Rate       float64
	Language   catalog.LanguageCode
	Gender     speech.Gender
	AutoRepeat bool
}

func DefaultSettings() Settings {
	return Settings{
		Volume:     0.8,
		Rate:       1.0,
		Language:   catalog.LanguageEnglish,
		Gender:     speech.GenderFemale,
		AutoRepeat: false,
	}
}

func (s Settings) Validate() error {
	if math.IsNaN(s.Volume) || s.Volume < MinVolume || s.Volume > MaxVolume {
		return fmt.Errorf("volume %v out of range [%v, %v]", s.Volume, MinVolume, MaxVolume)
	}
	if math.IsNaN(s.Rate) || s.Rate < MinRate || s.Rate > MaxRate {
		return fmt.Errorf("rate %v out of range [%v, %v]", s.Rate, MinRate, MaxRate)
	}
	if !s.Language.Supported() {
		return fmt.Errorf("%w: %s", catalog.ErrUnsupportedLanguage, s.Language)
	}
	if !s.Gender.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGender, s.Gender)
	}
	return nil
}

// clampVolume reports whether v had to be moved into range.
func clampVolume(v float64) (float64, bool) {
	c := lo.Clamp(v, MinVolume, MaxVolume)
	return c, c != v
}

func clampRate(r float64) (float64, bool) {
	c := lo.Clamp(r, MinRate, MaxRate)
	return c, c != r
}
