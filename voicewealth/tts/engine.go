package tts

import (
	"context"
	"errors"
)

var ErrUnsupportedLanguage = errors.New("language not supported by synthesizer")

// Synthesizer is a generic interface for text-to-speech backends.
// It turns text into encoded audio; playback is somebody else's job.
type Synthesizer interface {
	// Name returns the name of the backend, e.g. "google-cloud-text-to-speech".
	Name() string

	// GenerateSpeech synthesizes request.Text and returns the encoded audio.
	GenerateSpeech(ctx context.Context, request SpeechRequest) (*SpeechResponse, error)

	// ListVoices returns the voices the backend offers. An empty languageCode lists all of them.
	ListVoices(ctx context.Context, languageCode string) ([]Voice, error)
}

type SpeechRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
}

type AudioFormat int

const (
	AudioFormatMp3 AudioFormat = iota
)

func (f AudioFormat) String() string {
	switch f {
	case AudioFormatMp3:
		return "mp3"
	default:
		return "unknown"
	}
}

type SpeechResponse struct {
	Format       AudioFormat
	AudioContent []byte
}

type Voice struct {
	Name          string
	LanguageCodes []string
	// Gender is "male", "female" or empty when the backend does not say.
	Gender string
}
