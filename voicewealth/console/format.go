package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/playback"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

var _ error = (*FriendlyError)(nil)

// FriendlyError carries a message meant for the person at the console next to the underlying error.
type FriendlyError struct {
	err     error
	message string
}

func newFriendlyError(err error, message string) *FriendlyError {
	return &FriendlyError{
		err:     err,
		message: message,
	}
}

func (e FriendlyError) Error() string {
	return e.err.Error()
}

// Unwrap lets errors.Is see the playback and catalog errors behind the message.
func (e FriendlyError) Unwrap() error {
	return e.err
}

func (e FriendlyError) Message() string {
	return e.message
}

func friendlyMessage(err error) string {
	var friendly *FriendlyError
	switch {
	case errors.As(err, &friendly):
		return friendly.Message()
	case errors.Is(err, catalog.ErrUnsupportedLanguage):
		return "unsupported language, choose one of " + languageList()
	case errors.Is(err, playback.ErrNotInHistory):
		return "no message with that id in history, see \"history\""
	case errors.Is(err, playback.ErrInvalidGender):
		return "gender must be male or female"
	case errors.Is(err, playback.ErrClosed):
		return "player is shutting down"
	default:
		return err.Error()
	}
}

func languageStrings() []string {
	return lo.Map(catalog.SupportedLanguages, func(l catalog.LanguageCode, _ int) string {
		return l.String()
	})
}

func languageList() string {
	return strings.Join(languageStrings(), ", ")
}

func formatMessage(m catalog.Message) string {
	return fmt.Sprintf("[%s] %s", m.ID, m.Text)
}

func formatVoice(v *speech.Voice) string {
	if v == nil {
		return "engine default"
	}
	return v.String()
}

func formatState(s playback.SessionState) string {
	var b strings.Builder
	if s.Current != nil {
		fmt.Fprintf(&b, "message:  %s\n", formatMessage(*s.Current))
	} else {
		b.WriteString("message:  none\n")
	}
	fmt.Fprintf(&b, "language: %s  gender: %s  voice: %s\n", s.Settings.Language, s.Settings.Gender, formatVoice(s.Voice))
	fmt.Fprintf(&b, "volume:   %.2f  rate: %.2f  auto-repeat: %s  playing: %s",
		s.Settings.Volume, s.Settings.Rate, onOff(s.Settings.AutoRepeat), yesNo(s.Playing))
	return b.String()
}

func formatHistory(history []catalog.Message) string {
	if len(history) == 0 {
		return "history is empty\n"
	}
	var b strings.Builder
	for i, m := range history {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatMessage(m))
	}
	return b.String()
}

func formatVoices(voices []speech.Voice) string {
	if len(voices) == 0 {
		return "no voices yet, the engine default will be used\n"
	}
	var b strings.Builder
	for _, v := range voices {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	return b.String()
}

func sameMessage(a, b *catalog.Message) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func sameVoice(a, b *speech.Voice) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
