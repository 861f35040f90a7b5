package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hegedustibor/htgo-tts/voices"
)

const (
	defaultTranslateBaseURL = "https://translate.google.com/translate_tts"
	translateChunkSize      = 200
)

var _ Synthesizer = (*TranslateSynthesizer)(nil)

// translateVoices maps a primary language subtag to the translate voice code.
var translateVoices = map[string]string{
	"en": voices.English,
	"ar": voices.Arabic,
	"fr": voices.French,
	"es": voices.Spanish,
	"de": voices.German,
	"pt": voices.Portuguese,
}

// TranslateSynthesizer speaks through the Google Translate TTS endpoint. It needs no
// credentials but offers a single voice per language and no rate control.
type TranslateSynthesizer struct {
	baseURL string
	httpCli *http.Client
}

func NewTranslateSynthesizer(baseURL string) *TranslateSynthesizer {
	if baseURL == "" {
		baseURL = defaultTranslateBaseURL
	}
	return &TranslateSynthesizer{
		baseURL: baseURL,
		httpCli: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *TranslateSynthesizer) Name() string {
	return "google-translate-tts"
}

func (s *TranslateSynthesizer) GenerateSpeech(ctx context.Context, request SpeechRequest) (*SpeechResponse, error) {
	voice, ok := translateVoice(request.LanguageCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, request.LanguageCode)
	}

	runes := []rune(request.Text)
	buf := bytes.NewBuffer(nil)

	for start := 0; start < len(runes); start += translateChunkSize {
		end := min(start+translateChunkSize, len(runes))
		audio, err := s.fetchChunk(ctx, string(runes[start:end]), voice)
		if err != nil {
			return nil, err
		}
		buf.Write(audio)
	}

	slog.Debug("Synthesized speech", "engine", s.Name(), "voice", voice, "bytes", buf.Len())
	return &SpeechResponse{
		Format:       AudioFormatMp3,
		AudioContent: buf.Bytes(),
	}, nil
}

func (s *TranslateSynthesizer) fetchChunk(ctx context.Context, text, voice string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", voice)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", strconv.Itoa(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("translate tts status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func (s *TranslateSynthesizer) ListVoices(_ context.Context, languageCode string) ([]Voice, error) {
	result := make([]Voice, 0, len(translateVoices))
	for _, primary := range []string{"en", "ar", "fr", "es", "de", "pt"} {
		if languageCode != "" && primarySubtag(languageCode) != primary {
			continue
		}
		result = append(result, Voice{
			Name:          "Google Translate " + translateVoices[primary],
			LanguageCodes: []string{primary},
		})
	}
	return result, nil
}

func translateVoice(languageCode string) (string, bool) {
	voice, ok := translateVoices[primarySubtag(languageCode)]
	return voice, ok
}

func primarySubtag(languageCode string) string {
	code := strings.ToLower(strings.TrimSpace(languageCode))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}
