package tts

import (
	"context"
	"sync"
)

type stubSynthesizer struct {
	name string

	mu       sync.Mutex
	requests []SpeechRequest
	err      error
}

func (s *stubSynthesizer) Name() string {
	return s.name
}

func (s *stubSynthesizer) GenerateSpeech(_ context.Context, request SpeechRequest) (*SpeechResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, request)
	if s.err != nil {
		return nil, s.err
	}
	return &SpeechResponse{
		Format:       AudioFormatMp3,
		AudioContent: []byte(request.LanguageCode + ":" + request.Text),
	}, nil
}

func (s *stubSynthesizer) ListVoices(_ context.Context, languageCode string) ([]Voice, error) {
	return []Voice{{Name: s.name + "-voice", LanguageCodes: []string{languageCode}}}, nil
}

func (s *stubSynthesizer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
