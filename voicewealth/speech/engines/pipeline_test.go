package engines

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
	"github.com/makeitchaccha/voicewealth/voicewealth/tts"
)

type fakeSynthesizer struct {
	mu        sync.Mutex
	requests  []tts.SpeechRequest
	voices    []tts.Voice
	listErr   error
	listCalls int
	listGate  chan struct{}
	err       error
}

func (s *fakeSynthesizer) Name() string {
	return "fake-synth"
}

func (s *fakeSynthesizer) GenerateSpeech(_ context.Context, request tts.SpeechRequest) (*tts.SpeechResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, request)
	if s.err != nil {
		return nil, s.err
	}
	return &tts.SpeechResponse{Format: tts.AudioFormatMp3, AudioContent: []byte(request.Text)}, nil
}

func (s *fakeSynthesizer) ListVoices(ctx context.Context, _ string) ([]tts.Voice, error) {
	if s.listGate != nil {
		select {
		case <-s.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil && s.listCalls == 1 {
		return nil, s.listErr
	}
	return s.voices, nil
}

func (s *fakeSynthesizer) lastRequest() tts.SpeechRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// blockingPlayer plays until release is closed or ctx is cancelled.
type blockingPlayer struct {
	release chan struct{}
	volumes chan float64
	err     error
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{
		release: make(chan struct{}),
		volumes: make(chan float64, 8),
	}
}

func (p *blockingPlayer) Play(ctx context.Context, _ *tts.SpeechResponse, volume float64) error {
	p.volumes <- volume
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return p.err
	}
}

type events struct {
	started chan struct{}
	ended   chan struct{}
	failed  chan error
}

func newEvents() *events {
	return &events{
		started: make(chan struct{}, 1),
		ended:   make(chan struct{}, 1),
		failed:  make(chan error, 1),
	}
}

func (e *events) callbacks() speech.Callbacks {
	return speech.Callbacks{
		OnStart: func() { e.started <- struct{}{} },
		OnEnd:   func() { e.ended <- struct{}{} },
		OnError: func(err error) { e.failed <- err },
	}
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for callback")
		var zero T
		return zero
	}
}

func newTestPipeline(t *testing.T, synth *fakeSynthesizer, player *blockingPlayer) *PipelineEngine {
	t.Helper()
	engine := NewPipelineEngine(synth, player, WithVoiceRetries(3, time.Millisecond))
	t.Cleanup(func() {
		require.NoError(t, engine.Close())
	})
	return engine
}

var testVoices = []tts.Voice{
	{Name: "en-US-Wavenet-D", LanguageCodes: []string{"en-US"}, Gender: "male"},
	{Name: "en-US-Wavenet-F", LanguageCodes: []string{"en-US"}, Gender: "female"},
	{Name: "fr-FR-Wavenet-A", LanguageCodes: []string{"fr-FR", "fr-CA"}, Gender: "female"},
}

func TestPipelineVoicesWarmUp(t *testing.T) {
	synth := &fakeSynthesizer{voices: testVoices, listErr: errors.New("not yet"), listGate: make(chan struct{})}
	engine := NewPipelineEngine(synth, newBlockingPlayer(), WithVoiceRetries(3, time.Millisecond))
	defer engine.Close()

	changed := make(chan struct{}, 1)
	engine.OnVoicesChanged(func() { changed <- struct{}{} })
	assert.Empty(t, engine.Voices())
	close(synth.listGate)

	require.Eventually(t, func() bool {
		return len(engine.Voices()) == 4
	}, time.Second, 5*time.Millisecond)

	waitFor(t, changed)
	assert.Contains(t, engine.Voices(), speech.Voice{Name: "fr-FR-Wavenet-A", LanguageTag: "fr-CA", Gender: speech.GenderFemale})
}

func TestPipelineSpeak(t *testing.T) {
	synth := &fakeSynthesizer{voices: testVoices}
	player := newBlockingPlayer()
	engine := newTestPipeline(t, synth, player)

	require.Eventually(t, func() bool {
		return len(engine.Voices()) > 0
	}, time.Second, 5*time.Millisecond)

	ev := newEvents()
	engine.Speak(speech.Request{ID: 1, Text: "hello", Language: "en-US", Volume: 0.8, Rate: 1.2, Gender: speech.GenderFemale}, ev.callbacks())

	waitFor(t, ev.started)
	assert.Equal(t, 0.8, waitFor(t, player.volumes))
	assert.Equal(t, tts.SpeechRequest{
		Text:         "hello",
		LanguageCode: "en-US",
		VoiceName:    "en-US-Wavenet-F",
		SpeakingRate: 1.2,
	}, synth.lastRequest())

	close(player.release)
	waitFor(t, ev.ended)
	assert.Empty(t, ev.failed)
}

func TestPipelineCancelActiveEndsRequest(t *testing.T) {
	synth := &fakeSynthesizer{voices: testVoices}
	player := newBlockingPlayer()
	engine := newTestPipeline(t, synth, player)

	ev := newEvents()
	engine.Speak(speech.Request{ID: 1, Text: "hello", Language: "en-US", Volume: 1, Rate: 1, Gender: speech.GenderMale}, ev.callbacks())
	waitFor(t, ev.started)

	engine.CancelActive()

	waitFor(t, ev.ended)
	assert.Empty(t, ev.failed)
}

func TestPipelineSpeakSupersedesActive(t *testing.T) {
	synth := &fakeSynthesizer{voices: testVoices}
	player := newBlockingPlayer()
	engine := newTestPipeline(t, synth, player)

	first := newEvents()
	engine.Speak(speech.Request{ID: 1, Text: "one", Language: "en-US", Volume: 1, Rate: 1, Gender: speech.GenderMale}, first.callbacks())
	waitFor(t, first.started)

	second := newEvents()
	engine.Speak(speech.Request{ID: 2, Text: "two", Language: "en-US", Volume: 1, Rate: 1, Gender: speech.GenderMale}, second.callbacks())

	waitFor(t, first.ended)
	waitFor(t, second.started)

	close(player.release)
	waitFor(t, second.ended)
}

func TestPipelineSynthesisError(t *testing.T) {
	synthErr := errors.New("quota exceeded")
	synth := &fakeSynthesizer{voices: testVoices, err: synthErr}
	engine := newTestPipeline(t, synth, newBlockingPlayer())

	ev := newEvents()
	engine.Speak(speech.Request{ID: 1, Text: "hello", Language: "en-US", Volume: 1, Rate: 1, Gender: speech.GenderMale}, ev.callbacks())

	err := waitFor(t, ev.failed)
	assert.ErrorIs(t, err, synthErr)
	assert.Empty(t, ev.started)
	assert.Empty(t, ev.ended)
}

func TestPipelinePlayerError(t *testing.T) {
	playErr := errors.New("device unplugged")
	synth := &fakeSynthesizer{voices: testVoices}
	player := newBlockingPlayer()
	player.err = playErr
	engine := newTestPipeline(t, synth, player)

	ev := newEvents()
	engine.Speak(speech.Request{ID: 1, Text: "hello", Language: "en-US", Volume: 1, Rate: 1, Gender: speech.GenderMale}, ev.callbacks())
	waitFor(t, ev.started)

	close(player.release)
	assert.ErrorIs(t, waitFor(t, ev.failed), playErr)
	assert.Empty(t, ev.ended)
}

func TestFromTTSVoices(t *testing.T) {
	got := fromTTSVoices(testVoices)
	assert.Equal(t, []speech.Voice{
		{Name: "en-US-Wavenet-D", LanguageTag: "en-US", Gender: speech.GenderMale},
		{Name: "en-US-Wavenet-F", LanguageTag: "en-US", Gender: speech.GenderFemale},
		{Name: "fr-FR-Wavenet-A", LanguageTag: "fr-FR", Gender: speech.GenderFemale},
		{Name: "fr-FR-Wavenet-A", LanguageTag: "fr-CA", Gender: speech.GenderFemale},
	}, got)
}
