// Package engines implements speech.Engine on top of tts synthesizers and a local espeak binary.
package engines

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/makeitchaccha/voicewealth/voicewealth/audio"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
	"github.com/makeitchaccha/voicewealth/voicewealth/tts"
)

type options struct {
	voiceRetries   uint64
	voiceRetryBase time.Duration
	synthTimeout   time.Duration
}

func defaultOptions() options {
	return options{
		voiceRetries:   5,
		voiceRetryBase: 500 * time.Millisecond,
		synthTimeout:   10 * time.Second,
	}
}

type Option func(o *options)

// WithVoiceRetries bounds how many times the voice list is fetched again after a failure or an empty answer.
func WithVoiceRetries(retries uint64, base time.Duration) Option {
	return func(o *options) {
		o.voiceRetries = retries
		o.voiceRetryBase = base
	}
}

func WithSynthesisTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.synthTimeout = timeout
	}
}

var _ speech.Engine = (*PipelineEngine)(nil)

// PipelineEngine synthesizes a request with a tts.Synthesizer and plays the result with an audio.Player.
type PipelineEngine struct {
	synth  tts.Synthesizer
	player audio.Player
	opts   options

	runner *requestRunner
	voices *voiceList
}

// NewPipelineEngine starts loading the synthesizer's voices in the background.
func NewPipelineEngine(synth tts.Synthesizer, player audio.Player, opts ...Option) *PipelineEngine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &PipelineEngine{
		synth:  synth,
		player: player,
		opts:   o,
		runner: newRequestRunner(),
		voices: &voiceList{},
	}

	go e.voices.load(e.runner.base, e.Name(), o.voiceRetryBase, o.voiceRetries, e.fetchVoices)

	return e
}

func (e *PipelineEngine) Name() string {
	return e.synth.Name()
}

func (e *PipelineEngine) Speak(request speech.Request, callbacks speech.Callbacks) {
	var voiceName string
	if voice, ok := speech.SelectVoice(e.voices.get(), request.Language, request.Gender); ok {
		voiceName = voice.Name
	}
	slog.Info("Speaking", "request", request.ID, "engine", e.Name(), "language", request.Language, "voice", voiceName)

	e.runner.run(request, callbacks, func(ctx context.Context, started func()) error {
		synthCtx, cancel := context.WithTimeout(ctx, e.opts.synthTimeout)
		defer cancel()

		resp, err := e.synth.GenerateSpeech(synthCtx, tts.SpeechRequest{
			Text:         request.Text,
			LanguageCode: request.Language,
			VoiceName:    voiceName,
			SpeakingRate: request.Rate,
		})
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		started()
		return e.player.Play(ctx, resp, request.Volume)
	})
}

func (e *PipelineEngine) CancelActive() {
	e.runner.cancel()
}

func (e *PipelineEngine) Voices() []speech.Voice {
	return e.voices.get()
}

func (e *PipelineEngine) OnVoicesChanged(fn func()) {
	e.voices.subscribe(fn)
}

func (e *PipelineEngine) Close() error {
	e.runner.close()
	return nil
}

func (e *PipelineEngine) fetchVoices(ctx context.Context) ([]speech.Voice, error) {
	ttsVoices, err := e.synth.ListVoices(ctx, "")
	if err != nil {
		return nil, err
	}
	return fromTTSVoices(ttsVoices), nil
}

// fromTTSVoices flattens multi-language voices into one entry per language tag.
func fromTTSVoices(ttsVoices []tts.Voice) []speech.Voice {
	voices := make([]speech.Voice, 0, len(ttsVoices))
	for _, v := range ttsVoices {
		for _, tag := range v.LanguageCodes {
			voices = append(voices, speech.Voice{
				Name:        v.Name,
				LanguageTag: tag,
				Gender:      speech.Gender(v.Gender),
			})
		}
	}
	return voices
}
