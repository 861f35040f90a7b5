// Package audio plays synthesized speech on the local audio device.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto/v2"

	"github.com/makeitchaccha/voicewealth/voicewealth/tts"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrSampleRateMismatch = errors.New("sample rate does not match audio device")
	ErrEmptyAudio         = errors.New("empty audio")
)

// Player blocks while speech is audible. Cancelling ctx stops output immediately
// and makes Play return ctx.Err().
type Player interface {
	Play(ctx context.Context, speech *tts.SpeechResponse, volume float64) error
}

var _ Player = (*OtoPlayer)(nil)

// OtoPlayer writes decoded mp3 audio to the default output device.
// oto allows a single context per process, so it is created lazily once with a fixed sample rate.
type OtoPlayer struct {
	sampleRate   int
	pollInterval time.Duration

	once    sync.Once
	otoCtx  *oto.Context
	initErr error

	// one sound at a time
	mu sync.Mutex
}

func NewOtoPlayer(sampleRate int) *OtoPlayer {
	return &OtoPlayer{
		sampleRate:   sampleRate,
		pollInterval: 15 * time.Millisecond,
	}
}

func (p *OtoPlayer) Play(ctx context.Context, speech *tts.SpeechResponse, volume float64) error {
	decoder, err := decode(speech)
	if err != nil {
		return err
	}
	if decoder.SampleRate() != p.sampleRate {
		return fmt.Errorf("%w: got %d Hz, device runs at %d Hz", ErrSampleRateMismatch, decoder.SampleRate(), p.sampleRate)
	}

	otoCtx, err := p.context()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	player := otoCtx.NewPlayer(decoder)
	defer player.Close()
	player.SetVolume(volume)
	player.Play()
	slog.Debug("Started audio playback", "bytes", len(speech.AudioContent), "volume", volume)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("audio playback: %w", err)
	}
	return nil
}

func (p *OtoPlayer) context() (*oto.Context, error) {
	p.once.Do(func() {
		otoCtx, ready, err := oto.NewContext(p.sampleRate, 2, 2)
		if err != nil {
			p.initErr = fmt.Errorf("oto context: %w", err)
			return
		}
		<-ready
		p.otoCtx = otoCtx
		slog.Info("Audio device ready", "sampleRate", p.sampleRate)
	})
	return p.otoCtx, p.initErr
}

func decode(speech *tts.SpeechResponse) (*mp3.Decoder, error) {
	if speech == nil || len(speech.AudioContent) == 0 {
		return nil, ErrEmptyAudio
	}
	if speech.Format != tts.AudioFormatMp3 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, speech.Format)
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(speech.AudioContent))
	if err != nil {
		return nil, fmt.Errorf("mp3 decoder: %w", err)
	}
	return decoder, nil
}
