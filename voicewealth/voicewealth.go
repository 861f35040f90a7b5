// Package voicewealth wires configuration, catalog, speech engine and playback controller together.
package voicewealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/makeitchaccha/voicewealth/voicewealth/audio"
	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/playback"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech/engines"
	"github.com/makeitchaccha/voicewealth/voicewealth/tts"
)

type App struct {
	Config  Config
	Version string
	Commit  string

	Catalog *catalog.Catalog
	Engine  speech.Engine

	closers []func() error
}

// New loads the catalog and starts the configured speech engine.
// The playback controller is created separately with NewController so
// one-shot commands can use the engine alone.
func New(ctx context.Context, cfg Config, version, commit string) (*App, error) {
	a := &App{
		Config:  cfg,
		Version: version,
		Commit:  commit,
	}

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	engine, err := a.newEngine(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Engine = engine
	a.closers = append(a.closers, engine.Close)

	slog.Info("Speech engine ready", slog.String("engine", engine.Name()))
	return a, nil
}

func (a *App) NewController(opts ...playback.Option) (*playback.Controller, error) {
	opts = append([]playback.Option{
		playback.WithSettings(a.Config.Playback.Settings()),
		playback.WithRepeatDelay(a.Config.Playback.RepeatDelay),
	}, opts...)
	return playback.New(a.Catalog, a.Engine, opts...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func LoadCatalog(cfg CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(cfg.Path)
}

// NewRegistry registers every synthesizer backend. Factories append their cleanup to closers.
func NewRegistry(cfg EngineConfig, closers *[]func() error) *tts.Registry {
	registry := tts.NewRegistry()

	_ = registry.Register(EngineGoogle, func(ctx context.Context) (tts.Synthesizer, error) {
		slog.Info("Connecting to Google Cloud TTS")
		client, err := tts.NewGoogleClient(ctx, cfg.Google.CredentialsFile)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client.Close)
		return tts.NewGoogleSynthesizer(client, cfg.SampleRate), nil
	})
	_ = registry.Register(EngineTranslate, func(context.Context) (tts.Synthesizer, error) {
		return tts.NewTranslateSynthesizer(cfg.Translate.BaseURL), nil
	})

	return registry
}

func (a *App) newEngine(ctx context.Context) (speech.Engine, error) {
	cfg := a.Config.Engine
	opts := []engines.Option{
		engines.WithVoiceRetries(cfg.VoiceRetries, 500*time.Millisecond),
	}
	if cfg.SynthesisTimeout > 0 {
		opts = append(opts, engines.WithSynthesisTimeout(cfg.SynthesisTimeout))
	}

	if cfg.Name == EngineEspeak {
		binary := cfg.Espeak.Binary
		if binary == "" {
			var err error
			if binary, err = engines.FindEspeak(); err != nil {
				return nil, err
			}
		}
		slog.Info("Using espeak", slog.String("binary", binary))
		return engines.NewEspeakEngine(binary, opts...), nil
	}

	synth, err := NewRegistry(cfg, &a.closers).Build(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if a.Config.Redis.Enabled {
		slog.Info("Redis is enabled, setting up cache")
		c, err := a.newCache(ctx)
		if err != nil {
			return nil, err
		}
		synth = tts.NewCachedSynthesizer(synth, c, a.Config.Redis.TTL)
	} else {
		slog.Info("Redis is disabled, no cache will be used")
	}

	return engines.NewPipelineEngine(synth, audio.NewOtoPlayer(cfg.SampleRate), opts...), nil
}

func (a *App) newCache(ctx context.Context) (*cache.Cache, error) {
	slog.Info("Connecting to Redis")
	options, err := redis.ParseURL(a.Config.Redis.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(options)
	a.closers = append(a.closers, redisClient.Close)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("Connected to Redis")

	return cache.New(&cache.Options{
		Redis:      redisClient,
		LocalCache: cache.NewTinyLFU(100, time.Minute),
	}), nil
}
