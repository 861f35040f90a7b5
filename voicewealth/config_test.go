package voicewealth

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/playback"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

func TestLoadConfig(t *testing.T) {
	configPath := filepath.Join("testdata", "config.toml")

	t.Setenv("VOICEWEALTH_LOG_LEVEL", "warn")
	t.Setenv("VOICEWEALTH_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("VOICEWEALTH_PLAYBACK_VOLUME", "0.3")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := Config{
		Log: LogConfig{
			Level:     slog.LevelWarn,
			Format:    "json",
			AddSource: true,
		},
		Playback: PlaybackConfig{
			Language:    catalog.LanguageFrench,
			Gender:      speech.GenderMale,
			Volume:      0.3,
			Rate:        1.25,
			AutoRepeat:  true,
			RepeatDelay: 2 * time.Second,
		},
		Catalog: CatalogConfig{Path: "messages.toml"},
		Engine: EngineConfig{
			Name:             EngineGoogle,
			SampleRate:       22050,
			VoiceRetries:     3,
			SynthesisTimeout: 5 * time.Second,
			Google:           GoogleConfig{CredentialsFile: "credentials.json"},
		},
		Redis: RedisConfig{
			Enabled: true,
			Url:     "redis://localhost:6379/2",
			TTL:     2 * time.Hour,
		},
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, playback.DefaultSettings(), cfg.Playback.Settings())
	assert.Equal(t, playback.DefaultRepeatDelay, cfg.Playback.RepeatDelay)
	assert.Equal(t, EngineTranslate, cfg.Engine.Name)
	assert.Equal(t, 24000, cfg.Engine.SampleRate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestLoadConfigEnvOnly(t *testing.T) {
	t.Setenv("VOICEWEALTH_ENGINE_NAME", "espeak")
	t.Setenv("VOICEWEALTH_ENGINE_ESPEAK_BINARY", "/usr/bin/espeak-ng")
	t.Setenv("VOICEWEALTH_PLAYBACK_AUTO_REPEAT", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, EngineEspeak, cfg.Engine.Name)
	assert.Equal(t, "/usr/bin/espeak-ng", cfg.Engine.Espeak.Binary)
	assert.True(t, cfg.Playback.AutoRepeat)
}

func TestLoadConfigBroken(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "broken.toml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := LoadConfig(filepath.Join("testdata", "config.toml"))
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"volume", func(c *Config) { c.Playback.Volume = 2 }},
		{"rate", func(c *Config) { c.Playback.Rate = 0.1 }},
		{"language", func(c *Config) { c.Playback.Language = "de-DE" }},
		{"gender", func(c *Config) { c.Playback.Gender = "other" }},
		{"repeat delay", func(c *Config) { c.Playback.RepeatDelay = 0 }},
		{"engine", func(c *Config) { c.Engine.Name = "festival" }},
		{"sample rate", func(c *Config) { c.Engine.SampleRate = 0 }},
		{"redis url", func(c *Config) { c.Redis.Url = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
