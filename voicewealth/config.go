package voicewealth

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/playback"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const EnvPrefix = "VOICEWEALTH"

const (
	EngineGoogle    = "google"
	EngineTranslate = "translate"
	EngineEspeak    = "espeak"
)

var Engines = []string{EngineGoogle, EngineTranslate, EngineEspeak}

// LoadConfig reads path, falling back to defaults when the file does not exist.
// Every key can be overridden by VOICEWEALTH_<SECTION>_<KEY>.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("Config file not found, using defaults", slog.String("path", path))
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := playback.DefaultSettings()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)

	v.SetDefault("playback.language", defaults.Language.String())
	v.SetDefault("playback.gender", string(defaults.Gender))
	v.SetDefault("playback.volume", defaults.Volume)
	v.SetDefault("playback.rate", defaults.Rate)
	v.SetDefault("playback.auto_repeat", defaults.AutoRepeat)
	v.SetDefault("playback.repeat_delay", playback.DefaultRepeatDelay.String())

	v.SetDefault("catalog.path", "")

	v.SetDefault("engine.name", EngineTranslate)
	v.SetDefault("engine.sample_rate", 24000)
	v.SetDefault("engine.voice_retries", 5)
	v.SetDefault("engine.synthesis_timeout", "10s")
	v.SetDefault("engine.google.credentials_file", "")
	v.SetDefault("engine.translate.base_url", "")
	v.SetDefault("engine.espeak.binary", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.ttl", "24h")
}

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

func (c Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{"json", "text"}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if err := c.Playback.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if c.Playback.RepeatDelay <= 0 {
		errs = append(errs, fmt.Errorf("playback.repeat_delay must be positive"))
	}
	if !slices.Contains(Engines, c.Engine.Name) {
		errs = append(errs, fmt.Errorf("engine.name must be one of %v, got %q", Engines, c.Engine.Name))
	}
	if c.Engine.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.sample_rate must be positive"))
	}
	if c.Redis.Enabled && c.Redis.Url == "" {
		errs = append(errs, fmt.Errorf("redis.url is required when redis is enabled"))
	}
	return errors.Join(errs...)
}

type LogConfig struct {
	Level     slog.Level `mapstructure:"level"`
	Format    string     `mapstructure:"format"`
	AddSource bool       `mapstructure:"add_source"`
}

type PlaybackConfig struct {
	Language    catalog.LanguageCode `mapstructure:"language"`
	Gender      speech.Gender        `mapstructure:"gender"`
	Volume      float64              `mapstructure:"volume"`
	Rate        float64              `mapstructure:"rate"`
	AutoRepeat  bool                 `mapstructure:"auto_repeat"`
	RepeatDelay time.Duration        `mapstructure:"repeat_delay"`
}

func (c PlaybackConfig) Settings() playback.Settings {
	return playback.Settings{
		Volume:     c.Volume,
		Rate:       c.Rate,
		Language:   c.Language,
		Gender:     c.Gender,
		AutoRepeat: c.AutoRepeat,
	}
}

type CatalogConfig struct {
	// Path replaces the embedded catalog when set.
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	Name             string          `mapstructure:"name"`
	SampleRate       int             `mapstructure:"sample_rate"`
	VoiceRetries     uint64          `mapstructure:"voice_retries"`
	SynthesisTimeout time.Duration   `mapstructure:"synthesis_timeout"`
	Google           GoogleConfig    `mapstructure:"google"`
	Translate        TranslateConfig `mapstructure:"translate"`
	Espeak           EspeakConfig    `mapstructure:"espeak"`
}

type GoogleConfig struct {
	// CredentialsFile is optional; application default credentials are used otherwise.
	CredentialsFile string `mapstructure:"credentials_file"`
}

type TranslateConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type EspeakConfig struct {
	// Binary is looked up in PATH when empty.
	Binary string `mapstructure:"binary"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Url     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}
