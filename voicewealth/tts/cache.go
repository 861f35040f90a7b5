package tts

import (
	"context"
	"encoding/hex"
	"hash/fnv"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/cache/v9"
)

var _ Synthesizer = (*CachedSynthesizer)(nil)

// CachedSynthesizer is a wrapper around a Synthesizer that caches the generated audio data.
// Entries are keyed by a hash of the backend name, language code, voice name, speaking rate and text.
type CachedSynthesizer struct {
	next  Synthesizer
	cache *cache.Cache
	ttl   time.Duration
}

func NewCachedSynthesizer(next Synthesizer, c *cache.Cache, ttl time.Duration) *CachedSynthesizer {
	return &CachedSynthesizer{
		next:  next,
		cache: c,
		ttl:   ttl,
	}
}

func (c *CachedSynthesizer) Name() string {
	return c.next.Name() + "-cached"
}

func (c *CachedSynthesizer) GenerateSpeech(ctx context.Context, request SpeechRequest) (*SpeechResponse, error) {
	key := c.generateKey(request)

	var cached SpeechResponse
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		slog.Debug("cache hit", "key", key, "engine", c.Name())
		return &cached, nil
	}

	resp, err := c.next.GenerateSpeech(ctx, request)
	if err != nil {
		return nil, err
	}

	// caching failures must not fail the request
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.cache.Set(&cache.Item{
			Ctx:   ctx,
			Key:   key,
			Value: resp,
			TTL:   c.ttl,
		}); err != nil {
			slog.Warn("failed to cache audio data", "error", err, "key", key)
		}
	}()

	return resp, nil
}

func (c *CachedSynthesizer) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	return c.next.ListVoices(ctx, languageCode)
}

func (c *CachedSynthesizer) generateKey(request SpeechRequest) string {
	h := fnv.New64a()
	for _, part := range []string{
		c.next.Name(),
		request.LanguageCode,
		request.VoiceName,
		strconv.FormatFloat(request.SpeakingRate, 'f', 2, 64),
		request.Text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "tts:" + hex.EncodeToString(h.Sum(nil))
}
