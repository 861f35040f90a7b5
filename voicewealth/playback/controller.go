// Package playback owns the session state of the affirmation player and drives a speech.Engine.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const DefaultRepeatDelay = time.Second

var (
	ErrPlayback      = errors.New("playback failed")
	ErrInvalidGender = errors.New("invalid gender")
	ErrClosed        = errors.New("controller closed")
	ErrNotInHistory  = errors.New("message not in history")
)

// SessionState is a snapshot of the controller. It is safe to keep and modify.
type SessionState struct {
	Current  *catalog.Message
	Playing  bool
	History  []catalog.Message
	Settings Settings
	// Voice is the voice the engine would pick for the current settings, nil for the engine default.
	Voice *speech.Voice
}

type Observer interface {
	OnStateChanged(state SessionState)
	OnPlaybackError(err error)
}

type NoOpObserver struct{}

func (NoOpObserver) OnStateChanged(state SessionState) {}
func (NoOpObserver) OnPlaybackError(err error)         {}

// Timer is a pending auto-repeat.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(c *Controller)

func WithSettings(settings Settings) Option {
	return func(c *Controller) {
		c.settings = settings
	}
}

func WithRepeatDelay(delay time.Duration) Option {
	return func(c *Controller) {
		c.repeatDelay = delay
	}
}

func WithAfterFunc(afterFunc AfterFunc) Option {
	return func(c *Controller) {
		c.afterFunc = afterFunc
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, observer)
	}
}

// Controller serializes user operations and applies engine callbacks.
// Every speech request is tagged with a sequence number and callbacks for
// anything but the latest request are dropped.
type Controller struct {
	catalog     *catalog.Catalog
	engine      speech.Engine
	repeatDelay time.Duration
	afterFunc   AfterFunc

	// opMu serializes operations and auto-repeat firings. It is taken before mu.
	opMu sync.Mutex

	mu        sync.Mutex
	settings  Settings
	current   *catalog.Message
	history   []catalog.Message
	playing   bool
	voice     *speech.Voice
	seq       uint64
	repeat    Timer
	closed    bool
	observers []Observer

	// voiceRefreshed is set once the engine has reported a voice list change.
	voiceRefreshed bool
}

// New builds a controller and picks the first message for the configured language.
func New(cat *catalog.Catalog, engine speech.Engine, opts ...Option) (*Controller, error) {
	c := &Controller{
		catalog:     cat,
		engine:      engine,
		repeatDelay: DefaultRepeatDelay,
		afterFunc:   StdAfterFunc,
		settings:    DefaultSettings(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid playback settings: %w", err)
	}

	m, err := cat.SelectRandom(c.settings.Language)
	if err != nil {
		return nil, err
	}
	c.setCurrent(m)

	// Subscribe before the first lookup so a warm-up finishing in between is not lost.
	engine.OnVoicesChanged(c.refreshVoice)
	voice := c.lookupVoice(c.settings.Language, c.settings.Gender)
	c.mu.Lock()
	if !c.voiceRefreshed {
		c.voice = voice
	}
	c.mu.Unlock()

	slog.Info("Playback controller ready", "engine", engine.Name(), "language", c.settings.Language, "message", m.ID)
	return c, nil
}

func (c *Controller) AddObserver(observer Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

func (c *Controller) RemoveObserver(observer Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = lo.Reject(c.observers, func(o Observer, _ int) bool {
		return o == observer
	})
}

func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// GenerateNewMessage replaces the current message with a random one in the current language.
// It does not start playback.
func (c *Controller) GenerateNewMessage() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	language := c.settings.Language
	c.mu.Unlock()

	m, err := c.catalog.SelectRandom(language)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.setCurrent(m)
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	slog.Debug("Generated message", "id", m.ID, "language", language)
	notifyState(observers, state)
	return nil
}

// Play speaks the current message, superseding any active request or pending repeat.
// Without a current message it does nothing.
func (c *Controller) Play() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.play()
}

// Pause stops the active speech. There is no resume; Play starts over.
func (c *Controller) Pause() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.interrupt()
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	c.engine.CancelActive()
	notifyState(observers, state)
	return nil
}

// SetLanguage stops active speech, switches language and generates a message in it.
func (c *Controller) SetLanguage(language catalog.LanguageCode) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gender := c.settings.Gender
	c.mu.Unlock()

	if !language.Supported() {
		return fmt.Errorf("%w: %s", catalog.ErrUnsupportedLanguage, language)
	}
	m, err := c.catalog.SelectRandom(language)
	if err != nil {
		return err
	}
	voice := c.lookupVoice(language, gender)

	c.mu.Lock()
	c.interrupt()
	c.settings.Language = language
	c.voice = voice
	c.setCurrent(m)
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	c.engine.CancelActive()
	slog.Info("Language changed", "language", language, "message", m.ID)
	notifyState(observers, state)
	return nil
}

// Replay makes a history entry current again and plays it.
func (c *Controller) Replay(id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	m, ok := findInHistory(c.history, id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotInHistory, id)
	}
	c.setCurrent(m)
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	notifyState(observers, state)
	return c.play()
}

// SetVolume clamps volume to [MinVolume, MaxVolume]. It applies from the next Play.
func (c *Controller) SetVolume(volume float64) error {
	if math.IsNaN(volume) {
		return fmt.Errorf("volume must be a number")
	}
	clamped, changed := clampVolume(volume)
	if changed {
		slog.Info("Volume clamped", "requested", volume, "volume", clamped)
	}
	return c.update(func(s *Settings) {
		s.Volume = clamped
	})
}

// SetRate clamps rate to [MinRate, MaxRate]. It applies from the next Play.
func (c *Controller) SetRate(rate float64) error {
	if math.IsNaN(rate) {
		return fmt.Errorf("rate must be a number")
	}
	clamped, changed := clampRate(rate)
	if changed {
		slog.Info("Rate clamped", "requested", rate, "rate", clamped)
	}
	return c.update(func(s *Settings) {
		s.Rate = clamped
	})
}

func (c *Controller) SetGender(gender speech.Gender) error {
	if !gender.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGender, gender)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	language := c.settings.Language
	c.mu.Unlock()

	voice := c.lookupVoice(language, gender)

	c.mu.Lock()
	c.settings.Gender = gender
	c.voice = voice
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	notifyState(observers, state)
	return nil
}

// SetAutoRepeat toggles auto-repeat. Turning it off cancels a pending repeat.
func (c *Controller) SetAutoRepeat(enabled bool) error {
	return c.update(func(s *Settings) {
		s.AutoRepeat = enabled
		if !enabled {
			c.stopRepeat()
		}
	})
}

// Close cancels active speech and any pending repeat. Later operations return ErrClosed.
// The engine is owned by the caller and stays open.
func (c *Controller) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.interrupt()
	c.mu.Unlock()

	c.engine.CancelActive()
	slog.Info("Playback controller closed")
	return nil
}

// update applies fn to the settings under the state lock. fn must not block.
func (c *Controller) update(fn func(s *Settings)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	fn(&c.settings)
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	notifyState(observers, state)
	return nil
}

// play must be called with opMu held.
func (c *Controller) play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.current == nil {
		c.mu.Unlock()
		slog.Debug("Nothing to play")
		return nil
	}
	c.stopRepeat()
	c.seq++
	request := speech.Request{
		ID:       c.seq,
		Text:     c.current.Text,
		Language: c.current.Language.String(),
		Volume:   c.settings.Volume,
		Rate:     c.settings.Rate,
		Gender:   c.settings.Gender,
	}
	messageID := c.current.ID
	c.mu.Unlock()

	c.engine.CancelActive()
	slog.Info("Playing message", "request", request.ID, "message", messageID, "language", request.Language)
	c.engine.Speak(request, c.callbacks(request.ID))
	return nil
}

func (c *Controller) callbacks(id uint64) speech.Callbacks {
	return speech.Callbacks{
		OnStart: func() {
			c.applyCallback(id, "start", func() {
				c.playing = true
			})
		},
		OnEnd: func() {
			c.applyCallback(id, "end", func() {
				c.playing = false
				if c.settings.AutoRepeat {
					c.scheduleRepeat(id)
				}
			})
		},
		OnError: func(err error) {
			applied := c.applyCallback(id, "error", func() {
				c.playing = false
			})
			if !applied {
				return
			}
			slog.Warn("Playback error", "request", id, "error", err)
			c.mu.Lock()
			observers := c.observerList()
			c.mu.Unlock()
			notifyError(observers, fmt.Errorf("%w: %w", ErrPlayback, err))
		},
	}
}

// applyCallback runs fn under the state lock if id is still the latest request.
func (c *Controller) applyCallback(id uint64, event string, fn func()) bool {
	c.mu.Lock()
	if c.closed || id != c.seq {
		latest := c.seq
		c.mu.Unlock()
		slog.Debug("Ignoring stale speech callback", "event", event, "request", id, "latest", latest)
		return false
	}
	fn()
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	notifyState(observers, state)
	return true
}

// scheduleRepeat must be called with mu held.
func (c *Controller) scheduleRepeat(id uint64) {
	c.stopRepeat()
	c.repeat = c.afterFunc(c.repeatDelay, func() {
		c.fireRepeat(id)
	})
	slog.Debug("Auto-repeat scheduled", "after", id, "delay", c.repeatDelay)
}

func (c *Controller) fireRepeat(id uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed || id != c.seq || !c.settings.AutoRepeat {
		c.mu.Unlock()
		slog.Debug("Dropping stale auto-repeat", "after", id)
		return
	}
	c.repeat = nil
	c.mu.Unlock()

	if err := c.play(); err != nil {
		slog.Warn("Auto-repeat failed", "error", err)
	}
}

// interrupt invalidates the active request and pending repeat. It must be called with mu held.
func (c *Controller) interrupt() {
	c.seq++
	c.stopRepeat()
	c.playing = false
}

// stopRepeat must be called with mu held.
func (c *Controller) stopRepeat() {
	if c.repeat != nil {
		c.repeat.Stop()
		c.repeat = nil
	}
}

// setCurrent must be called with mu held.
func (c *Controller) setCurrent(m catalog.Message) {
	c.current = &m
	c.history = pushHistory(c.history, m)
}

func (c *Controller) refreshVoice() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	language, gender := c.settings.Language, c.settings.Gender
	c.mu.Unlock()

	voice := c.lookupVoice(language, gender)

	c.mu.Lock()
	c.voice = voice
	c.voiceRefreshed = true
	state, observers := c.snapshot(), c.observerList()
	c.mu.Unlock()

	slog.Debug("Voice list changed", "language", language, "voice", voice)
	notifyState(observers, state)
}

// lookupVoice calls into the engine and must not be called with mu held.
func (c *Controller) lookupVoice(language catalog.LanguageCode, gender speech.Gender) *speech.Voice {
	voice, ok := speech.SelectVoice(c.engine.Voices(), language.String(), gender)
	if !ok {
		return nil
	}
	return &voice
}

// snapshot must be called with mu held.
func (c *Controller) snapshot() SessionState {
	state := SessionState{
		Playing:  c.playing,
		History:  slices.Clone(c.history),
		Settings: c.settings,
	}
	if c.current != nil {
		current := *c.current
		state.Current = &current
	}
	if c.voice != nil {
		voice := *c.voice
		state.Voice = &voice
	}
	return state
}

// observerList must be called with mu held.
func (c *Controller) observerList() []Observer {
	return slices.Clone(c.observers)
}

func notifyState(observers []Observer, state SessionState) {
	for _, o := range observers {
		o.OnStateChanged(state)
	}
}

func notifyError(observers []Observer, err error) {
	for _, o := range observers {
		o.OnPlaybackError(err)
	}
}
