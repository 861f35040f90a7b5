// Package speechtest provides a scripted speech.Engine for tests.
package speechtest

import (
	"errors"
	"slices"
	"sync"

	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

var ErrFake = errors.New("fake speech failure")

type call struct {
	request   speech.Request
	callbacks speech.Callbacks
}

// Engine records every request and lets the test decide when callbacks fire.
// Callbacks are invoked on the caller's goroutine without any lock held.
type Engine struct {
	mu        sync.Mutex
	calls     []call
	cancels   int
	voices    []speech.Voice
	listeners []func()
	closed    bool
}

var _ speech.Engine = (*Engine)(nil)

func New(voices ...speech.Voice) *Engine {
	return &Engine{voices: voices}
}

func (e *Engine) Name() string {
	return "fake"
}

func (e *Engine) Speak(request speech.Request, callbacks speech.Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call{request: request, callbacks: callbacks})
}

func (e *Engine) CancelActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
}

func (e *Engine) Voices() []speech.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.voices)
}

func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// SetVoices replaces the voice list and notifies listeners, like an engine finishing warm-up.
func (e *Engine) SetVoices(voices ...speech.Voice) {
	e.mu.Lock()
	e.voices = voices
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (e *Engine) Requests() []speech.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	requests := make([]speech.Request, len(e.calls))
	for i, c := range e.calls {
		requests[i] = c.request
	}
	return requests
}

// Last returns the most recent request.
func (e *Engine) Last() (speech.Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return speech.Request{}, false
	}
	return e.calls[len(e.calls)-1].request, true
}

func (e *Engine) Cancels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Start fires OnStart for the request with the given id.
func (e *Engine) Start(id uint64) {
	if cb := e.callbacks(id); cb.OnStart != nil {
		cb.OnStart()
	}
}

// End fires OnEnd for the request with the given id.
func (e *Engine) End(id uint64) {
	if cb := e.callbacks(id); cb.OnEnd != nil {
		cb.OnEnd()
	}
}

// Fail fires OnError for the request with the given id.
func (e *Engine) Fail(id uint64, err error) {
	if err == nil {
		err = ErrFake
	}
	if cb := e.callbacks(id); cb.OnError != nil {
		cb.OnError(err)
	}
}

func (e *Engine) callbacks(id uint64) speech.Callbacks {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.calls) - 1; i >= 0; i-- {
		if e.calls[i].request.ID == id {
			return e.calls[i].callbacks
		}
	}
	return speech.Callbacks{}
}
