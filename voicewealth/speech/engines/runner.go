package engines

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

// job renders one request. It must call started once audio output begins and
// return promptly after ctx is cancelled.
type job func(ctx context.Context, started func()) error

// requestRunner keeps at most one job alive and turns its outcome into callbacks.
type requestRunner struct {
	base context.Context
	stop context.CancelFunc

	mu           sync.Mutex
	activeID     uint64
	cancelActive context.CancelFunc

	wg sync.WaitGroup
}

func newRequestRunner() *requestRunner {
	base, stop := context.WithCancel(context.Background())
	return &requestRunner{
		base: base,
		stop: stop,
	}
}

func (r *requestRunner) run(request speech.Request, callbacks speech.Callbacks, fn job) {
	r.mu.Lock()
	if r.cancelActive != nil {
		slog.Debug("Superseding active speech request", "previous", r.activeID, "next", request.ID)
		r.cancelActive()
	}
	ctx, cancel := context.WithCancel(r.base)
	r.activeID = request.ID
	r.cancelActive = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.finish(request.ID, cancel)

		var once sync.Once
		started := func() {
			if ctx.Err() != nil {
				return
			}
			once.Do(func() {
				if callbacks.OnStart != nil {
					callbacks.OnStart()
				}
			})
		}

		err := fn(ctx, started)
		if err != nil && ctx.Err() == nil {
			slog.Warn("Speech request failed", "request", request.ID, "error", err)
			if callbacks.OnError != nil {
				callbacks.OnError(err)
			}
			return
		}
		if callbacks.OnEnd != nil {
			callbacks.OnEnd()
		}
	}()
}

func (r *requestRunner) finish(id uint64, cancel context.CancelFunc) {
	r.mu.Lock()
	if r.activeID == id {
		r.cancelActive = nil
	}
	r.mu.Unlock()
	cancel()
}

func (r *requestRunner) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelActive != nil {
		slog.Debug("Cancelling active speech request", "request", r.activeID)
		r.cancelActive()
		r.cancelActive = nil
	}
}

// close cancels every job and waits for their callbacks to return.
func (r *requestRunner) close() {
	r.stop()
	r.wg.Wait()
}

var errNoVoicesYet = errors.New("engine reported no voices yet")

// voiceList holds the voices reported by an engine and notifies listeners when they change.
type voiceList struct {
	mu        sync.RWMutex
	voices    []speech.Voice
	listeners []func()
}

func (l *voiceList) get() []speech.Voice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.voices)
}

func (l *voiceList) set(voices []speech.Voice) {
	l.mu.Lock()
	l.voices = slices.Clone(voices)
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (l *voiceList) subscribe(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// load fetches voices with exponential backoff until the engine reports a non-empty list.
func (l *voiceList) load(ctx context.Context, engine string, base time.Duration, retries uint64, fetch func(ctx context.Context) ([]speech.Voice, error)) error {
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		voices, err := fetch(ctx)
		if err != nil {
			slog.Warn("Failed to list voices", "engine", engine, "error", err)
			return retry.RetryableError(err)
		}
		if len(voices) == 0 {
			return retry.RetryableError(errNoVoicesYet)
		}
		l.set(voices)
		slog.Info("Voices ready", "engine", engine, "count", len(voices))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		slog.Warn("Giving up on voice list, the engine default voice will be used", "engine", engine, "error", err)
	}
	return err
}
