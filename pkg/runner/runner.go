// Package runner serializes run requests for interactive callers such as the
// GUI, where a second press of "run" must not start a second program.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anubad-lang/anubad"
)

// ErrBusy is returned when a run is already in flight
var ErrBusy = errors.New("a program is already running")

// Recorder stores finished runs
type Recorder interface {
	Record(ctx context.Context, source string, result anubad.Result, elapsed time.Duration) (string, error)
}

// Runner handles program execution for one editor
type Runner struct {
	engine   *anubad.Engine
	recorder Recorder

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// Callbacks
	OnRunStart func()
	OnRunEnd   func(result anubad.Result, display string)
}

// Options configures the Runner
type Options struct {
	Engine   *anubad.Engine
	Recorder Recorder // optional
}

// New creates a new Runner
func New(opts Options) *Runner {
	return &Runner{
		engine:   opts.Engine,
		recorder: opts.Recorder,
	}
}

// IsRunning reports whether a run is in flight
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run starts source on its own goroutine and returns immediately. OnRunEnd
// and onComplete are called from that goroutine once the result is ready.
// The runner stays busy until both have returned, so the next run's
// OnRunStart always follows the previous OnRunEnd.
func (r *Runner) Run(ctx context.Context, source string, onComplete func(anubad.Result, string)) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrBusy
	}
	r.running = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	if r.OnRunStart != nil {
		r.OnRunStart()
	}

	go func() {
		start := time.Now()
		result := <-r.engine.Start(ctx, source)
		elapsed := time.Since(start)
		display := anubad.Format(result)

		if r.recorder != nil {
			if _, err := r.recorder.Record(context.WithoutCancel(ctx), source, result, elapsed); err != nil {
				r.engine.Logger().Error(anubad.CatHistory, "%v", err)
			}
		}

		if r.OnRunEnd != nil {
			r.OnRunEnd(result, display)
		}
		if onComplete != nil {
			onComplete(result, display)
		}

		r.mu.Lock()
		r.running = false
		r.cancel()
		r.cancel = nil
		r.mu.Unlock()
	}()
	return nil
}

// Stop cancels the run in flight, if any. The run still finishes with a
// TimeoutError delivered through the usual callbacks.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}
