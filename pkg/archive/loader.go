package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/menta2k/image-splitter/pkg/types"
)

// State is where a Loader is in its lifecycle.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Factory provides an Archiver, or an error if it cannot.
type Factory func(ctx context.Context) (Archiver, error)

// Loader hands out an Archiver once it has been loaded. Concurrent Load
// calls share a single attempt. A failed attempt sticks until Reset, except
// one cut short by its caller's context.
type Loader struct {
	factory Factory

	mu       sync.Mutex
	state    State
	archiver Archiver
	err      error
	done     chan struct{}
}

// NewLoader creates a Loader around factory. A nil factory yields a Loader
// that is never available.
func NewLoader(factory Factory) *Loader {
	return &Loader{factory: factory}
}

// NewZipLoader creates a Loader for the default zip archiver.
func NewZipLoader() *Loader {
	return NewLoader(func(context.Context) (Archiver, error) {
		return NewZipArchiver(), nil
	})
}

// Unavailable returns a Loader that always reports ErrArchiveUnavailable.
func Unavailable() *Loader {
	return NewLoader(nil)
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Available reports whether an Archiver is ready without triggering a load.
func (l *Loader) Available() bool {
	return l.State() == StateReady
}

// Load returns the Archiver, loading it on first use. Every failure wraps
// types.ErrArchiveUnavailable. An attempt abandoned because its caller's
// context ended is not recorded as a failure; the next Load tries again.
func (l *Loader) Load(ctx context.Context) (Archiver, error) {
	for {
		l.mu.Lock()
		switch l.state {
		case StateReady:
			a := l.archiver
			l.mu.Unlock()
			return a, nil
		case StateFailed:
			err := l.err
			l.mu.Unlock()
			return nil, err
		case StateLoading:
			done := l.done
			l.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", types.ErrArchiveUnavailable, ctx.Err())
			}
		}

		l.state = StateLoading
		l.done = make(chan struct{})
		l.mu.Unlock()

		return l.attempt(ctx)
	}
}

func (l *Loader) attempt(ctx context.Context) (Archiver, error) {
	var (
		a   Archiver
		err error
	)
	if l.factory == nil {
		err = types.ErrArchiveUnavailable
	} else {
		a, err = l.factory(ctx)
		if err == nil && a == nil {
			err = types.ErrArchiveUnavailable
		} else if err != nil {
			err = fmt.Errorf("%w: %w", types.ErrArchiveUnavailable, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case err == nil:
		l.state = StateReady
		l.archiver = a
	case ctx.Err() != nil:
		l.state = StateUnloaded
	default:
		l.state = StateFailed
		l.err = err
	}
	close(l.done)
	return a, err
}

// Reset returns the Loader to the unloaded state so the next Load retries.
// It has no effect while a load is in flight.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateLoading {
		return
	}
	l.state = StateUnloaded
	l.archiver = nil
	l.err = nil
}
