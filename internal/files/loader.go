package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fertpulse/pkg/contracts/domain"
)

var (
	// ErrNotReady is returned while a load is still in flight.
	ErrNotReady = errors.New("resource not loaded yet")
	// ErrLoadFailed wraps the terminal error of a failed load.
	ErrLoadFailed = errors.New("resource load failed")
)

// LoadFunc produces a resource and a count for status reporting.
type LoadFunc[T any] func(ctx context.Context) (T, int, error)

// Loader runs a load exactly once. It starts in loading and ends in ready
// or failed; neither terminal state is ever left, so a failure is not retried.
type Loader[T any] struct {
	name   string
	source string
	load   LoadFunc[T]
	logger *slog.Logger

	once sync.Once
	done chan struct{}

	mu       sync.RWMutex
	status   domain.LoadStatus
	value    T
	count    int
	err      error
	loadedAt time.Time
}

// NewLoader creates a loader that has not started yet.
func NewLoader[T any](name, source string, load LoadFunc[T], logger *slog.Logger) *Loader[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader[T]{
		name:   name,
		source: source,
		load:   load,
		logger: logger.With(slog.String("resource", name)),
		done:   make(chan struct{}),
		status: domain.LoadStatusLoading,
	}
}

// NewReadyLoader wraps an already available value.
func NewReadyLoader[T any](name string, value T, count int) *Loader[T] {
	l := NewLoader[T](name, "", nil, nil)
	l.once.Do(func() {
		l.finish(value, count, nil)
	})
	return l
}

// Start runs the load in the background.
func (l *Loader[T]) Start(ctx context.Context) {
	go l.run(ctx)
}

// Load runs the load if nobody has, then waits for its outcome.
func (l *Loader[T]) Load(ctx context.Context) (T, error) {
	go l.run(ctx)
	select {
	case <-l.done:
		return l.Get()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (l *Loader[T]) run(ctx context.Context) {
	l.once.Do(func() {
		start := time.Now()
		l.logger.InfoContext(ctx, "Loading resource", slog.String("source", l.source))

		value, count, err := l.load(ctx)
		l.finish(value, count, err)

		if err != nil {
			l.logger.ErrorContext(ctx, "Resource load failed",
				slog.String("source", l.source),
				slog.String("error", err.Error()))
			return
		}
		l.logger.InfoContext(ctx, "Resource ready",
			slog.Int("count", count),
			slog.Duration("duration", time.Since(start)))
	})
}

func (l *Loader[T]) finish(value T, count int, err error) {
	l.mu.Lock()
	if err != nil {
		l.status = domain.LoadStatusFailed
		l.err = err
	} else {
		l.status = domain.LoadStatusReady
		l.value = value
		l.count = count
	}
	l.loadedAt = time.Now()
	l.mu.Unlock()
	close(l.done)
}

// Get returns the value without blocking: ErrNotReady while loading and
// ErrLoadFailed once failed.
func (l *Loader[T]) Get() (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	switch l.status {
	case domain.LoadStatusReady:
		return l.value, nil
	case domain.LoadStatusFailed:
		return zero, fmt.Errorf("%w: %s: %v", ErrLoadFailed, l.name, l.err)
	}
	return zero, fmt.Errorf("%w: %s", ErrNotReady, l.name)
}

// Done is closed once the loader reaches a terminal state.
func (l *Loader[T]) Done() <-chan struct{} {
	return l.done
}

// State reports the current status.
func (l *Loader[T]) State() domain.LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state := domain.LoadState{
		Name:   l.name,
		Source: l.source,
		Status: l.status,
		Count:  l.count,
	}
	if l.err != nil {
		state.Error = l.err.Error()
	}
	if l.status.Terminal() {
		at := l.loadedAt
		state.LoadedAt = &at
	}
	return state
}
