package sequence

import (
	"log/slog"
	"time"
)

// Option is a function that allows configuring the Allocator.
type Option func(*Allocator) error

// WithStore sets the counter store used in ModeTableStorage.
func WithStore(s CounterStore) Option {
	return func(a *Allocator) error {
		a.store = s
		return nil
	}
}

// WithRemote sets the number service used in ModeRemote.
func WithRemote(r RemoteSource) Option {
	return func(a *Allocator) error {
		a.remote = r
		return nil
	}
}

// WithTimeNow sets the function used to retrieve the current time in ModeLocal.
func WithTimeNow(timeNowFn func() time.Time) Option {
	return func(a *Allocator) error {
		a.timeNow = timeNowFn
		return nil
	}
}

// WithLogger sets the logger used by the Allocator.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) error {
		a.logger = logger.With("component", "sequence")
		return nil
	}
}

// DefaultOptions returns the default Allocator options.
func DefaultOptions() []Option {
	return []Option{
		WithTimeNow(time.Now),
		WithLogger(slog.Default()),
	}
}
