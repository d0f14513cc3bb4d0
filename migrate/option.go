package migrate

import (
	"errors"
	"log/slog"
	"time"
)

// DefaultStatementTimeout is the maximum time a single script may run.
const DefaultStatementTimeout = 600 * time.Second

// Option is a function that allows configuring the Executor.
type Option func(*Executor) error

// WithDecider sets the Decider consulted in interactive mode.
func WithDecider(d Decider) Option {
	return func(e *Executor) error {
		e.decider = d
		return nil
	}
}

// WithLogger sets the logger used by the Executor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		e.logger = logger.With("component", "migrate")
		return nil
	}
}

// WithStatementTimeout sets the maximum time a single script may run.
func WithStatementTimeout(dur time.Duration) Option {
	return func(e *Executor) error {
		if dur <= 0 {
			return errors.New("statement timeout must be positive")
		}
		e.timeout = dur
		return nil
	}
}

// DefaultOptions returns the default Executor options.
func DefaultOptions() []Option {
	return []Option{
		WithStatementTimeout(DefaultStatementTimeout),
		WithLogger(slog.Default()),
	}
}
