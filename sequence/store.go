package sequence

import (
	"context"
	"errors"
)

// InitialNumber is the value of a counter that was never incremented. The
// first allocated number is therefore "00001".
const InitialNumber = "00000"

// ErrConcurrencyConflict is returned by CounterStore.Save when the counter was
// modified after it was loaded.
var ErrConcurrencyConflict = errors.New("counter was modified concurrently")

// Counter is the stored state of a sequence key.
type Counter struct {
	Key    string
	Number string
	// Tag is the store-specific version token used for the conditional write.
	Tag string
	// Exists is false if the key wasn't found in the store.
	Exists bool
}

// CounterStore persists counters with optimistic concurrency.
type CounterStore interface {
	// Load returns the current counter for key. A missing key isn't an error:
	// a Counter with Exists set to false is returned instead.
	Load(ctx context.Context, key string) (Counter, error)
	// Save writes next as the new number of the counter, but only if it's
	// unchanged since c was loaded. Otherwise it returns ErrConcurrencyConflict.
	Save(ctx context.Context, c Counter, next string) error
}

// RemoteSource is a remote number service.
type RemoteSource interface {
	NextNumber(ctx context.Context, key string) (string, error)
}
