package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.hackfix.me/scriptomate/metrics"
)

// localFormat is yyMMddHHmmss.
const localFormat = "060102150405"

// Allocator hands out sequence numbers for script keys.
type Allocator struct {
	// mu serializes stored allocations within this process. Uniqueness across
	// processes relies on the store's conditional writes.
	mu      sync.Mutex
	store   CounterStore
	remote  RemoteSource
	timeNow func() time.Time
	logger  *slog.Logger
}

// NewAllocator returns a new Allocator instance.
func NewAllocator(opts ...Option) (*Allocator, error) {
	a := &Allocator{}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NextNumber returns the next sequence number for key using the given mode.
func (a *Allocator) NextNumber(ctx context.Context, key string, mode Mode) (string, error) {
	var (
		num string
		err error
	)
	switch mode {
	case ModeLocal:
		num = a.timeNow().UTC().Format(localFormat)
	case ModeRemote:
		num, err = a.nextRemote(ctx, key)
	case ModeTableStorage:
		num, err = a.nextStored(ctx, key)
	default:
		return "", fmt.Errorf("unsupported sequence mode '%s'", mode)
	}

	if err != nil {
		metrics.AllocationErrorsTotal.WithLabelValues(string(mode)).Inc()
		return "", err
	}

	metrics.NumbersAllocatedTotal.WithLabelValues(string(mode)).Inc()
	a.logger.Debug("allocated number", "key", key, "mode", string(mode), "number", num)

	return num, nil
}

func (a *Allocator) nextRemote(ctx context.Context, key string) (string, error) {
	if a.remote == nil {
		return "", errors.New("remote mode requires a remote number service")
	}
	if key == "" {
		return "", errors.New("sequence key is required")
	}

	num, err := a.remote.NextNumber(ctx, key)
	if err != nil {
		return "", &RemoteServiceError{Key: key, Err: err}
	}

	return num, nil
}

// nextStored increments the stored counter for key, retrying for as long as
// the conditional write conflicts with another writer.
func (a *Allocator) nextStored(ctx context.Context, key string) (string, error) {
	if a.store == nil {
		return "", errors.New("table storage mode requires a counter store")
	}
	if key == "" {
		return "", errors.New("sequence key is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err //nolint:wrapcheck // Context errors are returned as is.
		}

		c, err := a.store.Load(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed loading counter '%s': %w", key, err)
		}

		cur := c.Number
		if !c.Exists {
			cur = InitialNumber
		}
		n, err := strconv.Atoi(cur)
		if err == nil && n < 0 {
			err = errors.New("negative counter")
		}
		if err != nil {
			a.logger.Warn("failed parsing stored counter", "key", key, "value", cur)
			return "", &ParseError{Key: key, Value: cur, Err: err}
		}

		next := fmt.Sprintf("%05d", n+1)
		err = a.store.Save(ctx, c, next)
		if errors.Is(err, ErrConcurrencyConflict) {
			metrics.AllocationConflictsTotal.Inc()
			a.logger.Debug("counter changed concurrently, retrying", "key", key, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed saving counter '%s': %w", key, err)
		}

		return next, nil
	}
}
