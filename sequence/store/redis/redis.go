// Package redis is a CounterStore backed by Redis hashes, updated in
// WATCH/MULTI transactions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"go.hackfix.me/scriptomate/sequence"
)

// DefaultPrefix is prepended to sequence keys to build the Redis key.
const DefaultPrefix = "scriptomate:sequence:"

// Client is the subset of goredis.UniversalClient used by the Store.
type Client interface {
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
	Watch(ctx context.Context, fn func(*goredis.Tx) error, keys ...string) error
}

// errStale is returned from a transaction when the stored version doesn't
// match the loaded counter.
var errStale = errors.New("stale counter")

// Store is a CounterStore backed by Redis.
type Store struct {
	client Client
	prefix string
}

var _ sequence.CounterStore = (*Store)(nil)

// New returns a new Store using the given client. If prefix is empty,
// DefaultPrefix is used.
func New(client Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Load implements sequence.CounterStore.
func (s *Store) Load(ctx context.Context, key string) (sequence.Counter, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return sequence.Counter{}, fmt.Errorf("failed reading counter hash: %w", err)
	}
	if len(fields) == 0 {
		return sequence.Counter{Key: key}, nil
	}

	return sequence.Counter{
		Key:    key,
		Number: fields["number"],
		Tag:    fields["version"],
		Exists: true,
	}, nil
}

// Save implements sequence.CounterStore.
func (s *Store) Save(ctx context.Context, c sequence.Counter, next string) error {
	rkey := s.prefix + c.Key

	txf := func(tx *goredis.Tx) error {
		fields, err := tx.HGetAll(ctx, rkey).Result()
		if err != nil {
			return err //nolint:wrapcheck // Wrapped below.
		}

		version := int64(0)
		switch {
		case !c.Exists && len(fields) > 0:
			return errStale
		case c.Exists:
			if len(fields) == 0 || fields["version"] != c.Tag {
				return errStale
			}
			if version, err = strconv.ParseInt(c.Tag, 10, 64); err != nil {
				return fmt.Errorf("invalid counter version '%s': %w", c.Tag, err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, rkey, "number", next, "version", strconv.FormatInt(version+1, 10))
			return nil
		})
		return err //nolint:wrapcheck // Wrapped below.
	}

	err := s.client.Watch(ctx, txf, rkey)
	if errors.Is(err, errStale) || errors.Is(err, goredis.TxFailedErr) {
		return sequence.ErrConcurrencyConflict
	}
	if err != nil {
		return fmt.Errorf("failed writing counter hash: %w", err)
	}

	return nil
}
