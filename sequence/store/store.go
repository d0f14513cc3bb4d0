// Package store opens the CounterStore backend selected by configuration.
package store

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/sequence/store/aztable"
	"go.hackfix.me/scriptomate/sequence/store/dynamo"
	"go.hackfix.me/scriptomate/sequence/store/memory"
	"go.hackfix.me/scriptomate/sequence/store/redis"
	"go.hackfix.me/scriptomate/sequence/store/sqlstore"
)

// Type are the supported CounterStore backends.
type Type string

// All supported CounterStore backends.
const (
	TypeMemory  Type = "memory"
	TypeSQL     Type = "sql"
	TypeAzTable Type = "aztable"
	TypeDynamo  Type = "dynamo"
	TypeRedis   Type = "redis"
)

// TypeFromString returns a valid Type for the given string, or an error if the
// value is invalid.
func TypeFromString(val string) (Type, error) {
	switch Type(val) {
	case TypeMemory, TypeSQL, TypeAzTable, TypeDynamo, TypeRedis:
		return Type(val), nil
	}
	return "", fmt.Errorf("unsupported counter store type '%s'", val)
}

// Options configure the backend opened by Open.
type Options struct {
	Type Type
	// Table is the table name for the sql, aztable and dynamo backends, or the
	// key prefix for the redis backend.
	Table string
	// ConnectionString is the Azure storage account connection string.
	ConnectionString string
	// Driver and DSN identify the database of the sql backend.
	Driver db.Driver
	DSN    string
	// RedisAddress is the [host]:port of the Redis server.
	RedisAddress string
	// AWSRegion overrides the region resolved from the AWS environment.
	AWSRegion string
}

// Store is a CounterStore that holds resources that must be released.
type Store interface {
	sequence.CounterStore
	Close() error
}

type closer struct {
	sequence.CounterStore
	closeFn func() error
}

func (c closer) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

// Open initializes the configured backend, creating its table if needed.
//
//nolint:ireturn // The backend is chosen at runtime.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case TypeMemory:
		return closer{CounterStore: memory.New()}, nil
	case TypeSQL:
		d, err := db.Open(ctx, opts.Driver, opts.DSN)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already wrapped.
		}
		s := sqlstore.New(d, opts.Table)
		if err = s.EnsureTable(ctx); err != nil {
			return nil, errors.Join(err, d.Close())
		}
		return closer{CounterStore: s, closeFn: d.Close}, nil
	case TypeAzTable:
		if opts.ConnectionString == "" {
			return nil, errors.New("the aztable store requires a connection string")
		}
		s, err := aztable.NewFromConnectionString(opts.ConnectionString, opts.Table)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already wrapped.
		}
		if err = s.EnsureTable(ctx); err != nil {
			return nil, err //nolint:wrapcheck // Already wrapped.
		}
		return closer{CounterStore: s}, nil
	case TypeDynamo:
		s, err := dynamo.NewFromDefaultConfig(ctx, opts.AWSRegion, opts.Table)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already wrapped.
		}
		return closer{CounterStore: s}, nil
	case TypeRedis:
		if opts.RedisAddress == "" {
			return nil, errors.New("the redis store requires an address")
		}
		client := goredis.NewClient(&goredis.Options{Addr: opts.RedisAddress})
		return closer{CounterStore: redis.New(client, opts.Table), closeFn: client.Close}, nil
	}

	return nil, fmt.Errorf("unsupported counter store type '%s'", opts.Type)
}
