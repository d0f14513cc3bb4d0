package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/scriptomate/sequence"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ""), mr
}

func TestStoreLoadSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mr := newTestStore(t)

	c, err := s.Load(ctx, "db1")
	require.NoError(t, err)
	assert.False(t, c.Exists)

	require.NoError(t, s.Save(ctx, c, "00001"))
	assert.ErrorIs(t, s.Save(ctx, c, "00001"), sequence.ErrConcurrencyConflict)
	assert.Equal(t, "00001", mr.HGet(DefaultPrefix+"db1", "number"))

	c, err = s.Load(ctx, "db1")
	require.NoError(t, err)
	assert.True(t, c.Exists)
	assert.Equal(t, "00001", c.Number)
	assert.Equal(t, "1", c.Tag)

	// A competing writer bumps the version.
	mr.HSet(DefaultPrefix+"db1", "number", "00002", "version", "2")
	assert.ErrorIs(t, s.Save(ctx, c, "00002"), sequence.ErrConcurrencyConflict)

	c, err = s.Load(ctx, "db1")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, c, "00003"))
	assert.Equal(t, "3", mr.HGet(DefaultPrefix+"db1", "version"))
}

func TestStoreWithAllocators(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t)

	const (
		allocators = 3
		perWorker  = 10
	)
	var (
		wg   sync.WaitGroup
		mx   sync.Mutex
		seen = map[string]struct{}{}
	)
	for range allocators {
		// Separate clients, like separate processes.
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		a, err := sequence.NewAllocator(sequence.WithStore(New(client, "")))
		require.NoError(t, err)

		for range perWorker {
			wg.Add(1)
			go func() {
				defer wg.Done()
				num, err := a.NextNumber(context.Background(), "db1", sequence.ModeTableStorage)
				assert.NoError(t, err)
				mx.Lock()
				seen[num] = struct{}{}
				mx.Unlock()
			}()
		}
	}
	wg.Wait()

	assert.Len(t, seen, allocators*perWorker)
	c, err := s.Load(context.Background(), "db1")
	require.NoError(t, err)
	assert.Equal(t, "00030", c.Number)
}
