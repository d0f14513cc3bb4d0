// Package memory is an in-process CounterStore, useful for tests and for a
// number service that doesn't need to survive restarts.
package memory

import (
	"context"
	"strconv"
	"sync"

	"go.hackfix.me/scriptomate/sequence"
)

type entry struct {
	number  string
	version int64
}

// Store is a CounterStore backed by a map.
type Store struct {
	mx         sync.Mutex
	counters   map[string]entry
	beforeSave func(key string)
}

var _ sequence.CounterStore = (*Store)(nil)

// New returns a new empty Store.
func New() *Store {
	return &Store{counters: map[string]entry{}}
}

// Set unconditionally writes a counter value, as another writer would.
func (s *Store) Set(key, number string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	cur := s.counters[key]
	s.counters[key] = entry{number: number, version: cur.version + 1}
}

// Get returns the stored value of a counter.
func (s *Store) Get(key string) (string, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	e, ok := s.counters[key]
	return e.number, ok
}

// OnBeforeSave registers a function called at the start of every Save, before
// the conditional write is checked. It can be used to simulate a competing
// writer.
func (s *Store) OnBeforeSave(fn func(key string)) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.beforeSave = fn
}

// Load implements sequence.CounterStore.
func (s *Store) Load(_ context.Context, key string) (sequence.Counter, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	e, ok := s.counters[key]
	if !ok {
		return sequence.Counter{Key: key}, nil
	}

	return sequence.Counter{
		Key:    key,
		Number: e.number,
		Tag:    strconv.FormatInt(e.version, 10),
		Exists: true,
	}, nil
}

// Save implements sequence.CounterStore.
func (s *Store) Save(_ context.Context, c sequence.Counter, next string) error {
	s.mx.Lock()
	hook := s.beforeSave
	s.mx.Unlock()
	if hook != nil {
		hook(c.Key)
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	cur, ok := s.counters[c.Key]
	switch {
	case !c.Exists && ok:
		return sequence.ErrConcurrencyConflict
	case c.Exists && (!ok || strconv.FormatInt(cur.version, 10) != c.Tag):
		return sequence.ErrConcurrencyConflict
	}

	s.counters[c.Key] = entry{number: next, version: cur.version + 1}

	return nil
}
