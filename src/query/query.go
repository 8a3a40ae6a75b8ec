package query

import (
	"context"
	"errors"
	"time"
)

const snapshotLoadTimeout = 2 * time.Second

// Result is what a read hands to a view. Data may be present together with
// Err when the last refresh failed and an older value is being shown.
type Result[T any] struct {
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	// Stale is set when Data is older than the query's staleness window or
	// comes from a snapshot.
	Stale bool
	// Fetching is set when a background refresh was started by this read.
	Fetching bool
}

// Query is a typed handle on one cache key.
type Query[T any] struct {
	Key       string
	Families  []Family
	StaleTime time.Duration
	Fetch     func(context.Context) (T, error)

	store *Store
}

// New binds a query to a store and registers its families.
func New[T any](s *Store, key string, stale time.Duration, fetch func(context.Context) (T, error), families ...Family) *Query[T] {
	q := &Query[T]{Key: key, Families: families, StaleTime: stale, Fetch: fetch, store: s}
	s.register(key, families, func() { s.background(key, q.fn) })
	return q
}

func (q *Query[T]) fn(ctx context.Context) (any, error) {
	return q.Fetch(ctx)
}

// Get returns cached data when fresh, cached data plus a background
// refresh when stale, and otherwise waits for the backend.
func (q *Query[T]) Get(ctx context.Context) Result[T] {
	s := q.store
	e, ok := s.lookup(q.Key)
	if ok && e.hasValue && !e.invalidated {
		res := q.result(e)
		if s.now().Sub(e.updatedAt) < q.StaleTime {
			return res
		}
		res.Stale = true
		res.Fetching = true
		s.background(q.Key, q.fn)
		return res
	}

	v, err := s.wait(ctx, q.Key, q.fn)
	if err == nil {
		if e, ok := s.lookup(q.Key); ok && e.hasValue {
			return q.result(e)
		}
		data, _ := v.(T)
		return Result[T]{Data: data, HasData: true, UpdatedAt: s.now()}
	}
	return q.fallback(ctx, e, ok, err)
}

// Refetch forces a fetch even if the cached value is fresh and waits for it.
func (q *Query[T]) Refetch(ctx context.Context) Result[T] {
	s := q.store
	s.mu.Lock()
	s.supersede(q.Key)
	prev, ok := s.lookup(q.Key)
	if ok {
		next := *prev
		next.invalidated = true
		s.put(q.Key, &next)
	}
	s.mu.Unlock()

	v, err := s.wait(ctx, q.Key, q.fn)
	if err == nil {
		if e, ok := s.lookup(q.Key); ok && e.hasValue {
			return q.result(e)
		}
		data, _ := v.(T)
		return Result[T]{Data: data, HasData: true, UpdatedAt: s.now()}
	}
	return q.fallback(ctx, prev, ok, err)
}

func (q *Query[T]) fallback(ctx context.Context, prev *entry, ok bool, err error) Result[T] {
	if ok && prev.hasValue {
		res := q.result(prev)
		res.Err = err
		res.Stale = true
		return res
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotLoadTimeout)
	defer cancel()
	data, savedAt, serr := loadSnapshot[T](sctx, q.store, q.Key)
	if serr != nil {
		if !errors.Is(serr, ErrNoSnapshot) {
			q.store.log.Warn().Err(serr).Str("key", q.Key).Msg("load snapshot")
		}
		return Result[T]{Err: err}
	}
	return Result[T]{Data: data, HasData: true, Err: err, UpdatedAt: savedAt, Stale: true}
}

func (q *Query[T]) result(e *entry) Result[T] {
	v, _ := e.value.(T)
	return Result[T]{Data: v, HasData: true, Err: e.err, UpdatedAt: e.updatedAt}
}

// Data returns the cached value without fetching.
func (q *Query[T]) Data() (T, bool) {
	e, ok := q.store.lookup(q.Key)
	if !ok || !e.hasValue {
		var zero T
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

// Snapshot captures the current entry and returns a func that puts it back,
// discarding whatever was written or fetched in between.
func (q *Query[T]) Snapshot() (restore func()) {
	s := q.store
	prev, ok := s.lookup(q.Key)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.supersede(q.Key)
		if ok {
			s.put(q.Key, prev)
			return
		}
		s.cache.Del(q.Key)
		s.cache.Wait()
	}
}

// SetData overwrites the cached value, discarding any fetch in flight.
func (q *Query[T]) SetData(v T) {
	q.store.setData(q.Key, v)
}

// Invalidate marks this query's key stale. Mutations should invalidate
// families on the store instead.
func (q *Query[T]) Invalidate() {
	s := q.store
	s.mu.Lock()
	s.supersede(q.Key)
	if e, ok := s.lookup(q.Key); ok {
		next := *e
		next.invalidated = true
		s.put(q.Key, &next)
	}
	s.mu.Unlock()
}
