package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Family names a group of backend resources that a mutation can change.
type Family string

// errSuperseded is returned to waiters of a fetch whose result was thrown
// away because the key was invalidated while it ran.
var errSuperseded = errors.New("query superseded")

const putAttempts = 3

type entry struct {
	value       any
	hasValue    bool
	err         error
	updatedAt   time.Time
	invalidated bool
}

// Event is delivered to invalidation listeners.
type Event struct {
	Families []Family  `json:"families"`
	Keys     []string  `json:"keys"`
	At       time.Time `json:"at"`
}

type Options struct {
	MaxItems int64
	// Timeout bounds a single fetch, independent of who is waiting on it.
	Timeout time.Duration
	// RefetchOnInvalidate starts a background fetch for every invalidated
	// key that has been read at least once.
	RefetchOnInvalidate bool
	Snapshots           SnapshotStore
	Logger              zerolog.Logger
	Now                 func() time.Time
}

// Store is the shared query cache. Entries live in ristretto; the
// family and generation bookkeeping lives next to it under one mutex.
type Store struct {
	cache *ristretto.Cache[string, *entry]
	group singleflight.Group

	mu        sync.Mutex
	gens      map[string]uint64
	inflight  map[string]context.CancelFunc
	families  map[Family]map[string]struct{}
	refetch   map[string]func()
	listeners []func(Event)

	snapshots SnapshotStore
	timeout   time.Duration
	refetchOn bool
	now       func() time.Time
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewStore(opts Options) (*Store, error) {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 10000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Snapshots == nil {
		opts.Snapshots = NewMemorySnapshots()
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *entry]{
		NumCounters:        opts.MaxItems * 10,
		MaxCost:            opts.MaxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init query cache: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		cache:     cache,
		gens:      make(map[string]uint64),
		inflight:  make(map[string]context.CancelFunc),
		families:  make(map[Family]map[string]struct{}),
		refetch:   make(map[string]func()),
		snapshots: opts.Snapshots,
		timeout:   opts.Timeout,
		refetchOn: opts.RefetchOnInvalidate,
		now:       opts.Now,
		log:       opts.Logger.With().Str("component", "query").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Close cancels in-flight fetches and releases the cache.
func (s *Store) Close() {
	s.cancel()
	s.cache.Close()
}

// OnInvalidate registers fn to be called after every invalidation.
func (s *Store) OnInvalidate(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) register(key string, families []Family, refetch func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range families {
		keys, ok := s.families[f]
		if !ok {
			keys = make(map[string]struct{})
			s.families[f] = keys
		}
		keys[key] = struct{}{}
	}
	if refetch != nil {
		s.refetch[key] = refetch
	}
}

func (s *Store) lookup(key string) (*entry, bool) {
	return s.cache.Get(key)
}

// put replaces the entry for key and reports whether the cache kept it.
// Callers hold s.mu.
func (s *Store) put(key string, e *entry) bool {
	for attempt := 0; attempt < putAttempts; attempt++ {
		// ristretto may drop a Set under contention, so the write is read
		// back before it counts.
		if s.cache.Set(key, e, 1) {
			s.cache.Wait()
			if got, ok := s.cache.Get(key); ok && got == e {
				return true
			}
		}
	}
	s.log.Warn().Str("key", key).Msg("cache dropped entry")
	return false
}

// supersede bumps the key's generation so that any fetch already running
// for it cannot commit, and detaches that fetch from new callers. Callers
// hold s.mu.
func (s *Store) supersede(key string) {
	s.gens[key]++
	if cancel, ok := s.inflight[key]; ok {
		cancel()
		delete(s.inflight, key)
	}
	s.group.Forget(key)
}

// fetch runs fn once per key at a time and commits its result only if no
// invalidation happened in between.
func (s *Store) fetch(key string, fn func(context.Context) (any, error)) <-chan singleflight.Result {
	return s.group.DoChan(key, func() (any, error) {
		s.mu.Lock()
		gen := s.gens[key]
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		s.inflight[key] = cancel
		s.mu.Unlock()
		defer cancel()

		start := s.now()
		value, err := fn(ctx)

		s.mu.Lock()
		if s.gens[key] != gen {
			s.mu.Unlock()
			s.log.Debug().Str("key", key).Msg("discarding superseded response")
			return nil, errSuperseded
		}
		delete(s.inflight, key)
		prev, _ := s.lookup(key)
		next := &entry{}
		if prev != nil {
			*next = *prev
		}
		if err != nil {
			next.err = err
		} else {
			next.value = value
			next.hasValue = true
			next.err = nil
			next.updatedAt = s.now()
			next.invalidated = false
		}
		s.put(key, next)
		s.mu.Unlock()

		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Dur("took", s.now().Sub(start)).Msg("fetch failed")
			return nil, err
		}
		s.saveSnapshot(key, value)
		return value, nil
	})
}

func (s *Store) saveSnapshot(key string, value any) {
	data, err := encodeSnapshot(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("encode snapshot")
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if err := s.snapshots.Save(ctx, key, data, s.now()); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("save snapshot")
	}
}

// wait blocks until the current fetch for key finishes or ctx ends. When
// the fetch is superseded by a direct write the written value is returned;
// when it is superseded by an invalidation the next fetch is awaited.
func (s *Store) wait(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	for {
		select {
		case res := <-s.fetch(key, fn):
			if errors.Is(res.Err, errSuperseded) {
				if s.ctx.Err() != nil {
					return nil, s.ctx.Err()
				}
				if e, ok := s.lookup(key); ok && e.hasValue && !e.invalidated {
					return e.value, nil
				}
				continue
			}
			return res.Val, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// background starts a fetch nobody waits on.
func (s *Store) background(key string, fn func(context.Context) (any, error)) {
	ch := s.fetch(key, fn)
	go func() { <-ch }()
}

// setData replaces the cached value directly and discards any response
// still in flight for the key.
func (s *Store) setData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersede(key)
	s.put(key, &entry{value: value, hasValue: true, updatedAt: s.now()})
}

func (s *Store) keysFor(families []Family) []string {
	set := make(map[string]struct{})
	for _, f := range families {
		for k := range s.families[f] {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invalidate marks every key derived from the given families as stale and
// discards responses already in flight for them. The next read of such a
// key waits for a fresh fetch, falling back to the old value if it fails.
func (s *Store) Invalidate(families ...Family) []string {
	s.mu.Lock()
	keys := s.keysFor(families)
	var refetch []func()
	for _, k := range keys {
		s.supersede(k)
		if e, ok := s.lookup(k); ok {
			next := *e
			next.invalidated = true
			s.put(k, &next)
		}
		if fn, ok := s.refetch[k]; ok && s.refetchOn {
			refetch = append(refetch, fn)
		}
	}
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info().Interface("families", families).Strs("keys", keys).Msg("invalidated")
	for _, fn := range refetch {
		fn()
	}
	ev := Event{Families: families, Keys: keys, At: s.now()}
	for _, fn := range listeners {
		fn(ev)
	}
	return keys
}

// Clear drops cached entries for the families outright. Snapshots are
// kept so reads still have something to fall back on.
func (s *Store) Clear(families ...Family) []string {
	s.mu.Lock()
	keys := s.keysFor(families)
	for _, k := range keys {
		s.supersede(k)
		s.cache.Del(k)
	}
	s.cache.Wait()
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info().Interface("families", families).Int("keys", len(keys)).Msg("cache cleared")
	ev := Event{Families: families, Keys: keys, At: s.now()}
	for _, fn := range listeners {
		fn(ev)
	}
	return keys
}

// Refresh starts background fetches for the given keys without marking
// them stale, so readers keep getting the current value meanwhile.
func (s *Store) Refresh(keys ...string) {
	s.mu.Lock()
	var fns []func()
	for _, k := range keys {
		if fn, ok := s.refetch[k]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Families lists every family that has at least one registered key.
func (s *Store) Families() []Family {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Family, 0, len(s.families))
	for f := range s.families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
