package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, snaps SnapshotStore) (*Store, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	s, err := NewStore(Options{
		MaxItems:  100,
		Timeout:   time.Second,
		Snapshots: snaps,
		Logger:    zerolog.Nop(),
		Now:       clk.Now,
	})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, clk
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	s, _ := newTestStore(t, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	q := New(s, "k", time.Minute, func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	})

	var wg sync.WaitGroup
	results := make([]Result[string], 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = q.Get(context.Background())
		}(i)
	}
	waitFor(t, func() bool { return calls.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
	for i, r := range results {
		if r.Err != nil || r.Data != "v" {
			t.Fatalf("result[%d] = %+v", i, r)
		}
	}
}

func TestFreshReadDoesNotFetch(t *testing.T) {
	s, clk := newTestStore(t, nil)
	var calls atomic.Int32
	q := New(s, "k", time.Minute, func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	})

	q.Get(context.Background())
	clk.Advance(30 * time.Second)
	r := q.Get(context.Background())
	if r.Data != 1 || r.Stale || r.Fetching {
		t.Fatalf("Get() = %+v, want fresh 1", r)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
}

func TestStaleReadReturnsImmediatelyAndRefreshes(t *testing.T) {
	s, clk := newTestStore(t, nil)
	var calls atomic.Int32
	q := New(s, "k", time.Minute, func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	})

	q.Get(context.Background())
	clk.Advance(2 * time.Minute)
	r := q.Get(context.Background())
	if r.Data != 1 || !r.Stale || !r.Fetching {
		t.Fatalf("Get() = %+v, want stale 1 with refresh", r)
	}
	waitFor(t, func() bool {
		v, _ := q.Data()
		return v == 2
	})
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	s, _ := newTestStore(t, nil)
	var n atomic.Int32
	started := make(chan struct{})
	late := make(chan struct{})
	q := New(s, "k", time.Minute, func(ctx context.Context) (string, error) {
		if n.Add(1) == 1 {
			close(started)
			<-late
			return "old", nil
		}
		return "new", nil
	}, "fam")

	first := make(chan Result[string], 1)
	go func() { first <- q.Get(context.Background()) }()
	<-started

	s.Invalidate("fam")
	if r := q.Get(context.Background()); r.Data != "new" {
		t.Fatalf("second Get() = %+v, want new", r)
	}

	close(late)
	if r := <-first; r.Data != "new" {
		t.Fatalf("first Get() = %+v, want new", r)
	}
	if v, _ := q.Data(); v != "new" {
		t.Fatalf("cached = %q, want new", v)
	}
}

func TestFailedRefetchKeepsLastValue(t *testing.T) {
	s, _ := newTestStore(t, nil)
	boom := errors.New("backend down")
	var fail atomic.Bool
	q := New(s, "k", time.Minute, func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", boom
		}
		return "good", nil
	})

	q.Get(context.Background())
	fail.Store(true)
	r := q.Refetch(context.Background())
	if !errors.Is(r.Err, boom) {
		t.Fatalf("Refetch().Err = %v, want %v", r.Err, boom)
	}
	if !r.HasData || r.Data != "good" || !r.Stale {
		t.Fatalf("Refetch() = %+v, want stale good", r)
	}
}

func TestColdReadFallsBackToSnapshot(t *testing.T) {
	snaps := NewMemorySnapshots()
	saved := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := snaps.Save(context.Background(), "k", []byte(`["a","b"]`), saved); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestStore(t, snaps)
	q := New(s, "k", time.Minute, func(ctx context.Context) ([]string, error) {
		return nil, errors.New("unreachable")
	})

	r := q.Get(context.Background())
	if r.Err == nil || !r.Stale || len(r.Data) != 2 || !r.UpdatedAt.Equal(saved) {
		t.Fatalf("Get() = %+v, want snapshot with error", r)
	}
}

func TestSuccessfulFetchWritesSnapshot(t *testing.T) {
	snaps := NewMemorySnapshots()
	s, _ := newTestStore(t, snaps)
	q := New(s, "k", time.Minute, func(ctx context.Context) (map[string]int, error) {
		return map[string]int{"x": 1}, nil
	})
	q.Get(context.Background())

	data, _, err := snaps.Load(context.Background(), "k")
	if err != nil || string(data) != `{"x":1}` {
		t.Fatalf("snapshot = %s, %v", data, err)
	}
}

func TestColdReadWithoutSnapshot(t *testing.T) {
	s, _ := newTestStore(t, nil)
	q := New(s, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errors.New("nope")
	})
	r := q.Get(context.Background())
	if r.HasData || r.Err == nil {
		t.Fatalf("Get() = %+v, want error without data", r)
	}
}

func TestInvalidateNotifiesListenersWithFamilyKeys(t *testing.T) {
	s, _ := newTestStore(t, nil)
	fetch := func(ctx context.Context) (int, error) { return 1, nil }
	New(s, "a", time.Minute, fetch, "x")
	New(s, "b", time.Minute, fetch, "x", "y")
	New(s, "c", time.Minute, fetch, "z")

	var got Event
	s.OnInvalidate(func(ev Event) { got = ev })
	keys := s.Invalidate("y", "x")

	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Invalidate() keys = %v, want [a b]", keys)
	}
	if len(got.Keys) != 2 || len(got.Families) != 2 {
		t.Fatalf("event = %+v", got)
	}
}

func TestInvalidatedReadWaitsForFreshData(t *testing.T) {
	s, _ := newTestStore(t, nil)
	var calls atomic.Int32
	q := New(s, "k", time.Hour, func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, "fam")

	q.Get(context.Background())
	s.Invalidate("fam")
	if r := q.Get(context.Background()); r.Data != 2 || r.Stale {
		t.Fatalf("Get() after invalidate = %+v, want fresh 2", r)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s, _ := newTestStore(t, nil)
	q := New(s, "k", time.Hour, func(ctx context.Context) (string, error) { return "server", nil })
	q.Get(context.Background())

	restore := q.Snapshot()
	q.SetData("optimistic")
	if v, _ := q.Data(); v != "optimistic" {
		t.Fatalf("Data() = %q after SetData", v)
	}
	restore()
	if v, _ := q.Data(); v != "server" {
		t.Fatalf("Data() = %q after restore, want server", v)
	}
}

func TestClearDropsEntries(t *testing.T) {
	s, _ := newTestStore(t, nil)
	q := New(s, "k", time.Hour, func(ctx context.Context) (string, error) { return "v", nil }, "fam")
	q.Get(context.Background())

	s.Clear("fam")
	if _, ok := q.Data(); ok {
		t.Fatalf("Data() still present after Clear")
	}
}

func TestSetDataVisibleUnderContention(t *testing.T) {
	s, _ := newTestStore(t, nil)

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			s.setData(key, i)
			e, ok := s.lookup(key)
			if !ok || e.value != i {
				t.Errorf("lookup(%s) = %v, %v right after setData, want %d", key, e, ok, i)
			}
		}(i)
	}
	wg.Wait()
}
