package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

type fakeFetcher struct {
	mu       sync.Mutex
	records  []models.Attendance
	err      error
	delay    time.Duration
	calls    int32
	inflight int32
	maxConcurrent int32
}

func (f *fakeFetcher) FetchAttendance(ctx context.Context, key string) ([]models.Attendance, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		max := atomic.LoadInt32(&f.maxConcurrent)
		if cur <= max {
			break
		}
		if atomic.CompareAndSwapInt32(&f.maxConcurrent, max, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Attendance, len(f.records))
	copy(out, f.records)
	return out, nil
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts.UTC()
}

func TestRefreshThenGet_FilteredSorted(t *testing.T) {
	fetcher := &fakeFetcher{records: []models.Attendance{
		{UID: 1, Timestamp: mustTime(t, "2024-01-01T10:00")},
		{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00")},
		{UID: 1, Timestamp: mustTime(t, "2024-01-01T09:00")},
	}}
	c := New(fetcher, nil)

	count, err := c.Refresh(context.Background(), "tmi")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	from := mustTime(t, "2024-01-01T00:00")
	to := mustTime(t, "2024-01-01T09:30")
	got, err := c.Get("tmi", &from, &to)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Errorf("records not sorted: %+v", got)
	}
	if got[0].Timestamp != mustTime(t, "2024-01-01T08:00") {
		t.Errorf("first record = %v, want 08:00", got[0].Timestamp)
	}
}

func TestGet_MissBeforeFirstRefresh(t *testing.T) {
	c := New(&fakeFetcher{}, nil)
	if _, err := c.Get("tmi", nil, nil); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get before refresh = %v, want ErrMiss", err)
	}
	if _, err := c.Count("tmi"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Count before refresh = %v, want ErrMiss", err)
	}
}

func TestRefreshFailurePreservesStaleSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{records: []models.Attendance{{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00")}}}
	c := New(fetcher, nil)

	if _, err := c.Refresh(context.Background(), "tmi"); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	fetcher.err = errors.New("device offline")
	if _, err := c.Refresh(context.Background(), "tmi"); err == nil {
		t.Fatal("expected second refresh to fail")
	}

	status := c.Status("tmi")
	if status.Error == "" {
		t.Error("expected status.Error to be set")
	}
	if !status.Cached {
		t.Error("expected stale snapshot to remain cached")
	}

	got, err := c.Get("tmi", nil, nil)
	if err != nil {
		t.Fatalf("Get after failed refresh: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected stale snapshot preserved, got %d records", len(got))
	}
}

func TestRefreshFailure_FirstEverIsStillMiss(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("device offline")}
	c := New(fetcher, nil)

	if _, err := c.Refresh(context.Background(), "tmi"); err == nil {
		t.Fatal("expected refresh to fail")
	}
	if _, err := c.Get("tmi", nil, nil); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after first-ever failed refresh = %v, want ErrMiss", err)
	}
}

func TestRefresh_SingleFlightSameKey(t *testing.T) {
	fetcher := &fakeFetcher{
		records: []models.Attendance{{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00")}},
		delay:   50 * time.Millisecond,
	}
	c := New(fetcher, nil)

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := c.Refresh(context.Background(), "tmi")
			if err != nil {
				t.Errorf("Refresh[%d]: %v", i, err)
				return
			}
			results[i] = n
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Errorf("fetcher called %d times, want exactly 1 for concurrent refreshes of the same key", got)
	}
	for i, n := range results {
		if n != 1 {
			t.Errorf("result[%d] = %d, want 1", i, n)
		}
	}
}

func TestRefresh_DifferentDevicesConcurrent(t *testing.T) {
	fetcher := &fakeFetcher{
		records: []models.Attendance{{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00")}},
		delay:   30 * time.Millisecond,
	}
	c := New(fetcher, nil)

	var wg sync.WaitGroup
	for _, key := range []string{"tmi", "tso", "outsourcing"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if _, err := c.Refresh(context.Background(), key); err != nil {
				t.Errorf("Refresh(%s): %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&fetcher.maxConcurrent); got < 2 {
		t.Errorf("max concurrent fetches = %d, want refreshes of different devices to overlap", got)
	}
}

func TestStatus_UnknownKeyDoesNotPanic(t *testing.T) {
	c := New(&fakeFetcher{}, nil)
	status := c.Status("never-seen")
	if status.Cached {
		t.Error("expected Cached=false for a key with no entry")
	}
}
