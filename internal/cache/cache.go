// Package cache holds the per-device attendance snapshot: a background
// refresh fetches the full record set from a device (which can take well
// over a minute on a large terminal) and publishes it atomically, so reads
// never block on device I/O.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
)

// ErrMiss is returned by Get/Count/Raw when a device has never had a
// successful refresh.
var ErrMiss = errors.New("cache: miss")

// Fetcher is the narrow dependency the cache needs from the connection
// manager: given a device key, pull its full attendance set. *device.Pool
// satisfies this directly.
type Fetcher interface {
	FetchAttendance(ctx context.Context, key string) ([]models.Attendance, error)
}

type entry struct {
	records   []models.Attendance
	fetchedAt *time.Time
	count     int
	isLoading bool
	err       string
	done      *sync.Cond
}

// Cache is the attendance cache, safe for concurrent use by the scheduler
// and by ad-hoc HTTP/CLI reads.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	fetcher Fetcher
	logger  *slog.Logger
}

// New builds a Cache over fetcher. A nil logger discards log output.
func New(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Cache{
		entries: make(map[string]*entry),
		fetcher: fetcher,
		logger:  logger,
	}
}

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		e.done = sync.NewCond(&c.mu)
		c.entries[key] = e
	}
	return e
}

// Refresh fetches the device's full attendance set and atomically publishes
// it, returning the new count. Two concurrent refreshes of the same key
// execute phase 2 (the device I/O) at most once: the second caller blocks
// until the first completes and observes the same result.
func (c *Cache) Refresh(ctx context.Context, key string) (int, error) {
	c.mu.Lock()
	e := c.entryLocked(key)

	if e.isLoading {
		for e.isLoading {
			e.done.Wait()
		}
		count, errMsg := e.count, e.err
		c.mu.Unlock()
		if errMsg != "" {
			return 0, apperr.New(apperr.KindOffline, errMsg)
		}
		return count, nil
	}

	e.isLoading = true
	e.err = ""
	c.mu.Unlock()

	records, fetchErr := c.fetcher.FetchAttendance(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer e.done.Broadcast()

	e.isLoading = false
	if fetchErr != nil {
		e.err = fmt.Sprintf("%v", fetchErr)
		c.logger.Warn("attendance refresh failed", "device", key, "error", fetchErr)
		return 0, apperr.Wrap(apperr.KindOffline, fmt.Sprintf("refresh attendance for %q", key), fetchErr)
	}

	now := time.Now().UTC()
	e.records = records
	e.fetchedAt = &now
	e.count = len(records)
	e.err = ""
	return e.count, nil
}

// snapshot captures the current published records and fetchedAt under the
// lock, for the caller to filter/sort without holding it.
func (c *Cache) snapshot(key string) ([]models.Attendance, *time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.fetchedAt == nil {
		return nil, nil, false
	}
	return e.records, e.fetchedAt, true
}

// Get returns the filtered, time-sorted attendance for key. from/to are
// inclusive bounds; a nil bound is unbounded. Returns ErrMiss if key has
// never had a successful refresh.
func (c *Cache) Get(key string, from, to *time.Time) ([]models.Attendance, error) {
	records, _, ok := c.snapshot(key)
	if !ok {
		return nil, ErrMiss
	}

	return FilterSort(records, from, to), nil
}

// FilterSort applies the same inclusive from/to filter and stable
// timestamp sort Get uses internally. Exported so the domain facade's
// cache-miss fallback (a direct device read) produces identical semantics.
func FilterSort(records []models.Attendance, from, to *time.Time) []models.Attendance {
	filtered := make([]models.Attendance, 0, len(records))
	for _, a := range records {
		if from != nil && a.Timestamp.Before(*from) {
			continue
		}
		if to != nil && a.Timestamp.After(*to) {
			continue
		}
		filtered = append(filtered, a)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})
	return filtered
}

// Count returns the O(1) cached record count, or ErrMiss.
func (c *Cache) Count(key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.fetchedAt == nil {
		return 0, ErrMiss
	}
	return e.count, nil
}

// Raw returns an unfiltered copy of the current snapshot, or ErrMiss. Used
// by the backup path, which wants the full record set as-is.
func (c *Cache) Raw(key string) ([]models.Attendance, error) {
	records, _, ok := c.snapshot(key)
	if !ok {
		return nil, ErrMiss
	}
	out := make([]models.Attendance, len(records))
	copy(out, records)
	return out, nil
}

// Status returns the cache metadata for key, even if it has never been
// refreshed (cached=false in that case — never ErrMiss).
func (c *Cache) Status(key string) models.CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return models.CacheStatus{Device: key}
	}
	return models.CacheStatus{
		Device:    key,
		Cached:    e.fetchedAt != nil,
		FetchedAt: e.fetchedAt,
		Count:     e.count,
		IsLoading: e.isLoading,
		Error:     e.err,
	}
}

// AllStatuses returns the status of every device the cache has ever seen
// (i.e. at least one Refresh has been attempted).
func (c *Cache) AllStatuses() map[string]models.CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]models.CacheStatus, len(c.entries))
	for key, e := range c.entries {
		out[key] = models.CacheStatus{
			Device:    key,
			Cached:    e.fetchedAt != nil,
			FetchedAt: e.fetchedAt,
			Count:     e.count,
			IsLoading: e.isLoading,
			Error:     e.err,
		}
	}
	return out
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
