// Package scheduler drives the three recurring job families this service
// runs in the background: per-device attendance cache refreshes, per-device
// daily backups, and a daily cleanup of expired backups. Per-device refreshes
// and backups are staggered by fixed offsets so the devices do not all start
// at the same instant.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abcfood/fingerprint-mw/internal/cache"
)

// Config holds the global scheduling policy, sourced from environment
// variables (CACHE_REFRESH_MINUTES, BACKUP_HOUR_UTC, BACKUP_MINUTE_UTC).
type Config struct {
	RefreshInterval time.Duration
	BackupHourUTC   int
	BackupMinuteUTC int
}

// BackupFunc runs a full backup for one device key.
type BackupFunc func(ctx context.Context, deviceKey string) error

// CleanupFunc enumerates stored backups and deletes those past retention.
type CleanupFunc func(ctx context.Context) error

// NotifyFunc fires the notification hook for every failed job and for every
// completed backup. It must
// not block the scheduler for long; implementations should apply their own
// timeout.
type NotifyFunc func(ctx context.Context, subject, detail string)

// Scheduler owns the cron registry. It is built once at startup and Start
// is called at most effectively-once: a second Start while already running
// is a no-op, matching the "returns the existing handle" contract.
type Scheduler struct {
	mu         sync.Mutex
	running    bool
	cron       *cron.Cron
	cache      *cache.Cache
	deviceKeys []string
	cfg        Config
	backupFn   BackupFunc
	cleanupFn  CleanupFunc
	notify     NotifyFunc
	logger     *slog.Logger
}

// New builds a Scheduler for the given device keys (a key's stagger index is
// its position in sorted order), driving refreshes against c. backupFn/cleanupFn/notify may
// be nil in which case that job family is skipped / failures are only
// logged.
func New(deviceKeys []string, c *cache.Cache, cfg Config, backupFn BackupFunc, cleanupFn CleanupFunc, notify NotifyFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	keys := make([]string, len(deviceKeys))
	copy(keys, deviceKeys)
	sort.Strings(keys)
	return &Scheduler{
		cache:      c,
		deviceKeys: keys,
		cfg:        cfg,
		backupFn:   backupFn,
		cleanupFn:  cleanupFn,
		notify:     notify,
		logger:     logger,
	}
}

// Start registers every job family and begins firing. Calling Start while
// already running is a no-op. Every job this scheduler fires runs with ctx,
// so cancelling ctx cancels the jobs' work; it does not stop the cron
// engine, which only Stop does.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	base := time.Now().UTC()
	adapter := cronLogAdapter{logger: s.logger}
	engine := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	for i, key := range s.deviceKeys {
		sched := staggeredSchedule{
			first:    base.Add(time.Duration(i) * 60 * time.Second),
			interval: s.cfg.RefreshInterval,
		}
		k := key
		engine.Schedule(sched, cron.FuncJob(func() { s.runRefresh(ctx, k) }))
	}

	for i, key := range s.deviceKeys {
		expr, err := backupCronExpr(s.cfg.BackupHourUTC, s.cfg.BackupMinuteUTC, i)
		if err != nil {
			return fmt.Errorf("scheduler: backup schedule for %q: %w", key, err)
		}
		k := key
		if _, err := engine.AddFunc(expr, func() { s.runBackup(ctx, k) }); err != nil {
			return fmt.Errorf("scheduler: register backup job for %q: %w", key, err)
		}
	}

	cleanupExpr := fmt.Sprintf("0 %d * * *", (s.cfg.BackupHourUTC+1)%24)
	if _, err := engine.AddFunc(cleanupExpr, func() { s.runCleanup(ctx) }); err != nil {
		return fmt.Errorf("scheduler: register cleanup job: %w", err)
	}

	engine.Start()
	s.cron = engine
	s.running = true
	return nil
}

// Stop requests shutdown without waiting for in-flight jobs: no new fires
// are scheduled, but a job already running is left to finish on its own
// goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runRefresh(ctx context.Context, key string) {
	count, err := s.cache.Refresh(ctx, key)
	if err != nil {
		s.logger.Error("cache refresh failed", "device", key, "error", err)
		s.notifyFailure(ctx, "cache refresh failed", fmt.Sprintf("device=%s: %v", key, err))
		return
	}
	s.logger.Info("cache refreshed", "device", key, "count", count)
}

func (s *Scheduler) runBackup(ctx context.Context, key string) {
	if s.backupFn == nil {
		return
	}
	if err := s.backupFn(ctx, key); err != nil {
		s.logger.Error("backup failed", "device", key, "error", err)
		s.notifyFailure(ctx, "backup failed", fmt.Sprintf("device=%s: %v", key, err))
		return
	}
	s.logger.Info("backup completed", "device", key)
	if s.notify != nil {
		s.notify(ctx, "backup completed", fmt.Sprintf("device=%s", key))
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if s.cleanupFn == nil {
		return
	}
	if err := s.cleanupFn(ctx); err != nil {
		s.logger.Error("backup cleanup failed", "error", err)
		s.notifyFailure(ctx, "backup cleanup failed", err.Error())
		return
	}
	s.logger.Info("backup cleanup completed")
}

func (s *Scheduler) notifyFailure(ctx context.Context, subject, detail string) {
	if s.notify == nil {
		return
	}
	s.notify(ctx, subject, detail)
}

// backupCronExpr builds the standard 5-field cron expression for device
// index i's daily backup: minute = baseMinute + 5*i, rolling into the hour
// as needed, hour = baseHour + that carry, wrapping at 24.
func backupCronExpr(baseHour, baseMinute, i int) (string, error) {
	if baseHour < 0 || baseHour > 23 {
		return "", fmt.Errorf("scheduler: invalid backup hour %d", baseHour)
	}
	if baseMinute < 0 || baseMinute > 59 {
		return "", fmt.Errorf("scheduler: invalid backup minute %d", baseMinute)
	}
	total := baseMinute + 5*i
	minute := total % 60
	hour := (baseHour + total/60) % 24
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
