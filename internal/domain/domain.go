// Package domain is the thin, stateless facade tying the device pool,
// attendance cache, backup store, and HRIS client together into the
// operations the HTTP API and CLI actually call. It holds no state of its
// own beyond references to its collaborators.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/cache"
	"github.com/abcfood/fingerprint-mw/internal/device"
	"github.com/abcfood/fingerprint-mw/internal/hris"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/storage"
)

// BackupStore is the narrow dependency the facade needs from the backup
// object store. *storage.Store satisfies this directly.
type BackupStore interface {
	Upload(ctx context.Context, record models.BackupRecord, at time.Time) (string, error)
	Download(ctx context.Context, objKey string) (models.BackupRecord, error)
	List(ctx context.Context, deviceKey string) ([]storage.BackupObject, error)
	CleanupOldBackups(ctx context.Context, retentionDays int, now time.Time) (int, error)
}

// EmployeeLister is the narrow dependency the facade needs from the HRIS
// client. *hris.Client satisfies this directly.
type EmployeeLister interface {
	ListEmployees(ctx context.Context) ([]hris.Employee, error)
}

// Facade exposes every domain-level operation the API and CLI layers call.
type Facade struct {
	pool    *device.Pool
	cache   *cache.Cache
	storage BackupStore
	hris    EmployeeLister
	logger  *slog.Logger
}

// New builds a Facade. store and hrisClient may be nil if backups/HRIS sync
// are not configured; calling an operation that needs them then fails with
// apperr.KindPeripheralFailure.
func New(pool *device.Pool, c *cache.Cache, store BackupStore, hrisClient EmployeeLister, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Facade{pool: pool, cache: c, storage: store, hris: hrisClient, logger: logger}
}

// GetAttendance returns filtered, sorted attendance for key. When useCache
// is true and the cache has a snapshot, it is used; on a cache miss (or
// when useCache is false) this falls back to a live device read, applying
// the same filter/sort rules the cache itself uses.
func (f *Facade) GetAttendance(ctx context.Context, key string, from, to *time.Time, useCache bool) ([]models.Attendance, error) {
	if useCache {
		records, err := f.cache.Get(key, from, to)
		if err == nil {
			return records, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			return nil, err
		}
	}

	slot, err := f.pool.Client(key)
	if err != nil {
		return nil, err
	}
	all, err := slot.GetAttendance(ctx)
	if err != nil {
		return nil, err
	}
	return cache.FilterSort(all, from, to), nil
}

// CountAttendance prefers the cached count; on a cache miss it falls back
// to the device's fast read_sizes call rather than a full attendance pull.
func (f *Facade) CountAttendance(ctx context.Context, key string) (int, error) {
	count, err := f.cache.Count(key)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return 0, err
	}

	slot, err := f.pool.Client(key)
	if err != nil {
		return 0, err
	}
	sizes, err := slot.ReadSizes(ctx)
	if err != nil {
		return 0, err
	}
	return sizes.Records, nil
}

// RunBackup reads the device's full user/fingerprint set (and, if
// includeAttendance, its attendance — preferring the cache's raw snapshot
// over a fresh device pull), serializes a BackupRecord, and uploads it.
// Returns the storage key the backup was written under.
func (f *Facade) RunBackup(ctx context.Context, key string, includeAttendance bool) (string, error) {
	if f.storage == nil {
		return "", apperr.New(apperr.KindPeripheralFailure, "backup storage is not configured")
	}
	slot, err := f.pool.Client(key)
	if err != nil {
		return "", err
	}
	cfg, _ := f.pool.Config(key)

	users, err := slot.GetUsers(ctx)
	if err != nil {
		return "", err
	}
	fps, err := slot.GetTemplates(ctx)
	if err != nil {
		return "", err
	}

	var attendance []models.Attendance
	if includeAttendance {
		if raw, err := f.cache.Raw(key); err == nil {
			attendance = raw
		} else if !errors.Is(err, cache.ErrMiss) {
			return "", err
		} else {
			attendance, err = slot.GetAttendance(ctx)
			if err != nil {
				return "", err
			}
		}
	}

	now := time.Now().UTC()
	record := models.BackupRecord{
		DeviceKey:        key,
		DeviceName:       cfg.Name,
		Timestamp:        now.Format(time.RFC3339),
		Users:            users,
		Fingerprints:     fps,
		Attendance:       attendance,
		UserCount:        len(users),
		FingerprintCount: len(fps),
		AttendanceCount:  len(attendance),
	}
	return f.storage.Upload(ctx, record, now)
}

// RestoreResult reports what a restore applied.
type RestoreResult struct {
	UsersApplied        int
	FingerprintsApplied int
	FingerprintsSkipped int
}

// RestoreBackup downloads and parses the stored BackupRecord at objKey and
// applies it to target (or the record's own device key, if target is
// empty). In dry-run mode it only reports the counts it would apply.
// User-write failures propagate; fingerprint-write failures are logged and
// skipped (best-effort per-template restore).
func (f *Facade) RestoreBackup(ctx context.Context, objKey, target string, dryRun bool) (RestoreResult, error) {
	if f.storage == nil {
		return RestoreResult{}, apperr.New(apperr.KindPeripheralFailure, "backup storage is not configured")
	}
	record, err := f.storage.Download(ctx, objKey)
	if err != nil {
		return RestoreResult{}, err
	}
	if target == "" {
		target = record.DeviceKey
	}

	if dryRun {
		return RestoreResult{
			UsersApplied:        len(record.Users),
			FingerprintsApplied: len(record.Fingerprints),
		}, nil
	}

	slot, err := f.pool.Client(target)
	if err != nil {
		return RestoreResult{}, err
	}

	for _, u := range record.Users {
		if err := slot.SetUser(ctx, u); err != nil {
			return RestoreResult{}, fmt.Errorf("restore user %s: %w", u.UserID, err)
		}
	}

	result := RestoreResult{UsersApplied: len(record.Users)}
	for _, fp := range record.Fingerprints {
		if err := slot.SetFingerprint(ctx, fp.UID, fp.FingerIndex, fp.Template); err != nil {
			f.logger.Warn("fingerprint restore failed, skipping", "device", target, "uid", fp.UID, "finger_index", fp.FingerIndex, "error", err)
			result.FingerprintsSkipped++
			continue
		}
		result.FingerprintsApplied++
	}
	return result, nil
}

// CleanupOldBackups deletes every stored backup older than retentionDays.
func (f *Facade) CleanupOldBackups(ctx context.Context, retentionDays int) error {
	if f.storage == nil {
		return apperr.New(apperr.KindPeripheralFailure, "backup storage is not configured")
	}
	_, err := f.storage.CleanupOldBackups(ctx, retentionDays, time.Now().UTC())
	return err
}

// ListBackups lists stored backups, optionally filtered to one device.
func (f *Facade) ListBackups(ctx context.Context, deviceKey string) ([]storage.BackupObject, error) {
	if f.storage == nil {
		return nil, apperr.New(apperr.KindPeripheralFailure, "backup storage is not configured")
	}
	return f.storage.List(ctx, deviceKey)
}

// CacheStatus returns the attendance cache's metadata for one device,
// without touching the device itself.
func (f *Facade) CacheStatus(key string) models.CacheStatus {
	return f.cache.Status(key)
}

// AllCacheStatuses returns the cache metadata for every device the cache
// has ever attempted a refresh for.
func (f *Facade) AllCacheStatuses() map[string]models.CacheStatus {
	return f.cache.AllStatuses()
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
