package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/cache"
	"github.com/abcfood/fingerprint-mw/internal/device"
	"github.com/abcfood/fingerprint-mw/internal/domain"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/storage"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

func testConfigs() []models.DeviceConfig {
	return []models.DeviceConfig{
		{Key: "tmi", Name: "Main Entrance", IP: "10.0.0.1", Port: 4370},
	}
}

func newFixture(t *testing.T) (*domain.Facade, *zkproto.Mock, *cache.Cache, *fakeStore) {
	t.Helper()
	mock := zkproto.NewMock()
	dialer := zkproto.NewMockDialer()
	dialer.Add("tmi", mock)
	pool := device.New(testConfigs(), dialer, nil)
	c := cache.New(pool, nil)
	store := &fakeStore{}
	f := domain.New(pool, c, store, nil, nil)
	return f, mock, c, store
}

type fakeStore struct {
	uploaded []models.BackupRecord
	objects  []storage.BackupObject
	download models.BackupRecord
	downErr  error
}

func (s *fakeStore) Upload(ctx context.Context, record models.BackupRecord, at time.Time) (string, error) {
	s.uploaded = append(s.uploaded, record)
	return "backups/" + record.DeviceKey + "/x.json", nil
}

func (s *fakeStore) Download(ctx context.Context, objKey string) (models.BackupRecord, error) {
	if s.downErr != nil {
		return models.BackupRecord{}, s.downErr
	}
	return s.download, nil
}

func (s *fakeStore) List(ctx context.Context, deviceKey string) ([]storage.BackupObject, error) {
	return s.objects, nil
}

func (s *fakeStore) CleanupOldBackups(ctx context.Context, retentionDays int, now time.Time) (int, error) {
	return 0, nil
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return tm
}

func TestFacade_GetAttendance_CacheHitFiltersAndSorts(t *testing.T) {
	f, mock, c, _ := newFixture(t)
	mock.Attendance = []models.Attendance{
		{UID: 1, Timestamp: mustTime(t, "2024-01-02T08:00:00Z")},
		{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00:00Z")},
	}
	if _, err := c.Refresh(context.Background(), "tmi"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, err := f.GetAttendance(context.Background(), "tmi", nil, nil, true)
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if len(got) != 2 || !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatalf("expected sorted ascending, got %+v", got)
	}
}

func TestFacade_GetAttendance_CacheMissFallsBackToDevice(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	mock.Attendance = []models.Attendance{{UID: 1, Timestamp: mustTime(t, "2024-01-01T08:00:00Z")}}

	got, err := f.GetAttendance(context.Background(), "tmi", nil, nil, true)
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record from live fallback, got %d", len(got))
	}
}

func TestFacade_CountAttendance_CacheHit(t *testing.T) {
	f, mock, c, _ := newFixture(t)
	mock.Attendance = []models.Attendance{{UID: 1}, {UID: 2}}
	if _, err := c.Refresh(context.Background(), "tmi"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	mock.Attendance = nil // prove the count doesn't re-hit the device

	count, err := f.CountAttendance(context.Background(), "tmi")
	if err != nil {
		t.Fatalf("CountAttendance: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestFacade_CountAttendance_CacheMissFallsBackToReadSizes(t *testing.T) {
	f, mock, _, _ := newFixture(t)
	mock.Attendance = []models.Attendance{{UID: 1}, {UID: 2}, {UID: 3}}

	count, err := f.CountAttendance(context.Background(), "tmi")
	if err != nil {
		t.Fatalf("CountAttendance: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3 (from read_sizes fallback)", count)
	}
}

func TestFacade_RunBackup_PrefersCachedAttendance(t *testing.T) {
	f, mock, c, store := newFixture(t)
	mock.Users = []models.User{{UID: 1, UserID: "e1", Name: "Alice"}}
	mock.Fingerprints = []models.Fingerprint{{UID: 1, FingerIndex: 0, Template: "abc"}}
	mock.Attendance = []models.Attendance{{UID: 1}}
	if _, err := c.Refresh(context.Background(), "tmi"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	key, err := f.RunBackup(context.Background(), "tmi", true)
	if err != nil {
		t.Fatalf("RunBackup: %v", err)
	}
	if key == "" {
		t.Fatalf("expected non-empty storage key")
	}
	if len(store.uploaded) != 1 {
		t.Fatalf("expected exactly one upload, got %d", len(store.uploaded))
	}
	rec := store.uploaded[0]
	if rec.UserCount != 1 || rec.FingerprintCount != 1 || rec.AttendanceCount != 1 {
		t.Fatalf("unexpected record counts: %+v", rec)
	}
}

func TestFacade_RunBackup_NoStorageConfigured(t *testing.T) {
	mock := zkproto.NewMock()
	dialer := zkproto.NewMockDialer()
	dialer.Add("tmi", mock)
	pool := device.New(testConfigs(), dialer, nil)
	c := cache.New(pool, nil)
	f := domain.New(pool, c, nil, nil, nil)

	if _, err := f.RunBackup(context.Background(), "tmi", false); !apperr.Is(err, apperr.KindPeripheralFailure) {
		t.Fatalf("expected KindPeripheralFailure, got %v", err)
	}
}

func TestFacade_RestoreBackup_DryRunAppliesNoWrites(t *testing.T) {
	f, mock, _, store := newFixture(t)
	store.download = models.BackupRecord{
		DeviceKey: "tmi",
		Users:     []models.User{{UID: 1, UserID: "e1", Name: "Alice"}},
		Fingerprints: []models.Fingerprint{
			{UID: 1, FingerIndex: 0, Template: "abc"},
		},
	}

	result, err := f.RestoreBackup(context.Background(), "backups/tmi/x.json", "", true)
	if err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if result.UsersApplied != 1 || result.FingerprintsApplied != 1 {
		t.Fatalf("unexpected dry-run result: %+v", result)
	}
	for _, call := range mock.Calls {
		if call == "SetUser" || call == "SetFingerprint" {
			t.Fatalf("dry run must not write to the device, saw call %q", call)
		}
	}
}

func TestFacade_RestoreBackup_AppliesWritesWhenNotDryRun(t *testing.T) {
	f, mock, _, store := newFixture(t)
	store.download = models.BackupRecord{
		DeviceKey: "tmi",
		Users:     []models.User{{UID: 1, UserID: "e1", Name: "Alice"}},
		Fingerprints: []models.Fingerprint{
			{UID: 1, FingerIndex: 0, Template: "abc"},
		},
	}

	result, err := f.RestoreBackup(context.Background(), "backups/tmi/x.json", "", false)
	if err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if result.UsersApplied != 1 || result.FingerprintsApplied != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(mock.Users) != 1 {
		t.Fatalf("expected user to be written to the device")
	}
}

func TestFacade_RestoreBackup_FingerprintFailureIsSkippedNotFatal(t *testing.T) {
	f, mock, _, store := newFixture(t)
	store.download = models.BackupRecord{
		DeviceKey: "tmi",
		Fingerprints: []models.Fingerprint{
			{UID: 1, FingerIndex: 0, Template: "abc"},
		},
	}
	mock.Err = errors.New("peripheral busy")

	result, err := f.RestoreBackup(context.Background(), "backups/tmi/x.json", "", false)
	if err != nil {
		t.Fatalf("RestoreBackup should not fail on fingerprint write errors: %v", err)
	}
	if result.FingerprintsSkipped != 1 || result.FingerprintsApplied != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFacade_ListBackups(t *testing.T) {
	f, _, _, store := newFixture(t)
	store.objects = []storage.BackupObject{{Key: "backups/tmi/a.json", DeviceKey: "tmi"}}

	got, err := f.ListBackups(context.Background(), "tmi")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 backup object, got %d", len(got))
	}
}
