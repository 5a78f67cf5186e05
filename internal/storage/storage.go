// Package storage persists BackupRecords to an S3-compatible object store
// (Hetzner, MinIO, or AWS itself), mirroring the original system's boto3
// client against a custom endpoint.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
)

// Config configures the S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store is the backup object store. Keys follow
// backups/<device_key>/<YYYY-MM-DD_HH-MM-SS>.json.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New dials the configured S3-compatible endpoint.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPeripheralFailure, "connect to object store", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// TestConnection verifies the bucket is reachable, matching the original's
// head_bucket probe used by the CLI's test-connection command.
func (s *Store) TestConnection(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperr.Wrap(apperr.KindPeripheralFailure, "check bucket", err)
	}
	if !ok {
		return apperr.New(apperr.KindPeripheralFailure, fmt.Sprintf("bucket %q does not exist", s.bucket))
	}
	return nil
}

// key builds the storage key for a device's backup taken at t.
func key(deviceKey string, t time.Time) string {
	return fmt.Sprintf("backups/%s/%s.json", deviceKey, t.Format("2006-01-02_15-04-05"))
}

// Upload serializes record as pretty-printed JSON and stores it, returning
// the object key it was written under.
func (s *Store) Upload(ctx context.Context, record models.BackupRecord, at time.Time) (string, error) {
	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: marshal backup record: %w", err)
	}
	objKey := key(record.DeviceKey, at)
	_, err = s.client.PutObject(ctx, s.bucket, objKey, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindPeripheralFailure, "upload backup", err)
	}
	return objKey, nil
}

// Download fetches and parses the BackupRecord stored under objKey.
func (s *Store) Download(ctx context.Context, objKey string) (models.BackupRecord, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objKey, minio.GetObjectOptions{})
	if err != nil {
		return models.BackupRecord{}, apperr.Wrap(apperr.KindPeripheralFailure, "download backup", err)
	}
	defer obj.Close()

	var record models.BackupRecord
	if err := json.NewDecoder(obj).Decode(&record); err != nil {
		return models.BackupRecord{}, fmt.Errorf("storage: parse backup record %q: %w", objKey, err)
	}
	return record, nil
}

// BackupObject describes one stored backup for listing.
type BackupObject struct {
	Key          string
	DeviceKey    string
	LastModified time.Time
	Size         int64
}

// List returns every stored backup, optionally filtered to one device key,
// sorted reverse by LastModified (newest first).
func (s *Store) List(ctx context.Context, deviceKey string) ([]BackupObject, error) {
	prefix := "backups/"
	if deviceKey != "" {
		prefix = fmt.Sprintf("backups/%s/", deviceKey)
	}

	var out []BackupObject
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, apperr.Wrap(apperr.KindPeripheralFailure, "list backups", obj.Err)
		}
		out = append(out, BackupObject{
			Key:          obj.Key,
			DeviceKey:    deviceKeyFromKey(obj.Key),
			LastModified: obj.LastModified,
			Size:         obj.Size,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

func deviceKeyFromKey(objKey string) string {
	trimmed := strings.TrimPrefix(objKey, "backups/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Delete removes a stored backup.
func (s *Store) Delete(ctx context.Context, objKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objKey, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Wrap(apperr.KindPeripheralFailure, "delete backup", err)
	}
	return nil
}

// CleanupOldBackups deletes every stored backup whose LastModified predates
// now-retentionDays, returning how many were removed.
func (s *Store) CleanupOldBackups(ctx context.Context, retentionDays int, now time.Time) (int, error) {
	all, err := s.List(ctx, "")
	if err != nil {
		return 0, err
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, obj := range all {
		if obj.LastModified.Before(cutoff) {
			if err := s.Delete(ctx, obj.Key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
