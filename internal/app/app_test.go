package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/app"
	"github.com/abcfood/fingerprint-mw/internal/config"
)

func writeDevicesYAML(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	content := "devices:\n  tmi:\n    ip: 10.0.0.1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write devices yaml: %v", err)
	}
	return path
}

func testSettings(t *testing.T) *config.Settings {
	return &config.Settings{
		Environment:         "test",
		APIHost:             "127.0.0.1",
		APIPort:             0,
		APIKey:              "secret",
		DevicesConfigPath:   writeDevicesYAML(t),
		SchedulerEnabled:    false,
		CacheRefreshMinutes: 5,
		BackupHourUTC:       18,
		BackupRetentionDays: 30,
	}
}

func TestApp_NewLoadsDevicesAndBuildsFacade(t *testing.T) {
	a, err := app.New(testSettings(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(a.Pool.Keys()) != 1 || a.Pool.Keys()[0] != "tmi" {
		t.Fatalf("unexpected pool keys: %v", a.Pool.Keys())
	}
}

func TestApp_StartAndStop(t *testing.T) {
	a, err := app.New(testSettings(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// give the listener goroutine a moment to bind.
	time.Sleep(50 * time.Millisecond)

	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestApp_StartWithSchedulerDisabled(t *testing.T) {
	settings := testSettings(t)
	settings.SchedulerEnabled = false
	a, err := app.New(settings, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop(ctx)
	time.Sleep(20 * time.Millisecond)
}
