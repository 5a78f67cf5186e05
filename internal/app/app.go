// Package app wires the fingerprint middleware's components together and
// manages their startup and shutdown order: Settings → Pool → Cache →
// Scheduler → HTTP API, torn down in reverse.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/api"
	"github.com/abcfood/fingerprint-mw/internal/cache"
	"github.com/abcfood/fingerprint-mw/internal/config"
	"github.com/abcfood/fingerprint-mw/internal/device"
	"github.com/abcfood/fingerprint-mw/internal/domain"
	"github.com/abcfood/fingerprint-mw/internal/hris"
	"github.com/abcfood/fingerprint-mw/internal/notify"
	"github.com/abcfood/fingerprint-mw/internal/scheduler"
	"github.com/abcfood/fingerprint-mw/internal/storage"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

// App owns every long-lived component and its lifecycle.
type App struct {
	Settings *config.Settings
	Pool     *device.Pool
	Cache    *cache.Cache
	Facade   *domain.Facade

	logger    *slog.Logger
	scheduler *scheduler.Scheduler
	notifier  *notify.Notifier
	server    *http.Server
	storage   *storage.Store
}

// New builds an App from already-loaded settings, without starting
// anything. A nil logger defaults to a stderr handler at settings.LogLevel:
// JSON when Environment is "production", text otherwise.
func New(settings *config.Settings, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = defaultLogger(settings)
	}

	devices, err := config.LoadDevices(settings.DevicesConfigPath)
	if err != nil {
		return nil, fmt.Errorf("app: load devices: %w", err)
	}

	pool := device.New(devices, zkproto.TCPDialer{}, logger.With("component", "device"))
	c := cache.New(pool, logger.With("component", "cache"))

	var store domain.BackupStore
	var objStore *storage.Store
	if settings.S3Bucket != "" {
		s, err := storage.New(storage.Config{
			Endpoint:  settings.S3Endpoint,
			AccessKey: settings.S3AccessKey,
			SecretKey: settings.S3SecretKey,
			Bucket:    settings.S3Bucket,
			Region:    settings.S3Region,
			UseSSL:    settings.S3UseSSL,
		}, logger.With("component", "storage"))
		if err != nil {
			return nil, fmt.Errorf("app: init storage: %w", err)
		}
		store = s
		objStore = s
	}

	var hrisClient domain.EmployeeLister
	if settings.HRISBaseURL != "" {
		hrisClient = hris.New(hris.Config{BaseURL: settings.HRISBaseURL, APIKey: settings.HRISAPIKey})
	}

	facade := domain.New(pool, c, store, hrisClient, logger.With("component", "domain"))
	notifier := notify.New(notify.Config{
		TelegramBotToken: settings.TelegramBotToken,
		TelegramChatID:   settings.TelegramChatID,
		MattermostURL:    settings.MattermostWebhookURL,
	}, logger.With("component", "notify"))

	return &App{
		Settings: settings,
		Pool:     pool,
		Cache:    c,
		Facade:   facade,
		logger:   logger,
		notifier: notifier,
		storage:  objStore,
	}, nil
}

// TestConnections probes every configured device and, if backup storage is
// configured, the object store bucket — the connectivity check behind the
// CLI's test-connection command.
func (a *App) TestConnections(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, key := range a.Pool.Keys() {
		slot, err := a.Pool.Client(key)
		if err != nil {
			results["device:"+key] = err
			continue
		}
		results["device:"+key] = slot.Ping(ctx)
	}
	if a.storage != nil {
		results["object_store"] = a.storage.TestConnection(ctx)
	}
	return results
}

// Start builds the scheduler (if enabled) and the HTTP server and starts
// both. It does not block: the caller's own signal handling owns the
// process lifetime and calls Stop.
func (a *App) Start(ctx context.Context) error {
	if a.Settings.SchedulerEnabled {
		a.scheduler = scheduler.New(a.Pool.Keys(), a.Cache, scheduler.Config{
			RefreshInterval: time.Duration(a.Settings.CacheRefreshMinutes) * time.Minute,
			BackupHourUTC:   a.Settings.BackupHourUTC,
			BackupMinuteUTC: a.Settings.BackupMinuteUTC,
		}, a.backupJob, a.cleanupJob, a.sendNotification, a.logger.With("component", "scheduler"))
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("app: start scheduler: %w", err)
		}
	}

	router := api.NewRouter(a.Facade, api.Config{
		APIKey:         a.Settings.APIKey,
		CORSOrigins:    a.Settings.APICORSOrigins,
		DeviceCount:    len(a.Pool.Keys()),
		SchedulerState: a.schedulerRunning,
	}, a.logger.With("component", "api"))

	a.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.Settings.APIHost, a.Settings.APIPort),
		Handler: router,
	}

	go func() {
		a.logger.Info("app: http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("app: http server stopped unexpectedly", "error", err.Error())
		}
	}()

	return nil
}

// Stop shuts down the HTTP server and scheduler, in the reverse order they
// were started.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("app: shutting down")

	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("app: http shutdown: %w", err)
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	a.logger.Info("app: shutdown complete")
	return firstErr
}

func (a *App) schedulerRunning() bool {
	if a.scheduler == nil {
		return false
	}
	return a.scheduler.Running()
}

func (a *App) backupJob(ctx context.Context, deviceKey string) error {
	_, err := a.Facade.RunBackup(ctx, deviceKey, true)
	return err
}

func (a *App) cleanupJob(ctx context.Context) error {
	return a.Facade.CleanupOldBackups(ctx, a.Settings.BackupRetentionDays)
}

func (a *App) sendNotification(ctx context.Context, subject, detail string) {
	a.notifier.Notify(ctx, subject, detail)
}

func defaultLogger(settings *config.Settings) *slog.Logger {
	level := slog.LevelInfo
	if settings != nil {
		switch settings.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	var handler slog.Handler
	if settings != nil && settings.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
