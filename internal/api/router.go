// Package api exposes the Domain Facade over JSON/HTTP using chi, with
// X-API-Key auth, an origin allow-list, and per-request logging.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abcfood/fingerprint-mw/internal/domain"
)

// Config controls router construction.
type Config struct {
	APIKey         string
	CORSOrigins    []string
	DeviceCount    int
	SchedulerState func() bool
}

// NewRouter builds the full /api/v1 route tree over facade.
func NewRouter(facade *domain.Facade, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.SchedulerState == nil {
		cfg.SchedulerState = func() bool { return false }
	}

	h := &handlers{facade: facade, logger: logger, cfg: cfg}

	r := chi.NewRouter()
	r.Use(requestLogMiddleware(logger))

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(cfg.APIKey))
		r.Use(corsMiddleware(cfg.CORSOrigins))

		r.Get("/metrics", h.metrics)

		r.Get("/devices", h.listDevices)
		r.Get("/devices/{name}", h.deviceDetail)
		r.Post("/devices/{name}/restart", h.restartDevice)
		r.Get("/devices/{name}/time", h.getDeviceTime)
		r.Put("/devices/{name}/time", h.setDeviceTime)

		r.Get("/attendance/{dev}", h.getAttendance)
		r.Get("/attendance/{dev}/count", h.countAttendance)
		r.Get("/attendance/{dev}/cache", h.attendanceCacheStatus)

		r.Get("/users/{dev}", h.listUsers)
		r.Post("/users/{dev}", h.addUser)
		r.Post("/users/{dev}/sync", h.syncUsers)
		r.Get("/users/{dev}/{uid}", h.getUser)
		r.Put("/users/{dev}/{uid}", h.updateUser)
		r.Delete("/users/{dev}/{uid}", h.deleteUser)

		r.Get("/fingerprints/{dev}/count", h.fingerprintCounts)
		r.Get("/fingerprints/{dev}/{user_id}", h.getFingerprints)

		r.Post("/backup/{dev}", h.runBackup)
		r.Get("/backup/list", h.listBackups)
		r.Post("/backup/restore/*", h.restoreBackup)
	})

	return r
}

type handlers struct {
	facade *domain.Facade
	logger *slog.Logger
	cfg    Config
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
