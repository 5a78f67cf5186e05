// Package device owns the connection lifecycle to fingerprint terminals: one
// exclusive ClientSlot per configured device, lazily created and cached by
// Pool, wrapping every call to the terminal with the read-retry and
// write-mode-guard discipline the rest of the middleware depends on.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

// Pool is the fleet-wide registry of devices and their ClientSlots. It is
// built once at startup from the resolved device configuration and is safe
// for concurrent use by HTTP handlers, CLI commands, and the scheduler.
type Pool struct {
	mu      sync.Mutex
	configs map[string]models.DeviceConfig
	slots   map[string]*ClientSlot
	dialer  zkproto.Dialer
	logger  *slog.Logger
}

// New builds a Pool over the given device configurations. dialer is the
// collaborator used to open sessions — production wiring passes
// zkproto.TCPDialer{}, tests pass a *zkproto.MockDialer. A nil logger
// discards all log output.
func New(configs []models.DeviceConfig, dialer zkproto.Dialer, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	byKey := make(map[string]models.DeviceConfig, len(configs))
	for _, cfg := range configs {
		byKey[cfg.Key] = cfg
	}
	return &Pool{
		configs: byKey,
		slots:   make(map[string]*ClientSlot),
		dialer:  dialer,
		logger:  logger,
	}
}

// Keys returns every configured device key, sorted for deterministic
// iteration order.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.configs))
	for k := range p.configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Config returns the resolved configuration for key.
func (p *Pool) Config(key string) (models.DeviceConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[key]
	return cfg, ok
}

// FetchAttendance satisfies the narrow cache.Fetcher interface, so
// internal/cache can drive a refresh without depending on *Pool directly.
func (p *Pool) FetchAttendance(ctx context.Context, key string) ([]models.Attendance, error) {
	slot, err := p.Client(key)
	if err != nil {
		return nil, err
	}
	return slot.GetAttendance(ctx)
}

// Client returns the ClientSlot for key, creating it on first use. Unknown
// keys return apperr.KindUnknownDevice.
func (p *Pool) Client(key string) (*ClientSlot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slot, ok := p.slots[key]; ok {
		return slot, nil
	}
	cfg, ok := p.configs[key]
	if !ok {
		return nil, apperr.New(apperr.KindUnknownDevice, fmt.Sprintf("device %q is not configured", key))
	}
	slot := newClientSlot(cfg, p.dialer, p.logger.With("device", key))
	p.slots[key] = slot
	return slot, nil
}

// noopWriter discards everything written to it, used as the Pool's default
// logger sink so callers never need a nil check.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
