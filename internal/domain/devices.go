package domain

import (
	"context"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// ListDevices returns every configured device with its configuration, in
// sorted key order — the cheap, no-I/O listing behind the CLI's list
// command (GET /devices probes every device through AllDeviceStatuses).
func (f *Facade) ListDevices() []models.DeviceConfig {
	keys := f.pool.Keys()
	out := make([]models.DeviceConfig, 0, len(keys))
	for _, k := range keys {
		cfg, _ := f.pool.Config(k)
		out = append(out, cfg)
	}
	return out
}

// DeviceStatus probes one device: connects, reads its info, and reports
// online/offline. It never returns an error for an offline device — the
// offline state is carried in the returned DeviceStatus itself, so a caller
// that wants offline treated as a failure (the HTTP device-detail handler
// maps it to 503) checks status.Online and constructs that error itself.
func (f *Facade) DeviceStatus(ctx context.Context, key string) (models.DeviceStatus, error) {
	slot, err := f.pool.Client(key)
	if err != nil {
		return models.DeviceStatus{}, err
	}

	status := models.DeviceStatus{Key: key, Config: slot.Config(), LastCheck: time.Now().UTC()}

	info, err := slot.GetDeviceInfo(ctx)
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}
	status.Online = true
	status.Info = &info
	return status, nil
}

// AllDeviceStatuses probes every configured device.
func (f *Facade) AllDeviceStatuses(ctx context.Context) ([]models.DeviceStatus, error) {
	keys := f.pool.Keys()
	out := make([]models.DeviceStatus, 0, len(keys))
	for _, key := range keys {
		status, err := f.DeviceStatus(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// GetDeviceTime reads a device's current clock.
func (f *Facade) GetDeviceTime(ctx context.Context, key string) (time.Time, error) {
	slot, err := f.pool.Client(key)
	if err != nil {
		return time.Time{}, err
	}
	return slot.GetTime(ctx)
}

// SetDeviceTime writes an explicit clock value to a device.
func (f *Facade) SetDeviceTime(ctx context.Context, key string, t time.Time) error {
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.SetTime(ctx, t)
}

// SyncDeviceTime sets a device's clock to the current time.
func (f *Facade) SyncDeviceTime(ctx context.Context, key string) error {
	return f.SetDeviceTime(ctx, key, time.Now().UTC())
}

// RestartDevice reboots a device.
func (f *Facade) RestartDevice(ctx context.Context, key string) error {
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.Restart(ctx)
}

// PingDevice performs the cheapest possible liveness check.
func (f *Facade) PingDevice(ctx context.Context, key string) error {
	slot, err := f.pool.Client(key)
	if err != nil {
		return err
	}
	return slot.Ping(ctx)
}
