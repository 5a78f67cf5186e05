package device

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
	"github.com/abcfood/fingerprint-mw/internal/zkproto"
)

// readRetryAttempts bounds the read-path retry loop: 3 attempts total,
// exponential backoff starting at 1s and capped at 10s between tries.
const readRetryAttempts = 3

// ClientSlot owns the single, exclusive connection path to one device. Every
// public method acquires the slot's lock for its own duration, opens a fresh
// Session, runs its operation, and guarantees the Session is closed before
// returning — no Session ever outlives the call that opened it.
type ClientSlot struct {
	cfg    models.DeviceConfig
	dialer zkproto.Dialer
	logger *slog.Logger

	mu sync.Mutex
}

func newClientSlot(cfg models.DeviceConfig, dialer zkproto.Dialer, logger *slog.Logger) *ClientSlot {
	return &ClientSlot{cfg: cfg, dialer: dialer, logger: logger}
}

// Config returns the device configuration this slot was built from.
func (s *ClientSlot) Config() models.DeviceConfig { return s.cfg }

func (s *ClientSlot) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return backoff.WithMaxRetries(b, readRetryAttempts-1)
}

// connect opens a fresh session against the device, wrapping dial failures
// as apperr.KindOffline.
func (s *ClientSlot) connect(ctx context.Context) (zkproto.Session, error) {
	sess, err := s.dialer.Dial(ctx, s.cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindOffline, "connect to device", err)
	}
	return sess, nil
}

// withReadSession connects, runs fn, and retries the whole connect+fn
// sequence up to readRetryAttempts times with exponential backoff on
// failure — mirroring the read-path retry used by the original client for
// get_users/get_attendance/get_fingerprints/get_device_info.
func (s *ClientSlot) withReadSession(ctx context.Context, fn func(zkproto.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	operation := func() error {
		sess, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := sess.Close(); cerr != nil {
				s.logger.Warn("session close failed", "error", cerr)
			}
		}()
		return fn(sess)
	}

	return backoff.Retry(operation, backoff.WithContext(s.newBackoff(), ctx))
}

// withWriteSession connects once (writes are never retried), wraps fn with
// the write-mode guard (DisableDevice before, EnableDevice after — enable
// failures are logged, never propagated), and always closes the session.
func (s *ClientSlot) withWriteSession(ctx context.Context, fn func(zkproto.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("session close failed", "error", cerr)
		}
	}()

	if err := sess.DisableDevice(ctx); err != nil {
		return apperr.Wrap(apperr.KindRemoteWriteFailure, "disable device", err)
	}
	defer func() {
		if eerr := sess.EnableDevice(ctx); eerr != nil {
			s.logger.Warn("enable device failed after write", "error", eerr)
		}
	}()

	if err := fn(sess); err != nil {
		return apperr.Wrap(apperr.KindRemoteWriteFailure, "device write", err)
	}
	return nil
}

// --- reads ---

func (s *ClientSlot) GetUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.withReadSession(ctx, func(sess zkproto.Session) error {
		users, err := sess.GetUsers(ctx)
		if err != nil {
			return err
		}
		out = users
		return nil
	})
	return out, err
}

func (s *ClientSlot) GetAttendance(ctx context.Context) ([]models.Attendance, error) {
	var out []models.Attendance
	err := s.withReadSession(ctx, func(sess zkproto.Session) error {
		recs, err := sess.GetAttendance(ctx)
		if err != nil {
			return err
		}
		out = recs
		return nil
	})
	return out, err
}

func (s *ClientSlot) GetTemplates(ctx context.Context) ([]models.Fingerprint, error) {
	var out []models.Fingerprint
	err := s.withReadSession(ctx, func(sess zkproto.Session) error {
		fps, err := sess.GetTemplates(ctx)
		if err != nil {
			return err
		}
		out = fps
		return nil
	})
	return out, err
}

func (s *ClientSlot) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	var out models.DeviceInfo
	err := s.withReadSession(ctx, func(sess zkproto.Session) error {
		info, err := sess.GetDeviceInfo(ctx)
		if err != nil {
			return err
		}
		out = info
		return nil
	})
	return out, err
}

// ReadSizes is the fast, no-transfer count path: it bypasses the retry loop
// and connects once, like Ping, which issues the same call as its liveness
// check.
func (s *ClientSlot) ReadSizes(ctx context.Context) (models.Sizes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.connect(ctx)
	if err != nil {
		return models.Sizes{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("session close failed", "error", cerr)
		}
	}()
	return sess.ReadSizes(ctx)
}

func (s *ClientSlot) GetTime(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := s.withReadSession(ctx, func(sess zkproto.Session) error {
		t, err := sess.GetTime(ctx)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// Ping performs the cheapest possible liveness check: connect, read sizes,
// disconnect. It does not retry — an offline device should report offline
// immediately rather than after 10+ seconds of backoff.
func (s *ClientSlot) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("session close failed", "error", cerr)
		}
	}()
	_, err = sess.ReadSizes(ctx)
	return err
}

// --- writes ---

func (s *ClientSlot) SetUser(ctx context.Context, u models.User) error {
	return s.withWriteSession(ctx, func(sess zkproto.Session) error {
		return sess.SetUser(ctx, u)
	})
}

func (s *ClientSlot) DeleteUser(ctx context.Context, uid int) error {
	return s.withWriteSession(ctx, func(sess zkproto.Session) error {
		return sess.DeleteUser(ctx, uid)
	})
}

func (s *ClientSlot) SetTime(ctx context.Context, t time.Time) error {
	return s.withWriteSession(ctx, func(sess zkproto.Session) error {
		return sess.SetTime(ctx, t)
	})
}

func (s *ClientSlot) ClearAttendance(ctx context.Context) error {
	return s.withWriteSession(ctx, func(sess zkproto.Session) error {
		return sess.ClearAttendance(ctx)
	})
}

func (s *ClientSlot) SetFingerprint(ctx context.Context, uid, fingerIndex int, templateB64 string) error {
	return s.withWriteSession(ctx, func(sess zkproto.Session) error {
		return sess.SetFingerprint(ctx, uid, fingerIndex, templateB64)
	})
}

// Restart reboots the device. It intentionally bypasses withWriteSession:
// the write-mode guard's EnableDevice call would race the reboot, and the
// original client never wraps restart() in disable/enable either.
func (s *ClientSlot) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("session close failed", "error", cerr)
		}
	}()
	if err := sess.Restart(ctx); err != nil {
		return apperr.Wrap(apperr.KindRemoteWriteFailure, "restart device", err)
	}
	return nil
}
