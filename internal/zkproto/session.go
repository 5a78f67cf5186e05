// Package zkproto is the narrow contract for the external device-protocol
// collaborator: a session speaking the fingerprint terminal's binary
// UDP/TCP wire protocol on port 4370.
//
// This package intentionally does NOT attempt a bit-exact reimplementation
// of any specific vendor's protocol (that is out of scope — see spec.md §1
// Non-goals). It defines the operation surface the rest of the middleware
// depends on, a TCP implementation that speaks a simplified framing capable
// of talking to a compatible test server, and a Mock used throughout the
// test suite.
package zkproto

import (
	"context"
	"errors"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// ConnectTimeout is the connect + I/O timeout applied to every session,
// matching the 60-second budget in spec.md §4.1.
const ConnectTimeout = 60 * time.Second

// ErrNotConnected is returned by any operation attempted outside an open
// session.
var ErrNotConnected = errors.New("zkproto: not connected")

// Dialer opens a new Session against a device. Implementations must not
// retain any state beyond the returned Session — DevicePool.Client creates
// one Dialer-backed slot per device key and never shares sessions across
// devices.
type Dialer interface {
	Dial(ctx context.Context, cfg models.DeviceConfig) (Session, error)
}

// Session is the set of operations a ClientSlot may invoke while holding a
// device's lock. A Session is single-use: Close ends it, and a Session must
// never be reused after Close returns.
type Session interface {
	// Close ends the session. It is always called on scope exit, success
	// or failure; Close errors are logged by the caller and never
	// propagated.
	Close() error

	// --- reads (caller may retry with backoff) ---

	GetUsers(ctx context.Context) ([]models.User, error)
	GetAttendance(ctx context.Context) ([]models.Attendance, error)
	GetTemplates(ctx context.Context) ([]models.Fingerprint, error)
	GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error)
	ReadSizes(ctx context.Context) (models.Sizes, error)
	GetTime(ctx context.Context) (time.Time, error)

	// --- writes (never retried; caller wraps with DisableDevice/EnableDevice) ---

	DisableDevice(ctx context.Context) error
	EnableDevice(ctx context.Context) error
	SetUser(ctx context.Context, u models.User) error
	DeleteUser(ctx context.Context, uid int) error
	SetTime(ctx context.Context, t time.Time) error
	ClearAttendance(ctx context.Context) error
	SetFingerprint(ctx context.Context, uid, fingerIndex int, templateB64 string) error

	// Restart reboots the device. Like other writes it is not retried; it
	// intentionally does not go through the write-mode guard (the original
	// device firmware rejects disable_device immediately before a restart).
	Restart(ctx context.Context) error
}
