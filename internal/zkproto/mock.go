package zkproto

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// Mock is an in-memory Session used throughout the test suite. Its Session
// methods serialize on an internal mutex; its exported fields are read and
// set directly by tests, without that mutex, between calls.
type Mock struct {
	mu sync.Mutex

	Users        []models.User
	Attendance   []models.Attendance
	Fingerprints []models.Fingerprint
	Info         models.DeviceInfo
	DeviceTime   time.Time
	Disabled     bool
	Closed       bool
	Restarted    bool

	// Err, when set, is returned by every read/write call in place of their
	// normal behavior; tests clear it by setting the field back to nil.
	Err error

	// EnableErr, when set, is returned only from EnableDevice — used to
	// exercise the write-mode guard's "enable failed, logged not raised"
	// path without making every other call fail too.
	EnableErr error

	// Calls records the ordered opcode-equivalent method names invoked,
	// letting tests assert ordering (e.g. DisableDevice before SetUser
	// before EnableDevice).
	Calls []string
}

// NewMock returns an empty Mock ready to be populated by a test.
func NewMock() *Mock {
	return &Mock{DeviceTime: time.Now().UTC()}
}

func (m *Mock) record(name string) {
	m.Calls = append(m.Calls, name)
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	m.Closed = true
	return nil
}

func (m *Mock) GetUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetUsers")
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.User, len(m.Users))
	copy(out, m.Users)
	return out, nil
}

func (m *Mock) GetAttendance(ctx context.Context) ([]models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetAttendance")
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Attendance, len(m.Attendance))
	copy(out, m.Attendance)
	return out, nil
}

func (m *Mock) GetTemplates(ctx context.Context) ([]models.Fingerprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetTemplates")
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Fingerprint, len(m.Fingerprints))
	copy(out, m.Fingerprints)
	return out, nil
}

func (m *Mock) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetDeviceInfo")
	if m.Err != nil {
		return models.DeviceInfo{}, m.Err
	}
	return m.Info, nil
}

func (m *Mock) ReadSizes(ctx context.Context) (models.Sizes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReadSizes")
	if m.Err != nil {
		return models.Sizes{}, m.Err
	}
	return models.Sizes{
		Users:   len(m.Users),
		Fingers: len(m.Fingerprints),
		Records: len(m.Attendance),
	}, nil
}

func (m *Mock) GetTime(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetTime")
	if m.Err != nil {
		return time.Time{}, m.Err
	}
	return m.DeviceTime, nil
}

func (m *Mock) DisableDevice(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DisableDevice")
	if m.Err != nil {
		return m.Err
	}
	m.Disabled = true
	return nil
}

func (m *Mock) EnableDevice(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EnableDevice")
	m.Disabled = false
	if m.EnableErr != nil {
		return m.EnableErr
	}
	return nil
}

func (m *Mock) SetUser(ctx context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetUser")
	if m.Err != nil {
		return m.Err
	}
	for i, existing := range m.Users {
		if existing.UID == u.UID {
			m.Users[i] = u
			return nil
		}
	}
	m.Users = append(m.Users, u)
	return nil
}

func (m *Mock) DeleteUser(ctx context.Context, uid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteUser")
	if m.Err != nil {
		return m.Err
	}
	for i, existing := range m.Users {
		if existing.UID == uid {
			m.Users = append(m.Users[:i], m.Users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("zkproto mock: no such uid %d", uid)
}

func (m *Mock) SetTime(ctx context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetTime")
	if m.Err != nil {
		return m.Err
	}
	m.DeviceTime = t
	return nil
}

func (m *Mock) ClearAttendance(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ClearAttendance")
	if m.Err != nil {
		return m.Err
	}
	m.Attendance = nil
	return nil
}

func (m *Mock) SetFingerprint(ctx context.Context, uid, fingerIndex int, templateB64 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetFingerprint")
	if m.Err != nil {
		return m.Err
	}
	for i, existing := range m.Fingerprints {
		if existing.UID == uid && existing.FingerIndex == fingerIndex {
			m.Fingerprints[i].Template = templateB64
			m.Fingerprints[i].Valid = true
			return nil
		}
	}
	m.Fingerprints = append(m.Fingerprints, models.Fingerprint{
		UID:         uid,
		FingerIndex: fingerIndex,
		Template:    templateB64,
		Valid:       true,
	})
	return nil
}

func (m *Mock) Restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Restart")
	if m.Err != nil {
		return m.Err
	}
	m.Restarted = true
	return nil
}

// MockDialer hands out a fixed Mock per device key, so a test can configure
// per-device state before exercising the Pool.
type MockDialer struct {
	mu      sync.Mutex
	byKey   map[string]*Mock
	DialErr map[string]error
	DialCount map[string]int
}

// NewMockDialer returns a MockDialer with no devices registered.
func NewMockDialer() *MockDialer {
	return &MockDialer{byKey: make(map[string]*Mock)}
}

// Add registers m as the Session returned for the given device key.
func (d *MockDialer) Add(key string, m *Mock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKey[key] = m
}

// Get returns the Mock registered for key, if any.
func (d *MockDialer) Get(key string) *Mock {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byKey[key]
}

// DialCountFor returns how many times Dial has been called for key.
func (d *MockDialer) DialCountFor(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.DialCount[key]
}

// SetDialErr sets (or clears, with a nil err) the error Dial returns for
// key, safe for concurrent use alongside Dial itself.
func (d *MockDialer) SetDialErr(key string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DialErr == nil {
		d.DialErr = make(map[string]error)
	}
	d.DialErr[key] = err
}

func (d *MockDialer) Dial(ctx context.Context, cfg models.DeviceConfig) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DialCount == nil {
		d.DialCount = make(map[string]int)
	}
	d.DialCount[cfg.Key]++
	if d.DialErr != nil {
		if err, ok := d.DialErr[cfg.Key]; ok && err != nil {
			return nil, err
		}
	}
	m, ok := d.byKey[key(cfg)]
	if !ok {
		return nil, fmt.Errorf("zkproto mock: no mock registered for device %q", cfg.Key)
	}
	return m, nil
}

func key(cfg models.DeviceConfig) string { return cfg.Key }
