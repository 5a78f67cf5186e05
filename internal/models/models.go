// Package models holds the data shapes shared across the fingerprint
// middleware: device configuration, the records read from a terminal, and
// the serialization shape used for backups.
package models

import "time"

// DeviceConfig is the fully-resolved, immutable configuration for a single
// fingerprint terminal. Loaded once at startup from the devices YAML and
// never mutated afterward.
type DeviceConfig struct {
	// Key is the short stable identifier used in URLs and storage paths,
	// e.g. "tmi".
	Key string

	// Name is the human-readable device name (defaults to Key).
	Name string

	// IP is the device's network address.
	IP string

	// Port is the device's UDP/TCP listen port (default 4370).
	Port int

	// Password is the device's numeric communication password (0 = none).
	Password int

	// Model is the terminal model string, if known.
	Model string

	// Serial is the terminal serial number, if known.
	Serial string
}

// User is a single enrolled user record on a device.
type User struct {
	// UID is the device-internal slot number, unique within one device.
	UID int `json:"uid"`

	// UserID is the external identifier (typically the HRIS employee
	// identification), used to correlate a person across devices.
	UserID string `json:"user_id"`

	// Name is the display name, truncated to 24 bytes by the device.
	Name string `json:"name"`

	// Privilege is 0 (user) or 14 (admin).
	Privilege int `json:"privilege"`

	// Password is the device-local numeric password for keypad entry.
	Password string `json:"password"`

	// GroupID is the device's access group assignment.
	GroupID string `json:"group_id"`

	// Card is the RFID card number assigned to the user, if any.
	Card int `json:"card"`
}

// Attendance is a single append-only punch record read from a device.
type Attendance struct {
	UID       int       `json:"uid"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Punch     int       `json:"punch"`
}

// Fingerprint is one enrolled finger template.
type Fingerprint struct {
	UID int `json:"uid"`

	UserID string `json:"user_id"`

	// FingerIndex is 0-9: 0..4 is right thumb..little, 5..9 is left.
	FingerIndex int `json:"finger_index"`

	// Template is the opaque device template, base64-encoded for transport.
	Template string `json:"template"`

	Valid bool `json:"valid"`
}

// DeviceInfo is a transient snapshot of device metadata, read fresh on every
// call — never cached.
type DeviceInfo struct {
	FirmwareVersion string     `json:"firmware_version"`
	SerialNumber    string     `json:"serial_number"`
	Platform        string     `json:"platform"`
	DeviceName      string     `json:"device_name"`
	MACAddress      string     `json:"mac_address"`
	UserCount       int        `json:"user_count"`
	FingerprintCount int       `json:"fp_count"`
	AttendanceCount int        `json:"attendance_count"`
	DeviceTime      *time.Time `json:"device_time,omitempty"`
}

// Sizes is the fast, no-transfer record-count read (read_sizes on the wire).
type Sizes struct {
	Users      int
	Fingers    int
	Records    int
	Faces      int
}

// CacheStatus is the metadata-only view of a cache entry, returned by
// Cache.Status / Cache.AllStatuses.
type CacheStatus struct {
	Device    string     `json:"device"`
	Cached    bool       `json:"cached"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Count     int        `json:"count"`
	IsLoading bool       `json:"is_loading"`
	Error     string     `json:"error,omitempty"`
}

// BackupRecord is the serialization shape persisted to object storage.
type BackupRecord struct {
	DeviceKey        string        `json:"device_key"`
	DeviceName       string        `json:"device_name"`
	Timestamp        string        `json:"timestamp"` // ISO-8601
	Users            []User        `json:"users"`
	Fingerprints     []Fingerprint `json:"fingerprints"`
	Attendance       []Attendance  `json:"attendance,omitempty"`
	UserCount        int           `json:"user_count"`
	FingerprintCount int           `json:"fingerprint_count"`
	AttendanceCount  int           `json:"attendance_count,omitempty"`
}

// DeviceStatus is the result of a device health check (used by the "device
// list" / "device info" facade and CLI/API surfaces).
type DeviceStatus struct {
	Key       string       `json:"key"`
	Config    DeviceConfig `json:"config"`
	Online    bool         `json:"online"`
	Info      *DeviceInfo  `json:"info,omitempty"`
	Error     string       `json:"error,omitempty"`
	LastCheck time.Time    `json:"last_check"`
}
