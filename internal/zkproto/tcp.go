package zkproto

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// maxPayload bounds a single frame's payload. A full attendance/template pull
// off a terminal with thousands of records comfortably fits; anything larger
// is treated as a malformed peer rather than allocated.
const maxPayload = 64 << 20

// TCPDialer opens sessions over plain TCP to a device's IP:Port.
type TCPDialer struct{}

func (TCPDialer) Dial(ctx context.Context, cfg models.DeviceConfig) (Session, error) {
	port := cfg.Port
	if port == 0 {
		port = 4370
	}
	addr := net.JoinHostPort(cfg.IP, fmt.Sprintf("%d", port))

	d := net.Dialer{Timeout: ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zkproto: dial %s: %w", addr, err)
	}

	s := &tcpSession{conn: conn, password: cfg.Password}
	if err := s.handshake(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

type tcpSession struct {
	conn     net.Conn
	password int
}

func (s *tcpSession) handshake(ctx context.Context) error {
	var buf bytes.Buffer
	putI32(&buf, int32(s.password))
	if err := s.roundTrip(ctx, opConnect, buf.Bytes()); err != nil {
		return fmt.Errorf("zkproto: handshake: %w", err)
	}
	return nil
}

func (s *tcpSession) deadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(ConnectTimeout)
}

// roundTripPayload sends a request frame and reads the matching response, returning
// the response payload. A nonzero response status is surfaced as an error.
func (s *tcpSession) roundTripPayload(ctx context.Context, op opcode, payload []byte) ([]byte, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	if err := s.conn.SetDeadline(s.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("zkproto: set deadline: %w", err)
	}
	if err := writeFrame(s.conn, op, 0, payload); err != nil {
		return nil, err
	}
	hdr, resp, err := readFrame(s.conn, maxPayload)
	if err != nil {
		return nil, err
	}
	if hdr.Status != 0 {
		return nil, fmt.Errorf("zkproto: device returned status %d for opcode %d", hdr.Status, op)
	}
	return resp, nil
}

func (s *tcpSession) roundTrip(ctx context.Context, op opcode, payload []byte) error {
	_, err := s.roundTripPayload(ctx, op, payload)
	return err
}

func (s *tcpSession) Close() error {
	if s.conn == nil {
		return nil
	}
	_ = writeFrame(s.conn, opDisconnect, 0, nil)
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *tcpSession) GetUsers(ctx context.Context) ([]models.User, error) {
	resp, err := s.roundTripPayload(ctx, opGetUsers, nil)
	if err != nil {
		return nil, err
	}
	return decodeUserList(resp)
}

func (s *tcpSession) GetAttendance(ctx context.Context) ([]models.Attendance, error) {
	resp, err := s.roundTripPayload(ctx, opGetAttendance, nil)
	if err != nil {
		return nil, err
	}
	return decodeAttendanceList(resp)
}

func (s *tcpSession) GetTemplates(ctx context.Context) ([]models.Fingerprint, error) {
	resp, err := s.roundTripPayload(ctx, opGetTemplates, nil)
	if err != nil {
		return nil, err
	}
	return decodeFingerprintList(resp)
}

func (s *tcpSession) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	resp, err := s.roundTripPayload(ctx, opGetDeviceInfo, nil)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	return decodeDeviceInfo(resp)
}

func (s *tcpSession) ReadSizes(ctx context.Context) (models.Sizes, error) {
	resp, err := s.roundTripPayload(ctx, opReadSizes, nil)
	if err != nil {
		return models.Sizes{}, err
	}
	return decodeSizes(resp)
}

func (s *tcpSession) GetTime(ctx context.Context) (time.Time, error) {
	resp, err := s.roundTripPayload(ctx, opGetTime, nil)
	if err != nil {
		return time.Time{}, err
	}
	r := bytes.NewReader(resp)
	ts, err := getI64(r)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0).UTC(), nil
}

func (s *tcpSession) DisableDevice(ctx context.Context) error {
	return s.roundTrip(ctx, opDisableDevice, nil)
}

func (s *tcpSession) EnableDevice(ctx context.Context) error {
	return s.roundTrip(ctx, opEnableDevice, nil)
}

func (s *tcpSession) SetUser(ctx context.Context, u models.User) error {
	return s.roundTrip(ctx, opSetUser, encodeUser(u))
}

func (s *tcpSession) DeleteUser(ctx context.Context, uid int) error {
	var buf bytes.Buffer
	putI32(&buf, int32(uid))
	return s.roundTrip(ctx, opDeleteUser, buf.Bytes())
}

func (s *tcpSession) SetTime(ctx context.Context, t time.Time) error {
	var buf bytes.Buffer
	putI64(&buf, t.Unix())
	return s.roundTrip(ctx, opSetTime, buf.Bytes())
}

func (s *tcpSession) ClearAttendance(ctx context.Context) error {
	return s.roundTrip(ctx, opClearAttendance, nil)
}

func (s *tcpSession) SetFingerprint(ctx context.Context, uid, fingerIndex int, templateB64 string) error {
	raw, err := base64.StdEncoding.DecodeString(templateB64)
	if err != nil {
		return fmt.Errorf("zkproto: decode template base64: %w", err)
	}
	var buf bytes.Buffer
	putI32(&buf, int32(uid))
	putI32(&buf, int32(fingerIndex))
	putBytes(&buf, raw)
	return s.roundTrip(ctx, opSetTemplate, buf.Bytes())
}

func (s *tcpSession) Restart(ctx context.Context) error {
	return s.roundTrip(ctx, opRestart, nil)
}

// --- list encodings: an int32 count followed by that many length-prefixed records ---

func encodeUserList(users []models.User) []byte {
	var buf bytes.Buffer
	putI32(&buf, int32(len(users)))
	for _, u := range users {
		putBytes(&buf, encodeUser(u))
	}
	return buf.Bytes()
}

func decodeUserList(raw []byte) ([]models.User, error) {
	r := bytes.NewReader(raw)
	n, err := getI32(r)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, n)
	for i := int32(0); i < n; i++ {
		rec, err := getBytes(r)
		if err != nil {
			return nil, err
		}
		u, err := decodeUser(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func encodeAttendanceList(recs []models.Attendance) []byte {
	var buf bytes.Buffer
	putI32(&buf, int32(len(recs)))
	for _, a := range recs {
		putBytes(&buf, encodeAttendance(a))
	}
	return buf.Bytes()
}

func decodeAttendanceList(raw []byte) ([]models.Attendance, error) {
	r := bytes.NewReader(raw)
	n, err := getI32(r)
	if err != nil {
		return nil, err
	}
	out := make([]models.Attendance, 0, n)
	for i := int32(0); i < n; i++ {
		rec, err := getBytes(r)
		if err != nil {
			return nil, err
		}
		a, err := decodeAttendance(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func encodeFingerprintList(fps []models.Fingerprint) ([]byte, error) {
	var buf bytes.Buffer
	putI32(&buf, int32(len(fps)))
	for _, f := range fps {
		rec, err := encodeFingerprint(f)
		if err != nil {
			return nil, err
		}
		putBytes(&buf, rec)
	}
	return buf.Bytes(), nil
}

func decodeFingerprintList(raw []byte) ([]models.Fingerprint, error) {
	r := bytes.NewReader(raw)
	n, err := getI32(r)
	if err != nil {
		return nil, err
	}
	out := make([]models.Fingerprint, 0, n)
	for i := int32(0); i < n; i++ {
		rec, err := getBytes(r)
		if err != nil {
			return nil, err
		}
		f, err := decodeFingerprint(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
