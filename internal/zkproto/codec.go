package zkproto

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

// The helpers in this file implement a small length-prefixed encoding used
// for every payload that crosses the wire: a uint16-length string followed
// by its UTF-8 bytes, and fixed-width integers in between. This mirrors the
// shape of the original protocol's fixed-size records without claiming
// byte-for-byte compatibility with it (see spec.md §1 Non-goals).

func putString(buf *bytes.Buffer, s string) {
	b := []byte(s)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func getString(r *bytes.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func putI32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func getI32(r *bytes.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func putI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func getI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func putBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func getBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func encodeUser(u models.User) []byte {
	var buf bytes.Buffer
	putI32(&buf, int32(u.UID))
	putI32(&buf, int32(u.Privilege))
	putI32(&buf, int32(u.Card))
	putString(&buf, u.UserID)
	putString(&buf, u.Name)
	putString(&buf, u.Password)
	putString(&buf, u.GroupID)
	return buf.Bytes()
}

func decodeUser(raw []byte) (models.User, error) {
	r := bytes.NewReader(raw)
	uid, err := getI32(r)
	if err != nil {
		return models.User{}, err
	}
	priv, err := getI32(r)
	if err != nil {
		return models.User{}, err
	}
	card, err := getI32(r)
	if err != nil {
		return models.User{}, err
	}
	userID, err := getString(r)
	if err != nil {
		return models.User{}, err
	}
	name, err := getString(r)
	if err != nil {
		return models.User{}, err
	}
	password, err := getString(r)
	if err != nil {
		return models.User{}, err
	}
	groupID, err := getString(r)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		UID:       int(uid),
		Privilege: int(priv),
		Card:      int(card),
		UserID:    userID,
		Name:      name,
		Password:  password,
		GroupID:   groupID,
	}, nil
}

func encodeAttendance(a models.Attendance) []byte {
	var buf bytes.Buffer
	putI32(&buf, int32(a.UID))
	putI64(&buf, a.Timestamp.Unix())
	putI32(&buf, int32(a.Status))
	putI32(&buf, int32(a.Punch))
	putString(&buf, a.UserID)
	return buf.Bytes()
}

func decodeAttendance(raw []byte) (models.Attendance, error) {
	r := bytes.NewReader(raw)
	uid, err := getI32(r)
	if err != nil {
		return models.Attendance{}, err
	}
	ts, err := getI64(r)
	if err != nil {
		return models.Attendance{}, err
	}
	status, err := getI32(r)
	if err != nil {
		return models.Attendance{}, err
	}
	punch, err := getI32(r)
	if err != nil {
		return models.Attendance{}, err
	}
	userID, err := getString(r)
	if err != nil {
		return models.Attendance{}, err
	}
	return models.Attendance{
		UID:       int(uid),
		Timestamp: time.Unix(ts, 0).UTC(),
		Status:    int(status),
		Punch:     int(punch),
		UserID:    userID,
	}, nil
}

func encodeFingerprint(f models.Fingerprint) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(f.Template)
	if err != nil {
		return nil, fmt.Errorf("zkproto: decode template base64: %w", err)
	}
	var buf bytes.Buffer
	putI32(&buf, int32(f.UID))
	putI32(&buf, int32(f.FingerIndex))
	valid := byte(0)
	if f.Valid {
		valid = 1
	}
	buf.WriteByte(valid)
	putString(&buf, f.UserID)
	putBytes(&buf, raw)
	return buf.Bytes(), nil
}

func decodeFingerprint(raw []byte) (models.Fingerprint, error) {
	r := bytes.NewReader(raw)
	uid, err := getI32(r)
	if err != nil {
		return models.Fingerprint{}, err
	}
	fid, err := getI32(r)
	if err != nil {
		return models.Fingerprint{}, err
	}
	var validByte [1]byte
	if _, err := io.ReadFull(r, validByte[:]); err != nil {
		return models.Fingerprint{}, err
	}
	userID, err := getString(r)
	if err != nil {
		return models.Fingerprint{}, err
	}
	tmpl, err := getBytes(r)
	if err != nil {
		return models.Fingerprint{}, err
	}
	return models.Fingerprint{
		UID:         int(uid),
		UserID:      userID,
		FingerIndex: int(fid),
		Valid:       validByte[0] == 1,
		Template:    base64.StdEncoding.EncodeToString(tmpl),
	}, nil
}

func encodeDeviceInfo(info models.DeviceInfo) []byte {
	var buf bytes.Buffer
	putString(&buf, info.FirmwareVersion)
	putString(&buf, info.SerialNumber)
	putString(&buf, info.Platform)
	putString(&buf, info.DeviceName)
	putString(&buf, info.MACAddress)
	putI32(&buf, int32(info.UserCount))
	putI32(&buf, int32(info.FingerprintCount))
	putI32(&buf, int32(info.AttendanceCount))
	if info.DeviceTime != nil {
		buf.WriteByte(1)
		putI64(&buf, info.DeviceTime.Unix())
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func decodeDeviceInfo(raw []byte) (models.DeviceInfo, error) {
	r := bytes.NewReader(raw)
	firmware, err := getString(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	serial, err := getString(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	platform, err := getString(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	name, err := getString(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	mac, err := getString(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	userCount, err := getI32(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	fpCount, err := getI32(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	attCount, err := getI32(r)
	if err != nil {
		return models.DeviceInfo{}, err
	}
	var hasTime [1]byte
	if _, err := io.ReadFull(r, hasTime[:]); err != nil {
		return models.DeviceInfo{}, err
	}
	info := models.DeviceInfo{
		FirmwareVersion:  firmware,
		SerialNumber:     serial,
		Platform:         platform,
		DeviceName:       name,
		MACAddress:       mac,
		UserCount:        int(userCount),
		FingerprintCount: int(fpCount),
		AttendanceCount:  int(attCount),
	}
	if hasTime[0] == 1 {
		ts, err := getI64(r)
		if err != nil {
			return models.DeviceInfo{}, err
		}
		t := time.Unix(ts, 0).UTC()
		info.DeviceTime = &t
	}
	return info, nil
}

func encodeSizes(s models.Sizes) []byte {
	var buf bytes.Buffer
	putI32(&buf, int32(s.Users))
	putI32(&buf, int32(s.Fingers))
	putI32(&buf, int32(s.Records))
	putI32(&buf, int32(s.Faces))
	return buf.Bytes()
}

func decodeSizes(raw []byte) (models.Sizes, error) {
	r := bytes.NewReader(raw)
	users, err := getI32(r)
	if err != nil {
		return models.Sizes{}, err
	}
	fingers, err := getI32(r)
	if err != nil {
		return models.Sizes{}, err
	}
	records, err := getI32(r)
	if err != nil {
		return models.Sizes{}, err
	}
	faces, err := getI32(r)
	if err != nil {
		return models.Sizes{}, err
	}
	return models.Sizes{
		Users:   int(users),
		Fingers: int(fingers),
		Records: int(records),
		Faces:   int(faces),
	}, nil
}
