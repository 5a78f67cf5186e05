package zkproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// opcode identifies a single wire command. The numeric values are internal
// to this package — they do not claim compatibility with any vendor's
// numbering, only with the framing shape described in spec.md §1 (a
// length-prefixed binary command/response protocol over TCP).
type opcode uint16

const (
	opConnect opcode = iota + 1
	opDisconnect
	opDisableDevice
	opEnableDevice
	opGetUsers
	opSetUser
	opDeleteUser
	opGetAttendance
	opClearAttendance
	opGetTemplates
	opSetTemplate
	opGetDeviceInfo
	opReadSizes
	opGetTime
	opSetTime
	opRestart
)

// frameHeader is the fixed 8-byte preamble of every request/response frame:
// a 2-byte opcode, a 2-byte status/reserved field, and a 4-byte payload
// length. All integers are little-endian, matching the terminal family's
// documented byte order.
type frameHeader struct {
	Opcode  uint16
	Status  uint16
	Length  uint32
}

const frameHeaderSize = 8

// writeFrame writes one request/response frame: header followed by payload.
func writeFrame(w io.Writer, op opcode, status uint16, payload []byte) error {
	hdr := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(op))
	binary.LittleEndian.PutUint16(hdr[2:4], status)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("zkproto: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("zkproto: write payload: %w", err)
		}
	}
	return nil
}

// readFrame reads one frame from r. The caller supplies maxPayload as a
// sanity bound (a malformed/unrelated peer must not make us allocate
// unbounded memory).
func readFrame(r io.Reader, maxPayload uint32) (frameHeader, []byte, error) {
	raw := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return frameHeader{}, nil, fmt.Errorf("zkproto: read header: %w", err)
	}
	hdr := frameHeader{
		Opcode: binary.LittleEndian.Uint16(raw[0:2]),
		Status: binary.LittleEndian.Uint16(raw[2:4]),
		Length: binary.LittleEndian.Uint32(raw[4:8]),
	}
	if hdr.Length > maxPayload {
		return hdr, nil, fmt.Errorf("zkproto: payload length %d exceeds max %d", hdr.Length, maxPayload)
	}
	payload := make([]byte, hdr.Length)
	if hdr.Length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return hdr, nil, fmt.Errorf("zkproto: read payload: %w", err)
		}
	}
	return hdr, payload, nil
}
