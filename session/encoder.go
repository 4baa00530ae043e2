package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const recordFormatVersion = 1

// ErrRecordCorrupt is returned when a stored record cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

type encodedField struct {
	name  string
	value *string
	wide  bool
}

// fields lists the string fields of r in wire order. Narrow fields carry a
// u8 length prefix and hold values this module generates (handle, role,
// error code); wide fields carry a u16 prefix and hold values issued
// remotely.
func fields(r *Record) []encodedField {
	return []encodedField{
		{"sessionID", &r.SessionID, false},
		{"role", &r.Role, false},
		{"error", &r.Error, false},
		{"subjectID", &r.SubjectID, true},
		{"accessToken", &r.AccessToken, true},
		{"refreshToken", &r.RefreshToken, true},
	}
}

// Encode serializes a record into the compact binary form kept by RedisStore.
//
// Layout: version byte, u8-prefixed SessionID, Role and Error, u16-prefixed
// SubjectID, AccessToken and RefreshToken, then AccessExpiry, CreatedAt and
// RefreshedAt as big-endian int64.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}

	var buf bytes.Buffer
	buf.Grow(40 + len(r.AccessToken) + len(r.RefreshToken) + len(r.SessionID) + len(r.SubjectID))
	buf.WriteByte(recordFormatVersion)

	for _, f := range fields(r) {
		n := len(*f.value)
		switch {
		case !f.wide && n > math.MaxUint8, f.wide && n > math.MaxUint16:
			return nil, errors.New(f.name + " too long")
		case f.wide:
			var prefix [2]byte
			binary.BigEndian.PutUint16(prefix[:], uint16(n))
			buf.Write(prefix[:])
		default:
			buf.WriteByte(byte(n))
		}
		buf.WriteString(*f.value)
	}

	for _, v := range []int64{r.AccessExpiry, r.CreatedAt, r.RefreshedAt} {
		var word [8]byte
		binary.BigEndian.PutUint64(word[:], uint64(v))
		buf.Write(word[:])
	}
	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil || version != recordFormatVersion {
		return nil, ErrRecordCorrupt
	}

	r := &Record{}
	for _, f := range fields(r) {
		var n int
		if f.wide {
			var wide uint16
			if err := binary.Read(reader, binary.BigEndian, &wide); err != nil {
				return nil, ErrRecordCorrupt
			}
			n = int(wide)
		} else {
			narrow, err := reader.ReadByte()
			if err != nil {
				return nil, ErrRecordCorrupt
			}
			n = int(narrow)
		}
		if *f.value, err = readString(reader, n); err != nil {
			return nil, err
		}
	}

	for _, dst := range []*int64{&r.AccessExpiry, &r.CreatedAt, &r.RefreshedAt} {
		if err := binary.Read(reader, binary.BigEndian, dst); err != nil {
			return nil, ErrRecordCorrupt
		}
	}

	if reader.Len() != 0 {
		return nil, ErrRecordCorrupt
	}
	return r, nil
}

func readString(reader *bytes.Reader, n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	if n > reader.Len() {
		return "", ErrRecordCorrupt
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", ErrRecordCorrupt
	}
	return string(raw), nil
}
