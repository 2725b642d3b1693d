package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	sessionFormatVersionCurrent = 1

	flagEmailConfirmed = 1 << 0
)

// ErrDecode is returned for blobs that are not a valid session encoding.
var ErrDecode = errors.New("invalid session encoding")

// Encode serializes s without its SessionID, which is carried by the key.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	var flags byte
	if s.EmailConfirmed {
		flags |= flagEmailConfirmed
	}
	buf.WriteByte(flags)

	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if len(s.Email) > 255 {
		return nil, errors.New("email too long")
	}
	buf.WriteByte(byte(len(s.Email)))
	buf.WriteString(s.Email)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, ErrDecode
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrDecode
	}

	flags, err := r.ReadByte()
	if err != nil || flags&^flagEmailConfirmed != 0 {
		return nil, ErrDecode
	}

	s := &Session{EmailConfirmed: flags&flagEmailConfirmed != 0}

	if s.UserID, err = readString8(r); err != nil {
		return nil, ErrDecode
	}
	if s.Email, err = readString8(r); err != nil {
		return nil, ErrDecode
	}
	if err := binary.Read(r, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrDecode
	}
	if err := binary.Read(r, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrDecode
	}
	if r.Len() != 0 {
		return nil, ErrDecode
	}

	return s, nil
}

func readString8(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
