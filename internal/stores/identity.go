package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

const (
	identityRecordVersionV1 = 1

	identityFlagConfirmed = 1 << 0

	maxIdentityWatchRetries = 8
)

var (
	ErrIdentityExists      = errors.New("identity already exists")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrIdentityCorrupt     = errors.New("identity record corrupt")
	ErrIdentityUnavailable = errors.New("identity redis unavailable")
)

type IdentityRecord struct {
	ID             string
	Email          string
	PasswordHash   string
	FullName       string
	FirstName      string
	LastName       string
	EmailConfirmed bool
	CreatedAt      int64
	ConfirmedAt    int64
}

// IdentityStore keeps identity records keyed by email, with a secondary
// id -> email index. Records never expire.
type IdentityStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewIdentityStore(redisClient redis.UniversalClient, prefix string) *IdentityStore {
	if prefix == "" {
		prefix = "cki"
	}
	return &IdentityStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *IdentityStore) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *IdentityStore) idKey(id string) string {
	return s.prefix + ":id:" + id
}

// Create stores a new record. It fails with ErrIdentityExists when the email
// is already registered, whatever the confirmation state.
func (s *IdentityStore) Create(ctx context.Context, record *IdentityRecord) error {
	if record == nil || record.ID == "" || record.Email == "" {
		return errors.New("identity record requires id and email")
	}
	encoded, err := encodeIdentityRecord(record)
	if err != nil {
		return err
	}

	created, err := s.redis.SetNX(ctx, s.emailKey(record.Email), encoded, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	if !created {
		return ErrIdentityExists
	}

	if err := s.redis.Set(ctx, s.idKey(record.ID), record.Email, 0).Err(); err != nil {
		// Roll back so the email can be registered again.
		_ = s.redis.Del(ctx, s.emailKey(record.Email)).Err()
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return nil
}

func (s *IdentityStore) GetByEmail(ctx context.Context, email string) (*IdentityRecord, error) {
	data, err := s.redis.Get(ctx, s.emailKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	record, err := decodeIdentityRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	return record, nil
}

func (s *IdentityStore) GetByID(ctx context.Context, id string) (*IdentityRecord, error) {
	email, err := s.redis.Get(ctx, s.idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return s.GetByEmail(ctx, email)
}

// MarkConfirmed flips the confirmation flag under WATCH so a concurrent
// writer cannot lose the update. Confirming an already confirmed identity
// returns the stored record unchanged.
func (s *IdentityStore) MarkConfirmed(ctx context.Context, email string, confirmedAt int64) (*IdentityRecord, error) {
	key := s.emailKey(email)
	var result *IdentityRecord

	for attempt := 0; attempt < maxIdentityWatchRetries; attempt++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrIdentityNotFound
				}
				return err
			}

			record, err := decodeIdentityRecord(data)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
			}
			if record.EmailConfirmed {
				result = record
				return nil
			}

			record.EmailConfirmed = true
			record.ConfirmedAt = confirmedAt
			encoded, err := encodeIdentityRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}
			result = record
			return nil
		}, key)

		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrIdentityCorrupt) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	return nil, fmt.Errorf("%w: confirm contention", ErrIdentityUnavailable)
}

func encodeIdentityRecord(record *IdentityRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(identityRecordVersionV1)

	var flags byte
	if record.EmailConfirmed {
		flags |= identityFlagConfirmed
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ConfirmedAt); err != nil {
		return nil, err
	}

	for _, field := range []string{
		record.ID,
		record.Email,
		record.PasswordHash,
		record.FullName,
		record.FirstName,
		record.LastName,
	} {
		if err := writeString16(&buf, field); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func decodeIdentityRecord(data []byte) (*IdentityRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != identityRecordVersionV1 {
		return nil, errors.New("invalid identity record version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &IdentityRecord{
		EmailConfirmed: flags&identityFlagConfirmed != 0,
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ConfirmedAt); err != nil {
		return nil, err
	}

	for _, dst := range []*string{
		&record.ID,
		&record.Email,
		&record.PasswordHash,
		&record.FullName,
		&record.FirstName,
		&record.LastName,
	} {
		if *dst, err = readString16(reader); err != nil {
			return nil, err
		}
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in identity record")
	}
	return record, nil
}

func writeString16(buf *bytes.Buffer, value string) error {
	if len(value) > 65535 {
		return errors.New("identity record field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	buf.WriteString(value)
	return nil
}

func readString16(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
