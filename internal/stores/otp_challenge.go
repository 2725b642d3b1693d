package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeRecordVersionV1 = 1
)

var (
	ErrChallengeNotFound         = errors.New("otp challenge not found")
	ErrChallengeCodeMismatch     = errors.New("otp challenge code mismatch")
	ErrChallengeAttemptsExceeded = errors.New("otp challenge attempts exceeded")
	ErrChallengeRedisUnavailable = errors.New("otp challenge redis unavailable")
)

// consumeChallengeLua atomically performs GET→validate→DEL/SET on a challenge record.
// KEYS[1] = record key
// ARGV[1] = provided hash (32 bytes)
// ARGV[2] = expected kind (byte)
// ARGV[3] = max attempts (int string)
// ARGV[4] = current unix timestamp (int string)
//
// Returns:
//
//	record bytes on success
//	error string: "not_found", "expired", "kind_mismatch", "attempts_exceeded", "code_mismatch"
var consumeChallengeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local providedHash = ARGV[1]
local expectedKind = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])
local nowUnix = tonumber(ARGV[4])

-- version(1) kind(1) attempts(2 big-endian) expiresAt(8 big-endian) userIDLen(2) userID hash(32)
local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local kind = string.byte(data, 2)

local a0 = string.byte(data, 3)
local a1 = string.byte(data, 4)
local attempts = a0 * 256 + a1

local e0,e1,e2,e3,e4,e5,e6,e7 = string.byte(data, 5, 12)
local expiresAt = e0
for _, b in ipairs({e1,e2,e3,e4,e5,e6,e7}) do
  expiresAt = expiresAt * 256 + b
end

if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if kind ~= expectedKind then
  return {err='kind_mismatch'}
end

local userIDLen = string.byte(data, 13) * 256 + string.byte(data, 14)
local hashOffset = 15 + userIDLen
local storedHash = string.sub(data, hashOffset, hashOffset + 31)

if storedHash ~= providedHash then
  attempts = attempts + 1
  if attempts >= maxAttempts then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  local newA0 = math.floor(attempts / 256)
  local newA1 = attempts % 256
  local newData = string.sub(data, 1, 2) .. string.char(newA0, newA1) .. string.sub(data, 5)
  local ttlMs = redis.call('PTTL', KEYS[1])
  if ttlMs <= 0 then
    redis.call('DEL', KEYS[1])
    return {err='expired'}
  end
  redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
  return {err='code_mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// ChallengeRecord is one outstanding one-time code. Only the hash of the
// code is stored.
type ChallengeRecord struct {
	UserID    string
	CodeHash  [32]byte
	ExpiresAt int64
	Attempts  uint16
	Kind      uint8
}

// ChallengeStore keeps at most one outstanding challenge per kind and email.
// Saving a new challenge replaces the previous one, which is how a resend
// invalidates an older code.
type ChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewChallengeStore(redisClient redis.UniversalClient, prefix string) *ChallengeStore {
	if prefix == "" {
		prefix = "cko"
	}
	return &ChallengeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ChallengeStore) key(kind uint8, email string) string {
	return fmt.Sprintf("%s:%d:%s", s.prefix, kind, email)
}

func (s *ChallengeStore) Save(ctx context.Context, email string, record *ChallengeRecord, ttl time.Duration) error {
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(record.Kind, email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeRedisUnavailable, err)
	}
	return nil
}

// Consume validates providedHash against the stored challenge. A match
// deletes the record and returns it. A mismatch counts one attempt and
// deletes the record once maxAttempts is reached.
func (s *ChallengeStore) Consume(
	ctx context.Context,
	kind uint8,
	email string,
	providedHash [32]byte,
	maxAttempts int,
) (*ChallengeRecord, error) {
	result, err := consumeChallengeLua.Run(ctx, s.redis,
		[]string{s.key(kind, email)},
		string(providedHash[:]),
		int(kind),
		maxAttempts,
		time.Now().Unix(),
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found", "expired", "kind_mismatch":
			return nil, ErrChallengeNotFound
		case "attempts_exceeded":
			return nil, ErrChallengeAttemptsExceeded
		case "code_mismatch":
			return nil, ErrChallengeCodeMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrChallengeRedisUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrChallengeRedisUnavailable)
	}

	record, decErr := decodeChallengeRecord([]byte(data))
	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeRedisUnavailable, decErr)
	}

	// Lua string comparison is not constant-time.
	if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
		return nil, ErrChallengeCodeMismatch
	}

	return record, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, kind uint8, email string) error {
	if err := s.redis.Del(ctx, s.key(kind, email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeRedisUnavailable, err)
	}
	return nil
}

func encodeChallengeRecord(record *ChallengeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersionV1)
	buf.WriteByte(record.Kind)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("challenge record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*ChallengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersionV1 {
		return nil, errors.New("invalid challenge record version")
	}

	kind, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &ChallengeRecord{
		Kind: kind,
	}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
