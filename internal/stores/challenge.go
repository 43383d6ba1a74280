package stores

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash fields of a stored challenge.
const (
	fieldUserID    = "uid"
	fieldSecret    = "secret"
	fieldExpiresAt = "exp"
	fieldAttempts  = "attempts"
)

// Purpose separates challenge namespaces.
type Purpose uint8

// Challenge purposes. Each keeps its own key space.
const (
	PurposePasswordReset Purpose = iota + 1
	PurposeEmailVerification
)

// String returns the key segment for p.
func (p Purpose) String() string {
	switch p {
	case PurposePasswordReset:
		return "reset"
	case PurposeEmailVerification:
		return "verify"
	default:
		return "unknown"
	}
}

// Store errors. Redis failures wrap ErrRedisUnavailable.
var (
	ErrChallengeNotFound         = errors.New("challenge not found")
	ErrChallengeMismatch         = errors.New("challenge secret mismatch")
	ErrChallengeAttemptsExceeded = errors.New("challenge attempts exceeded")
	ErrChallengeCorrupt          = errors.New("challenge record corrupt")
	ErrRedisUnavailable          = errors.New("redis unavailable")
)

// ChallengeRecord is one issued challenge. It is stored as a Redis hash, and
// only the SHA-256 of the secret is kept.
type ChallengeRecord struct {
	UserID     string
	SecretHash [32]byte
	ExpiresAt  int64
	Attempts   uint16
	Purpose    Purpose
}

// ChallengeStore persists one-time challenges in Redis.
type ChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewChallengeStore returns a store keyed under prefix ("rac" when empty).
func NewChallengeStore(redisClient redis.UniversalClient, prefix string) *ChallengeStore {
	if prefix == "" {
		prefix = "rac"
	}
	return &ChallengeStore{redis: redisClient, prefix: prefix}
}

func (s *ChallengeStore) key(purpose Purpose, id string) string {
	return s.prefix + ":" + purpose.String() + ":" + id
}

func (s *ChallengeStore) userKey(purpose Purpose, userID string) string {
	return s.prefix + ":" + purpose.String() + ":u:" + userID
}

// Save stores record under id and drops the previous challenge of the same
// purpose for the user, if any.
func (s *ChallengeStore) Save(ctx context.Context, id string, record *ChallengeRecord, ttl time.Duration) error {
	userKey := s.userKey(record.Purpose, record.UserID)
	previous, err := s.redis.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return unavailable(err)
	}

	key := s.key(record.Purpose, id)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != "" && previous != id {
			pipe.Del(ctx, s.key(record.Purpose, previous))
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, recordFields(record))
		pipe.Expire(ctx, key, ttl)
		pipe.Set(ctx, userKey, id, ttl)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Consume verifies providedHash against the stored record and deletes it on
// success. A mismatch spends one attempt; the record is deleted when
// maxAttempts is reached. Concurrent consumers of one id retry on conflict,
// so at most one of them can succeed.
func (s *ChallengeStore) Consume(ctx context.Context, purpose Purpose, id string, providedHash [32]byte, maxAttempts int) (*ChallengeRecord, error) {
	const retries = 4
	key := s.key(purpose, id)

	for range retries {
		var matched *ChallengeRecord
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			record, err := parseRecord(purpose, fields)
			if err != nil {
				return err
			}

			drop := func() error {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key, s.userKey(purpose, record.UserID))
					return nil
				})
				return err
			}

			switch {
			case time.Now().Unix() >= record.ExpiresAt:
				if err := drop(); err != nil {
					return err
				}
				return ErrChallengeNotFound

			case subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1:
				if int(record.Attempts)+1 >= maxAttempts {
					if err := drop(); err != nil {
						return err
					}
					return ErrChallengeAttemptsExceeded
				}
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.HIncrBy(ctx, key, fieldAttempts, 1)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrChallengeMismatch
			}

			if err := drop(); err != nil {
				return err
			}
			matched = record
			return nil
		}, key)

		switch {
		case err == nil:
			return matched, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrChallengeNotFound),
			errors.Is(err, ErrChallengeMismatch),
			errors.Is(err, ErrChallengeAttemptsExceeded),
			errors.Is(err, ErrChallengeCorrupt):
			return nil, err
		default:
			return nil, unavailable(err)
		}
	}
	return nil, ErrChallengeNotFound
}

// peek returns the live record for id without consuming it.
func (s *ChallengeStore) peek(ctx context.Context, purpose Purpose, id string) (*ChallengeRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(purpose, id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	record, err := parseRecord(purpose, fields)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= record.ExpiresAt {
		return nil, ErrChallengeNotFound
	}
	return record, nil
}

func recordFields(record *ChallengeRecord) map[string]any {
	return map[string]any{
		fieldUserID:    record.UserID,
		fieldSecret:    hex.EncodeToString(record.SecretHash[:]),
		fieldExpiresAt: record.ExpiresAt,
		fieldAttempts:  record.Attempts,
	}
}

// parseRecord rebuilds a record from its hash fields. A missing key reads as
// an empty map and yields ErrChallengeNotFound; a malformed one is reported
// as corrupt.
func parseRecord(purpose Purpose, fields map[string]string) (*ChallengeRecord, error) {
	if len(fields) == 0 {
		return nil, ErrChallengeNotFound
	}

	record := &ChallengeRecord{UserID: fields[fieldUserID], Purpose: purpose}
	secret, err := hex.DecodeString(fields[fieldSecret])
	if err != nil || len(secret) != len(record.SecretHash) || record.UserID == "" {
		return nil, fmt.Errorf("%w: malformed secret or user", ErrChallengeCorrupt)
	}
	copy(record.SecretHash[:], secret)

	if record.ExpiresAt, err = strconv.ParseInt(fields[fieldExpiresAt], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: expiry: %v", ErrChallengeCorrupt, err)
	}
	attempts, err := strconv.ParseUint(fields[fieldAttempts], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: attempts: %v", ErrChallengeCorrupt, err)
	}
	record.Attempts = uint16(attempts)
	return record, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
