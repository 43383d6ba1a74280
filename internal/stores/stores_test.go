package stores

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newRecord(userID, secret string, purpose Purpose) *ChallengeRecord {
	return &ChallengeRecord{
		UserID:     userID,
		SecretHash: sha256.Sum256([]byte(secret)),
		ExpiresAt:  time.Now().Add(time.Hour).Unix(),
		Purpose:    purpose,
	}
}

func TestChallengeConsumeSuccessIsSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	if err := store.Save(ctx, "c1", newRecord("u1", "s3cret", PurposePasswordReset), time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}

	record, err := store.Consume(ctx, PurposePasswordReset, "c1", sha256.Sum256([]byte("s3cret")), 3)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if record.UserID != "u1" {
		t.Fatalf("unexpected user %q", record.UserID)
	}

	if _, err := store.Consume(ctx, PurposePasswordReset, "c1", sha256.Sum256([]byte("s3cret")), 3); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected replay to fail with ErrChallengeNotFound, got %v", err)
	}
}

func TestChallengeMismatchSpendsAttempts(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	if err := store.Save(ctx, "c1", newRecord("u1", "right", PurposeEmailVerification), time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}

	wrong := sha256.Sum256([]byte("wrong"))
	if _, err := store.Consume(ctx, PurposeEmailVerification, "c1", wrong, 2); !errors.Is(err, ErrChallengeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	record, err := store.peek(ctx, PurposeEmailVerification, "c1")
	if err != nil || record.Attempts != 1 {
		t.Fatalf("expected one recorded attempt, got %+v %v", record, err)
	}
	if _, err := store.Consume(ctx, PurposeEmailVerification, "c1", wrong, 2); !errors.Is(err, ErrChallengeAttemptsExceeded) {
		t.Fatalf("expected attempts exceeded, got %v", err)
	}
	if _, err := store.Consume(ctx, PurposeEmailVerification, "c1", sha256.Sum256([]byte("right")), 2); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected record deleted after budget spent, got %v", err)
	}
}

func TestChallengePurposeIsolation(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	if err := store.Save(ctx, "c1", newRecord("u1", "s", PurposePasswordReset), time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Consume(ctx, PurposeEmailVerification, "c1", sha256.Sum256([]byte("s")), 3); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected other purpose to miss, got %v", err)
	}
}

func TestChallengeExpiredRecordIsNotFound(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	record := newRecord("u1", "s", PurposePasswordReset)
	record.ExpiresAt = time.Now().Add(-time.Second).Unix()
	if err := store.Save(ctx, "c1", record, time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Consume(ctx, PurposePasswordReset, "c1", sha256.Sum256([]byte("s")), 3); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected expired record to be not found, got %v", err)
	}
}

func TestChallengeNewIssueReplacesPrevious(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	if err := store.Save(ctx, "old", newRecord("u1", "a", PurposePasswordReset), time.Hour); err != nil {
		t.Fatalf("Save old: %v", err)
	}
	if err := store.Save(ctx, "new", newRecord("u1", "b", PurposePasswordReset), time.Hour); err != nil {
		t.Fatalf("Save new: %v", err)
	}

	if _, err := store.peek(ctx, PurposePasswordReset, "old"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected old challenge to be replaced, got %v", err)
	}
	if _, err := store.peek(ctx, PurposePasswordReset, "new"); err != nil {
		t.Fatalf("expected new challenge to exist: %v", err)
	}
}

func TestChallengeRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	mr.Close()

	err := store.Save(context.Background(), "c1", newRecord("u1", "s", PurposePasswordReset), time.Hour)
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestDenyList(t *testing.T) {
	mr, rdb := newTestRedis(t)
	deny := NewDenyList(rdb, "")
	ctx := context.Background()

	revoked, err := deny.IsRevoked(ctx, "token-a")
	if err != nil || revoked {
		t.Fatalf("fresh token should not be revoked: %v %v", revoked, err)
	}

	if err := deny.Revoke(ctx, "token-a", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := deny.Revoke(ctx, "token-b", 0); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}

	if revoked, _ := deny.IsRevoked(ctx, "token-a"); !revoked {
		t.Fatal("expected token-a revoked")
	}
	if revoked, _ := deny.IsRevoked(ctx, "token-b"); revoked {
		t.Fatal("expired token should not be stored")
	}

	mr.FastForward(2 * time.Minute)
	if revoked, _ := deny.IsRevoked(ctx, "token-a"); revoked {
		t.Fatal("deny-list entry should expire with the token")
	}
}

func TestDenyListRevokeOnce(t *testing.T) {
	_, rdb := newTestRedis(t)
	deny := NewDenyList(rdb, "")
	ctx := context.Background()

	first, err := deny.RevokeOnce(ctx, "refresh-a", time.Minute)
	if err != nil || !first {
		t.Fatalf("first RevokeOnce = %v, %v", first, err)
	}
	again, err := deny.RevokeOnce(ctx, "refresh-a", time.Minute)
	if err != nil || again {
		t.Fatalf("second RevokeOnce = %v, %v", again, err)
	}
	if expired, _ := deny.RevokeOnce(ctx, "refresh-b", 0); expired {
		t.Fatal("expired token cannot be revoked")
	}
}

func TestChallengeStoredAsHash(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")
	ctx := context.Background()

	if err := store.Save(ctx, "c1", newRecord("u1", "s", PurposeEmailVerification), time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	key := "rac:verify:c1"
	if got := mr.HGet(key, "uid"); got != "u1" {
		t.Fatalf("uid field = %q", got)
	}
	if got := mr.HGet(key, "secret"); len(got) != 64 {
		t.Fatalf("secret must be stored as a hex digest, got %q", got)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestChallengeCorruptRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewChallengeStore(rdb, "")

	mr.HSet("rac:reset:c1", "uid", "u1", "secret", "zz", "exp", "1", "attempts", "0")
	if _, err := store.peek(context.Background(), PurposePasswordReset, "c1"); !errors.Is(err, ErrChallengeCorrupt) {
		t.Fatalf("expected ErrChallengeCorrupt, got %v", err)
	}
	if _, err := store.Consume(context.Background(), PurposePasswordReset, "c1", sha256.Sum256([]byte("s")), 3); !errors.Is(err, ErrChallengeCorrupt) {
		t.Fatalf("expected ErrChallengeCorrupt from Consume, got %v", err)
	}
}
