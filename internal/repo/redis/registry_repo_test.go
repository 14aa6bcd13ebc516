package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *RegistryRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRegistryRepo(client)
}

func TestStoreAndIsValid(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Store(ctx, 42, "token-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store: %v", err)
	}

	ok, err := repo.IsValid(ctx, "token-a")
	if err != nil {
		t.Fatalf("is valid: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored token to be valid")
	}

	ok, err = repo.IsValid(ctx, "unknown")
	if err != nil {
		t.Fatalf("is valid unknown: %v", err)
	}
	if ok {
		t.Fatalf("unknown token must be invalid")
	}
}

func TestStoreIsIdempotent(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Store(ctx, 42, "token-a", time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("store #%d: %v", i+1, err)
		}
	}

	if ok, _ := repo.IsValid(ctx, "token-a"); !ok {
		t.Fatalf("re-stored token must stay valid")
	}
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Store(ctx, 7, "short-lived", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("store: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	ok, err := repo.IsValid(ctx, "short-lived")
	if err != nil {
		t.Fatalf("is valid: %v", err)
	}
	if ok {
		t.Fatalf("expired token must be invalid")
	}
}

func TestRevokeSingleToken(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Store(ctx, 1, "token-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store a: %v", err)
	}
	if err := repo.Store(ctx, 1, "token-b", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store b: %v", err)
	}

	if err := repo.Revoke(ctx, "token-a"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if ok, _ := repo.IsValid(ctx, "token-a"); ok {
		t.Fatalf("revoked token must be invalid")
	}
	if ok, _ := repo.IsValid(ctx, "token-b"); !ok {
		t.Fatalf("untouched token must stay valid")
	}
}

func TestRevokeUnknownTokenIsNoop(t *testing.T) {
	_, repo := newTestRepo(t)

	if err := repo.Revoke(context.Background(), "never-stored"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
}

func TestRevokeAllForSubject(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Store(ctx, 5, "five-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store five-a: %v", err)
	}
	if err := repo.Store(ctx, 5, "five-b", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store five-b: %v", err)
	}
	if err := repo.Store(ctx, 6, "six-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("store six-a: %v", err)
	}

	if err := repo.RevokeAllForSubject(ctx, 5); err != nil {
		t.Fatalf("revoke all: %v", err)
	}

	if ok, _ := repo.IsValid(ctx, "five-a"); ok {
		t.Fatalf("subject token five-a must be revoked")
	}
	if ok, _ := repo.IsValid(ctx, "five-b"); ok {
		t.Fatalf("subject token five-b must be revoked")
	}
	if ok, _ := repo.IsValid(ctx, "six-a"); !ok {
		t.Fatalf("other subject token must stay valid")
	}
}
