package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	refreshPrefix      = "refresh_tokens:"
	subjectTokenPrefix = "subject_tokens:"
)

// RegistryRepo backs the refresh token registry with redis so token
// state survives restarts and is shared across instances. Expiry is
// delegated to redis TTLs; the subject index keeps a member per live
// token so a full revoke can find them.
type RegistryRepo struct {
	client *goredis.Client
}

func NewRegistryRepo(client *goredis.Client) *RegistryRepo {
	return &RegistryRepo{client: client}
}

func (r *RegistryRepo) Store(ctx context.Context, subjectID int64, token string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if subjectID <= 0 || token == "" {
		return fmt.Errorf("invalid refresh token payload")
	}

	ttl := ttlFor(expiresAt)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(token), subjectID, ttl)
	pipe.SAdd(ctx, subjectKey(subjectID), token)
	pipe.Expire(ctx, subjectKey(subjectID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	return nil
}

func (r *RegistryRepo) IsValid(ctx context.Context, token string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	err := r.client.Get(ctx, tokenKey(token)).Err()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get refresh token: %w", err)
	}

	return true, nil
}

func (r *RegistryRepo) Revoke(ctx context.Context, token string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	value, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err == goredis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get refresh token for revoke: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	if owner, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil && owner > 0 {
		pipe.SRem(ctx, subjectKey(owner), token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func (r *RegistryRepo) RevokeAllForSubject(ctx context.Context, subjectID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if subjectID <= 0 {
		return fmt.Errorf("invalid subject id")
	}

	tokens, err := r.client.SMembers(ctx, subjectKey(subjectID)).Result()
	if err != nil {
		return fmt.Errorf("list subject refresh tokens: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, tokenKey(token))
	}
	pipe.Del(ctx, subjectKey(subjectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke subject refresh tokens: %w", err)
	}

	return nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func tokenKey(token string) string {
	return refreshPrefix + token
}

func subjectKey(subjectID int64) string {
	return subjectTokenPrefix + strconv.FormatInt(subjectID, 10)
}
