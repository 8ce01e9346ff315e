package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
)

// RedisTokenRevoker records expired sessions in a shared denylist so the
// external token validator stops honoring their refresh tokens. Entries
// carry the expiry reason and age out after the configured TTL, which only
// needs to outlive the longest refresh token.
type RedisTokenRevoker struct {
	client redis.UniversalClient
	prefix string
	pepper string
	ttl    time.Duration
}

func NewRedisTokenRevoker(client redis.UniversalClient, prefix, pepper string, ttl time.Duration) *RedisTokenRevoker {
	if prefix == "" {
		prefix = "revoked_sessions"
	}
	return &RedisTokenRevoker{
		client: client,
		prefix: prefix,
		pepper: pepper,
		ttl:    ttl,
	}
}

func (r *RedisTokenRevoker) Revoke(ctx context.Context, sessionID, reason string) error {
	if r.client == nil {
		return nil
	}
	key := r.key(sessionID)
	index := r.indexKey()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, reason, r.ttl)
	pipe.SAdd(ctx, index, key)
	pipe.Expire(ctx, index, r.ttl+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

// IsRevoked reports whether the session is on the denylist, with the
// recorded reason when present.
func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, string, error) {
	if r.client == nil {
		return false, "", nil
	}
	reason, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, reason, nil
}

func (r *RedisTokenRevoker) key(sessionID string) string {
	return fmt.Sprintf("%s:data:%s", r.prefix, security.HashSessionKey(sessionID, r.pepper))
}

func (r *RedisTokenRevoker) indexKey() string {
	return fmt.Sprintf("%s:index", r.prefix)
}

// NoopTokenRevoker satisfies the revoker contract without a backing store,
// for dev profiles and tests that do not care about revocation.
type NoopTokenRevoker struct{}

func NewNoopTokenRevoker() *NoopTokenRevoker { return &NoopTokenRevoker{} }

func (*NoopTokenRevoker) Revoke(context.Context, string, string) error { return nil }
