package credentials

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func TestRedisTokenRevokerRoundTrip(t *testing.T) {
	_, client := newRedisClientForTest(t)
	revoker := NewRedisTokenRevoker(client, "", "pepper", time.Hour)
	ctx := context.Background()

	revoked, _, err := revoker.IsRevoked(ctx, "sess-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("fresh session must not be revoked")
	}

	if err := revoker.Revoke(ctx, "sess-1", "inactivity"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, reason, err := revoker.IsRevoked(ctx, "sess-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected session to be on the denylist")
	}
	if reason != "inactivity" {
		t.Fatalf("reason=%q want inactivity", reason)
	}
}

func TestRedisTokenRevokerEntriesExpire(t *testing.T) {
	server, client := newRedisClientForTest(t)
	revoker := NewRedisTokenRevoker(client, "", "pepper", time.Minute)
	ctx := context.Background()

	if err := revoker.Revoke(ctx, "sess-1", "absolute timeout"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	server.FastForward(2 * time.Minute)

	revoked, _, err := revoker.IsRevoked(ctx, "sess-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("denylist entry must age out after the TTL")
	}
}

func TestRedisTokenRevokerIdempotent(t *testing.T) {
	_, client := newRedisClientForTest(t)
	revoker := NewRedisTokenRevoker(client, "", "pepper", time.Hour)
	ctx := context.Background()

	if err := revoker.Revoke(ctx, "sess-1", "inactivity"); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := revoker.Revoke(ctx, "sess-1", "manual termination"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	_, reason, err := revoker.IsRevoked(ctx, "sess-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if reason != "manual termination" {
		t.Fatalf("latest reason should win, got %q", reason)
	}
}

func TestRedisTokenRevokerRawIDNotStored(t *testing.T) {
	server, client := newRedisClientForTest(t)
	revoker := NewRedisTokenRevoker(client, "", "pepper", time.Hour)

	if err := revoker.Revoke(context.Background(), "sess-secret-id", "inactivity"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	for _, key := range server.Keys() {
		if key == "revoked_sessions:index" {
			continue
		}
		if strings.Contains(key, "sess-secret-id") {
			t.Fatalf("raw session id leaked into key %q", key)
		}
	}
}
