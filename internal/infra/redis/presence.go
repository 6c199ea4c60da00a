package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceStore marks user connectivity in Redis so other instances (and
// operators) can see who is reachable. Markers are best-effort liveness
// hints only; the hub never consults them before emitting.
type PresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func (p *PresenceStore) Connected(userID string) {
	_ = p.client.Set(context.Background(), p.key(userID), "1", p.ttl).Err()
}

func (p *PresenceStore) Disconnected(userID string) {
	_ = p.client.Del(context.Background(), p.key(userID)).Err()
}

func (p *PresenceStore) key(userID string) string {
	return "presence:user:" + userID
}
