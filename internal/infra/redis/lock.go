package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker hands out best-effort leases with SET NX. Leases simply expire;
// there is no explicit unlock so a crashed holder cannot wedge the key.
type Locker struct {
	client redis.Cmdable
	owner  string
}

func NewLocker(client redis.Cmdable, owner string) *Locker {
	return &Locker{client: client, owner: owner}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, l.owner, ttl).Result()
}
