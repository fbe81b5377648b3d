package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reflectio/internal/domain/users"
	"reflectio/internal/store"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "reflectio:entitlement"

// ProfileCache caches the entitlement columns of a profile in front of a
// ProfileStore. FetchProfile itself is not cached, so credentials and billing
// ids never reach redis. Every write goes to the store and drops the key;
// redis failures fall through to the store.
type ProfileCache struct {
	store.ProfileStore

	client redis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

var _ store.EntitlementProfileReader = (*ProfileCache)(nil)

func NewProfileCache(next store.ProfileStore, client redis.Cmdable, ttl time.Duration, log *slog.Logger) *ProfileCache {
	return &ProfileCache{ProfileStore: next, client: client, ttl: ttl, log: log}
}

func profileKey(userID string) string {
	return fmt.Sprintf("%s:%s", profileKeyPrefix, userID)
}

// entitlementProfile is the cached value.
type entitlementProfile struct {
	ID               string     `json:"id"`
	IsPremium        bool       `json:"is_premium"`
	PremiumSince     *time.Time `json:"premium_since,omitempty"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at,omitempty"`
	CurrentLevel     int        `json:"current_level"`
}

func (p entitlementProfile) user() users.User {
	return users.User{
		ID:               p.ID,
		IsPremium:        p.IsPremium,
		PremiumSince:     p.PremiumSince,
		PremiumExpiresAt: p.PremiumExpiresAt,
		CurrentLevel:     p.CurrentLevel,
	}
}

// FetchEntitlementProfile returns a User carrying only the fields needed to
// resolve premium state and trust tier.
func (c *ProfileCache) FetchEntitlementProfile(ctx context.Context, userID string) (users.User, error) {
	key := profileKey(userID)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var p entitlementProfile
		if decErr := json.Unmarshal(raw, &p); decErr == nil {
			return p.user(), nil
		}
		c.log.Warn("profile cache decode failed", "user_id", userID)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("profile cache read failed", "user_id", userID, "error", err)
	}

	u, err := c.ProfileStore.FetchProfile(ctx, userID)
	if err != nil {
		return users.User{}, err
	}

	p := entitlementProfile{
		ID:               u.ID,
		IsPremium:        u.IsPremium,
		PremiumSince:     u.PremiumSince,
		PremiumExpiresAt: u.PremiumExpiresAt,
		CurrentLevel:     u.CurrentLevel,
	}
	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("profile cache write failed", "user_id", userID, "error", err)
		}
	}
	return p.user(), nil
}

func (c *ProfileCache) invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, profileKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("profile cache invalidate failed", "keys", len(keys), "error", err)
	}
}

func (c *ProfileCache) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	err := c.ProfileStore.UpdateProfile(ctx, userID, updates)
	c.invalidate(ctx, userID)
	return err
}

func (c *ProfileCache) DowngradeProfiles(ctx context.Context, userIDs []string) (int64, error) {
	n, err := c.ProfileStore.DowngradeProfiles(ctx, userIDs)
	c.invalidate(ctx, userIDs...)
	return n, err
}
