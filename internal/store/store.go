package store

import (
	"context"

	"reflectio/internal/domain/connections"
	"reflectio/internal/domain/plans"
	"reflectio/internal/domain/posts"
	"reflectio/internal/domain/users"
)

// Implementations return apperr kinds: NotFound for missing rows, Conflict
// for uniqueness violations, Upstream for everything else.

type ProfileStore interface {
	FetchProfile(ctx context.Context, userID string) (users.User, error)
	FetchProfileByEmail(ctx context.Context, email string) (users.User, error)
	FetchProfileByGoogleSub(ctx context.Context, sub string) (users.User, error)
	FetchProfileBySubscription(ctx context.Context, subscriptionID string) (users.User, error)
	CreateProfile(ctx context.Context, u *users.User) error
	UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error

	ListPremiumProfilesWithExpiration(ctx context.Context) ([]users.User, error)
	// DowngradeProfiles flips is_premium to false for every id in one statement.
	DowngradeProfiles(ctx context.Context, userIDs []string) (int64, error)
}

// EntitlementProfileReader is an optional ProfileStore extension returning
// only the premium and level columns, possibly from a cache.
type EntitlementProfileReader interface {
	FetchEntitlementProfile(ctx context.Context, userID string) (users.User, error)
}

type PostStore interface {
	// FetchPublishedPost only returns posts whose status is published.
	FetchPublishedPost(ctx context.Context, postID string) (posts.Post, error)
	CreatePost(ctx context.Context, p *posts.Post) error
	CreateReflection(ctx context.Context, r *posts.Reflection) error
}

type ConnectionStore interface {
	FetchConnection(ctx context.Context, id string) (connections.Connection, error)
	// FindLatestBetween returns the most recent row for the pair in any
	// status, looking in both directions.
	FindLatestBetween(ctx context.Context, a, b string) (connections.Connection, error)
	InsertConnection(ctx context.Context, c *connections.Connection) error
	// UpdateConnectionStatus moves id from one status to another and returns
	// Conflict when the row is no longer in `from`.
	UpdateConnectionStatus(ctx context.Context, id string, from, to connections.Status) error
	DeleteConnection(ctx context.Context, id string) error
}

type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]plans.Plan, error)
	FindPlanByStripePrice(ctx context.Context, priceID string) (plans.Plan, error)
	UpsertPlan(ctx context.Context, p *plans.Plan) error
}
