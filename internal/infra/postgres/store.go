package postgres

import (
	"context"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/connections"
	"reflectio/internal/domain/plans"
	"reflectio/internal/domain/posts"
	"reflectio/internal/domain/users"
	"reflectio/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ store.ProfileStore    = (*Store)(nil)
	_ store.PostStore       = (*Store)(nil)
	_ store.ConnectionStore = (*Store)(nil)
	_ store.PlanStore       = (*Store)(nil)
)

// Store implements the storage ports on one shared gorm pool.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

/* ---------- profiles ---------- */

func (s *Store) firstProfile(ctx context.Context, query string, args ...interface{}) (users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	return u, translate(err, "profile")
}

func (s *Store) FetchProfile(ctx context.Context, userID string) (users.User, error) {
	return s.firstProfile(ctx, "id = ?", userID)
}

func (s *Store) FetchProfileByEmail(ctx context.Context, email string) (users.User, error) {
	return s.firstProfile(ctx, "email = ?", email)
}

func (s *Store) FetchProfileByGoogleSub(ctx context.Context, sub string) (users.User, error) {
	return s.firstProfile(ctx, "google_sub = ?", sub)
}

func (s *Store) FetchProfileBySubscription(ctx context.Context, subscriptionID string) (users.User, error) {
	return s.firstProfile(ctx, "subscription_id = ?", subscriptionID)
}

func (s *Store) CreateProfile(ctx context.Context, u *users.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error, "profile")
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "profile")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("profile not found")
	}
	return nil
}

func (s *Store) ListPremiumProfilesWithExpiration(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := s.db.WithContext(ctx).
		Where("is_premium = ? AND premium_expires_at IS NOT NULL", true).
		Order("premium_expires_at ASC").
		Find(&out).Error
	return out, translate(err, "premium profiles")
}

func (s *Store) DowngradeProfiles(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	// is_premium = true keeps a re-run from touching rows twice
	res := s.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id IN ? AND is_premium = ?", userIDs, true).
		Update("is_premium", false)
	return res.RowsAffected, translate(res.Error, "profiles")
}

/* ---------- posts ---------- */

func (s *Store) FetchPublishedPost(ctx context.Context, postID string) (posts.Post, error) {
	var p posts.Post
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", postID, posts.StatusPublished).
		First(&p).Error
	return p, translate(err, "post")
}

func (s *Store) CreatePost(ctx context.Context, p *posts.Post) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "post")
}

func (s *Store) CreateReflection(ctx context.Context, r *posts.Reflection) error {
	return translate(s.db.WithContext(ctx).Create(r).Error, "reflection")
}

/* ---------- connections ---------- */

func pairQuery(db *gorm.DB, a, b string) *gorm.DB {
	return db.Model(&connections.Connection{}).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a)
}

func (s *Store) FetchConnection(ctx context.Context, id string) (connections.Connection, error) {
	var c connections.Connection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return c, translate(err, "connection")
}

func (s *Store) FindLatestBetween(ctx context.Context, a, b string) (connections.Connection, error) {
	var c connections.Connection
	err := pairQuery(s.db.WithContext(ctx), a, b).
		Order("created_at DESC").
		First(&c).Error
	return c, translate(err, "connection")
}

func (s *Store) InsertConnection(ctx context.Context, c *connections.Connection) error {
	return translate(s.db.WithContext(ctx).Create(c).Error, "connection")
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, id string, from, to connections.Status) error {
	res := s.db.WithContext(ctx).
		Model(&connections.Connection{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return translate(res.Error, "connection")
	}
	if res.RowsAffected == 0 {
		if _, err := s.FetchConnection(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("connection is no longer " + string(from))
	}
	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&connections.Connection{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "connection")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("connection not found")
	}
	return nil
}

/* ---------- plans ---------- */

func (s *Store) ListActivePlans(ctx context.Context) ([]plans.Plan, error) {
	var out []plans.Plan
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("price_eur ASC").
		Find(&out).Error
	return out, translate(err, "plans")
}

func (s *Store) FindPlanByStripePrice(ctx context.Context, priceID string) (plans.Plan, error) {
	var p plans.Plan
	err := s.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&p).Error
	return p, translate(err, "plan")
}

func (s *Store) UpsertPlan(ctx context.Context, p *plans.Plan) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_price_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price_eur", "interval", "active"}),
		}).
		Create(p).Error
	return translate(err, "plan")
}
