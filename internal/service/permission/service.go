package permission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/entitlement"
	"reflectio/internal/domain/posts"
	"reflectio/internal/domain/users"
	"reflectio/internal/events"
	"reflectio/internal/store"
)

type Options struct {
	Resolver     entitlement.Resolver
	TrustedLevel int
	Events       events.Publisher
	Now          func() time.Time
	Log          *slog.Logger
}

// Service is the single place that answers "may user U do A on R". Every
// check returns a Decision; storage failures become denials.
type Service struct {
	profiles store.ProfileStore
	posts    store.PostStore

	resolver     entitlement.Resolver
	trustedLevel int
	events       events.Publisher
	now          func() time.Time
	log          *slog.Logger
}

func NewService(profiles store.ProfileStore, postStore store.PostStore, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Service{
		profiles:     profiles,
		posts:        postStore,
		resolver:     opts.Resolver,
		trustedLevel: opts.TrustedLevel,
		events:       opts.Events,
		now:          opts.Now,
		log:          opts.Log.With("component", "permission"),
	}
}

// Entitlement resolves a user's effective premium state without writing.
func (s *Service) Entitlement(ctx context.Context, userID string) (entitlement.Entitlement, error) {
	fetch := s.profiles.FetchProfile
	if r, ok := s.profiles.(store.EntitlementProfileReader); ok {
		fetch = r.FetchEntitlementProfile
	}
	u, err := fetch(ctx, userID)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	return s.resolver.Resolve(s.now(), u), nil
}

func (s *Service) TrustedLevel() int { return s.trustedLevel }

// fetchPost returns the post or the denial that explains why it can't be read.
func (s *Service) fetchPost(ctx context.Context, postID string) (posts.Post, *Decision) {
	post, err := s.posts.FetchPublishedPost(ctx, postID)
	if err == nil {
		return post, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		d := Deny(apperr.KindNotFound, ReasonPostNotFound, false)
		return posts.Post{}, &d
	}
	s.log.ErrorContext(ctx, "fetch post failed", "post_id", postID, "error", err)
	d := Deny(apperr.KindUpstream, ReasonUnavailable, false)
	return posts.Post{}, &d
}

// premiumOrDeny resolves userID and returns nil when premium.
func (s *Service) premiumOrDeny(ctx context.Context, userID, reason string) *Decision {
	ent, err := s.Entitlement(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "resolve entitlement failed", "user_id", userID, "error", err)
		d := EntitlementFailure(err)
		return &d
	}
	if ent.Premium {
		return nil
	}
	d := RequirePremium(reason)
	return &d
}

func (s *Service) checkPostAccess(ctx context.Context, userID string, post posts.Post) Decision {
	if !post.IsPremiumContent {
		return Allow()
	}
	// ownership always wins
	if post.AuthorID == userID {
		return Allow()
	}
	if d := s.premiumOrDeny(ctx, userID, ReasonPremiumContent); d != nil {
		return *d
	}
	return Allow()
}

// CheckPostAccess decides whether userID may read postID. Only published
// posts are reachable here.
func (s *Service) CheckPostAccess(ctx context.Context, userID, postID string) Decision {
	post, denied := s.fetchPost(ctx, postID)
	if denied != nil {
		return *denied
	}
	return s.checkPostAccess(ctx, userID, post)
}

// CheckReflectionPermission gates writing a reflection. Reading the post is
// required first; after that, reflecting is premium-only for everyone but
// the post's author, whatever the post's own premium flag.
func (s *Service) CheckReflectionPermission(ctx context.Context, userID, postID string) Decision {
	post, denied := s.fetchPost(ctx, postID)
	if denied != nil {
		return *denied
	}
	if d := s.checkPostAccess(ctx, userID, post); !d.Allowed {
		return d
	}
	if post.AuthorID == userID {
		return Allow()
	}
	if d := s.premiumOrDeny(ctx, userID, ReasonPremiumReflection); d != nil {
		return *d
	}
	return Allow()
}

// CanCreatePremiumContent gates marking a post as premium.
func (s *Service) CanCreatePremiumContent(ctx context.Context, userID string) Decision {
	if d := s.premiumOrDeny(ctx, userID, ReasonPremiumCreate); d != nil {
		return *d
	}
	return Allow()
}

// GetUserPermissions never fails: an unreadable profile gets the most
// restrictive bundle.
func (s *Service) GetUserPermissions(ctx context.Context, userID string) entitlement.UserPermissions {
	ent, err := s.Entitlement(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "permissions fell back to restrictive bundle", "user_id", userID, "error", err)
		return entitlement.RestrictivePermissions()
	}
	return entitlement.PermissionsFor(ent, s.trustedLevel)
}

type PremiumStatus struct {
	IsPremium  bool       `json:"is_premium"`
	Expiring   bool       `json:"expiring"`
	ExpiresAt  *time.Time `json:"expires_at"`
	DaysLeft   *int       `json:"days_left"`
	WasExpired bool       `json:"was_expired"`
}

// GetUserPremiumStatus resolves and, when the stored flag is stale,
// reconciles it. This is the one read path that is allowed to write.
func (s *Service) GetUserPremiumStatus(ctx context.Context, userID string) (PremiumStatus, error) {
	u, err := s.profiles.FetchProfile(ctx, userID)
	if err != nil {
		return PremiumStatus{}, err
	}

	now := s.now()
	ent := s.resolver.Resolve(now, u)
	status := PremiumStatus{
		IsPremium: ent.Premium,
		Expiring:  ent.Expiring,
		ExpiresAt: ent.ExpiresAt,
		DaysLeft:  ent.DaysLeft,
	}

	wasExpired, err := s.reconcileAt(ctx, u, now)
	if err != nil {
		// the read-time view is already correct; the sweep will retry the write
		s.log.ErrorContext(ctx, "reconcile expiration failed", "user_id", userID, "error", err)
		return status, nil
	}
	status.WasExpired = wasExpired
	return status, nil
}

// ReconcileExpiration flips is_premium off when the profile's expiration has
// passed. It issues at most one update and reports whether it did.
func (s *Service) ReconcileExpiration(ctx context.Context, u users.User) (bool, error) {
	return s.reconcileAt(ctx, u, s.now())
}

func (s *Service) reconcileAt(ctx context.Context, u users.User, now time.Time) (bool, error) {
	if !u.IsPremium || u.PremiumExpiresAt == nil {
		return false, nil
	}
	if !entitlement.IsExpired(*u.PremiumExpiresAt, now) {
		return false, nil
	}

	if err := s.profiles.UpdateProfile(ctx, u.ID, map[string]interface{}{"is_premium": false}); err != nil {
		return false, err
	}

	s.log.InfoContext(ctx, "premium expired", "user_id", u.ID, "expired_at", u.PremiumExpiresAt)
	if s.events != nil {
		e := events.Event{
			Type:       events.TypePremiumExpired,
			Key:        u.ID,
			OccurredAt: now,
			Data:       map[string]string{"source": "reconcile", "expired_at": u.PremiumExpiresAt.Format(time.RFC3339)},
		}
		if err := s.events.Publish(ctx, e); err != nil {
			s.log.WarnContext(ctx, "publish event failed", "type", e.Type, "error", err)
		}
	}
	return true, nil
}
