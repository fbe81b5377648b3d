package stripewebhooks

import (
	"context"
	"errors"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/users"
	stripeinfra "reflectio/internal/infra/stripe"
)

// applySubscription writes the premium state a subscription implies. Events
// for users that no longer exist are dropped.
func (h *Handler) applySubscription(ctx context.Context, sub stripeinfra.Subscription) error {
	user, err := h.findUser(ctx, sub)
	if errors.Is(err, apperr.ErrNotFound) {
		h.log.WarnContext(ctx, "subscription for unknown user", "subscription_id", sub.ID, "user_id", sub.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	updates := PremiumUpdates(user, sub, h.now())
	if err := h.profiles.UpdateProfile(ctx, user.ID, updates); err != nil {
		return err
	}
	h.log.InfoContext(ctx, "subscription applied",
		"user_id", user.ID, "subscription_id", sub.ID, "status", updates["stripe_subscription_status"], "is_premium", updates["is_premium"])
	return nil
}

func (h *Handler) findUser(ctx context.Context, sub stripeinfra.Subscription) (users.User, error) {
	if sub.UserID != "" {
		u, err := h.profiles.FetchProfile(ctx, sub.UserID)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return u, err
		}
	}
	if sub.ID == "" {
		return users.User{}, apperr.NotFound("subscription has no id")
	}
	return h.profiles.FetchProfileBySubscription(ctx, sub.ID)
}

// PremiumUpdates maps a subscription onto profile fields. Paying statuses
// grant premium until the period end. Anything else keeps premium until the
// already-paid period ends, after which the expiration sweep downgrades.
func PremiumUpdates(u users.User, sub stripeinfra.Subscription, now time.Time) map[string]interface{} {
	status := stripeinfra.NormalizeStripeStatus(&sub.Status)
	updates := map[string]interface{}{
		"stripe_subscription_status": status,
	}
	if sub.ID != "" {
		updates["subscription_id"] = sub.ID
	}
	if sub.CustomerID != "" {
		updates["stripe_customer_id"] = sub.CustomerID
	}

	periodEnd := sub.CurrentPeriodEnd
	if stripeinfra.GrantsPremium(status) {
		updates["is_premium"] = true
		if !periodEnd.IsZero() {
			updates["premium_expires_at"] = periodEnd
		}
		if !u.IsPremium || u.PremiumSince == nil {
			updates["premium_since"] = now
		}
		return updates
	}

	if periodEnd.IsZero() || !periodEnd.After(now) {
		updates["is_premium"] = false
		updates["premium_expires_at"] = now
		return updates
	}
	updates["premium_expires_at"] = periodEnd
	return updates
}
