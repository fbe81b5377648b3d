package stripe

import "strings"

// NormalizeStripeStatus folds Stripe subscription statuses into the few the
// premium mapping cares about.
func NormalizeStripeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(*s)
	}
}

// GrantsPremium reports whether a normalized status keeps premium on until
// the period end. past_due keeps it during Stripe's retry window.
func GrantsPremium(normalized string) bool {
	switch normalized {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}
