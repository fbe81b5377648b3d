package entitlement

import "time"

// DefaultExpiringSoonDays is the window in which a paid-through date is
// surfaced as "expiring".
const DefaultExpiringSoonDays = 7

// Entitlement is the effective premium state of a profile after expiration
// has been corrected for.
type Entitlement struct {
	Premium  bool `json:"premium"`
	Expiring bool `json:"expiring"`
	// Expired is set when the stored flag still says premium but the
	// expiration date has passed. Storage needs reconciling.
	Expired   bool       `json:"expired"`
	ExpiresAt *time.Time `json:"expires_at"`
	DaysLeft  *int       `json:"days_left"`
	Level     int        `json:"level"`
}

type TrustTier string

const (
	TierTrustedPremium TrustTier = "trusted-premium"
	TierStandard       TrustTier = "standard"
)

// UserPermissions is the capability bundle handed to the UI and other services.
type UserPermissions struct {
	CanViewPremiumContent       bool `json:"can_view_premium_content"`
	CanCreatePremiumContent     bool `json:"can_create_premium_content"`
	CanRequestConnection        bool `json:"can_request_connection"`
	RequiresMandatoryModeration bool `json:"requires_mandatory_moderation"`
}
