package users

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the profile row. Premium fields are raw state; read them through
// entitlement.Resolve, which corrects for expiration.
type User struct {
	ID           string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	DisplayName  string  `json:"display_name"`
	Password     *string `gorm:"" json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"-"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"not null;default:'user'" json:"role"`

	IsPremium        bool       `gorm:"not null;default:false;index" json:"is_premium"`
	PremiumSince     *time.Time `json:"premium_since"`
	PremiumExpiresAt *time.Time `gorm:"index" json:"premium_expires_at"`

	// CurrentLevel is derived from QualityScore outside this service.
	CurrentLevel int     `gorm:"not null;default:1" json:"current_level"`
	QualityScore float64 `gorm:"not null;default:0" json:"quality_score"`

	StripeCustomerID         *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id" json:"-"`
	SubscriptionID           *string `gorm:"column:subscription_id;uniqueIndex:idx_users_subscription_id" json:"-"`
	StripeSubscriptionStatus *string `gorm:"column:stripe_subscription_status" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Level clamps CurrentLevel to its floor of 1.
func (u User) Level() int {
	if u.CurrentLevel < 1 {
		return 1
	}
	return u.CurrentLevel
}
