package entitlement

import (
	"math"
	"time"

	"reflectio/internal/domain/users"
)

// Resolver turns raw profile state into an Entitlement. It never writes.
type Resolver struct {
	ExpiringSoonDays int
}

func (r Resolver) window() int {
	if r.ExpiringSoonDays <= 0 {
		return DefaultExpiringSoonDays
	}
	return r.ExpiringSoonDays
}

// Resolve is the read-time view of a profile. A stored premium flag whose
// expiration is in the past resolves to non-premium with Expired set.
func (r Resolver) Resolve(now time.Time, u users.User) Entitlement {
	e := Entitlement{Level: u.Level()}

	if !u.IsPremium {
		return e
	}

	// No expiration: permanent or grandfathered account
	if u.PremiumExpiresAt == nil {
		e.Premium = true
		return e
	}

	if IsExpired(*u.PremiumExpiresAt, now) {
		e.Expired = true
		e.ExpiresAt = u.PremiumExpiresAt
		zero := 0
		e.DaysLeft = &zero
		return e
	}

	days := DaysUntilExpiration(u.PremiumExpiresAt, now)
	e.Premium = true
	e.ExpiresAt = u.PremiumExpiresAt
	e.DaysLeft = days
	e.Expiring = *days <= r.window()
	return e
}

// Resolve with the default expiring window.
func Resolve(now time.Time, u users.User) Entitlement {
	return Resolver{}.Resolve(now, u)
}

// IsExpired reports whether expiresAt is at or before now.
func IsExpired(expiresAt, now time.Time) bool {
	return !expiresAt.After(now)
}

// RawDaysUntilExpiration is ceil((expiresAt-now)/24h) without clamping.
func RawDaysUntilExpiration(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	return int(math.Ceil(d.Hours() / 24))
}

// DaysUntilExpiration is the display form: nil when there is no expiration,
// never negative.
func DaysUntilExpiration(expiresAt *time.Time, now time.Time) *int {
	if expiresAt == nil {
		return nil
	}
	d := RawDaysUntilExpiration(*expiresAt, now)
	if d < 0 {
		d = 0
	}
	return &d
}
