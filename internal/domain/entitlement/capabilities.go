package entitlement

// TierFor classifies a user for moderation bypass. Only premium users at or
// above the trusted level skip the classifier.
func TierFor(e Entitlement, trustedLevel int) TrustTier {
	if e.Premium && e.Level >= trustedLevel {
		return TierTrustedPremium
	}
	return TierStandard
}

func PermissionsFor(e Entitlement, trustedLevel int) UserPermissions {
	return UserPermissions{
		CanViewPremiumContent:       e.Premium,
		CanCreatePremiumContent:     e.Premium,
		CanRequestConnection:        e.Premium,
		RequiresMandatoryModeration: TierFor(e, trustedLevel) != TierTrustedPremium,
	}
}

// RestrictivePermissions is what callers get when the profile can't be read.
func RestrictivePermissions() UserPermissions {
	return UserPermissions{RequiresMandatoryModeration: true}
}
