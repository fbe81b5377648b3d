package permission

import (
	"errors"

	"reflectio/internal/apperr"
)

const (
	ReasonPremiumContent    = "Premium subscription required to view this content"
	ReasonPremiumReflection = "Premium subscription required to add reflections"
	ReasonPremiumCreate     = "Premium subscription required to publish premium content"
	ReasonPostNotFound      = "Post not found"
	ReasonUnavailable       = "Unable to verify permissions right now"
	ReasonUnknownUser       = "User profile not found"
)

// Decision is the uniform answer of every permission check. Denial is a
// normal value; Kind says which status a handler should respond with.
type Decision struct {
	Allowed       bool        `json:"allowed"`
	Reason        string      `json:"reason,omitempty"`
	UpgradePrompt bool        `json:"upgrade_prompt,omitempty"`
	Kind          apperr.Kind `json:"-"`
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(kind apperr.Kind, reason string, upgrade bool) Decision {
	return Decision{Allowed: false, Kind: kind, Reason: reason, UpgradePrompt: upgrade}
}

// RequirePremium is the denial premium would lift.
func RequirePremium(reason string) Decision {
	return Deny(apperr.KindPermissionDenied, reason, true)
}

// EntitlementFailure is the denial for a profile that could not be resolved.
// A missing profile is an identity problem, anything else is upstream.
func EntitlementFailure(err error) Decision {
	if errors.Is(err, apperr.ErrNotFound) {
		return Deny(apperr.KindUnauthorized, ReasonUnknownUser, false)
	}
	return Deny(apperr.KindUpstream, ReasonUnavailable, false)
}

// Err converts a denial into an apperr error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	kind := d.Kind
	if kind == "" {
		kind = apperr.KindPermissionDenied
	}
	return &apperr.Error{Kind: kind, Message: d.Reason, UpgradePrompt: d.UpgradePrompt}
}
