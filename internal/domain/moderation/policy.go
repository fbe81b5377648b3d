package moderation

import (
	"strings"

	"reflectio/internal/domain/entitlement"
)

type Type string

const (
	TypeMandatory Type = "mandatory"
	TypeBypassed  Type = "bypassed"
)

type ContentType string

const (
	ContentPost       ContentType = "post"
	ContentReflection ContentType = "reflection"
	ContentComment    ContentType = "comment"
	ContentProfile    ContentType = "profile"
)

const (
	ReasonEmptyContent   = "No content to moderate"
	ReasonTrustedPremium = "Trusted premium contributor"
)

type Input struct {
	UserID      string
	ContentType ContentType
	Content     string
	Context     map[string]string
}

// Decision says whether the external classifier has to run. It is
// independent of the classifier's verdict.
type Decision struct {
	ShouldModerate bool                  `json:"should_moderate"`
	ModerationType Type                  `json:"moderation_type"`
	BypassReason   string                `json:"bypass_reason,omitempty"`
	UserType       entitlement.TrustTier `json:"user_type"`
}

// Decide applies the bypass table. Empty content is checked first: there is
// nothing to classify whatever the tier.
func Decide(in Input, tier entitlement.TrustTier) Decision {
	if strings.TrimSpace(in.Content) == "" {
		return Decision{
			ShouldModerate: false,
			ModerationType: TypeBypassed,
			BypassReason:   ReasonEmptyContent,
			UserType:       tier,
		}
	}

	if tier == entitlement.TierTrustedPremium {
		return Decision{
			ShouldModerate: false,
			ModerationType: TypeBypassed,
			BypassReason:   ReasonTrustedPremium,
			UserType:       tier,
		}
	}

	return Mandatory(tier)
}

// Mandatory is the fail-closed decision.
func Mandatory(tier entitlement.TrustTier) Decision {
	if tier == "" {
		tier = entitlement.TierStandard
	}
	return Decision{
		ShouldModerate: true,
		ModerationType: TypeMandatory,
		UserType:       tier,
	}
}
