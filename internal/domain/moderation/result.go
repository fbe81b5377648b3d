package moderation

import (
	"sort"

	"reflectio/internal/domain/entitlement"
)

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Verdict is what the external classifier returns.
type Verdict struct {
	Flagged    bool
	Categories []string
	Scores     map[string]float64
}

// Result has the same shape whether or not the classifier ran.
type Result struct {
	Flagged        bool                  `json:"flagged"`
	Severity       Severity              `json:"severity"`
	Categories     []string              `json:"categories"`
	Reason         string                `json:"reason"`
	Confidence     float64               `json:"confidence"`
	ModerationType Type                  `json:"moderation_type"`
	UserType       entitlement.TrustTier `json:"user_type"`
	Bypassed       bool                  `json:"bypassed"`
	BypassReason   string                `json:"bypass_reason,omitempty"`
}

// BypassResult is the clean result synthesized when the classifier is skipped.
func BypassResult(d Decision) Result {
	return Result{
		Flagged:        false,
		Severity:       SeverityNone,
		Categories:     []string{},
		Reason:         d.BypassReason,
		Confidence:     1,
		ModerationType: d.ModerationType,
		UserType:       d.UserType,
		Bypassed:       true,
		BypassReason:   d.BypassReason,
	}
}

// MergeVerdict folds classifier output into decision metadata.
func MergeVerdict(d Decision, v Verdict) Result {
	top := topScore(v.Scores)

	categories := append([]string(nil), v.Categories...)
	if categories == nil {
		categories = []string{}
	}
	sort.Strings(categories)

	r := Result{
		Flagged:        v.Flagged,
		Severity:       SeverityNone,
		Categories:     categories,
		Confidence:     top,
		ModerationType: d.ModerationType,
		UserType:       d.UserType,
		Bypassed:       false,
	}
	if v.Flagged {
		r.Severity = SeverityFor(top)
		r.Reason = "Content flagged for review"
	} else {
		r.Confidence = 1 - top
		r.Reason = "Content passed moderation"
	}
	return r
}

func SeverityFor(score float64) Severity {
	switch {
	case score >= 0.8:
		return SeverityHigh
	case score >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func topScore(scores map[string]float64) float64 {
	var top float64
	for _, s := range scores {
		if s > top {
			top = s
		}
	}
	return top
}
