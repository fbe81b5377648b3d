package connection

import (
	"context"
	"log/slog"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/connections"
	"reflectio/internal/domain/entitlement"
	"reflectio/internal/service/permission"
)

const (
	ReasonPremiumRequest = "Premium subscription required to send connection requests"
	LimitationRequest    = "Upgrade to premium to send connection requests"
)

// EntitlementReader is satisfied by permission.Service.
type EntitlementReader interface {
	Entitlement(ctx context.Context, userID string) (entitlement.Entitlement, error)
}

// Manager answers connection-specific permission questions. It does not
// check identity; the workflow Service does that before asking.
type Manager struct {
	ents EntitlementReader
	log  *slog.Logger
}

func NewManager(ents EntitlementReader, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{ents: ents, log: log.With("component", "connection_permissions")}
}

func (m *Manager) isPremium(ctx context.Context, userID string) (bool, error) {
	ent, err := m.ents.Entitlement(ctx, userID)
	if err != nil {
		m.log.ErrorContext(ctx, "resolve entitlement failed", "user_id", userID, "error", err)
		return false, err
	}
	return ent.Premium, nil
}

// CheckConnectionAction gates the verb. Sending a request is premium-only;
// responding to one never is.
func (m *Manager) CheckConnectionAction(ctx context.Context, userID string, action connections.Action, targetUserID string) permission.Decision {
	switch action {
	case connections.ActionAccept, connections.ActionDecline, connections.ActionCancel, connections.ActionRemove:
		return permission.Allow()
	case connections.ActionRequest:
	default:
		return permission.Deny(apperr.KindInvalid, "Unknown connection action", false)
	}

	if userID == targetUserID {
		return permission.Deny(apperr.KindInvalid, "Cannot connect with yourself", false)
	}
	premium, err := m.isPremium(ctx, userID)
	if err != nil {
		return permission.EntitlementFailure(err)
	}
	if !premium {
		return permission.RequirePremium(ReasonPremiumRequest)
	}
	return permission.Allow()
}

type ActionOption struct {
	Action          connections.Action `json:"action"`
	RequiresUpgrade bool               `json:"requires_upgrade"`
}

// Relationship is what the caller knows about the pair. RequesterID only
// matters while pending.
type Relationship struct {
	Status      connections.Status `json:"status"`
	RequesterID string             `json:"requester_id,omitempty"`
}

// GetConnectionActions lists the verbs the UI should offer currentUserID
// towards targetUserID. Any existing row closes the pair to new requests;
// rejected and cancelled rows can only be removed.
func (m *Manager) GetConnectionActions(ctx context.Context, currentUserID, targetUserID string, rel Relationship) []ActionOption {
	if currentUserID == targetUserID {
		return []ActionOption{}
	}

	switch rel.Status {
	case connections.StatusPending:
		if rel.RequesterID == currentUserID {
			return []ActionOption{{Action: connections.ActionCancel}}
		}
		return []ActionOption{
			{Action: connections.ActionAccept},
			{Action: connections.ActionDecline},
		}
	case connections.StatusAccepted, connections.StatusRejected, connections.StatusCancelled:
		return []ActionOption{{Action: connections.ActionRemove}}
	case connections.StatusNone, "":
	default:
		return []ActionOption{}
	}

	premium, err := m.isPremium(ctx, currentUserID)
	return []ActionOption{{Action: connections.ActionRequest, RequiresUpgrade: err != nil || !premium}}
}

type Limitations struct {
	CanRequest  bool     `json:"can_request"`
	CanRespond  bool     `json:"can_respond"`
	Limitations []string `json:"limitations"`
}

func (m *Manager) GetConnectionLimitations(ctx context.Context, userID string) Limitations {
	l := Limitations{CanRespond: true, Limitations: []string{}}
	premium, err := m.isPremium(ctx, userID)
	if err == nil && premium {
		l.CanRequest = true
		return l
	}
	l.Limitations = append(l.Limitations, LimitationRequest)
	return l
}
