package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/connections"
	"reflectio/internal/events"
	"reflectio/internal/store"
)

// Service runs the connection request workflow. Every transition checks
// identity first, then asks the Manager, then writes with a guarded status
// change so concurrent transitions on the same row lose with Conflict.
type Service struct {
	profiles    store.ProfileStore
	connections store.ConnectionStore
	manager     *Manager
	events      events.Publisher
	now         func() time.Time
	log         *slog.Logger
}

func NewService(profiles store.ProfileStore, conns store.ConnectionStore, manager *Manager, pub events.Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		profiles:    profiles,
		connections: conns,
		manager:     manager,
		events:      pub,
		now:         time.Now,
		log:         log.With("component", "connections"),
	}
}

func (s *Service) Manager() *Manager { return s.manager }

func (s *Service) Request(ctx context.Context, requesterID, addresseeID string) (connections.Connection, error) {
	if requesterID == "" || addresseeID == "" {
		return connections.Connection{}, apperr.Invalid("requester and addressee are required")
	}
	if requesterID == addresseeID {
		return connections.Connection{}, apperr.Invalid("cannot connect with yourself")
	}
	if _, err := s.profiles.FetchProfile(ctx, addresseeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return connections.Connection{}, apperr.NotFound("user not found")
		}
		return connections.Connection{}, err
	}

	if err := s.manager.CheckConnectionAction(ctx, requesterID, connections.ActionRequest, addresseeID).Err(); err != nil {
		return connections.Connection{}, err
	}

	// any row closes the pair until a participant removes it
	if _, err := s.connections.FindLatestBetween(ctx, requesterID, addresseeID); err == nil {
		return connections.Connection{}, apperr.Conflict("connection already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return connections.Connection{}, err
	}

	c := connections.Connection{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      connections.StatusPending,
		CreatedAt:   s.now(),
	}
	// the unique index still catches a concurrent insert
	if err := s.connections.InsertConnection(ctx, &c); err != nil {
		return connections.Connection{}, err
	}

	s.publish(ctx, events.TypeConnectionRequested, c)
	return c, nil
}

func (s *Service) Accept(ctx context.Context, userID, connectionID string) (connections.Connection, error) {
	return s.respond(ctx, userID, connectionID, connections.ActionAccept, connections.StatusAccepted, events.TypeConnectionAccepted)
}

func (s *Service) Decline(ctx context.Context, userID, connectionID string) (connections.Connection, error) {
	return s.respond(ctx, userID, connectionID, connections.ActionDecline, connections.StatusRejected, events.TypeConnectionDeclined)
}

func (s *Service) respond(ctx context.Context, userID, connectionID string, action connections.Action, to connections.Status, eventType string) (connections.Connection, error) {
	c, err := s.connections.FetchConnection(ctx, connectionID)
	if err != nil {
		return connections.Connection{}, err
	}
	if c.AddresseeID != userID {
		return connections.Connection{}, apperr.Denied("only the addressee can "+string(action)+" this request", false)
	}
	return s.transition(ctx, userID, c, action, to, eventType)
}

func (s *Service) Cancel(ctx context.Context, userID, connectionID string) (connections.Connection, error) {
	c, err := s.connections.FetchConnection(ctx, connectionID)
	if err != nil {
		return connections.Connection{}, err
	}
	if c.RequesterID != userID {
		return connections.Connection{}, apperr.Denied("only the requester can cancel this request", false)
	}
	return s.transition(ctx, userID, c, connections.ActionCancel, connections.StatusCancelled, events.TypeConnectionCancelled)
}

func (s *Service) transition(ctx context.Context, userID string, c connections.Connection, action connections.Action, to connections.Status, eventType string) (connections.Connection, error) {
	if err := s.manager.CheckConnectionAction(ctx, userID, action, c.Other(userID)).Err(); err != nil {
		return connections.Connection{}, err
	}
	if c.Status != connections.StatusPending {
		return connections.Connection{}, apperr.Conflict("connection is not pending")
	}
	if err := s.connections.UpdateConnectionStatus(ctx, c.ID, connections.StatusPending, to); err != nil {
		return connections.Connection{}, err
	}
	c.Status = to
	c.UpdatedAt = s.now()

	s.publish(ctx, eventType, c)
	return c, nil
}

// Remove deletes the row for either participant, whatever its status.
func (s *Service) Remove(ctx context.Context, userID, connectionID string) error {
	c, err := s.connections.FetchConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if !c.Involves(userID) {
		return apperr.Denied("only participants can remove a connection", false)
	}
	if err := s.manager.CheckConnectionAction(ctx, userID, connections.ActionRemove, c.Other(userID)).Err(); err != nil {
		return err
	}
	if err := s.connections.DeleteConnection(ctx, c.ID); err != nil {
		return err
	}
	s.publish(ctx, events.TypeConnectionRemoved, c)
	return nil
}

// Status returns the latest relationship between a and b, or StatusNone.
func (s *Service) Status(ctx context.Context, a, b string) (Relationship, error) {
	c, err := s.connections.FindLatestBetween(ctx, a, b)
	if errors.Is(err, apperr.ErrNotFound) {
		return Relationship{Status: connections.StatusNone}, nil
	}
	if err != nil {
		return Relationship{}, err
	}
	return Relationship{Status: c.Status, RequesterID: c.RequesterID}, nil
}

// Actions combines Status and GetConnectionActions for one pair.
func (s *Service) Actions(ctx context.Context, currentUserID, targetUserID string) (Relationship, []ActionOption, error) {
	rel, err := s.Status(ctx, currentUserID, targetUserID)
	if err != nil {
		return Relationship{}, nil, err
	}
	return rel, s.manager.GetConnectionActions(ctx, currentUserID, targetUserID, rel), nil
}

func (s *Service) publish(ctx context.Context, eventType string, c connections.Connection) {
	if s.events == nil {
		return
	}
	e := events.Event{
		Type:       eventType,
		Key:        c.AddresseeID,
		OccurredAt: s.now(),
		Data: map[string]string{
			"connection_id": c.ID,
			"requester_id":  c.RequesterID,
			"addressee_id":  c.AddresseeID,
			"status":        string(c.Status),
		},
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "publish event failed", "type", eventType, "connection_id", c.ID, "error", err)
	}
}
