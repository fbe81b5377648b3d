package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	TypeConnectionRequested = "connection.requested"
	TypeConnectionAccepted  = "connection.accepted"
	TypeConnectionDeclined  = "connection.declined"
	TypeConnectionCancelled = "connection.cancelled"
	TypeConnectionRemoved   = "connection.removed"
	TypePremiumExpired      = "premium.expired"
	TypeContentFlagged      = "moderation.flagged"
)

// Event is the envelope every domain event is published in. Key orders
// events per user on the broker.
type Event struct {
	Type       string            `json:"type"`
	Key        string            `json:"key"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, e Event) error {
	p.Log.InfoContext(ctx, "event", "type", e.Type, "key", e.Key, "data", e.Data)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, e Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) OfType(t string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
