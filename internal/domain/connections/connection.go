package connections

import "time"

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusBlocked   Status = "blocked"
	StatusCancelled Status = "cancelled"
)

type Action string

const (
	ActionRequest Action = "request"
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
	ActionRemove  Action = "remove"
)

type Connection struct {
	ID          string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterID string `gorm:"type:uuid;not null;index" json:"requester_id"`
	AddresseeID string `gorm:"type:uuid;not null;index" json:"addressee_id"`
	Status      Status `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Involves reports whether userID is one of the two participants.
func (c Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.AddresseeID == userID
}

// Other returns the participant that is not userID.
func (c Connection) Other(userID string) string {
	if c.RequesterID == userID {
		return c.AddresseeID
	}
	return c.RequesterID
}
