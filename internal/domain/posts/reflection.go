package posts

import "time"

// Reflection is a reply written on a post. Creating one is a premium action.
type Reflection struct {
	ID       string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PostID   string `gorm:"type:uuid;not null;index" json:"post_id"`
	Post     *Post  `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	AuthorID string `gorm:"type:uuid;not null;index" json:"author_id"`
	Body     string `gorm:"type:text;not null" json:"body"`

	// moderation metadata kept for audit
	ModerationType string `gorm:"type:varchar(32)" json:"moderation_type"`
	Bypassed       bool   `gorm:"not null;default:false" json:"bypassed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
