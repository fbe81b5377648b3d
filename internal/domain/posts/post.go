package posts

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusModerated Status = "moderated"
)

type ContentType string

const (
	ContentBook    ContentType = "book"
	ContentFilm    ContentType = "film"
	ContentThought ContentType = "thought"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentBook, ContentFilm, ContentThought:
		return true
	}
	return false
}

type Post struct {
	ID       string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthorID string `gorm:"type:uuid;not null;index:idx_posts_author_created,priority:1" json:"author_id"`

	Title       string      `gorm:"not null" json:"title"`
	Body        string      `gorm:"type:text" json:"body"`
	ContentType ContentType `gorm:"type:varchar(16);not null;default:'thought'" json:"content_type"`

	IsPremiumContent bool   `gorm:"not null;default:false" json:"is_premium_content"`
	Status           Status `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	CreatedAt time.Time `gorm:"index:idx_posts_author_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
