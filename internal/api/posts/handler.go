package posts

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"reflectio/internal/api/respond"
	"reflectio/internal/app/http/middleware"
	"reflectio/internal/domain/moderation"
	"reflectio/internal/domain/posts"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

const reasonFlagged = "Content violates community guidelines"

type Moderator interface {
	Moderate(ctx context.Context, in moderation.Input) (moderation.Result, error)
}

type Handler struct {
	posts       store.PostStore
	permissions *permission.Service
	moderator   Moderator
	log         *slog.Logger
}

func NewHandler(postStore store.PostStore, permissions *permission.Service, moderator Moderator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{posts: postStore, permissions: permissions, moderator: moderator, log: log}
}

type createPostInput struct {
	Title            string            `json:"title" binding:"required"`
	Body             string            `json:"body"`
	ContentType      posts.ContentType `json:"content_type" binding:"required"`
	IsPremiumContent bool              `json:"is_premium_content"`
	Draft            bool              `json:"draft"`
}

// CreatePost stores a post after the premium gate and moderation. Flagged
// content is kept in the moderated state and not published.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var input createPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	if input.Title == "" {
		respond.BadRequest(c, "title must not be blank")
		return
	}
	if !input.ContentType.Valid() {
		respond.BadRequest(c, "content_type must be one of book, film, thought")
		return
	}

	if input.IsPremiumContent {
		if d := h.permissions.CanCreatePremiumContent(ctx, userID); !d.Allowed {
			respond.Denied(c, d)
			return
		}
	}

	result, err := h.moderator.Moderate(ctx, moderation.Input{
		UserID:      userID,
		ContentType: moderation.ContentPost,
		Content:     strings.TrimSpace(input.Title + "\n" + input.Body),
		Context:     map[string]string{"content_type": string(input.ContentType)},
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	post := posts.Post{
		AuthorID:         userID,
		Title:            input.Title,
		Body:             input.Body,
		ContentType:      input.ContentType,
		IsPremiumContent: input.IsPremiumContent,
		Status:           posts.StatusPublished,
	}
	switch {
	case result.Flagged:
		post.Status = posts.StatusModerated
	case input.Draft:
		post.Status = posts.StatusDraft
	}

	if err := h.posts.CreatePost(ctx, &post); err != nil {
		respond.Error(c, h.log, err)
		return
	}

	if result.Flagged {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reasonFlagged, "post": post, "moderation": result})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "moderation": result})
}

func (h *Handler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")

	if d := h.permissions.CheckPostAccess(ctx, middleware.UserID(c), postID); !d.Allowed {
		respond.Denied(c, d)
		return
	}

	post, err := h.posts.FetchPublishedPost(ctx, postID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreateReflection adds a reflection to a post. Flagged reflections are not
// stored.
func (h *Handler) CreateReflection(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	postID := c.Param("id")

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	// blank content would skip moderation entirely
	input.Body = strings.TrimSpace(input.Body)
	if input.Body == "" {
		respond.BadRequest(c, "body must not be blank")
		return
	}

	if d := h.permissions.CheckReflectionPermission(ctx, userID, postID); !d.Allowed {
		respond.Denied(c, d)
		return
	}

	result, err := h.moderator.Moderate(ctx, moderation.Input{
		UserID:      userID,
		ContentType: moderation.ContentReflection,
		Content:     input.Body,
		Context:     map[string]string{"post_id": postID},
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if result.Flagged {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reasonFlagged, "moderation": result})
		return
	}

	reflection := posts.Reflection{
		PostID:         postID,
		AuthorID:       userID,
		Body:           input.Body,
		ModerationType: string(result.ModerationType),
		Bypassed:       result.Bypassed,
	}
	if err := h.posts.CreateReflection(ctx, &reflection); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reflection": reflection, "moderation": result})
}
