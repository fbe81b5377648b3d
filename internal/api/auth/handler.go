package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"reflectio/internal/api/respond"
	"reflectio/internal/apperr"
	"reflectio/internal/app/http/middleware"
	"reflectio/internal/domain/users"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

type Handler struct {
	profiles  store.ProfileStore
	jwtSecret string
	google    *oauth2.Config
	// frontend URL the Google callback redirects to with ?token=
	frontendRedirect string
	log              *slog.Logger
}

type Options struct {
	JWTSecret        string
	Google           *oauth2.Config
	FrontendRedirect string
	Log              *slog.Logger
}

func NewHandler(profiles store.ProfileStore, opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Handler{
		profiles:         profiles,
		jwtSecret:        opts.JWTSecret,
		google:           opts.Google,
		frontendRedirect: opts.FrontendRedirect,
		log:              opts.Log.With("component", "auth"),
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func isEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		DisplayName string `json:"display_name" binding:"required"`
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if !isEmailValid(input.Email) {
		respond.BadRequest(c, "Invalid email format")
		return
	}
	if !isPasswordStrong(input.Password) {
		respond.BadRequest(c, "Password must be at least 8 characters long and contain both letters and numbers")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hashed := string(hashedPassword)

	user := users.User{
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		Password:     &hashed,
		AuthProvider: "local",
		Role:         users.RoleUser,
		CurrentLevel: 1,
	}
	if err := h.profiles.CreateProfile(c.Request.Context(), &user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		respond.Error(c, h.log, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "id": user.ID})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	user, err := h.profiles.FetchProfileByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respond.Error(c, h.log, err)
		return
	}

	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := middleware.IssueToken(h.jwtSecret, user, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}
