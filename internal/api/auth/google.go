package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/app/http/middleware"
	"reflectio/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

func GoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil || h.google.ClientID == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Google sign-in not configured"})
		return
	}
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	c.SetCookie("oauth_state", state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil || h.google.ClientID == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Google sign-in not configured"})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie("oauth_state")
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.google.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	claims, err := h.verifyGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		h.log.ErrorContext(ctx, "google sign-in failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	tokenString, err := middleware.IssueToken(h.jwtSecret, user, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	if h.frontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": tokenString})
		return
	}
	c.Redirect(http.StatusFound, h.frontendRedirect+"?token="+tokenString)
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

func (h *Handler) verifyGoogleIDToken(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: h.google.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google email not verified")
	}
	return &claims, nil
}

// findOrCreateGoogleUser matches by google sub, then links by email, then
// creates a fresh profile.
func (h *Handler) findOrCreateGoogleUser(ctx context.Context, gc *googleIDClaims) (users.User, error) {
	user, err := h.profiles.FetchProfileByGoogleSub(ctx, gc.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return users.User{}, err
	}

	user, err = h.profiles.FetchProfileByEmail(ctx, gc.Email)
	if err == nil {
		if user.GoogleSub == nil {
			if err := h.profiles.UpdateProfile(ctx, user.ID, map[string]interface{}{
				"google_sub":    gc.Sub,
				"auth_provider": "google",
			}); err != nil {
				return users.User{}, err
			}
			sub := gc.Sub
			user.GoogleSub = &sub
		}
		return user, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return users.User{}, err
	}

	sub := gc.Sub
	user = users.User{
		Email:        gc.Email,
		DisplayName:  firstNonEmpty(gc.Name, gc.GivenName),
		AuthProvider: "google",
		GoogleSub:    &sub,
		Role:         users.RoleUser,
		CurrentLevel: 1,
	}
	if err := h.profiles.CreateProfile(ctx, &user); err != nil {
		return users.User{}, err
	}
	return user, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
