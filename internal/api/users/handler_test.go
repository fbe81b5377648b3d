package users

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reflectio/internal/app/http/middleware"
	"reflectio/internal/domain/users"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

const secret = "secret"

func init() { gin.SetMode(gin.TestMode) }

func setup(t *testing.T) (*store.MemoryStore, *gin.Engine) {
	t.Helper()
	st := store.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	perms := permission.NewService(st, st, permission.Options{TrustedLevel: 3, Log: log})
	h := NewHandler(st, perms, log)

	r := gin.New()
	auth := r.Group("/", middleware.AuthMiddleware(secret))
	auth.GET("/me", h.GetCurrentUser)
	auth.GET("/me/permissions", h.GetPermissions)
	return st, r
}

func get(t *testing.T, r http.Handler, path string, u users.User) *httptest.ResponseRecorder {
	t.Helper()
	token, err := middleware.IssueToken(secret, u, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMeReconcilesExpiredPremium(t *testing.T) {
	st, r := setup(t)
	expiredAt := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	u := st.PutProfile(users.User{Email: "old@example.com", IsPremium: true, PremiumExpiresAt: &expiredAt, CurrentLevel: 2})

	w := get(t, r, "/me", u)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var resp MeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Premium.IsPremium || !resp.Premium.WasExpired {
		t.Fatalf("premium = %+v", resp.Premium)
	}
	if resp.Permissions.CanViewPremiumContent || !resp.Permissions.RequiresMandatoryModeration {
		t.Fatalf("permissions = %+v", resp.Permissions)
	}
	if resp.User.ID != u.ID || resp.User.Level != 2 {
		t.Fatalf("user = %+v", resp.User)
	}
	if st.Writes[u.ID] != 1 {
		t.Fatalf("downgrade writes = %d, want 1", st.Writes[u.ID])
	}

	get(t, r, "/me", u)
	if st.Writes[u.ID] != 1 {
		t.Fatalf("second /me wrote again: %d", st.Writes[u.ID])
	}
}

func TestMeUnknownUser(t *testing.T) {
	_, r := setup(t)
	w := get(t, r, "/me", users.User{ID: "ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMePermissions(t *testing.T) {
	st, r := setup(t)
	u := st.PutProfile(users.User{Email: "p@example.com", IsPremium: true, CurrentLevel: 4})

	w := get(t, r, "/me/permissions", u)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]bool
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !body["can_view_premium_content"] || !body["can_request_connection"] || body["requires_mandatory_moderation"] {
		t.Fatalf("body = %v", body)
	}
}
