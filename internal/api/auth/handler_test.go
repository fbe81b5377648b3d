package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reflectio/internal/domain/users"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestHandler() (*Handler, *store.MemoryStore, *gin.Engine) {
	st := store.NewMemoryStore()
	h := NewHandler(st, Options{
		JWTSecret: "secret",
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/auth/google", h.GoogleStart)
	return h, st, r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	_, st, r := newTestHandler()

	w := post(r, "/register", `{"display_name":"Ada","email":"Ada@Example.com","password":"reflect123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", w.Code, w.Body)
	}
	u, err := st.FetchProfileByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if u.Password == nil || *u.Password == "reflect123" {
		t.Fatal("password stored in clear")
	}
	if u.IsPremium || u.Level() != 1 {
		t.Fatalf("new profile = %+v", u)
	}

	w = post(r, "/register", `{"display_name":"Ada","email":"ada@example.com","password":"reflect123"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", w.Code)
	}

	w = post(r, "/login", `{"email":"ada@example.com","password":"reflect123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["token"] == "" {
		t.Fatal("missing token")
	}

	if w := post(r, "/login", `{"email":"ada@example.com","password":"wrong-pass1"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", w.Code)
	}
	if w := post(r, "/login", `{"email":"nobody@example.com","password":"reflect123"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, _, r := newTestHandler()
	cases := map[string]string{
		"weak password": `{"display_name":"A","email":"a@example.com","password":"short"}`,
		"bad email":     `{"display_name":"A","email":"not-an-email","password":"reflect123"}`,
		"missing name":  `{"email":"a@example.com","password":"reflect123"}`,
	}
	for name, body := range cases {
		if w := post(r, "/register", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, w.Code)
		}
	}
}

func TestGoogleStartNotConfigured(t *testing.T) {
	_, _, r := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGoogleStartRedirects(t *testing.T) {
	h, _, r := newTestHandler()
	h.google = GoogleOAuthConfig("client", "secret", "http://localhost/cb")

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "https://accounts.google.com/") {
		t.Fatalf("Location = %q", loc)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "oauth_state=") {
		t.Fatal("state cookie not set")
	}
}

func TestFindOrCreateGoogleUserLinksByEmail(t *testing.T) {
	h, st, _ := newTestHandler()
	ctx := context.Background()

	existing := st.PutProfile(users.User{Email: "linked@example.com", AuthProvider: "local"})
	u, err := h.findOrCreateGoogleUser(ctx, &googleIDClaims{Sub: "g-1", Email: "linked@example.com", EmailVerified: true})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != existing.ID || u.GoogleSub == nil || *u.GoogleSub != "g-1" {
		t.Fatalf("linked user = %+v", u)
	}

	again, err := h.findOrCreateGoogleUser(ctx, &googleIDClaims{Sub: "g-1", Email: "changed@example.com"})
	if err != nil || again.ID != existing.ID {
		t.Fatalf("lookup by sub = %+v, %v", again, err)
	}

	fresh, err := h.findOrCreateGoogleUser(ctx, &googleIDClaims{Sub: "g-2", Email: "new@example.com", Name: "New"})
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ID == "" || fresh.ID == existing.ID || fresh.DisplayName != "New" {
		t.Fatalf("created user = %+v", fresh)
	}
}
