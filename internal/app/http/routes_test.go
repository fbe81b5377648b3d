package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adminapi "reflectio/internal/api/admin"
	authapi "reflectio/internal/api/auth"
	"reflectio/internal/api/billing"
	connectionsapi "reflectio/internal/api/connections"
	"reflectio/internal/api/plans"
	postsapi "reflectio/internal/api/posts"
	stripewebhooks "reflectio/internal/api/stripewebhook"
	"reflectio/internal/api/users"
	"reflectio/internal/app/http/middleware"
	domainmod "reflectio/internal/domain/moderation"
	domainusers "reflectio/internal/domain/users"
	"reflectio/internal/events"
	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/service/connection"
	"reflectio/internal/service/expiration"
	"reflectio/internal/service/moderation"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

const secret = "routes-secret"

func init() { gin.SetMode(gin.TestMode) }

type cleanClassifier struct{}

func (cleanClassifier) Classify(ctx context.Context, text string) (domainmod.Verdict, error) {
	return domainmod.Verdict{}, nil
}

func newRouter(t *testing.T) (*store.MemoryStore, *events.Recorder, *gin.Engine) {
	t.Helper()
	st := store.NewMemoryStore()
	rec := &events.Recorder{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	perms := permission.NewService(st, st, permission.Options{TrustedLevel: 3, Events: rec, Log: log})
	conns := connection.NewService(st, st, connection.NewManager(perms, log), rec, log)
	mod := moderation.NewService(perms, cleanClassifier{}, rec, moderation.Config{TrustedLevel: 3}, log)
	sweeper := expiration.NewSweeper(st, rec, nil, time.Hour, log)
	stripeClient := stripeinfra.NewClient("")

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:        authapi.NewHandler(st, authapi.Options{JWTSecret: secret, Log: log}),
		Users:       users.NewHandler(st, perms, log),
		Posts:       postsapi.NewHandler(st, perms, mod, log),
		Connections: connectionsapi.NewHandler(conns, log),
		Billing:     billing.NewHandler(st, st, stripeClient, "http://localhost", log),
		Webhook:     stripewebhooks.NewHandler(st, stripeClient, "whsec_test", log),
		Plans:       plans.NewHandler(st, stripeClient, "", log),
		Admin:       adminapi.NewHandler(st, perms, sweeper, log),
	}, secret)
	return st, rec, r
}

func do(t *testing.T, r http.Handler, method, path string, u *domainusers.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		token, err := middleware.IssueToken(secret, *u, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, _, r := newRouter(t)
	if w := do(t, r, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	_, _, r := newRouter(t)
	for _, path := range []string{"/me", "/me/permissions", "/connections/limitations"} {
		if w := do(t, r, http.MethodGet, path, nil, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", path, w.Code)
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	st, _, r := newRouter(t)
	member := st.PutProfile(domainusers.User{Email: "member@example.com", Role: domainusers.RoleUser})
	admin := st.PutProfile(domainusers.User{Email: "admin@example.com", Role: domainusers.RoleAdmin})

	if w := do(t, r, http.MethodPost, "/admin/sweep-expired", &member, nil); w.Code != http.StatusForbidden {
		t.Fatalf("member sweep status = %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/admin/sweep-expired", &admin, nil); w.Code != http.StatusOK {
		t.Fatalf("admin sweep status = %d body = %s", w.Code, w.Body)
	}
}

func TestConnectionRequestGatedOnPremium(t *testing.T) {
	st, rec, r := newRouter(t)
	future := time.Now().Add(30 * 24 * time.Hour)
	free := st.PutProfile(domainusers.User{Email: "free@example.com", Role: domainusers.RoleUser})
	premium := st.PutProfile(domainusers.User{Email: "premium@example.com", Role: domainusers.RoleUser, IsPremium: true, PremiumExpiresAt: &future})
	target := st.PutProfile(domainusers.User{Email: "target@example.com", Role: domainusers.RoleUser})

	w := do(t, r, http.MethodPost, "/connections", &free, gin.H{"addressee_id": target.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("free request status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["upgrade_prompt"] != true {
		t.Fatalf("body = %v", body)
	}

	if w := do(t, r, http.MethodPost, "/connections", &premium, gin.H{"addressee_id": target.ID}); w.Code != http.StatusCreated {
		t.Fatalf("premium request status = %d body = %s", w.Code, w.Body)
	}
	if got := len(rec.OfType(events.TypeConnectionRequested)); got != 1 {
		t.Fatalf("connection.requested events = %d", got)
	}
}
