package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reflectio/internal/domain/users"
	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeSubscriptions struct {
	sub stripeinfra.Subscription
	err error
}

func (f fakeSubscriptions) CheckoutSubscription(sessionID string) (stripeinfra.Subscription, error) {
	return f.sub, f.err
}

func newHandler(st *store.MemoryStore, subs Subscriptions) *Handler {
	h := NewHandler(st, subs, "whsec_test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return now }
	return h
}

func TestPremiumUpdates(t *testing.T) {
	end := now.AddDate(0, 1, 0)
	since := now.AddDate(-1, 0, 0)

	cases := []struct {
		name      string
		user      users.User
		sub       stripeinfra.Subscription
		premium   interface{}
		expires   interface{}
		setsSince bool
	}{
		{"new active", users.User{}, stripeinfra.Subscription{Status: "active", CurrentPeriodEnd: end}, true, end, true},
		{"renewal keeps since", users.User{IsPremium: true, PremiumSince: &since}, stripeinfra.Subscription{Status: "active", CurrentPeriodEnd: end}, true, end, false},
		{"past due grace", users.User{IsPremium: true, PremiumSince: &since}, stripeinfra.Subscription{Status: "unpaid", CurrentPeriodEnd: end}, true, end, false},
		{"canceled mid period", users.User{IsPremium: true}, stripeinfra.Subscription{Status: "canceled", CurrentPeriodEnd: end}, nil, end, false},
		{"canceled after period", users.User{IsPremium: true}, stripeinfra.Subscription{Status: "canceled", CurrentPeriodEnd: now.Add(-time.Hour)}, false, now, false},
		{"incomplete no period", users.User{}, stripeinfra.Subscription{Status: "incomplete_expired"}, false, now, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := PremiumUpdates(tc.user, tc.sub, now)
			if u["is_premium"] != tc.premium {
				t.Fatalf("is_premium = %v, want %v", u["is_premium"], tc.premium)
			}
			if u["premium_expires_at"] != tc.expires {
				t.Fatalf("premium_expires_at = %v, want %v", u["premium_expires_at"], tc.expires)
			}
			if _, ok := u["premium_since"]; ok != tc.setsSince {
				t.Fatalf("premium_since set = %v", ok)
			}
		})
	}
}

func TestCheckoutCompletedGrantsPremium(t *testing.T) {
	st := store.NewMemoryStore()
	u := st.PutProfile(users.User{Email: "a@example.com"})
	end := now.AddDate(0, 1, 0)
	h := newHandler(st, fakeSubscriptions{sub: stripeinfra.Subscription{
		ID: "sub_1", CustomerID: "cus_1", Status: "active", CurrentPeriodEnd: end,
	}})

	raw := fmt.Sprintf(`{"id":"cs_1","object":"checkout.session","client_reference_id":%q}`, u.ID)
	status, err := h.dispatch(context.Background(), "checkout.session.completed", []byte(raw))
	if err != nil || status != "received" {
		t.Fatalf("dispatch = %q, %v", status, err)
	}

	got, _ := st.FetchProfile(context.Background(), u.ID)
	if !got.IsPremium || got.PremiumExpiresAt == nil || !got.PremiumExpiresAt.Equal(end) {
		t.Fatalf("profile = %+v", got)
	}
	if got.SubscriptionID == nil || *got.SubscriptionID != "sub_1" || got.PremiumSince == nil {
		t.Fatalf("subscription fields = %+v", got)
	}
}

func TestCheckoutCompletedLookupFailure(t *testing.T) {
	st := store.NewMemoryStore()
	h := newHandler(st, fakeSubscriptions{err: errors.New("stripe down")})
	if _, err := h.dispatch(context.Background(), "checkout.session.completed", []byte(`{"id":"cs_1"}`)); err == nil {
		t.Fatal("expected error so Stripe retries")
	}
}

func TestSubscriptionDeletedByStoredSubscriptionID(t *testing.T) {
	st := store.NewMemoryStore()
	subID := "sub_9"
	u := st.PutProfile(users.User{Email: "a@example.com", IsPremium: true, SubscriptionID: &subID})
	h := newHandler(st, nil)

	end := now.AddDate(0, 0, 10)
	raw := fmt.Sprintf(`{"id":"sub_9","object":"subscription","status":"active","current_period_end":%d}`, end.Unix())
	if _, err := h.dispatch(context.Background(), "customer.subscription.deleted", []byte(raw)); err != nil {
		t.Fatal(err)
	}

	got, _ := st.FetchProfile(context.Background(), u.ID)
	if !got.IsPremium {
		t.Fatal("paid period should be honoured")
	}
	if got.PremiumExpiresAt == nil || !got.PremiumExpiresAt.Equal(end) {
		t.Fatalf("expires = %v", got.PremiumExpiresAt)
	}
	if got.StripeSubscriptionStatus == nil || *got.StripeSubscriptionStatus != "canceled" {
		t.Fatalf("status = %v", got.StripeSubscriptionStatus)
	}
}

func TestUnknownUserAndEventAreAcknowledged(t *testing.T) {
	st := store.NewMemoryStore()
	h := newHandler(st, nil)

	raw := `{"id":"sub_x","object":"subscription","status":"active","metadata":{"user_id":"ghost"}}`
	if _, err := h.dispatch(context.Background(), "customer.subscription.updated", []byte(raw)); err != nil {
		t.Fatalf("unknown user err = %v", err)
	}
	status, err := h.dispatch(context.Background(), "invoice.paid", []byte(`{}`))
	if err != nil || status != "ignored" {
		t.Fatalf("dispatch = %q, %v", status, err)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	st := store.NewMemoryStore()
	h := newHandler(st, nil)
	r := gin.New()
	r.POST("/webhook", h.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
