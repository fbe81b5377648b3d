package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// Subscriptions resolves the subscription behind a completed checkout.
type Subscriptions interface {
	CheckoutSubscription(sessionID string) (stripeinfra.Subscription, error)
}

type Handler struct {
	profiles      store.ProfileStore
	subscriptions Subscriptions
	secret        string
	now           func() time.Time
	log           *slog.Logger
}

func NewHandler(profiles store.ProfileStore, subscriptions Subscriptions, webhookSecret string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		profiles:      profiles,
		subscriptions: subscriptions,
		secret:        webhookSecret,
		now:           time.Now,
		log:           log.With("component", "stripe_webhook"),
	}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "stripe signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	status, err := h.dispatch(c.Request.Context(), string(event.Type), event.Data.Raw)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "stripe event failed", "type", event.Type, "id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// dispatch applies one verified event. Unknown event types are acknowledged
// so Stripe stops retrying them.
func (h *Handler) dispatch(ctx context.Context, eventType string, raw json.RawMessage) (string, error) {
	switch eventType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(raw, &session); err != nil {
			return "", err
		}
		sub, err := h.subscriptions.CheckoutSubscription(session.ID)
		if err != nil {
			return "", err
		}
		if sub.UserID == "" {
			sub.UserID = session.ClientReferenceID
		}
		return "received", h.applySubscription(ctx, sub)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var s stripe.Subscription
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		sub := stripeinfra.SubscriptionFrom(&s)
		if eventType == "customer.subscription.deleted" {
			sub.Status = string(stripe.SubscriptionStatusCanceled)
		}
		return "received", h.applySubscription(ctx, sub)
	}
	return "ignored", nil
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
