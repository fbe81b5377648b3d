package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"reflectio/internal/api/respond"
	"reflectio/internal/apperr"
	"reflectio/internal/app/http/middleware"
	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

// Payments is the Stripe surface checkout needs.
type Payments interface {
	Configured() bool
	CreateCustomer(email, userID string) (string, error)
	CreateCheckoutSession(p stripeinfra.CheckoutParams) (string, error)
	CreatePortalSession(customerID, returnURL string) (string, error)
}

type Handler struct {
	profiles store.ProfileStore
	plans    store.PlanStore
	payments Payments
	appURL   string
	log      *slog.Logger
}

func NewHandler(profiles store.ProfileStore, plans store.PlanStore, payments Payments, appURL string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if appURL == "" {
		appURL = "http://localhost:5173"
	}
	return &Handler{profiles: profiles, plans: plans, payments: payments, appURL: appURL, log: log}
}

// CreateCheckoutSession starts a premium subscription purchase. Premium is
// granted by the webhook, never here.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		PriceID string `json:"price_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PriceID == "" {
		respond.BadRequest(c, "Missing or invalid price_id")
		return
	}
	if !h.payments.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	// allow-list price id
	plan, err := h.plans.FindPlanByStripePrice(ctx, body.PriceID)
	if err != nil || !plan.Active {
		if err == nil || errors.Is(err, apperr.ErrNotFound) {
			respond.BadRequest(c, "Unknown plan/price_id")
			return
		}
		respond.Error(c, h.log, err)
		return
	}

	user, err := h.profiles.FetchProfile(ctx, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		customerID, err := h.payments.CreateCustomer(user.Email, user.ID)
		if err != nil {
			h.log.ErrorContext(ctx, "create stripe customer failed", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
			return
		}
		if err := h.profiles.UpdateProfile(ctx, user.ID, map[string]interface{}{"stripe_customer_id": customerID}); err != nil {
			respond.Error(c, h.log, err)
			return
		}
		user.StripeCustomerID = &customerID
	}

	url, err := h.payments.CreateCheckoutSession(stripeinfra.CheckoutParams{
		CustomerID: *user.StripeCustomerID,
		PriceID:    plan.StripePriceID,
		UserID:     user.ID,
		SuccessURL: h.appURL + "/account",
		CancelURL:  h.appURL + "/account?canceled=1",
	})
	if err != nil {
		h.log.ErrorContext(ctx, "create checkout session failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	if !h.payments.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	user, err := h.profiles.FetchProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	url, err := h.payments.CreatePortalSession(*user.StripeCustomerID, h.appURL+"/account")
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "create portal session failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
