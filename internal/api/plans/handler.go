package plans

import (
	"log/slog"
	"net/http"

	"reflectio/internal/api/respond"
	"reflectio/internal/domain/plans"
	stripeinfra "reflectio/internal/infra/stripe"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

type PriceLister interface {
	Configured() bool
	ListRecurringPrices() ([]stripeinfra.Price, error)
}

type Handler struct {
	plans     store.PlanStore
	prices    PriceLister
	productID string
	log       *slog.Logger
}

// NewHandler restricts syncing to productID when it is set.
func NewHandler(planStore store.PlanStore, prices PriceLister, productID string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{plans: planStore, prices: prices, productID: productID, log: log}
}

func (h *Handler) ListPlans(c *gin.Context) {
	list, err := h.plans.ListActivePlans(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if list == nil {
		list = []plans.Plan{}
	}
	c.JSON(http.StatusOK, list)
}

type SyncReport struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	if !h.prices.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	prices, err := h.prices.ListRecurringPrices()
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "list stripe prices failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	var report SyncReport
	for _, p := range prices {
		plan, ok := h.planFromPrice(p)
		if !ok {
			report.Skipped++
			continue
		}
		if err := h.plans.UpsertPlan(c.Request.Context(), &plan); err != nil {
			respond.Error(c, h.log, err)
			return
		}
		report.Synced++
	}

	c.JSON(http.StatusOK, report)
}

// planFromPrice keeps active recurring EUR prices of the premium product
// that aren't hidden through metadata.
func (h *Handler) planFromPrice(p stripeinfra.Price) (plans.Plan, bool) {
	if !p.Active || !p.Recurring || !p.ProductActive {
		return plans.Plan{}, false
	}
	if h.productID != "" && p.ProductID != h.productID {
		return plans.Plan{}, false
	}
	if p.Currency != "eur" {
		return plans.Plan{}, false
	}
	if p.Metadata["visible"] == "false" {
		return plans.Plan{}, false
	}

	name := p.ProductName
	if v := p.Metadata["plan"]; v != "" {
		name = v
	}
	return plans.Plan{
		Name:          name,
		PriceEUR:      float64(p.UnitAmount) / 100.0,
		StripePriceID: p.ID,
		Interval:      p.Interval,
		Active:        true,
	}, true
}
