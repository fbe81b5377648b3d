package stripe

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

var ErrNotConfigured = errors.New("stripe secret key not configured")

// Client wraps the Stripe API with the handful of calls the billing flows
// make. The key is held per client; stripe.Key is never set.
type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}
	return &Client{api: client.New(secretKey, nil)}
}

func (c *Client) Configured() bool { return c != nil && c.api != nil }

// Subscription is the part of a Stripe subscription premium state is
// derived from.
type Subscription struct {
	ID                string
	CustomerID        string
	UserID            string
	PriceID           string
	Status            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

func SubscriptionFrom(s *stripe.Subscription) Subscription {
	out := Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Metadata != nil {
		out.UserID = s.Metadata["user_id"]
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}

type Price struct {
	ID            string
	ProductID     string
	ProductName   string
	ProductActive bool
	Active        bool
	Recurring     bool
	Currency      string
	UnitAmount    int64
	Interval      string
	Metadata      map[string]string
}

func (c *Client) CreateCustomer(email, userID string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	cus, err := c.api.Customers.New(&stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	})
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	SuccessURL string
	CancelURL  string
}

func (c *Client) CreateCheckoutSession(p CheckoutParams) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	s, err := c.api.CheckoutSessions.New(&stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(p.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(p.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": p.UserID},
		},
	})
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

func (c *Client) CreatePortalSession(customerID, returnURL string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	s, err := c.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// CheckoutSubscription loads the subscription a completed checkout session
// created. The client reference fills in a missing user_id.
func (c *Client) CheckoutSubscription(sessionID string) (Subscription, error) {
	if !c.Configured() {
		return Subscription{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("subscription")
	params.AddExpand("customer")
	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Subscription{}, err
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return Subscription{}, errors.New("checkout session has no subscription")
	}

	sub, err := c.api.Subscriptions.Get(session.Subscription.ID, nil)
	if err != nil {
		return Subscription{}, err
	}
	out := SubscriptionFrom(sub)
	if out.UserID == "" {
		out.UserID = session.ClientReferenceID
	}
	if out.CustomerID == "" && session.Customer != nil {
		out.CustomerID = session.Customer.ID
	}
	return out, nil
}

func (c *Client) ListRecurringPrices() ([]Price, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	var out []Price
	it := c.api.Prices.List(params)
	for it.Next() {
		p := it.Price()
		price := Price{
			ID:         p.ID,
			Active:     p.Active,
			Recurring:  p.Recurring != nil,
			Currency:   string(p.Currency),
			UnitAmount: p.UnitAmount,
			Metadata:   p.Metadata,
		}
		if p.Recurring != nil {
			price.Interval = string(p.Recurring.Interval)
		}
		if p.Product != nil {
			price.ProductID = p.Product.ID
			price.ProductName = p.Product.Name
			price.ProductActive = p.Product.Active
		}
		out = append(out, price)
	}
	return out, it.Err()
}
