package plans

// Plan is an allow-listed Stripe price that grants premium.
type Plan struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `json:"name"`
	PriceEUR      float64 `json:"price_eur"`
	StripePriceID string  `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id" json:"stripe_price_id"`
	Interval      string  `json:"interval"`
	Active        bool    `gorm:"not null;default:true" json:"active"`
}
