package models

import "time"

// CheckoutResponse is returned after creating a Stripe checkout session
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// PlanRecord is the persisted subscription state for a user
type PlanRecord struct {
	PlanID               string    `json:"plan_id"`
	StripeCustomerID     string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}
