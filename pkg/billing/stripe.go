package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceStudent  string
	PricePro      string
	PriceUltimate string
	SuccessURL    string
	CancelURL     string
}

// Service handles Stripe billing operations. Payment settlement itself is
// Stripe's problem; this service only creates checkout sessions and keeps
// the persisted plan record in sync with webhook events.
type Service struct {
	store  *store.Client
	logger logger.Logger
	config *StripeConfig
}

// NewService creates a new billing service
func NewService(st *store.Client, log logger.Logger, config *StripeConfig) *Service {
	stripe.Key = config.SecretKey

	return &Service{
		store:  st,
		logger: log,
		config: config,
	}
}

// getPriceIDForTier maps a paid plan ID to its Stripe price ID.
func (s *Service) getPriceIDForTier(tier string) (string, error) {
	switch tier {
	case "student":
		return s.config.PriceStudent, nil
	case "pro":
		return s.config.PricePro, nil
	case "ultimate":
		return s.config.PriceUltimate, nil
	default:
		return "", domain.NewValidationError(fmt.Sprintf("unknown subscription tier: %s", tier))
	}
}

// CreateCheckoutSession creates a Stripe checkout session for upgrading
// the given user to a paid tier.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID, tier string) (*models.CheckoutResponse, error) {
	priceID, err := s.getPriceIDForTier(tier)
	if err != nil {
		return nil, err
	}
	if priceID == "" {
		return nil, domain.NewInternalError(fmt.Errorf("no Stripe price configured for tier %s", tier))
	}

	params := &stripe.CheckoutSessionParams{
		ClientReferenceID: stripe.String(userID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.config.SuccessURL),
		CancelURL:  stripe.String(s.config.CancelURL),
		Metadata: map[string]string{
			"user_id": userID,
			"tier":    tier,
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, domain.NewExternalCallError(fmt.Errorf("failed to create checkout session: %w", err))
	}

	s.logger.Info("checkout session created", "user_id", userID, "tier", tier, "session_id", sess.ID)

	return &models.CheckoutResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// HandleWebhook processes Stripe webhook events
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return domain.NewUnauthorizedError()
	}

	s.logger.Info("stripe webhook received", "type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		s.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	return nil
}

// handleCheckoutCompleted activates the purchased tier for the user named
// in the session metadata.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	userID, ok := sess.Metadata["user_id"]
	if !ok || userID == "" {
		return fmt.Errorf("user_id not found in session metadata")
	}
	tier := sess.Metadata["tier"]
	if _, err := s.getPriceIDForTier(tier); err != nil {
		return err
	}

	record := models.PlanRecord{
		PlanID:    tier,
		UpdatedAt: time.Now().UTC(),
	}
	if sess.Customer != nil {
		record.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		record.StripeSubscriptionID = sess.Subscription.ID
	}

	if err := s.store.SetJSON(ctx, store.PlanKey(userID), record, 0); err != nil {
		return fmt.Errorf("failed to persist plan: %w", err)
	}

	s.logger.Info("plan activated", "user_id", userID, "tier", tier)
	return nil
}

// handleSubscriptionDeleted drops the user back to the free tier when their
// subscription is cancelled.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := sub.Metadata["user_id"]
	if userID == "" {
		s.logger.Warn("subscription deleted without user metadata", "subscription_id", sub.ID)
		return nil
	}

	record := models.PlanRecord{
		PlanID:    "free",
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.SetJSON(ctx, store.PlanKey(userID), record, 0); err != nil {
		return fmt.Errorf("failed to persist plan: %w", err)
	}

	s.logger.Info("plan downgraded to free", "user_id", userID, "subscription_id", sub.ID)
	return nil
}

// GetPlan returns the persisted plan for a user, defaulting to the free
// tier when no record exists. Unknown persisted plan IDs also resolve to
// free rather than failing the caller.
func (s *Service) GetPlan(ctx context.Context, userID string) (plans.PlanConfig, error) {
	var record models.PlanRecord
	found, err := s.store.GetJSON(ctx, store.PlanKey(userID), &record)
	if err != nil {
		return plans.Get(plans.PlanFree), domain.NewStoreUnavailableError(err)
	}
	if !found {
		return plans.Get(plans.PlanFree), nil
	}
	return plans.Get(plans.PlanID(record.PlanID)), nil
}
