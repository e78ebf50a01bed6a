package handlers

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/billing"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// BillingHandler handles plan upgrade endpoints
type BillingHandler struct {
	billingService *billing.Service
	validator      *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.Service) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		validator:      validator.New(),
	}
}

// CreateCheckout starts a Stripe checkout session for a paid tier
// POST /api/v1/billing/checkout
func (h *BillingHandler) CreateCheckout(c echo.Context) error {
	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, _ := identity(c)

	resp, err := h.billingService.CreateCheckoutSession(c.Request().Context(), userID, req.Tier)
	if err != nil {
		return errors.Domain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Webhook receives Stripe webhook events. Unauthenticated; the signature
// header is the authentication.
// POST /api/v1/billing/webhook
func (h *BillingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errors.ValidationError(c, err)
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.billingService.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return errors.Domain(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// GetPlan reports the caller's current plan
// GET /api/v1/billing/plan
func (h *BillingHandler) GetPlan(c echo.Context) error {
	userID, _ := identity(c)

	plan, err := h.billingService.GetPlan(c.Request().Context(), userID)
	if err != nil {
		return errors.Domain(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"plan": string(plan.ID)})
}
