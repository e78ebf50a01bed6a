package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// UsageHandler exposes usage accounting endpoints
type UsageHandler struct {
	usageService *usage.Service
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usageService *usage.Service) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// GetSummary reports the caller's plan and consumption across all metered
// actions
// GET /api/v1/usage
func (h *UsageHandler) GetSummary(c echo.Context) error {
	userID, planID := identity(c)

	summary, err := h.usageService.GetSummary(c.Request().Context(), userID, planID)
	if err != nil {
		return errors.Domain(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
