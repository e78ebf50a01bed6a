package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/memory"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// AccountHandler handles account data management
type AccountHandler struct {
	usageService    *usage.Service
	analysisService *analysis.Service
	memoryManager   *memory.Manager
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(usageService *usage.Service, analysisService *analysis.Service, memoryManager *memory.Manager) *AccountHandler {
	return &AccountHandler{
		usageService:    usageService,
		analysisService: analysisService,
		memoryManager:   memoryManager,
	}
}

// DeleteData wipes the caller's usage counters, persisted analysis, and
// long-term memory. Best effort is not good enough here: the first failure
// aborts so the client can retry the whole wipe.
// DELETE /api/v1/account/data
func (h *AccountHandler) DeleteData(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := identity(c)

	if err := h.usageService.Reset(ctx, userID); err != nil {
		return errors.Domain(c, err)
	}
	if err := h.analysisService.DeleteLatest(ctx, userID); err != nil {
		return errors.Domain(c, err)
	}
	if err := h.memoryManager.DeleteMemory(ctx, userID); err != nil {
		return errors.Domain(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
