package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/chat"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// ChatHandler handles the follow-up conversation endpoints
type ChatHandler struct {
	chatService *chat.Service
	validator   *validator.Validate
	timeout     time.Duration
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.Service, timeoutSeconds int) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validator:   validator.New(),
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}
}

// SendMessage runs one gated chat turn
// POST /api/v1/chat/message
func (h *ChatHandler) SendMessage(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var req models.ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, planID := identity(c)

	reply, err := h.chatService.SendMessage(ctx, userID, planID, req.Message)
	if err != nil {
		return errors.Domain(c, err)
	}

	return c.JSON(http.StatusOK, reply)
}

// EndSession closes the active session, persisting extracted memory for
// plans that carry it
// POST /api/v1/chat/end-session
func (h *ChatHandler) EndSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, planID := identity(c)

	if err := h.chatService.EndSession(ctx, userID, planID); err != nil {
		return errors.Domain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearHistory drops the caller's in-session conversation without touching
// long-term memory
// POST /api/v1/chat/clear-history
func (h *ChatHandler) ClearHistory(c echo.Context) error {
	userID, _ := identity(c)
	h.chatService.ClearHistory(userID)
	return c.NoContent(http.StatusNoContent)
}
