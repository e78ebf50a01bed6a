package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/auth"
	"github.com/Champion2005/amicooked-sub000/pkg/billing"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/oauth"
)

// AuthHandler handles GitHub OAuth login
type AuthHandler struct {
	oauthService    *oauth.Service
	billingService  *billing.Service
	validator       *validator.Validate
	jwtSecret       string
	expirationHours int
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oauthService *oauth.Service, billingService *billing.Service, jwtSecret string, expirationHours int) *AuthHandler {
	return &AuthHandler{
		oauthService:    oauthService,
		billingService:  billingService,
		validator:       validator.New(),
		jwtSecret:       jwtSecret,
		expirationHours: expirationHours,
	}
}

// LoginURL returns the GitHub authorization URL
// GET /api/v1/auth/github
func (h *AuthHandler) LoginURL(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		return errors.ValidationError(c, echo.NewHTTPError(http.StatusBadRequest, "state is required"))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url": h.oauthService.AuthURL(state),
	})
}

// Callback exchanges the OAuth code for a session token
// POST /api/v1/auth/callback
func (h *AuthHandler) Callback(c echo.Context) error {
	var req models.GitHubAuthRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	info, err := h.oauthService.HandleCallback(c.Request().Context(), req.Code)
	if err != nil {
		return errors.UnauthorizedError(c, err.Error())
	}

	// The GitHub login is the user ID everywhere else in the system.
	plan, err := h.billingService.GetPlan(c.Request().Context(), info.Login)
	if err != nil {
		return errors.Domain(c, err)
	}

	token, err := auth.GenerateJWT(info.Login, plan.ID, h.jwtSecret, h.expirationHours)
	if err != nil {
		return errors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.AuthResponse{
		Token:    token,
		UserID:   info.Login,
		Username: info.Login,
		Plan:     string(plan.ID),
	})
}
