package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/api/errors"
	"github.com/Champion2005/amicooked-sub000/pkg/api/middleware"
	"github.com/Champion2005/amicooked-sub000/pkg/github"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// AnalysisHandler handles profile analysis and project recommendation
// endpoints. Both are plan-gated: the limit is checked before any upstream
// call and usage is charged only after the call succeeds.
type AnalysisHandler struct {
	analysisService *analysis.Service
	usageService    *usage.Service
	githubClient    *github.Client
	validator       *validator.Validate
	timeout         time.Duration
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *analysis.Service, usageService *usage.Service, githubClient *github.Client, timeoutSeconds int) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		usageService:    usageService,
		githubClient:    githubClient,
		validator:       validator.New(),
		timeout:         time.Duration(timeoutSeconds) * time.Second,
	}
}

// identity pulls the authenticated user and plan out of the request context.
func identity(c echo.Context) (string, plans.PlanID) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	planID, _ := c.Get(middleware.ContextPlan).(string)
	return userID, plans.PlanID(planID)
}

// remaining computes how many calls are left after this one, nil when the
// plan is unlimited.
func remaining(result models.LimitCheckResult) *int {
	if result.Limit == nil {
		return nil
	}
	left := *result.Limit - result.Current - 1
	if left < 0 {
		left = 0
	}
	return &left
}

// Analyze runs a full profile analysis
// POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var req models.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, planID := identity(c)

	check, err := h.usageService.CheckLimit(ctx, userID, planID, models.UsageReanalysis)
	if err != nil {
		return errors.Domain(c, err)
	}
	if !check.Allowed {
		return errors.LimitExceededError(c, nil)
	}

	stats, err := h.githubClient.FetchStats(ctx, req.Username)
	if err != nil {
		return errors.Domain(c, err)
	}

	// Previous analysis feeds the comparison narrative when one exists.
	previous, _, err := h.analysisService.GetLatest(ctx, userID)
	if err != nil {
		return errors.Domain(c, err)
	}

	// An explicit model in the request overrides the plan-resolved one; the
	// limit decision itself is unaffected.
	model := check.Model
	if req.Model != "" {
		model = req.Model
	}

	result, err := h.analysisService.Analyze(ctx, analysis.Request{
		Stats:         stats,
		Profile:       models.UserProfile{UserID: userID, Nickname: req.Nickname},
		Previous:      previous,
		ModelOverride: req.Model,
		UsingFallback: check.UsingFallback,
		Tone:          req.Tone,
		Nickname:      req.Nickname,
		Mode:          analysis.Mode(req.Mode),
	}, check.Model)
	if err != nil {
		return errors.Domain(c, err)
	}

	if err := h.usageService.Increment(ctx, userID, models.UsageReanalysis); err != nil {
		// The analysis already succeeded; a lost increment is logged, not
		// surfaced.
		c.Logger().Errorf("failed to charge usage for %s: %v", userID, err)
	}

	return c.JSON(http.StatusOK, models.AnalyzeResponse{
		Result:        result,
		Model:         model,
		UsingFallback: check.UsingFallback,
		Remaining:     remaining(check),
	})
}

// GetLatest returns the most recent persisted analysis
// GET /api/v1/analysis/latest
func (h *AnalysisHandler) GetLatest(c echo.Context) error {
	userID, _ := identity(c)

	result, found, err := h.analysisService.GetLatest(c.Request().Context(), userID)
	if err != nil {
		return errors.Domain(c, err)
	}
	if !found {
		return errors.NotFoundError(c, "analysis")
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteLatest removes the persisted analysis
// DELETE /api/v1/analysis/latest
func (h *AnalysisHandler) DeleteLatest(c echo.Context) error {
	userID, _ := identity(c)

	if err := h.analysisService.DeleteLatest(c.Request().Context(), userID); err != nil {
		return errors.Domain(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RecommendProjects suggests portfolio projects for the user's profile
// POST /api/v1/projects
func (h *AnalysisHandler) RecommendProjects(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var req models.ProjectsRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, planID := identity(c)

	check, err := h.usageService.CheckLimit(ctx, userID, planID, models.UsageProjectChat)
	if err != nil {
		return errors.Domain(c, err)
	}
	if !check.Allowed {
		return errors.LimitExceededError(c, nil)
	}

	stats, err := h.githubClient.FetchStats(ctx, req.Username)
	if err != nil {
		return errors.Domain(c, err)
	}

	previous, _, err := h.analysisService.GetLatest(ctx, userID)
	if err != nil {
		return errors.Domain(c, err)
	}

	model := check.Model
	if req.Model != "" {
		model = req.Model
	}

	projects, err := h.analysisService.RecommendProjects(ctx, stats, previous, model)
	if err != nil {
		return errors.Domain(c, err)
	}

	if err := h.usageService.Increment(ctx, userID, models.UsageProjectChat); err != nil {
		c.Logger().Errorf("failed to charge usage for %s: %v", userID, err)
	}

	return c.JSON(http.StatusOK, models.ProjectsResponse{
		Projects:      projects,
		Model:         model,
		UsingFallback: check.UsingFallback,
		Remaining:     remaining(check),
	})
}
