package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apimw "github.com/Champion2005/amicooked-sub000/pkg/api/middleware"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
)

// PlanLimits defines request rate limits for a plan.
type PlanLimits struct {
	RequestsPerMinute int
	Burst             int
}

// PlanRateLimiter applies per-user request rate limits scaled by plan.
// Distinct from quota accounting: this guards the HTTP surface against
// bursts, while quotas meter AI consumption over the rolling window.
type PlanRateLimiter struct {
	userLimiters map[string]*rate.Limiter
	mu           sync.RWMutex

	planLimits    map[plans.PlanID]PlanLimits
	defaultLimits PlanLimits
}

// NewPlanRateLimiter creates a plan-scaled rate limiter.
func NewPlanRateLimiter() *PlanRateLimiter {
	prl := &PlanRateLimiter{
		userLimiters: make(map[string]*rate.Limiter),
		planLimits: map[plans.PlanID]PlanLimits{
			plans.PlanFree:     {RequestsPerMinute: 30, Burst: 5},
			plans.PlanStudent:  {RequestsPerMinute: 60, Burst: 10},
			plans.PlanPro:      {RequestsPerMinute: 120, Burst: 20},
			plans.PlanUltimate: {RequestsPerMinute: 300, Burst: 50},
		},
		defaultLimits: PlanLimits{RequestsPerMinute: 30, Burst: 5},
	}

	go prl.cleanupLimiters()

	return prl
}

func (prl *PlanRateLimiter) getUserLimiter(userID string, planID plans.PlanID) *rate.Limiter {
	prl.mu.Lock()
	defer prl.mu.Unlock()

	if limiter, exists := prl.userLimiters[userID]; exists {
		return limiter
	}

	limits, exists := prl.planLimits[planID]
	if !exists {
		limits = prl.defaultLimits
	}

	rps := float64(limits.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), limits.Burst)
	prl.userLimiters[userID] = limiter

	return limiter
}

// cleanupLimiters removes inactive limiters every 5 minutes
func (prl *PlanRateLimiter) cleanupLimiters() {
	for {
		time.Sleep(5 * time.Minute)

		prl.mu.Lock()
		for userID, limiter := range prl.userLimiters {
			if limiter.Tokens() >= float64(limiter.Burst()) {
				delete(prl.userLimiters, userID)
			}
		}
		prl.mu.Unlock()
	}
}

// Middleware creates an Echo middleware for plan-scaled rate limiting.
// Requests without an authenticated user fall through untouched; the global
// IP limiter covers those.
func (prl *PlanRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, hasUser := c.Get(apimw.ContextUserID).(string)
			planStr, _ := c.Get(apimw.ContextPlan).(string)
			if !hasUser || userID == "" {
				return next(c)
			}

			limiter := prl.getUserLimiter(userID, plans.PlanID(planStr))
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: "Request rate exceeded for the " + planStr + " plan. Upgrade for higher limits or try again shortly.",
				})
			}

			return next(c)
		}
	}
}
