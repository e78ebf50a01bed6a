package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apimw "github.com/Champion2005/amicooked-sub000/pkg/api/middleware"
)

func planRequest(e *echo.Echo, userID, plan string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(apimw.ContextUserID, userID)
		c.Set(apimw.ContextPlan, plan)
	}
	return c, rec
}

func TestPlanRateLimiter_FreePlan(t *testing.T) {
	prl := NewPlanRateLimiter()
	e := echo.New()

	// Free plan: 30 requests/minute, burst 5
	handler := prl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 7; i++ {
		c, rec := planRequest(e, "octocat", "free")

		err := handler(c)
		assert.NoError(t, err)

		if i < 5 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestPlanRateLimiter_UltimatePlan(t *testing.T) {
	prl := NewPlanRateLimiter()
	e := echo.New()

	// Ultimate plan: 300 requests/minute, burst 50
	handler := prl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	successCount := 0
	for i := 0; i < 50; i++ {
		c, rec := planRequest(e, "poweruser", "ultimate")

		err := handler(c)
		assert.NoError(t, err)
		if rec.Code == http.StatusOK {
			successCount++
		}
	}
	assert.Equal(t, 50, successCount)
}

func TestPlanRateLimiter_UnknownPlanUsesDefault(t *testing.T) {
	prl := NewPlanRateLimiter()
	e := echo.New()

	handler := prl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Unknown plans get the default (free-sized) limits: burst 5.
	denied := 0
	for i := 0; i < 7; i++ {
		c, rec := planRequest(e, "mystery", "platinum")
		assert.NoError(t, handler(c))
		if rec.Code == http.StatusTooManyRequests {
			denied++
		}
	}
	assert.Equal(t, 2, denied)
}

func TestPlanRateLimiter_UnauthenticatedPassesThrough(t *testing.T) {
	prl := NewPlanRateLimiter()
	e := echo.New()

	handler := prl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// No user in context: the global IP limiter owns these requests.
	for i := 0; i < 20; i++ {
		c, rec := planRequest(e, "", "")
		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestPlanRateLimiter_IsolatesUsers(t *testing.T) {
	prl := NewPlanRateLimiter()
	e := echo.New()

	handler := prl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Exhaust one user's burst.
	for i := 0; i < 6; i++ {
		c, _ := planRequest(e, "alpha", "free")
		assert.NoError(t, handler(c))
	}

	// A different user on the same plan starts with a full bucket.
	c, rec := planRequest(e, "beta", "free")
	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
