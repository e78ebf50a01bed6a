// Package errors centralizes HTTP error responses. Internal error details
// are logged server-side; clients only ever see a stable machine-readable
// code and a generic message.
package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// ValidationError responds with 400 Bad Request.
func ValidationError(c echo.Context, err error) error {
	log.Printf("validation error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "The request is invalid. Check the submitted fields and try again.",
	})
}

// StoreError responds with 503 Service Unavailable. Limit checks fail closed,
// so a store outage surfaces here rather than as a silent allow.
func StoreError(c echo.Context, err error) error {
	log.Printf("store error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "store_unavailable",
		Message: "Usage tracking is temporarily unavailable. Please try again shortly.",
	})
}

// InternalError responds with 500 Internal Server Error.
func InternalError(c echo.Context, err error) error {
	log.Printf("internal error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "Something went wrong on our end.",
	})
}

// UnauthorizedError responds with 401 Unauthorized.
func UnauthorizedError(c echo.Context, reason string) error {
	log.Printf("unauthorized on %s %s: %s", c.Request().Method, c.Path(), reason)
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication required.",
	})
}

// NotFoundError responds with 404 Not Found.
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: resource + " not found.",
	})
}

// LimitExceededError responds with 429 Too Many Requests.
func LimitExceededError(c echo.Context, err error) error {
	return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:   "limit_exceeded",
		Message: "You have reached your plan's limit for this action. Upgrade for more.",
	})
}

// UpstreamError responds with 502 Bad Gateway for model and GitHub failures.
func UpstreamError(c echo.Context, err error) error {
	log.Printf("upstream error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusBadGateway, models.ErrorResponse{
		Error:   "upstream_error",
		Message: "An upstream service failed. Please try again.",
	})
}

// Domain dispatches a domain error to the matching HTTP response.
func Domain(c echo.Context, err error) error {
	switch domain.Code(err) {
	case domain.ErrCodeLimitExceeded:
		return LimitExceededError(c, err)
	case domain.ErrCodeStoreUnavailable:
		return StoreError(c, err)
	case domain.ErrCodeMalformedAI, domain.ErrCodeAnalysisFailed, domain.ErrCodeExternalCall:
		return UpstreamError(c, err)
	case domain.ErrCodeUnauthorized:
		return UnauthorizedError(c, err.Error())
	case domain.ErrCodeValidation:
		return ValidationError(c, err)
	case domain.ErrCodeNotFound:
		return NotFoundError(c, "resource")
	default:
		return InternalError(c, err)
	}
}
