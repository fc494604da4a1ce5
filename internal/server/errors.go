package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/internal/period"
	revenuedomain "github.com/smallbiznis/taxdesk/internal/revenue/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, declarationdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, declarationdomain.ErrDuplicatePeriod):
		return http.StatusConflict, errorPayload{
			Type:    "duplicate_period",
			Message: "an original declaration already exists for this period",
		}
	case errors.Is(err, declarationdomain.ErrNotEditable):
		return http.StatusBadRequest, errorPayload{
			Type:    "not_editable",
			Message: "declaration is not editable in its current status",
		}
	case errors.Is(err, period.ErrInvalidPeriod):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_period",
			Message: "period type or key is not valid",
		}
	case errors.Is(err, declarationdomain.ErrInvalidRevenue):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_revenue",
			Message: "declared revenue must be a non-negative decimal",
		}
	case errors.Is(err, declarationdomain.ErrInvalidStore),
		errors.Is(err, auditdomain.ErrInvalidStore):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_store",
			Message: "store is unknown",
		}
	case errors.Is(err, declarationdomain.ErrInvalidFormat):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_format",
			Message: "export format must be csv or pdf",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, declarationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many export requests",
		}
	case errors.Is(err, revenuedomain.ErrAggregationFailed):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "aggregation_failed",
			Message: "revenue aggregation is unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
