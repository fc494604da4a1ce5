package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taxdesk/internal/actor"
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	caller := currentActor(c)
	if !caller.Can(actor.PermView) {
		AbortWithError(c, declarationdomain.ErrForbidden)
		return
	}

	var query struct {
		pagination.Pagination
		StoreID    string `form:"store_id"`
		Action     string `form:"action"`
		TargetType string `form:"target_type"`
		TargetID   string `form:"target_id"`
		StartAt    string `form:"start_at"`
		EndAt      string `form:"end_at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	storeID, err := parseOptionalSnowflakeID(query.StoreID)
	if err != nil || storeID == nil {
		AbortWithError(c, auditdomain.ErrInvalidStore)
		return
	}

	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: query.Pagination,
		StoreID:    *storeID,
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
