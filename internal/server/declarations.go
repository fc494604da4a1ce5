package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
)

func (s *Server) PreviewRevenue(c *gin.Context) {
	var query struct {
		PeriodType string `form:"period_type"`
		PeriodKey  string `form:"period_key"`
		RangeFrom  string `form:"range_from"`
		RangeTo    string `form:"range_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.declarationSvc.PreviewRevenue(c.Request.Context(), declarationdomain.PreviewRequest{
		Actor:      currentActor(c),
		StoreID:    c.Param("store_id"),
		PeriodType: query.PeriodType,
		PeriodKey:  query.PeriodKey,
		RangeFrom:  query.RangeFrom,
		RangeTo:    query.RangeTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createDeclarationRequest struct {
	PeriodType      string `json:"period_type"`
	PeriodKey       string `json:"period_key"`
	RangeFrom       string `json:"range_from"`
	RangeTo         string `json:"range_to"`
	DeclaredRevenue string `json:"declared_revenue"`
	GTGTRate        string `json:"gtgt_rate"`
	TNCNRate        string `json:"tncn_rate"`
}

func (s *Server) CreateDeclaration(c *gin.Context) {
	var req createDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.declarationSvc.Create(c.Request.Context(), declarationdomain.CreateRequest{
		Actor:           currentActor(c),
		StoreID:         c.Param("store_id"),
		PeriodType:      req.PeriodType,
		PeriodKey:       req.PeriodKey,
		RangeFrom:       req.RangeFrom,
		RangeTo:         req.RangeTo,
		DeclaredRevenue: req.DeclaredRevenue,
		GTGTRate:        req.GTGTRate,
		TNCNRate:        req.TNCNRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListDeclarations(c *gin.Context) {
	var query struct {
		pagination.Pagination
		PeriodType string `form:"period_type"`
		PeriodKey  string `form:"period_key"`
		SortBy     string `form:"sort_by"`
		OrderBy    string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.declarationSvc.List(c.Request.Context(), declarationdomain.ListRequest{
		Actor:      currentActor(c),
		StoreID:    c.Param("store_id"),
		PeriodType: strings.TrimSpace(query.PeriodType),
		PeriodKey:  strings.TrimSpace(query.PeriodKey),
		SortBy:     query.SortBy,
		OrderBy:    query.OrderBy,
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeclaration(c *gin.Context) {
	resp, err := s.declarationSvc.Get(c.Request.Context(), declarationdomain.GetRequest{
		Actor: currentActor(c),
		ID:    c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateDeclarationRequest struct {
	DeclaredRevenue string `json:"declared_revenue"`
}

func (s *Server) UpdateDeclaration(c *gin.Context) {
	var req updateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.declarationSvc.Update(c.Request.Context(), declarationdomain.UpdateRequest{
		Actor:           currentActor(c),
		ID:              c.Param("id"),
		DeclaredRevenue: req.DeclaredRevenue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CloneDeclaration(c *gin.Context) {
	resp, err := s.declarationSvc.Clone(c.Request.Context(), declarationdomain.CloneRequest{
		Actor:    currentActor(c),
		SourceID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) DeleteDeclaration(c *gin.Context) {
	err := s.declarationSvc.Delete(c.Request.Context(), declarationdomain.DeleteRequest{
		Actor: currentActor(c),
		ID:    c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ExportDeclaration(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))

	result, err := s.declarationSvc.Export(c.Request.Context(), declarationdomain.ExportRequest{
		Actor:  currentActor(c),
		ID:     c.Param("id"),
		Format: declarationdomain.ExportFormat(format),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
