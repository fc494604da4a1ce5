package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/taxdesk/internal/actor"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
)

// Service is the declaration core exposed to the HTTP layer. All monetary
// fields cross this boundary as decimal strings, never as floats.
type Service interface {
	PreviewRevenue(ctx context.Context, req PreviewRequest) (*PreviewResponse, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, req GetRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Clone(ctx context.Context, req CloneRequest) (*Response, error)
	Delete(ctx context.Context, req DeleteRequest) error
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}

type PreviewRequest struct {
	Actor      actor.Actor
	StoreID    string
	PeriodType string
	PeriodKey  string
	RangeFrom  string
	RangeTo    string
}

type PreviewResponse struct {
	StoreID       string `json:"store_id"`
	PeriodType    string `json:"period_type"`
	PeriodKey     string `json:"period_key"`
	PeriodStart   string `json:"period_start"`
	PeriodEnd     string `json:"period_end"`
	SystemRevenue string `json:"system_revenue"`
}

type CreateRequest struct {
	Actor           actor.Actor
	StoreID         string
	PeriodType      string
	PeriodKey       string
	RangeFrom       string
	RangeTo         string
	DeclaredRevenue string
	GTGTRate        string
	TNCNRate        string
}

type UpdateRequest struct {
	Actor           actor.Actor
	ID              string
	DeclaredRevenue string
}

type GetRequest struct {
	Actor actor.Actor
	ID    string
}

type ListRequest struct {
	Actor      actor.Actor
	StoreID    string
	PeriodType string
	PeriodKey  string
	SortBy     string
	OrderBy    string
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Declarations []Response `json:"declarations"`
}

type CloneRequest struct {
	Actor    actor.Actor
	SourceID string
}

type DeleteRequest struct {
	Actor actor.Actor
	ID    string
}

// ExportFormat selects the export rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type ExportRequest struct {
	Actor  actor.Actor
	ID     string
	Format ExportFormat
}

type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Response struct {
	ID              string    `json:"id"`
	StoreID         string    `json:"store_id"`
	PeriodType      string    `json:"period_type"`
	PeriodKey       string    `json:"period_key"`
	IsClone         bool      `json:"is_clone"`
	OriginalID      *string   `json:"original_id,omitempty"`
	Version         int       `json:"version"`
	SystemRevenue   string    `json:"system_revenue"`
	DeclaredRevenue string    `json:"declared_revenue"`
	GTGTRate        string    `json:"gtgt_rate"`
	TNCNRate        string    `json:"tncn_rate"`
	GTGTAmount      string    `json:"gtgt_amount"`
	TNCNAmount      string    `json:"tncn_amount"`
	TotalTax        string    `json:"total_tax"`
	Status          Status    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewResponse normalizes a persisted declaration for the wire. Monetary
// fields render with two fixed decimal places, rates with their stored scale.
func NewResponse(d Declaration) Response {
	resp := Response{
		ID:              d.ID.String(),
		StoreID:         d.StoreID.String(),
		PeriodType:      d.PeriodType.String(),
		PeriodKey:       d.PeriodKey,
		IsClone:         d.IsClone,
		Version:         d.Version,
		SystemRevenue:   d.SystemRevenue.StringFixed(2),
		DeclaredRevenue: d.DeclaredRevenue.StringFixed(2),
		GTGTRate:        d.GTGTRate.String(),
		TNCNRate:        d.TNCNRate.String(),
		GTGTAmount:      d.GTGTAmount.StringFixed(2),
		TNCNAmount:      d.TNCNAmount.StringFixed(2),
		TotalTax:        d.TotalTax.StringFixed(2),
		Status:          d.Status,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.OriginalID != nil {
		id := d.OriginalID.String()
		resp.OriginalID = &id
	}
	return resp
}
