package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/taxdesk/internal/actor"
	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/internal/export"
	"github.com/smallbiznis/taxdesk/internal/period"
)

// Export renders a declaration into a downloadable artifact.
func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportResult, error) {
	if !req.Actor.Can(actor.PermView) {
		return nil, domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	store, err := s.stores.FindByID(ctx, s.db, record.StoreID)
	if err != nil {
		return nil, err
	}
	storeName := ""
	if store != nil {
		storeName = store.Name
	}

	interval, err := period.Resolve(record.PeriodType, record.PeriodKey)
	if err != nil {
		return nil, err
	}

	doc := export.Document{
		DeclarationID:   record.ID.String(),
		StoreID:         record.StoreID.String(),
		StoreName:       storeName,
		PeriodType:      record.PeriodType.String(),
		PeriodKey:       record.PeriodKey,
		PeriodStart:     interval.Start.Format(time.RFC3339),
		PeriodEnd:       interval.End.Format(time.RFC3339),
		Version:         record.Version,
		IsClone:         record.IsClone,
		Status:          string(record.Status),
		SystemRevenue:   record.SystemRevenue.StringFixed(2),
		DeclaredRevenue: record.DeclaredRevenue.StringFixed(2),
		GTGTRate:        record.GTGTRate.String(),
		TNCNRate:        record.TNCNRate.String(),
		GTGTAmount:      record.GTGTAmount.StringFixed(2),
		TNCNAmount:      record.TNCNAmount.StringFixed(2),
		TotalTax:        record.TotalTax.StringFixed(2),
		CreatedBy:       record.CreatedBy,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
		GeneratedAt:     s.clock.Now().Format(time.RFC3339),
	}

	var (
		data        []byte
		contentType string
	)
	switch req.Format {
	case domain.ExportFormatCSV:
		data, err = s.renderer.CSV(ctx, doc)
		contentType = "text/csv"
	case domain.ExportFormatPDF:
		data, err = s.renderer.PDF(ctx, doc)
		contentType = "application/pdf"
	default:
		return nil, domain.ErrInvalidFormat
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordExportRendered(ctx, string(req.Format))
	s.audit(ctx, record.StoreID, "declaration.export", record.ID, map[string]any{
		"format": string(req.Format),
	})

	return &domain.ExportResult{
		FileName:    fmt.Sprintf("tax-declaration-%s-v%d.%s", record.ID.String(), record.Version, req.Format),
		ContentType: contentType,
		Data:        data,
	}, nil
}
