package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxdesk/internal/actor"
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	"github.com/smallbiznis/taxdesk/internal/clock"
	"github.com/smallbiznis/taxdesk/internal/config"
	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/internal/export"
	"github.com/smallbiznis/taxdesk/internal/observability/metrics"
	"github.com/smallbiznis/taxdesk/internal/period"
	revenuedomain "github.com/smallbiznis/taxdesk/internal/revenue/domain"
	storedomain "github.com/smallbiznis/taxdesk/internal/store/domain"
	"github.com/smallbiznis/taxdesk/internal/taxcalc"
	"github.com/smallbiznis/taxdesk/pkg/db"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Stores   storedomain.Repository
	Revenue  revenuedomain.Aggregator
	Policy   *config.TaxPolicyHolder
	Renderer export.Renderer
	Metrics  *metrics.Metrics `optional:"true"`
	AuditSvc auditdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	stores   storedomain.Repository
	revenue  revenuedomain.Aggregator
	policy   *config.TaxPolicyHolder
	renderer export.Renderer
	metrics  *metrics.Metrics
	auditSvc auditdomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("declaration.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		stores:   p.Stores,
		revenue:  p.Revenue,
		policy:   p.Policy,
		renderer: p.Renderer,
		metrics:  p.Metrics,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) PreviewRevenue(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResponse, error) {
	if !req.Actor.Can(actor.PermView) {
		return nil, domain.ErrForbidden
	}

	storeID, err := s.resolveStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	periodType, periodKey, interval, err := resolvePeriod(req.PeriodType, req.PeriodKey, req.RangeFrom, req.RangeTo)
	if err != nil {
		return nil, err
	}

	total, err := s.revenue.SystemRevenue(ctx, storeID, interval.Start, interval.End)
	if err != nil {
		return nil, err
	}

	return &domain.PreviewResponse{
		StoreID:       storeID.String(),
		PeriodType:    periodType.String(),
		PeriodKey:     periodKey,
		PeriodStart:   interval.Start.Format(time.RFC3339),
		PeriodEnd:     interval.End.Format(time.RFC3339),
		SystemRevenue: total.StringFixed(2),
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if !req.Actor.Can(actor.PermWrite) {
		return nil, domain.ErrForbidden
	}

	storeID, err := s.resolveStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	periodType, periodKey, interval, err := resolvePeriod(req.PeriodType, req.PeriodKey, req.RangeFrom, req.RangeTo)
	if err != nil {
		return nil, err
	}

	declared, err := parseRevenue(req.DeclaredRevenue)
	if err != nil {
		return nil, err
	}
	rates, err := s.resolveRates(req.GTGTRate, req.TNCNRate)
	if err != nil {
		return nil, err
	}
	amounts, err := taxcalc.Compute(declared, rates)
	if err != nil {
		return nil, domain.ErrInvalidRevenue
	}

	// Snapshot before the write; the stored figure never tracks later
	// order mutations.
	systemRevenue, err := s.revenue.SystemRevenue(ctx, storeID, interval.Start, interval.End)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := domain.Declaration{
		ID:              s.genID.Generate(),
		StoreID:         storeID,
		PeriodType:      periodType,
		PeriodKey:       periodKey,
		IsClone:         false,
		Version:         1,
		SystemRevenue:   systemRevenue,
		DeclaredRevenue: declared,
		GTGTRate:        rates.GTGT,
		TNCNRate:        rates.TNCN,
		GTGTAmount:      amounts.GTGT,
		TNCNAmount:      amounts.TNCN,
		TotalTax:        amounts.Total,
		Status:          domain.StatusSaved,
		CreatedBy:       req.Actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindOriginal(ctx, tx, record.Family())
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicatePeriod
		}
		return s.repo.Insert(ctx, tx, &record)
	})
	if db.IsDuplicateKeyErr(err) {
		return nil, domain.ErrDuplicatePeriod
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDeclarationWrite(ctx, "create")
	s.audit(ctx, storeID, "declaration.create", record.ID, map[string]any{
		"period_type":      periodType.String(),
		"period_key":       periodKey,
		"declared_revenue": declared.StringFixed(2),
		"total_tax":        amounts.Total.StringFixed(2),
	})

	resp := domain.NewResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	if !req.Actor.Can(actor.PermWrite) {
		return nil, domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	declared, err := parseRevenue(req.DeclaredRevenue)
	if err != nil {
		return nil, err
	}

	var updated domain.Declaration
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if !record.Status.Editable() {
			return domain.ErrNotEditable
		}
		if record.CreatedBy != req.Actor.ID && !req.Actor.IsManager() {
			return domain.ErrForbidden
		}

		// Recompute with the rates stored on the record; policy changes
		// never rewrite existing declarations.
		amounts, err := taxcalc.Compute(declared, taxcalc.Rates{
			GTGT: record.GTGTRate,
			TNCN: record.TNCNRate,
		})
		if err != nil {
			return domain.ErrInvalidRevenue
		}

		record.DeclaredRevenue = declared
		record.GTGTAmount = amounts.GTGT
		record.TNCNAmount = amounts.TNCN
		record.TotalTax = amounts.Total
		record.UpdatedAt = s.clock.Now()

		if err := s.repo.Save(ctx, tx, record); err != nil {
			return err
		}
		updated = *record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDeclarationWrite(ctx, "update")
	s.audit(ctx, updated.StoreID, "declaration.update", updated.ID, map[string]any{
		"declared_revenue": updated.DeclaredRevenue.StringFixed(2),
		"total_tax":        updated.TotalTax.StringFixed(2),
	})

	resp := domain.NewResponse(updated)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, req domain.GetRequest) (*domain.Response, error) {
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

	resp := domain.NewResponse(*record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	if !req.Actor.Can(actor.PermView) {
		return nil, domain.ErrForbidden
	}

	storeID, err := parseID(req.StoreID)
	if err != nil {
		return nil, domain.ErrInvalidStore
	}

	records, total, err := s.repo.List(ctx, s.db, storeID, domain.ListFilter{
		PeriodType: req.PeriodType,
		PeriodKey:  req.PeriodKey,
		SortBy:     req.SortBy,
		OrderBy:    req.OrderBy,
		Pagination: req.Pagination,
	})
	if err != nil {
		return nil, err
	}

	declarations := make([]domain.Response, 0, len(records))
	for _, record := range records {
		declarations = append(declarations, domain.NewResponse(record))
	}

	return &domain.ListResponse{
		PageInfo:     pagination.BuildPageInfo(req.Pagination, total),
		Declarations: declarations,
	}, nil
}

func (s *Service) resolveStore(ctx context.Context, raw string) (snowflake.ID, error) {
	storeID, err := parseID(raw)
	if err != nil {
		return 0, domain.ErrInvalidStore
	}
	store, err := s.stores.FindByID(ctx, s.db, storeID)
	if err != nil {
		return 0, err
	}
	if store == nil {
		return 0, domain.ErrInvalidStore
	}
	return storeID, nil
}

func (s *Service) resolveRates(gtgtRaw, tncnRaw string) (taxcalc.Rates, error) {
	rates := taxcalc.Rates{
		GTGT: s.policy.Get().GTGTRate,
		TNCN: s.policy.Get().TNCNRate,
	}
	if raw := strings.TrimSpace(gtgtRaw); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return taxcalc.Rates{}, domain.ErrInvalidRevenue
		}
		rates.GTGT = rate
	}
	if raw := strings.TrimSpace(tncnRaw); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return taxcalc.Rates{}, domain.ErrInvalidRevenue
		}
		rates.TNCN = rate
	}
	if err := rates.Validate(); err != nil {
		return taxcalc.Rates{}, domain.ErrInvalidRevenue
	}
	return rates, nil
}

func (s *Service) audit(ctx context.Context, storeID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	target := targetID.String()
	_ = s.auditSvc.AuditLog(ctx, &storeID, action, "declaration", &target, metadata)
}

func resolvePeriod(rawType, rawKey, rangeFrom, rangeTo string) (period.Type, string, period.Range, error) {
	periodType := period.Type(strings.TrimSpace(rawType))
	if !periodType.IsValid() {
		return "", "", period.Range{}, period.ErrInvalidPeriod
	}

	periodKey := strings.TrimSpace(rawKey)
	if periodKey == "" && (periodType == period.TypeCustom || periodType == period.TypeAdhoc) {
		periodKey = period.CustomKey(rangeFrom, rangeTo)
	}

	interval, err := period.Resolve(periodType, periodKey)
	if err != nil {
		return "", "", period.Range{}, err
	}
	return periodType, periodKey, interval, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func parseRevenue(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.ErrInvalidRevenue
	}
	if value.IsNegative() {
		return decimal.Zero, domain.ErrInvalidRevenue
	}
	return value, nil
}

