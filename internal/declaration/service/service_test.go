package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxdesk/internal/actor"
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	auditrepository "github.com/smallbiznis/taxdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/taxdesk/internal/audit/service"
	"github.com/smallbiznis/taxdesk/internal/clock"
	"github.com/smallbiznis/taxdesk/internal/config"
	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	declarationrepository "github.com/smallbiznis/taxdesk/internal/declaration/repository"
	"github.com/smallbiznis/taxdesk/internal/export"
	orderdomain "github.com/smallbiznis/taxdesk/internal/order/domain"
	orderrepository "github.com/smallbiznis/taxdesk/internal/order/repository"
	"github.com/smallbiznis/taxdesk/internal/period"
	revenueservice "github.com/smallbiznis/taxdesk/internal/revenue/service"
	storedomain "github.com/smallbiznis/taxdesk/internal/store/domain"
	storerepository "github.com/smallbiznis/taxdesk/internal/store/repository"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	writer = actor.Actor{ID: "user-1", Permissions: []string{actor.PermView, actor.PermWrite}}
	other  = actor.Actor{ID: "user-2", Permissions: []string{actor.PermView, actor.PermWrite}}
	admin  = actor.Actor{ID: "admin-1", Permissions: []string{actor.PermView, actor.PermWrite, actor.PermManage}}
	viewer = actor.Actor{ID: "viewer-1", Permissions: []string{actor.PermView}}
)

type fixture struct {
	svc     domain.Service
	db      *gorm.DB
	clock   *clock.FakeClock
	node    *snowflake.Node
	storeID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// One connection keeps concurrent transactions serialized instead of
	// surfacing sqlite busy errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&storedomain.Store{},
		&orderdomain.Order{},
		&domain.Declaration{},
		&domain.Sequence{},
		&auditdomain.AuditLog{},
	))

	// SQLite supports partial indexes, so the one-original-per-family guard
	// applies in tests exactly as it does in production.
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_tax_declarations_original
		 ON tax_declarations (store_id, period_type, period_key)
		 WHERE NOT is_clone`,
	).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))

	orders := orderrepository.NewRepository(db)
	aggregator := revenueservice.NewAggregator(revenueservice.Params{
		Log:    log,
		Orders: orders,
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fakeClock,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fakeClock,
		Repo:     declarationrepository.Provide(),
		Stores:   storerepository.Provide(),
		Revenue:  aggregator,
		Policy:   config.NewStaticTaxPolicyHolder(config.DefaultTaxPolicy()),
		Renderer: export.NewRenderer(),
		Metrics:  nil,
		AuditSvc: auditSvc,
	})

	store := storedomain.Store{ID: node.Generate(), Name: "Test Store", Timezone: "UTC"}
	require.NoError(t, db.Create(&store).Error)

	return &fixture{
		svc:     svc,
		db:      db,
		clock:   fakeClock,
		node:    node,
		storeID: store.ID,
	}
}

func (f *fixture) addSettledOrder(t *testing.T, amount string, settledAt time.Time) {
	t.Helper()
	printedAt := settledAt.Add(time.Minute)
	order := orderdomain.Order{
		ID:               f.node.Generate(),
		StoreID:          f.storeID,
		TotalAmount:      decimal.RequireFromString(amount),
		Status:           orderdomain.OrderStatusSettled,
		SettledAt:        &settledAt,
		ReceiptPrintedAt: &printedAt,
	}
	require.NoError(t, f.db.Create(&order).Error)
}

func (f *fixture) create(t *testing.T, key string) *domain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       key,
		DeclaredRevenue: "1000000",
	})
	require.NoError(t, err)
	return resp
}

func TestCreateComputesTaxesAndSnapshotsRevenue(t *testing.T) {
	f := newFixture(t)
	f.addSettledOrder(t, "800000.00", time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC))
	f.addSettledOrder(t, "200000.00", time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	// Outside the period, must not count.
	f.addSettledOrder(t, "999999.00", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	resp, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "1000000",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Version)
	assert.False(t, resp.IsClone)
	assert.Nil(t, resp.OriginalID)
	assert.Equal(t, "1000000.00", resp.SystemRevenue)
	assert.Equal(t, "1000000.00", resp.DeclaredRevenue)
	assert.Equal(t, "10000.00", resp.GTGTAmount)
	assert.Equal(t, "5000.00", resp.TNCNAmount)
	assert.Equal(t, "15000.00", resp.TotalTax)
	assert.Equal(t, domain.StatusSaved, resp.Status)
	assert.Equal(t, writer.ID, resp.CreatedBy)
}

func TestCreateRejectsSecondOriginalForSamePeriod(t *testing.T) {
	f := newFixture(t)
	f.create(t, "2025-05")

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           other,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "500",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePeriod)
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := f.svc.Create(context.Background(), domain.CreateRequest{
				Actor:           writer,
				StoreID:         f.storeID.String(),
				PeriodType:      "quarter",
				PeriodKey:       "2025-Q2",
				DeclaredRevenue: "100",
			})
			errs <- err
		}()
	}

	var won, lost int
	for i := 0; i < attempts; i++ {
		if err := <-errs; err == nil {
			won++
		} else {
			require.ErrorIs(t, err, domain.ErrDuplicatePeriod)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)

	var count int64
	require.NoError(t, f.db.Model(&domain.Declaration{}).
		Where("store_id = ? AND period_type = ? AND period_key = ?", f.storeID, "quarter", "2025-Q2").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-13",
		DeclaredRevenue: "100",
	})
	assert.ErrorIs(t, err, period.ErrInvalidPeriod)

	_, err = f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "-3",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRevenue)

	_, err = f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.node.Generate().String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "100",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStore)

	_, err = f.svc.Create(context.Background(), domain.CreateRequest{
		Actor:           viewer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "100",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateRecomputesButKeepsSystemRevenue(t *testing.T) {
	f := newFixture(t)
	f.addSettledOrder(t, "500000.00", time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC))
	created := f.create(t, "2025-05")

	// Orders landing after the snapshot must not change the stored figure.
	f.addSettledOrder(t, "700000.00", time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC))

	updated, err := f.svc.Update(context.Background(), domain.UpdateRequest{
		Actor:           writer,
		ID:              created.ID,
		DeclaredRevenue: "2000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "500000.00", updated.SystemRevenue)
	assert.Equal(t, "2000000.00", updated.DeclaredRevenue)
	assert.Equal(t, "20000.00", updated.GTGTAmount)
	assert.Equal(t, "10000.00", updated.TNCNAmount)
	assert.Equal(t, "30000.00", updated.TotalTax)
}

func TestUpdatePermissions(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	_, err := f.svc.Update(context.Background(), domain.UpdateRequest{
		Actor:           other,
		ID:              created.ID,
		DeclaredRevenue: "1",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The manage permission allows editing records created by others.
	_, err = f.svc.Update(context.Background(), domain.UpdateRequest{
		Actor:           admin,
		ID:              created.ID,
		DeclaredRevenue: "1",
	})
	assert.NoError(t, err)
}

func TestUpdateRejectsNonEditableStatus(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	require.NoError(t, f.db.Model(&domain.Declaration{}).
		Where("id = ?", created.ID).
		UpdateColumn("status", domain.StatusSubmitted).Error)

	_, err := f.svc.Update(context.Background(), domain.UpdateRequest{
		Actor:           writer,
		ID:              created.ID,
		DeclaredRevenue: "1",
	})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestCloneAssignsMonotonicVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")

	first, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Version)
	assert.True(t, first.IsClone)
	require.NotNil(t, first.OriginalID)
	assert.Equal(t, original.ID, *first.OriginalID)

	// Cloning a clone still roots at the family original.
	second, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Version)
	require.NotNil(t, second.OriginalID)
	assert.Equal(t, original.ID, *second.OriginalID)
}

func TestVersionsNeverReusedAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")

	first, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Version)

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: first.ID}))

	next, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, next.Version)
}

func TestDeleteOriginalPromotesLatestClone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")

	c1, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)
	c2, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: original.ID}))

	// Highest version wins and keeps its version number.
	promoted, err := f.svc.Get(ctx, domain.GetRequest{Actor: viewer, ID: c2.ID})
	require.NoError(t, err)
	assert.False(t, promoted.IsClone)
	assert.Nil(t, promoted.OriginalID)
	assert.Equal(t, 3, promoted.Version)

	// The remaining clone repoints at the new root.
	remaining, err := f.svc.Get(ctx, domain.GetRequest{Actor: viewer, ID: c1.ID})
	require.NoError(t, err)
	assert.True(t, remaining.IsClone)
	require.NotNil(t, remaining.OriginalID)
	assert.Equal(t, c2.ID, *remaining.OriginalID)
	assert.Equal(t, 2, remaining.Version)

	_, err = f.svc.Get(ctx, domain.GetRequest{Actor: viewer, ID: original.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSoleOriginalLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: original.ID}))

	var count int64
	require.NoError(t, f.db.Model(&domain.Declaration{}).
		Where("store_id = ?", f.storeID).
		Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// The family is reusable afterwards.
	recreated := f.create(t, "2025-05")
	assert.Equal(t, 1, recreated.Version)
}

func TestDeleteRequiresManagePermission(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	err := f.svc.Delete(context.Background(), domain.DeleteRequest{Actor: writer, ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPromotionTieBreaksOnEarliestCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")
	originalID, err := parseID(original.ID)
	require.NoError(t, err)

	// Two clones forced to the same version, created a day apart.
	base := f.clock.Now()
	early := domain.Declaration{
		ID: f.node.Generate(), StoreID: f.storeID,
		PeriodType: "month", PeriodKey: "2025-05",
		IsClone: true, OriginalID: &originalID, Version: 7,
		SystemRevenue: decimal.Zero, DeclaredRevenue: decimal.Zero,
		GTGTRate: decimal.New(1, 0), TNCNRate: decimal.New(5, -1),
		GTGTAmount: decimal.Zero, TNCNAmount: decimal.Zero, TotalTax: decimal.Zero,
		Status: domain.StatusSaved, CreatedBy: writer.ID,
		CreatedAt: base, UpdatedAt: base,
	}
	late := early
	late.ID = f.node.Generate()
	late.CreatedAt = base.Add(24 * time.Hour)
	late.UpdatedAt = late.CreatedAt
	require.NoError(t, f.db.Create(&early).Error)
	require.NoError(t, f.db.Create(&late).Error)

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: original.ID}))

	promoted, err := f.svc.Get(ctx, domain.GetRequest{Actor: viewer, ID: early.ID.String()})
	require.NoError(t, err)
	assert.False(t, promoted.IsClone)

	still, err := f.svc.Get(ctx, domain.GetRequest{Actor: viewer, ID: late.ID.String()})
	require.NoError(t, err)
	assert.True(t, still.IsClone)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "2025-01")
	f.create(t, "2025-02")
	f.create(t, "2025-03")

	resp, err := f.svc.List(ctx, domain.ListRequest{
		Actor:      viewer,
		StoreID:    f.storeID.String(),
		PeriodType: "month",
		SortBy:     "period_key",
		OrderBy:    "asc",
		Pagination: pagination.Pagination{Page: 1, Limit: 2},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 3, resp.TotalCount)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Declarations, 2)
	assert.Equal(t, "2025-01", resp.Declarations[0].PeriodKey)
	assert.Equal(t, "2025-02", resp.Declarations[1].PeriodKey)

	filtered, err := f.svc.List(ctx, domain.ListRequest{
		Actor:      viewer,
		StoreID:    f.storeID.String(),
		PeriodKey:  "2025-02",
		Pagination: pagination.Pagination{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, filtered.Declarations, 1)
	assert.Equal(t, "2025-02", filtered.Declarations[0].PeriodKey)
}

func TestPreviewRevenueIsReadOnly(t *testing.T) {
	f := newFixture(t)
	f.addSettledOrder(t, "123456.78", time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC))

	resp, err := f.svc.PreviewRevenue(context.Background(), domain.PreviewRequest{
		Actor:      viewer,
		StoreID:    f.storeID.String(),
		PeriodType: "month",
		PeriodKey:  "2025-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456.78", resp.SystemRevenue)

	var count int64
	require.NoError(t, f.db.Model(&domain.Declaration{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCustomPeriodAggregatesInclusiveMonths(t *testing.T) {
	f := newFixture(t)
	f.addSettledOrder(t, "100.00", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	f.addSettledOrder(t, "200.00", time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC))
	f.addSettledOrder(t, "400.00", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	resp, err := f.svc.PreviewRevenue(context.Background(), domain.PreviewRequest{
		Actor:      viewer,
		StoreID:    f.storeID.String(),
		PeriodType: "custom",
		RangeFrom:  "2025-01",
		RangeTo:    "2025-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01_2025-03", resp.PeriodKey)
	assert.Equal(t, "300.00", resp.SystemRevenue)
}

func TestAuditTrailRecordsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := actor.WithActor(context.Background(), writer)

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Actor:           writer,
		StoreID:         f.storeID.String(),
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		DeclaredRevenue: "100",
	})
	require.NoError(t, err)

	_, err = f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: created.ID})
	require.NoError(t, err)

	var actions []string
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Order("created_at asc, id asc").
		Pluck("action", &actions).Error)
	assert.Equal(t, []string{"declaration.create", "declaration.clone"}, actions)
}

func TestCloneAfterPromotionAttachesToNewRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")

	clone, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: original.ID}))

	// The promoted record is the family root now; a clone taken after the
	// delete must point there, never at the removed original.
	next, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: clone.ID})
	require.NoError(t, err)
	require.NotNil(t, next.OriginalID)
	assert.Equal(t, clone.ID, *next.OriginalID)
	assert.Equal(t, 3, next.Version)
}

func TestCloneOfDeletedRecordReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "2025-05")
	require.NoError(t, f.svc.Delete(ctx, domain.DeleteRequest{Actor: admin, ID: original.ID}))

	_, err := f.svc.Clone(ctx, domain.CloneRequest{Actor: writer, SourceID: original.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentCloneAndDeleteKeepFamilyRooted(t *testing.T) {
	f := newFixture(t)
	original := f.create(t, "2025-05")

	done := make(chan error, 2)
	go func() {
		_, err := f.svc.Clone(context.Background(), domain.CloneRequest{Actor: writer, SourceID: original.ID})
		done <- err
	}()
	go func() {
		done <- f.svc.Delete(context.Background(), domain.DeleteRequest{Actor: admin, ID: original.ID})
	}()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			// The clone may lose the race against the delete outright.
			require.ErrorIs(t, err, domain.ErrNotFound)
		}
	}

	// Whatever the interleaving, no clone may reference a missing root.
	var dangling int64
	require.NoError(t, f.db.Model(&domain.Declaration{}).
		Where("is_clone = ? AND original_id NOT IN (?)", true,
			f.db.Model(&domain.Declaration{}).Select("id").Where("is_clone = ?", false)).
		Count(&dangling).Error)
	assert.EqualValues(t, 0, dangling)
}

func TestConcurrentFirstClonesGetDistinctVersions(t *testing.T) {
	f := newFixture(t)
	original := f.create(t, "2025-05")

	const clones = 6
	versions := make(chan int, clones)
	errs := make(chan error, clones)
	for i := 0; i < clones; i++ {
		go func() {
			resp, err := f.svc.Clone(context.Background(), domain.CloneRequest{Actor: writer, SourceID: original.ID})
			if err != nil {
				errs <- err
				return
			}
			versions <- resp.Version
		}()
	}

	seen := make(map[int]bool, clones)
	for i := 0; i < clones; i++ {
		select {
		case err := <-errs:
			t.Fatalf("clone failed: %v", err)
		case v := <-versions:
			assert.False(t, seen[v], "version %d assigned twice", v)
			seen[v] = true
		}
	}
	for v := 2; v <= clones+1; v++ {
		assert.True(t, seen[v], "version %d missing", v)
	}
}
