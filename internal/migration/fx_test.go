package migration

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/internal/period"
	"github.com/smallbiznis/taxdesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&declarationdomain.Declaration{},
		&declarationdomain.Sequence{},
	))
	return conn
}

func testDeclaration(node *snowflake.Node, isClone bool) declarationdomain.Declaration {
	now := time.Now().UTC()
	return declarationdomain.Declaration{
		ID:              node.Generate(),
		StoreID:         1,
		PeriodType:      period.TypeMonth,
		PeriodKey:       "2025-05",
		IsClone:         isClone,
		Version:         1,
		SystemRevenue:   decimal.New(100, 0),
		DeclaredRevenue: decimal.New(100, 0),
		GTGTRate:        decimal.New(1, 0),
		TNCNRate:        decimal.New(1, 0),
		GTGTAmount:      decimal.New(1, 0),
		TNCNAmount:      decimal.New(1, 0),
		TotalTax:        decimal.New(2, 0),
		Status:          declarationdomain.StatusSaved,
		CreatedBy:       "tester",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOriginalUniqueIndexRejectsSecondOriginal(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, ensureOriginalUniqueIndex(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	first := testDeclaration(node, false)
	require.NoError(t, conn.Create(&first).Error)

	second := testDeclaration(node, false)
	err = conn.Create(&second).Error
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))

	// Clones are exempt from the guard.
	clone := testDeclaration(node, true)
	clone.OriginalID = &first.ID
	clone.Version = 2
	assert.NoError(t, conn.Create(&clone).Error)
}

func TestOriginalUniqueIndexIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, ensureOriginalUniqueIndex(conn))
	require.NoError(t, ensureOriginalUniqueIndex(conn))
}

func TestMySQLGuardAvoidsPartialIndexSyntax(t *testing.T) {
	// MySQL cannot parse a WHERE clause on an index; its guard leans on a
	// stored generated column instead.
	assert.NotContains(t, mysqlOriginalGuardIndexDDL, "WHERE")
	assert.Contains(t, mysqlOriginalGuardIndexDDL, "original_guard")
	assert.Contains(t, mysqlOriginalGuardColumnDDL, "GENERATED ALWAYS")
	assert.Contains(t, mysqlOriginalGuardColumnDDL, "CASE WHEN is_clone THEN id ELSE 0 END")
}
