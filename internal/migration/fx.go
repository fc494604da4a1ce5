package migration

import (
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	"github.com/smallbiznis/taxdesk/internal/config"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	orderdomain "github.com/smallbiznis/taxdesk/internal/order/domain"
	"github.com/smallbiznis/taxdesk/internal/seed"
	storedomain "github.com/smallbiznis/taxdesk/internal/store/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// golang-migrate is wired for postgres only; sqlite and mysql
			// take the gorm schema directly.
			if err := conn.AutoMigrate(
				&storedomain.Store{},
				&orderdomain.Order{},
				&declarationdomain.Declaration{},
				&declarationdomain.Sequence{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
			if err := ensureOriginalUniqueIndex(conn); err != nil {
				return err
			}
		}

		storeID, err := seed.EnsureDefaultStore(conn, cfg.DefaultStoreID)
		if err != nil {
			return err
		}
		if cfg.SeedDemoOrders {
			return seed.EnsureDemoOrders(conn, storeID)
		}
		return nil
	}),
)

const partialOriginalIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS ux_tax_declarations_original
	 ON tax_declarations (store_id, period_type, period_key)
	 WHERE NOT is_clone`

// MySQL has no partial indexes. A stored generated column collapses every
// original to the same guard value (0) while clones guard on their own id,
// so a plain unique index enforces one original per family.
const (
	mysqlOriginalGuardColumnDDL = `ALTER TABLE tax_declarations
	 ADD COLUMN original_guard BIGINT
	 GENERATED ALWAYS AS (CASE WHEN is_clone THEN id ELSE 0 END) STORED`

	mysqlOriginalGuardIndexDDL = `CREATE UNIQUE INDEX ux_tax_declarations_original
	 ON tax_declarations (store_id, period_type, period_key, original_guard)`
)

// ensureOriginalUniqueIndex installs the storage guard for the
// one-original-per-family invariant. AutoMigrate cannot express either
// form, so the DDL is issued directly.
func ensureOriginalUniqueIndex(conn *gorm.DB) error {
	if conn.Dialector.Name() == "mysql" {
		return ensureOriginalUniqueIndexMySQL(conn)
	}
	return conn.Exec(partialOriginalIndexDDL).Error
}

func ensureOriginalUniqueIndexMySQL(conn *gorm.DB) error {
	m := conn.Migrator()
	if !m.HasColumn(&declarationdomain.Declaration{}, "original_guard") {
		if err := conn.Exec(mysqlOriginalGuardColumnDDL).Error; err != nil {
			return err
		}
	}
	if !m.HasIndex(&declarationdomain.Declaration{}, "ux_tax_declarations_original") {
		return conn.Exec(mysqlOriginalGuardIndexDDL).Error
	}
	return nil
}
