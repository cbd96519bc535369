package infra

import (
	"fmt"
	"time"

	"supplytrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver ("postgres" or
// "sqlite"), runs AutoMigrate and then applies the idempotent SQL patches that
// GORM cannot express (expression indexes, CHECK constraints).
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// GormConfig is shared by the server and the test databases so both translate
// driver errors (gorm.ErrDuplicatedKey) and stamp times in UTC.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// RunMigrations creates / updates every table and applies the schema patches.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Tag{},
		&model.Supply{},
		&model.Supplier{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		if err := applyPostgresPatches(db); err != nil {
			return fmt.Errorf("postgres patches: %w", err)
		}
	}
	return nil
}

// applySchemaPatches runs DDL understood by both PostgreSQL and SQLite. Each
// statement uses IF NOT EXISTS so re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Names are unique regardless of case; the services check first, these
		// indexes settle races between concurrent creates.
		{"case-insensitive unique supply name",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_supplies_name_lower ON supplies (LOWER(name))`},
		{"case-insensitive unique category name",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_lower ON categories (LOWER(name))`},
		{"case-insensitive unique tag name",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_name_lower ON tags (LOWER(name))`},
		{"case-insensitive unique supplier name",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_suppliers_name_lower ON suppliers (LOWER(name))`},
		// audit listing is always newest first
		{"audit_logs timestamp desc",
			`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp_desc ON audit_logs (timestamp DESC)`},
		{"supply_tags reverse lookup",
			`CREATE INDEX IF NOT EXISTS idx_supply_tags_tag_id ON supply_tags (tag_id)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// applyPostgresPatches adds CHECK constraints backing the non-negative invariants.
// SQLite cannot ALTER TABLE ADD CONSTRAINT; there the services are the only guard.
func applyPostgresPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"supplies non-negative quantities and price", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_supplies_non_negative') THEN
    ALTER TABLE supplies ADD CONSTRAINT chk_supplies_non_negative
      CHECK (price >= 0 AND quantity >= 0 AND reorder_point >= 0);
  END IF;
END $$`},
		{"purchase_order_items positive quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_purchase_order_items_quantity') THEN
    ALTER TABLE purchase_order_items ADD CONSTRAINT chk_purchase_order_items_quantity
      CHECK (quantity > 0 AND unit_price >= 0);
  END IF;
END $$`},
		{"purchase_orders status domain", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_purchase_orders_status') THEN
    ALTER TABLE purchase_orders ADD CONSTRAINT chk_purchase_orders_status
      CHECK (status IN ('PENDING', 'ORDERED', 'RECEIVED', 'CANCELLED'));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("postgres patch %q: %w", p.descr, err)
		}
	}
	return nil
}
