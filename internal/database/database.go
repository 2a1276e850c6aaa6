package database

import (
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the gorm handle with schema helpers
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// schema lists every table in creation order; foreign keys point backwards
var schema = []interface{}{
	&models.User{},
	&models.Category{},
	&models.Transaction{},
	&models.Budget{},
	&models.Receipt{},
	&models.CategoryRule{},
}

// secondaryIndexes cover the per-user list and aggregate queries. The
// partial and expression indexes are skipped with a warning on engines
// that reject them.
var secondaryIndexes = map[string]string{
	"idx_transactions_user_date":        "transactions(user_id, date)",
	"idx_transactions_user_category":    "transactions(user_id, category_id)",
	"idx_transactions_user_subcategory": "transactions(user_id, subcategory_id)",
	"idx_budgets_user_active":           "budgets(user_id, is_active)",
	"idx_receipts_user_created":         "receipts(user_id, created_at)",
	"idx_receipts_unlinked":             "receipts(user_id) WHERE transaction_id IS NULL",
	"idx_category_rules_user_priority":  "category_rules(user_id, priority)",
	"idx_categories_name_de_lower":      "categories(LOWER(name_de))",
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// New opens the configured database, applies pool limits and pings it
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	db := &DB{DB: gdb, config: cfg}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.HealthCheck(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(schema...)
}

// CreateIndexes is best effort; failures are logged and skipped
func (db *DB) CreateIndexes() error {
	for name, target := range secondaryIndexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s", name, target)
		if err := db.Exec(stmt).Error; err != nil {
			slog.Warn("Skipping index", "index", name, "error", err)
		}
	}
	return nil
}

func (db *DB) HealthCheck() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Initialize connects and brings the schema up to date. SQL migrations run
// on postgres when enabled; everything else falls back to AutoMigrate.
// Categories are seeded afterwards when configured.
func Initialize(cfg *config.Config) (*gorm.DB, error) {
	db, err := New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.migrate(); err != nil {
		return nil, err
	}
	_ = db.CreateIndexes()

	if cfg.Database.SeedCategories {
		if err := db.SeedCategories(); err != nil {
			return nil, err
		}
	}

	slog.Info("Database ready", "driver", cfg.Database.Driver)
	return db.DB, nil
}

func (db *DB) migrate() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	applied, err := RunMigrationsIfEnabled(sqlDB, db.config)
	if err != nil {
		slog.Warn("SQL migrations failed, using AutoMigrate", "error", err)
	}
	if applied {
		return nil
	}

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}
