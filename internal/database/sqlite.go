package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/kyris31/hurvest-sub000/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes the central store's SQLite connection and
// migrates the shared entity schema. The store keeps tombstoned rows, so
// every synced table gets an updated_at index for the watermark-bounded
// list scans.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.Models()...); err != nil {
		return nil, err
	}
	if err := ensureUpdatedAtIndexes(db); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("store database initialized", zap.String("path", path))
	}

	return db, nil
}

func ensureUpdatedAtIndexes(db *gorm.DB) error {
	for _, table := range entity.Tables() {
		statement := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);",
			table.Name, table.Name)
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}
