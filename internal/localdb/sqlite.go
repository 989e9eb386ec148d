package localdb

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/kyris31/hurvest-sub000/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open establishes the local replica and carries it through every schema
// revision. A failing revision aborts the open: there is no safe
// partial-upgrade state, so callers must treat the error as "local data
// unavailable".
func Open(path string, logger *zap.Logger) (*gorm.DB, error) {
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

	models := entity.Models()
	models = append(models, &SyncMeta{}, &revisionRecord{})
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}

	if err := applyRevisions(db, logger); err != nil {
		return nil, fmt.Errorf("schema revision failed: %w", err)
	}

	if logger != nil {
		logger.Info("local replica initialized", zap.String("path", path))
	}

	return db, nil
}
