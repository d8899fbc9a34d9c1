package db

import (
	"fmt"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureReputationIndexes adds the indexes AutoMigrate cannot express.
// Safe to re-run.
func EnsureReputationIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	// Anomaly detection scans the last hour of ratings per source.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_source_rating_source_created
		ON source_rating(source_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_source_rating_source_created: %w", err)
	}
	// Decay candidate scan: stale sources that still exist.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_source_decay_scan
		ON source(last_article_at, decay_applied_at)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_source_decay_scan: %w", err)
	}
	// Accuracy aggregates group per source over the outcome flag.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cross_reference_source_accuracy
		ON cross_reference_result(source_id, was_accurate);
	`).Error; err != nil {
		return fmt.Errorf("create idx_cross_reference_source_accuracy: %w", err)
	}
	return nil
}
