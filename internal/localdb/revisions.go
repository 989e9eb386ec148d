package localdb

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type revisionRecord struct {
	Version          int    `gorm:"column:version;primaryKey;not null"`
	Name             string `gorm:"column:name;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (revisionRecord) TableName() string {
	return "schema_revisions"
}

type schemaRevision struct {
	version int
	name    string
	// apply runs the revision's one-time data migration inside a
	// transaction. nil means the revision only shipped index or column
	// additions already handled by AutoMigrate.
	apply func(*gorm.DB) error
}

// schemaRevisions is append-only. A shipped revision is never edited:
// a replica may be upgrading from any historical version, so changes to
// an already-touched collection always land as a new trailing entry.
var schemaRevisions = []schemaRevision{
	{version: 1, name: "baseline_sync_indexes", apply: createBaselineIndexes},
	{version: 2, name: "flock_type_backfill", apply: backfillFlockType},
	{version: 3, name: "harvest_quality_grade_sentinel", apply: normalizeHarvestQualityGrade},
	{version: 4, name: "supplier_invoice_net_totals", apply: backfillSupplierInvoiceNetTotals},
	{version: 5, name: "reminder_completed_flag", apply: repairReminderCompletedFlag},
}

func applyRevisions(db *gorm.DB, logger *zap.Logger) error {
	var current int
	err := db.Model(&revisionRecord{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error
	if err != nil {
		return err
	}

	for _, revision := range schemaRevisions {
		if revision.version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if revision.apply != nil {
				if err := revision.apply(tx); err != nil {
					return err
				}
			}
			return tx.Create(&revisionRecord{
				Version:          revision.version,
				Name:             revision.name,
				AppliedAtSeconds: time.Now().UTC().Unix(),
			}).Error
		})
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("schema revision applied",
				zap.Int("version", revision.version),
				zap.String("revision", revision.name))
		}
	}
	return nil
}

func createBaselineIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale_harvest ON sale_items (sale_id, harvest_log_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_date_completed ON reminders (reminder_date, is_completed);`,
		`CREATE INDEX IF NOT EXISTS idx_harvest_logs_date ON harvest_logs (harvest_date);`,
	}
	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}

// Flocks created before the poultry module split carried no type. Default
// them to egg layers, the only kind that existed then.
func backfillFlockType(db *gorm.DB) error {
	return db.Exec(`UPDATE flocks SET flock_type = 'egg_layer' WHERE flock_type IS NULL OR flock_type = '';`).Error
}

// Grade was added after harvest logging shipped. An empty string is not a
// grade; older rows get the explicit unknown sentinel (NULL) instead.
func normalizeHarvestQualityGrade(db *gorm.DB) error {
	return db.Exec(`UPDATE harvest_logs SET quality_grade = NULL WHERE quality_grade = '';`).Error
}

func backfillSupplierInvoiceNetTotals(db *gorm.DB) error {
	return db.Exec(`UPDATE supplier_invoices SET total_amount_net = total_amount_gross - discount_amount WHERE total_amount_net = 0 AND total_amount_gross <> 0;`).Error
}

// Early reminder rows recorded completion only through completed_at.
func repairReminderCompletedFlag(db *gorm.DB) error {
	return db.Exec(`UPDATE reminders SET is_completed = 1 WHERE completed_at IS NOT NULL AND is_completed = 0;`).Error
}
