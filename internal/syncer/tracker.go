package syncer

import (
	"errors"
	"fmt"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/entity"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound reports a MarkChanged call against an id that
	// does not exist. This is a caller bug, not a sync-time condition.
	ErrRecordNotFound = errors.New("syncer: record not found")
	// ErrUnknownTable reports a table name absent from the sync
	// registry.
	ErrUnknownTable = errors.New("syncer: unknown table")

	errMissingTrackerDatabase = errors.New("tracker database handle is required")
)

// Tracker is the single choke point for local mutations of synced
// entities. Every create, update, and soft delete must pass through it so
// the sync bookkeeping fields are never forgotten; direct table writes
// that bypass it are a correctness bug.
type Tracker struct {
	db    *gorm.DB
	clock func() time.Time
	ids   IDProvider
}

// NewTracker constructs a Tracker over the local replica.
func NewTracker(db *gorm.DB, clock func() time.Time) (*Tracker, error) {
	if db == nil {
		return nil, errMissingTrackerDatabase
	}
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{db: db, clock: clock, ids: NewUUIDProvider()}, nil
}

// Insert creates a new record with the full sync bookkeeping stamped at
// insert time. When fields carries no id a UUIDv7 is generated; the
// assigned id is returned either way.
func (t *Tracker) Insert(table string, fields map[string]interface{}) (string, error) {
	registered, ok := entity.Lookup(table)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	recordID, _ := fields[entity.ColumnID].(string)
	if recordID == "" {
		generated, err := t.ids.NewID()
		if err != nil {
			return "", err
		}
		recordID = generated
	}

	now := t.clock().UTC()
	timestamp := entity.FormatTimestamp(now)

	row := make(map[string]interface{}, len(fields)+7)
	for key, value := range fields {
		row[key] = value
	}
	row[entity.ColumnID] = recordID
	if _, present := row[entity.ColumnCreatedAt]; !present {
		row[entity.ColumnCreatedAt] = timestamp
	}
	if _, present := row[entity.ColumnUpdatedAt]; !present {
		row[entity.ColumnUpdatedAt] = timestamp
	}
	row[entity.ColumnLastModified] = now.UnixMilli()
	row[entity.ColumnSynced] = entity.SyncPending
	row[entity.ColumnIsDeleted] = 0
	row[entity.ColumnDeletedAt] = nil

	if err := t.db.Table(registered.Name).Create(row).Error; err != nil {
		return "", err
	}
	return recordID, nil
}

// MarkChanged merges the business-field changes with fresh sync
// bookkeeping: a new logical clock value and the pending flag, plus the
// logical-deletion fields when isDelete is set. After it returns, the
// record is guaranteed to be picked up by the next push pass.
func (t *Tracker) MarkChanged(table, recordID string, changes map[string]interface{}, isDelete bool) error {
	registered, ok := entity.Lookup(table)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	var count int64
	err := t.db.Table(registered.Name).Where("id = ?", recordID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, recordID)
	}

	now := t.clock().UTC()
	merged := make(map[string]interface{}, len(changes)+4)
	for key, value := range changes {
		merged[key] = value
	}
	merged[entity.ColumnLastModified] = now.UnixMilli()
	merged[entity.ColumnSynced] = entity.SyncPending
	if isDelete {
		merged[entity.ColumnIsDeleted] = 1
		merged[entity.ColumnDeletedAt] = entity.FormatTimestamp(now)
	}

	return t.db.Table(registered.Name).Where("id = ?", recordID).Updates(merged).Error
}
