package entity

import (
	"strings"
	"time"
)

// Synced flag states for SyncFields.Synced.
const (
	SyncPending   = 0
	SyncConfirmed = 1
)

// Bookkeeping column names shared by every synced collection. These never
// leave the local replica: the push reconciler scrubs them before shipping
// a record to the remote store.
const (
	ColumnID           = "id"
	ColumnCreatedAt    = "created_at"
	ColumnUpdatedAt    = "updated_at"
	ColumnLastModified = "_last_modified"
	ColumnSynced       = "_synced"
	ColumnIsDeleted    = "is_deleted"
	ColumnDeletedAt    = "deleted_at"
)

// BookkeepingColumns lists the sync-tracking columns stripped from push
// payloads. is_deleted and deleted_at are included: deletion travels as a
// remote delete call, never as payload fields.
func BookkeepingColumns() []string {
	return []string{ColumnSynced, ColumnLastModified, ColumnIsDeleted, ColumnDeletedAt}
}

// SyncFields is embedded by every synced entity. The id is client
// generated and stable across replicas. created_at/updated_at are the
// business-visible audit timestamps (ISO-8601); _last_modified is the
// local logical clock in epoch milliseconds used only for conflict
// comparison; _synced tracks the dirty state; is_deleted/deleted_at mark
// logical deletion pending remote confirmation.
type SyncFields struct {
	ID           string  `gorm:"column:id;primaryKey;size:64;not null"`
	CreatedAt    string  `gorm:"column:created_at;size:40;not null;default:''"`
	UpdatedAt    string  `gorm:"column:updated_at;size:40;not null;default:''"`
	LastModified int64   `gorm:"column:_last_modified;not null;default:0;index"`
	Synced       int     `gorm:"column:_synced;not null;default:0;index"`
	IsDeleted    int     `gorm:"column:is_deleted;not null;default:0"`
	DeletedAt    *string `gorm:"column:deleted_at;size:40"`
}

// TimestampLayout is the fixed-width UTC layout used for every ISO-8601
// field. Fixed millisecond precision keeps lexicographic string order
// identical to chronological order, which the remote store relies on for
// its updated-after scans.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders an ISO-8601 timestamp in TimestampLayout.
func FormatTimestamp(value time.Time) string {
	return value.UTC().Format(TimestampLayout)
}

// ParseTimestampMillis converts an ISO-8601 timestamp to epoch
// milliseconds. Returns zero for empty or malformed values rather than
// failing: a missing server timestamp must never abort a pull batch.
func ParseTimestampMillis(value string) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	parsed, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return 0
	}
	return parsed.UnixMilli()
}
