package localdb

import (
	"errors"

	"gorm.io/gorm"
)

const watermarkKeyPrefix = "lastSyncTimestamp_"

// SyncMeta is the key-value bookkeeping table. One row per synced
// collection holds the pull watermark: the epoch-millisecond server
// update time of the most recent successfully pulled record.
type SyncMeta struct {
	ID    string `gorm:"column:id;primaryKey;size:120;not null"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

// TableName exposes the table backing sync metadata.
func (SyncMeta) TableName() string {
	return "sync_meta"
}

// WatermarkKey builds the SyncMeta row id for a table's pull watermark.
func WatermarkKey(table string) string {
	return watermarkKeyPrefix + table
}

// Watermark reads a table's pull watermark. A table that has never been
// pulled reports epoch zero.
func Watermark(db *gorm.DB, table string) (int64, error) {
	var row SyncMeta
	err := db.Where("id = ?", WatermarkKey(table)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Value, nil
}

// AdvanceWatermark moves a table's watermark forward. Values at or below
// the stored watermark are ignored: watermarks only ever advance.
func AdvanceWatermark(db *gorm.DB, table string, value int64) error {
	key := WatermarkKey(table)

	var row SyncMeta
	err := db.Where("id = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&SyncMeta{ID: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	if value <= row.Value {
		return nil
	}
	return db.Model(&SyncMeta{}).Where("id = ?", key).Update("value", value).Error
}
