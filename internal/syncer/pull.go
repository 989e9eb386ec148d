package syncer

import (
	"context"

	"github.com/kyris31/hurvest-sub000/internal/entity"
	"github.com/kyris31/hurvest-sub000/internal/localdb"
	"github.com/kyris31/hurvest-sub000/internal/remote"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// pull brings in remote changes since each table's watermark. Conflict
// policy: a remote delete wins unconditionally; a live remote record is
// applied unless the local copy's logical clock is strictly newer than
// the server update time. Each table's batch, including its watermark
// advance, is one local transaction.
func (e *Engine) pull(ctx context.Context) PullResult {
	if !e.connectivity.Online() {
		return PullResult{Offline: true}
	}

	result := PullResult{}
	for _, table := range entity.Tables() {
		watermark, err := localdb.Watermark(e.db, table.Name)
		if err != nil {
			result.Errors = append(result.Errors, tableError(table.Name, err))
			continue
		}

		records, err := e.remote.FetchSince(ctx, table.Name, watermark)
		if err != nil {
			result.Errors = append(result.Errors, tableError(table.Name, err))
			continue
		}
		if len(records) == 0 {
			continue
		}

		applied := 0
		txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			observedMax := watermark
			for _, record := range records {
				if record.ID == "" {
					continue
				}
				if record.UpdatedAtMillis > observedMax {
					observedMax = record.UpdatedAtMillis
				}

				changed, err := e.applyRemoteRecord(tx, table, record)
				if err != nil {
					return err
				}
				if changed {
					applied++
				}
			}
			return localdb.AdvanceWatermark(tx, table.Name, observedMax)
		})
		if txErr != nil {
			result.Errors = append(result.Errors, tableError(table.Name, txErr))
			continue
		}
		result.Fetched += applied
	}

	if result.Fetched > 0 || len(result.Errors) > 0 {
		e.logger.Debug("pull pass finished",
			zap.Int("fetched", result.Fetched),
			zap.Int("errors", len(result.Errors)))
	}
	return result
}

func (e *Engine) applyRemoteRecord(tx *gorm.DB, table entity.Table, record remote.Record) (bool, error) {
	exists, localClock, err := localRecordClock(tx, table.Name, record.ID)
	if err != nil {
		return false, err
	}

	if record.IsDeleted {
		if !exists {
			return false, nil
		}
		err := tx.Where("id = ?", record.ID).Delete(table.Model).Error
		return err == nil, err
	}

	// Last writer wins: keep the local copy only when its logical clock
	// is strictly newer than the server update time.
	if exists && localClock > record.UpdatedAtMillis {
		return false, nil
	}

	fields := make(map[string]interface{}, len(record.Fields)+4)
	for key, value := range record.Fields {
		fields[key] = value
	}
	fields[entity.ColumnID] = record.ID
	fields[entity.ColumnSynced] = entity.SyncConfirmed
	fields[entity.ColumnLastModified] = record.UpdatedAtMillis
	fields[entity.ColumnIsDeleted] = 0
	fields[entity.ColumnDeletedAt] = nil

	if exists {
		err = tx.Table(table.Name).Where("id = ?", record.ID).Updates(fields).Error
	} else {
		err = tx.Table(table.Name).Create(fields).Error
	}
	return err == nil, err
}

func localRecordClock(tx *gorm.DB, table, recordID string) (bool, int64, error) {
	var rows []map[string]interface{}
	err := tx.Table(table).
		Select("_last_modified").
		Where("id = ?", recordID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return false, 0, err
	}
	if len(rows) == 0 {
		return false, 0, nil
	}
	return true, toInt64(rows[0][entity.ColumnLastModified]), nil
}

func toInt64(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
