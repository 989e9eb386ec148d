package syncer

import (
	"context"

	"github.com/kyris31/hurvest-sub000/internal/entity"
	"go.uber.org/zap"
)

// push walks every synced table in fixed dependency order and ships the
// dirty set to the remote store. Failure isolation is per record: a
// rejected record stays dirty for the next pass and never blocks the
// rest of its table or the tables after it.
func (e *Engine) push(ctx context.Context) PushResult {
	if !e.connectivity.Online() {
		return PushResult{Offline: true}
	}

	result := PushResult{}
	for _, table := range entity.Tables() {
		var rows []map[string]interface{}
		err := e.db.WithContext(ctx).
			Table(table.Name).
			Where("_synced = ?", entity.SyncPending).
			Find(&rows).Error
		if err != nil {
			result.Errors = append(result.Errors, tableError(table.Name, err))
			continue
		}

		for _, row := range rows {
			recordID, _ := row[entity.ColumnID].(string)
			if recordID == "" {
				result.Errors = append(result.Errors, RecordError{
					Table:   table.Name,
					Message: "dirty row has no usable id and was left pending",
				})
				continue
			}

			if truthy(row[entity.ColumnIsDeleted]) {
				if pushErr := e.pushDelete(ctx, table, recordID); pushErr != nil {
					result.Errors = append(result.Errors, pushError(table.Name, recordID, pushErr))
					continue
				}
				result.Pushed++
				continue
			}

			if pushErr := e.pushUpsert(ctx, table, recordID, row); pushErr != nil {
				result.Errors = append(result.Errors, pushError(table.Name, recordID, pushErr))
				continue
			}
			result.Pushed++
		}
	}

	if result.Pushed > 0 || len(result.Errors) > 0 {
		e.logger.Debug("push pass finished",
			zap.Int("pushed", result.Pushed),
			zap.Int("errors", len(result.Errors)))
	}
	return result
}

// pushDelete completes the deletion round-trip: the local row is only
// physically removed once the remote store confirmed the delete. This is
// the single code path that hard-deletes local data during push.
func (e *Engine) pushDelete(ctx context.Context, table entity.Table, recordID string) error {
	if err := e.remote.Delete(ctx, table.Name, recordID); err != nil {
		return err
	}
	return e.db.WithContext(ctx).
		Where("id = ?", recordID).
		Delete(table.Model).Error
}

func (e *Engine) pushUpsert(ctx context.Context, table entity.Table, recordID string, row map[string]interface{}) error {
	payload := scrubForPush(table, row)
	snapshotClock := toInt64(row[entity.ColumnLastModified])
	if err := e.remote.Upsert(ctx, table.Name, payload); err != nil {
		return err
	}
	// Confirm only the revision that went over the wire. An edit made
	// while the upsert was in flight bumped _last_modified and must
	// stay pending for the next pass.
	return e.db.WithContext(ctx).
		Table(table.Name).
		Where("id = ? AND _last_modified = ?", recordID, snapshotClock).
		Update(entity.ColumnSynced, entity.SyncConfirmed).Error
}

// scrubForPush strips the sync bookkeeping and the table's local-only
// columns so the wire payload matches the remote schema exactly.
func scrubForPush(table entity.Table, row map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(row))
	for key, value := range row {
		payload[key] = value
	}
	for _, column := range entity.ScrubColumns(table) {
		delete(payload, column)
	}
	return payload
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
