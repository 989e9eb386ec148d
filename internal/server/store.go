package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/entity"
	"github.com/kyris31/hurvest-sub000/internal/remote"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingStoreDatabase = errors.New("store database handle is required")

	noOpLogger = zap.NewNop()
)

// Rejection is the structured refusal surface of the store. It maps
// one-to-one onto the wire error body replicas decode, so Code, Details,
// and Hint travel to the device verbatim.
type Rejection struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Rejection) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func rejectUnknownTable(table string) *Rejection {
	return &Rejection{
		Status:  http.StatusNotFound,
		Code:    remote.CodeUnknownTable,
		Message: fmt.Sprintf("table %q is not part of the sync surface", table),
	}
}

func rejectNotFound(table, recordID string) *Rejection {
	return &Rejection{
		Status:  http.StatusNotFound,
		Code:    remote.CodeRowNotFound,
		Message: fmt.Sprintf("%s %s does not exist", table, recordID),
	}
}

// StoreConfig describes the central store's dependencies.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store is the authoritative record keeper behind the sync API. It
// enforces the referential and uniqueness rules the replicas' SQLite
// files cannot, and it owns the canonical updated_at stamps the pull
// watermarks are measured against.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewStore constructs the central store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingStoreDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Upsert validates and persists one record pushed by a replica, then
// returns the stored row as the device should see it. The server stamp
// on updated_at is authoritative; whatever the client sent for it is
// replaced so pull ordering never depends on device clocks.
func (s *Store) Upsert(ctx context.Context, tableName string, fields map[string]interface{}) (map[string]interface{}, error) {
	table, ok := entity.Lookup(tableName)
	if !ok {
		return nil, rejectUnknownTable(tableName)
	}

	recordID, _ := fields[entity.ColumnID].(string)
	if strings.TrimSpace(recordID) == "" {
		return nil, &Rejection{
			Status:  http.StatusBadRequest,
			Code:    "invalid_payload",
			Message: "record id is required",
		}
	}

	row := scrubIncoming(table, fields)
	now := entity.FormatTimestamp(s.clock().UTC())

	var stored map[string]interface{}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, table, row); err != nil {
			return err
		}
		if err := s.checkUnique(tx, table, recordID, row); err != nil {
			return err
		}

		exists, err := recordExists(tx, table.Name, recordID)
		if err != nil {
			return err
		}

		row[entity.ColumnUpdatedAt] = now
		row[entity.ColumnIsDeleted] = 0
		row[entity.ColumnDeletedAt] = nil

		if exists {
			err = tx.Table(table.Name).Where("id = ?", recordID).Updates(row).Error
		} else {
			if created, _ := row[entity.ColumnCreatedAt].(string); created == "" {
				row[entity.ColumnCreatedAt] = now
			}
			err = tx.Table(table.Name).Create(row).Error
		}
		if err != nil {
			return err
		}

		stored, err = loadStoredRow(tx, table, recordID)
		return err
	})
	if txErr != nil {
		s.logRejection("store.upsert", tableName, recordID, txErr)
		return nil, txErr
	}
	return stored, nil
}

// Delete tombstones a record. The row is kept so other replicas pull
// the deletion; only is_deleted, deleted_at, and updated_at move.
func (s *Store) Delete(ctx context.Context, tableName, recordID string) error {
	table, ok := entity.Lookup(tableName)
	if !ok {
		return rejectUnknownTable(tableName)
	}

	now := entity.FormatTimestamp(s.clock().UTC())
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := recordExists(tx, table.Name, recordID)
		if err != nil {
			return err
		}
		if !exists {
			return rejectNotFound(tableName, recordID)
		}
		return tx.Table(table.Name).Where("id = ?", recordID).Updates(map[string]interface{}{
			entity.ColumnIsDeleted: 1,
			entity.ColumnDeletedAt: now,
			entity.ColumnUpdatedAt: now,
		}).Error
	})
	if txErr != nil {
		s.logRejection("store.delete", tableName, recordID, txErr)
	}
	return txErr
}

// ListSince returns every row of a table updated strictly after the
// given timestamp, tombstones included, in ascending updated_at order.
// The fixed-width timestamp layout makes the string comparison below
// equivalent to a chronological one.
func (s *Store) ListSince(ctx context.Context, tableName, updatedAfter string) ([]map[string]interface{}, error) {
	table, ok := entity.Lookup(tableName)
	if !ok {
		return nil, rejectUnknownTable(tableName)
	}
	if updatedAfter != "" {
		if _, err := time.Parse(entity.TimestampLayout, updatedAfter); err != nil {
			return nil, &Rejection{
				Status:  http.StatusBadRequest,
				Code:    "invalid_payload",
				Message: "updated_after must be an RFC 3339 millisecond timestamp",
			}
		}
	}

	query := s.db.WithContext(ctx).Table(table.Name)
	if updatedAfter != "" {
		query = query.Where("updated_at > ?", updatedAfter)
	}

	var rows []map[string]interface{}
	if err := query.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		records = append(records, scrubOutgoing(table, row))
	}
	return records, nil
}

// checkReferences walks the table's soft foreign keys and rejects the
// row when a named parent is absent or tombstoned.
func (s *Store) checkReferences(tx *gorm.DB, table entity.Table, row map[string]interface{}) error {
	for _, reference := range table.References {
		parentID, ok := referenceValue(row[reference.Column])
		if !ok {
			continue
		}
		var count int64
		err := tx.Table(reference.Table).
			Where("id = ? AND is_deleted = 0", parentID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return &Rejection{
				Status:  http.StatusConflict,
				Code:    remote.CodeForeignKeyViolation,
				Message: fmt.Sprintf("insert or update on table %q violates a foreign key constraint", table.Name),
				Details: fmt.Sprintf("Key (%s)=(%s) is not present in table %q.", reference.Column, parentID, reference.Table),
				Hint:    "synchronize the parent table first",
			}
		}
	}
	return nil
}

// checkUnique enforces the table's business-key uniqueness across all
// rows except the record itself.
func (s *Store) checkUnique(tx *gorm.DB, table entity.Table, recordID string, row map[string]interface{}) error {
	for _, column := range table.Unique {
		value, ok := referenceValue(row[column])
		if !ok {
			continue
		}
		var count int64
		err := tx.Table(table.Name).
			Where(fmt.Sprintf("%s = ? AND id <> ?", column), value, recordID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return &Rejection{
				Status:  http.StatusConflict,
				Code:    remote.CodeUniqueViolation,
				Message: fmt.Sprintf("duplicate key value violates a unique constraint on %q", table.Name),
				Details: fmt.Sprintf("Key (%s)=(%s) already exists.", column, value),
			}
		}
	}
	return nil
}

func (s *Store) logRejection(operation, tableName, recordID string, err error) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		s.logger.Warn("request rejected",
			zap.String("operation", operation),
			zap.String("table", tableName),
			zap.String("record_id", recordID),
			zap.String("code", rejection.Code))
		return
	}
	s.logger.Error("store operation failed",
		zap.String("operation", operation),
		zap.String("table", tableName),
		zap.String("record_id", recordID),
		zap.Error(err))
}

func recordExists(tx *gorm.DB, tableName, recordID string) (bool, error) {
	var count int64
	err := tx.Table(tableName).Where("id = ?", recordID).Count(&count).Error
	return count > 0, err
}

func loadStoredRow(tx *gorm.DB, table entity.Table, recordID string) (map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := tx.Table(table.Name).Where("id = ?", recordID).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, rejectNotFound(table.Name, recordID)
	}
	return scrubOutgoing(table, rows[0]), nil
}

// scrubIncoming drops the columns a replica must never dictate: its own
// sync bookkeeping, the tombstone fields (deletion has its own
// endpoint), and the table's device-local columns.
func scrubIncoming(table entity.Table, fields map[string]interface{}) map[string]interface{} {
	row := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		row[key] = value
	}
	for _, column := range entity.ScrubColumns(table) {
		delete(row, column)
	}
	return row
}

// scrubOutgoing strips the replica bookkeeping columns the shared models
// carry; their values are meaningless outside the device that wrote
// them.
func scrubOutgoing(table entity.Table, row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for key, value := range row {
		out[key] = value
	}
	delete(out, entity.ColumnSynced)
	delete(out, entity.ColumnLastModified)
	for _, column := range table.LocalOnly {
		delete(out, column)
	}
	return out
}

func referenceValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	case *string:
		if v == nil {
			return "", false
		}
		trimmed := strings.TrimSpace(*v)
		return trimmed, trimmed != ""
	case nil:
		return "", false
	default:
		text := strings.TrimSpace(fmt.Sprintf("%v", v))
		return text, text != ""
	}
}
