package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/database"
	"github.com/kyris31/hurvest-sub000/internal/entity"
	"github.com/kyris31/hurvest-sub000/internal/remote"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openStore(testContext *testing.T, clock func() time.Time) (*Store, *gorm.DB) {
	testContext.Helper()
	databasePath := filepath.Join(testContext.TempDir(), "store.db")
	db, err := database.OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open store database: %v", err)
	}
	store, err := NewStore(StoreConfig{Database: db, Clock: clock, Logger: zap.NewNop()})
	if err != nil {
		testContext.Fatalf("failed to build store: %v", err)
	}
	return store, db
}

// steppingClock returns a clock that moves one second per reading, so
// consecutive writes never share an updated_at stamp.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func mustRejection(testContext *testing.T, err error) *Rejection {
	testContext.Helper()
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		testContext.Fatalf("expected a structured rejection, got %v", err)
	}
	return rejection
}

func TestUpsertStampsServerTime(testContext *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store, _ := openStore(testContext, steppingClock(base))

	stored, err := store.Upsert(context.Background(), "crops", map[string]interface{}{
		"id":   "crop-1",
		"name": "Tomato",
		// A replica's own stamps and bookkeeping must never stick.
		"updated_at":     "1999-01-01T00:00:00.000Z",
		"_synced":        0,
		"_last_modified": 12345,
	})
	if err != nil {
		testContext.Fatalf("upsert failed: %v", err)
	}

	updatedAt, _ := stored[entity.ColumnUpdatedAt].(string)
	if !strings.HasPrefix(updatedAt, "2026-05-01T") {
		testContext.Fatalf("expected a server stamp, got %q", updatedAt)
	}
	if _, present := stored[entity.ColumnSynced]; present {
		testContext.Fatal("replica bookkeeping leaked into the stored row")
	}
	if _, present := stored[entity.ColumnLastModified]; present {
		testContext.Fatal("replica logical clock leaked into the stored row")
	}
}

func TestUpsertUpdatesExistingRecord(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))

	if _, err := store.Upsert(context.Background(), "crops", map[string]interface{}{
		"id": "crop-1", "name": "Tomato",
	}); err != nil {
		testContext.Fatalf("first upsert failed: %v", err)
	}
	stored, err := store.Upsert(context.Background(), "crops", map[string]interface{}{
		"id": "crop-1", "name": "Cherry Tomato",
	})
	if err != nil {
		testContext.Fatalf("second upsert failed: %v", err)
	}
	if stored["name"] != "Cherry Tomato" {
		testContext.Fatalf("expected the row updated, got %v", stored["name"])
	}
}

func TestUpsertRejectsUnknownTable(testContext *testing.T) {
	store, _ := openStore(testContext, nil)

	_, err := store.Upsert(context.Background(), "spreadsheets", map[string]interface{}{"id": "x"})
	rejection := mustRejection(testContext, err)
	if rejection.Code != remote.CodeUnknownTable || rejection.Status != http.StatusNotFound {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
}

func TestUpsertRequiresRecordID(testContext *testing.T) {
	store, _ := openStore(testContext, nil)

	_, err := store.Upsert(context.Background(), "crops", map[string]interface{}{"name": "Tomato"})
	rejection := mustRejection(testContext, err)
	if rejection.Status != http.StatusBadRequest {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
}

func TestUpsertValidatesReferences(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	_, err := store.Upsert(ctx, "seed_batches", map[string]interface{}{
		"id":      "batch-1",
		"crop_id": "crop-1",
	})
	rejection := mustRejection(testContext, err)
	if rejection.Code != remote.CodeForeignKeyViolation || rejection.Status != http.StatusConflict {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
	if !strings.Contains(rejection.Details, "Key (crop_id)=(crop-1)") {
		testContext.Fatalf("details must name the broken key: %+v", rejection)
	}

	if _, err := store.Upsert(ctx, "crops", map[string]interface{}{"id": "crop-1", "name": "Tomato"}); err != nil {
		testContext.Fatalf("parent upsert failed: %v", err)
	}
	if _, err := store.Upsert(ctx, "seed_batches", map[string]interface{}{
		"id":      "batch-1",
		"crop_id": "crop-1",
	}); err != nil {
		testContext.Fatalf("child upsert failed once the parent exists: %v", err)
	}
}

func TestUpsertRejectsTombstonedParents(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "crops", map[string]interface{}{"id": "crop-1", "name": "Tomato"}); err != nil {
		testContext.Fatalf("parent upsert failed: %v", err)
	}
	if err := store.Delete(ctx, "crops", "crop-1"); err != nil {
		testContext.Fatalf("parent delete failed: %v", err)
	}

	_, err := store.Upsert(ctx, "seed_batches", map[string]interface{}{
		"id":      "batch-1",
		"crop_id": "crop-1",
	})
	rejection := mustRejection(testContext, err)
	if rejection.Code != remote.CodeForeignKeyViolation {
		testContext.Fatalf("a tombstoned parent must not satisfy the reference: %+v", rejection)
	}
}

func TestUpsertEnforcesUniqueColumns(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "trees", map[string]interface{}{
		"id": "tree-1", "identifier": "OLIVE-07",
	}); err != nil {
		testContext.Fatalf("first upsert failed: %v", err)
	}

	// Re-upserting the same record keeps its own identifier.
	if _, err := store.Upsert(ctx, "trees", map[string]interface{}{
		"id": "tree-1", "identifier": "OLIVE-07", "species": "olive",
	}); err != nil {
		testContext.Fatalf("self update must not trip uniqueness: %v", err)
	}

	_, err := store.Upsert(ctx, "trees", map[string]interface{}{
		"id": "tree-2", "identifier": "OLIVE-07",
	})
	rejection := mustRejection(testContext, err)
	if rejection.Code != remote.CodeUniqueViolation || rejection.Status != http.StatusConflict {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
	if !strings.Contains(rejection.Details, "OLIVE-07") {
		testContext.Fatalf("details must name the duplicate value: %+v", rejection)
	}
}

func TestDeleteTombstonesTheRow(testContext *testing.T) {
	store, db := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "crops", map[string]interface{}{"id": "crop-1", "name": "Tomato"}); err != nil {
		testContext.Fatalf("upsert failed: %v", err)
	}
	if err := store.Delete(ctx, "crops", "crop-1"); err != nil {
		testContext.Fatalf("delete failed: %v", err)
	}

	var rows []map[string]interface{}
	if err := db.Table("crops").Where("id = ?", "crop-1").Find(&rows).Error; err != nil {
		testContext.Fatalf("failed to load row: %v", err)
	}
	if len(rows) != 1 {
		testContext.Fatal("the tombstoned row must survive for other replicas to pull")
	}
	row := rows[0]
	if toCount(row[entity.ColumnIsDeleted]) != 1 {
		testContext.Fatalf("expected is_deleted=1, got %v", row[entity.ColumnIsDeleted])
	}
	if row[entity.ColumnDeletedAt] == nil || row[entity.ColumnDeletedAt] == "" {
		testContext.Fatal("expected deleted_at stamped")
	}
}

func TestDeleteMissingRecord(testContext *testing.T) {
	store, _ := openStore(testContext, nil)

	err := store.Delete(context.Background(), "crops", "never-seen")
	rejection := mustRejection(testContext, err)
	if rejection.Code != remote.CodeRowNotFound || rejection.Status != http.StatusNotFound {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
}

func TestListSinceFiltersAndOrders(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	var stamps []string
	for _, id := range []string{"customer-1", "customer-2", "customer-3"} {
		stored, err := store.Upsert(ctx, "customers", map[string]interface{}{"id": id, "name": "Customer " + id})
		if err != nil {
			testContext.Fatalf("upsert failed: %v", err)
		}
		stamps = append(stamps, stored[entity.ColumnUpdatedAt].(string))
	}

	records, err := store.ListSince(ctx, "customers", stamps[0])
	if err != nil {
		testContext.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		testContext.Fatalf("expected the two later records, got %d", len(records))
	}
	if records[0]["id"] != "customer-2" || records[1]["id"] != "customer-3" {
		testContext.Fatalf("expected ascending update order, got %v then %v", records[0]["id"], records[1]["id"])
	}
	for _, record := range records {
		if _, present := record[entity.ColumnSynced]; present {
			testContext.Fatal("bookkeeping columns leaked into the wire rows")
		}
	}

	all, err := store.ListSince(ctx, "customers", "")
	if err != nil {
		testContext.Fatalf("unbounded list failed: %v", err)
	}
	if len(all) != 3 {
		testContext.Fatalf("expected every record without a bound, got %d", len(all))
	}
}

func TestListSinceIncludesTombstones(testContext *testing.T) {
	store, _ := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	stored, err := store.Upsert(ctx, "crops", map[string]interface{}{"id": "crop-1", "name": "Tomato"})
	if err != nil {
		testContext.Fatalf("upsert failed: %v", err)
	}
	firstStamp := stored[entity.ColumnUpdatedAt].(string)
	if err := store.Delete(ctx, "crops", "crop-1"); err != nil {
		testContext.Fatalf("delete failed: %v", err)
	}

	records, err := store.ListSince(ctx, "crops", firstStamp)
	if err != nil {
		testContext.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		testContext.Fatalf("expected the tombstone in the delta, got %d records", len(records))
	}
	if toCount(records[0][entity.ColumnIsDeleted]) != 1 {
		testContext.Fatalf("expected an is_deleted marker, got %v", records[0])
	}
}

func TestListSinceRejectsMalformedBound(testContext *testing.T) {
	store, _ := openStore(testContext, nil)

	_, err := store.ListSince(context.Background(), "crops", "yesterday")
	rejection := mustRejection(testContext, err)
	if rejection.Status != http.StatusBadRequest {
		testContext.Fatalf("unexpected rejection: %+v", rejection)
	}
}

func TestListSinceStripsLocalOnlyColumns(testContext *testing.T) {
	store, db := openStore(testContext, steppingClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "sales", map[string]interface{}{"id": "sale-1", "sale_date": "2026-05-01T00:00:00.000Z"}); err != nil {
		testContext.Fatalf("sale upsert failed: %v", err)
	}
	if _, err := store.Upsert(ctx, "invoices", map[string]interface{}{
		"id":             "invoice-1",
		"sale_id":        "sale-1",
		"invoice_number": "INV-1",
		"invoice_date":   "2026-05-01T00:00:00.000Z",
	}); err != nil {
		testContext.Fatalf("invoice upsert failed: %v", err)
	}
	// A stray pdf_path in the store must still never reach the wire.
	if err := db.Table("invoices").Where("id = ?", "invoice-1").
		Update("pdf_path", "/tmp/INV-1.pdf").Error; err != nil {
		testContext.Fatalf("failed to plant pdf_path: %v", err)
	}

	records, err := store.ListSince(ctx, "invoices", "")
	if err != nil {
		testContext.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		testContext.Fatalf("expected one invoice, got %d", len(records))
	}
	if _, present := records[0]["pdf_path"]; present {
		testContext.Fatal("device-local column leaked into the wire rows")
	}
}

func toCount(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}
