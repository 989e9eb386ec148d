package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/localdb"
	"github.com/kyris31/hurvest-sub000/internal/remote"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openReplica(testContext *testing.T) *gorm.DB {
	testContext.Helper()
	databasePath := filepath.Join(testContext.TempDir(), "replica.db")
	db, err := localdb.Open(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open replica: %v", err)
	}
	return db
}

func mustTracker(testContext *testing.T, db *gorm.DB, clock func() time.Time) *Tracker {
	testContext.Helper()
	tracker, err := NewTracker(db, clock)
	if err != nil {
		testContext.Fatalf("failed to build tracker: %v", err)
	}
	return tracker
}

func mustEngine(testContext *testing.T, db *gorm.DB, store RemoteStore, connectivity *Connectivity) *Engine {
	testContext.Helper()
	engine, err := NewEngine(EngineConfig{
		Database:     db,
		Remote:       store,
		Connectivity: connectivity,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func loadRow(testContext *testing.T, db *gorm.DB, table, recordID string) map[string]interface{} {
	testContext.Helper()
	var rows []map[string]interface{}
	if err := db.Table(table).Where("id = ?", recordID).Find(&rows).Error; err != nil {
		testContext.Fatalf("failed to load %s/%s: %v", table, recordID, err)
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// fakeRemote is an in-memory RemoteStore recording every call in order
// and failing on demand per record id or per table.
type fakeRemote struct {
	mu sync.Mutex

	calls   []string
	upserts map[string][]map[string]interface{}
	fetches map[string][]remote.Record

	upsertFailures map[string]error
	deleteFailures map[string]error
	fetchFailures  map[string]error

	// blockFetch and blockUpsert, when non-nil, park the first call of
	// their kind until released.
	blockFetch  chan struct{}
	blockUpsert chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		upserts:        make(map[string][]map[string]interface{}),
		fetches:        make(map[string][]remote.Record),
		upsertFailures: make(map[string]error),
		deleteFailures: make(map[string]error),
		fetchFailures:  make(map[string]error),
	}
}

func (f *fakeRemote) Upsert(_ context.Context, table string, fields map[string]interface{}) error {
	recordID, _ := fields["id"].(string)
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("upsert:%s:%s", table, recordID))
	block := f.blockUpsert
	f.blockUpsert = nil
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err, failing := f.upsertFailures[recordID]; failing {
		return err
	}

	f.mu.Lock()
	f.upserts[table] = append(f.upserts[table], fields)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, table, id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("delete:%s:%s", table, id))
	f.mu.Unlock()

	if err, failing := f.deleteFailures[id]; failing {
		return err
	}
	return nil
}

func (f *fakeRemote) FetchSince(_ context.Context, table string, _ int64) ([]remote.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "fetch:"+table)
	block := f.blockFetch
	f.blockFetch = nil
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err, failing := f.fetchFailures[table]; failing {
		return nil, err
	}
	return f.fetches[table], nil
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
