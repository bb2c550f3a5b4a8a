package remote

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
)

// testStore opens a store in a temporary directory.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteOpenCreatesSchema(t *testing.T) {
	store := testStore(t)

	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='records'`
	if err := store.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Error("records table does not exist")
	}
}

func TestSQLiteCreateAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key, err := store.CreateRecord(ctx, Fields{
		ID:   "aa-11",
		Text: "fix the cache",
		Kind: "TODO",
		File: "main.go",
		Line: 4,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	if key == "" {
		t.Fatal("CreateRecord() returned empty key")
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Key != key {
		t.Errorf("Key = %q, want %q", rec.Key, key)
	}
	if rec.ID != "aa-11" {
		t.Errorf("ID = %q, want aa-11", rec.ID)
	}
	if rec.Text != "fix the cache" {
		t.Errorf("Text = %q, want %q", rec.Text, "fix the cache")
	}
	if rec.Status != marker.StatusOpen {
		t.Errorf("Status = %q, want %q (default)", rec.Status, marker.StatusOpen)
	}
}

func TestSQLiteUpdatePreservesStatus(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key, err := store.CreateRecord(ctx, Fields{ID: "aa-11", Text: "original", Kind: "TODO"})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}

	// Simulate a remote-side status edit, then a local update.
	if err := store.SetStatus(ctx, key, "In progress"); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if err := store.UpdateRecord(ctx, key, Fields{ID: "aa-11", Text: "edited", Kind: "TODO"}); err != nil {
		t.Fatalf("UpdateRecord() failed: %v", err)
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if records[0].Text != "edited" {
		t.Errorf("Text = %q, want edited", records[0].Text)
	}
	if records[0].Status != "In progress" {
		t.Errorf("Status = %q, update must not touch status", records[0].Status)
	}
}

func TestSQLiteUpdateUnknownKey(t *testing.T) {
	store := testStore(t)

	err := store.UpdateRecord(context.Background(), "no-such-key", Fields{ID: "aa-11", Text: "x", Kind: "TODO"})
	if err == nil {
		t.Fatal("UpdateRecord() on unknown key should fail")
	}
}

func TestSQLiteArchiveIsSoftDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	key, err := store.CreateRecord(ctx, Fields{ID: "aa-11", Text: "doomed", Kind: "TODO"})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}

	if err := store.ArchiveRecord(ctx, key); err != nil {
		t.Fatalf("ArchiveRecord() failed: %v", err)
	}

	// The row must stay visible to listing so pulls can see the archival.
	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1 (archival is soft)", len(records))
	}
	if records[0].Status != marker.StatusArchived {
		t.Errorf("Status = %q, want %q", records[0].Status, marker.StatusArchived)
	}
}

func TestSQLiteDuplicateMarkerIDRejected(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.CreateRecord(ctx, Fields{ID: "aa-11", Text: "first", Kind: "TODO"}); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	if _, err := store.CreateRecord(ctx, Fields{ID: "aa-11", Text: "second", Kind: "TODO"}); err == nil {
		t.Fatal("CreateRecord() with duplicate marker id should fail")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestSQLiteDescribeSchema(t *testing.T) {
	store := testStore(t)

	schema, err := store.DescribeSchema(context.Background())
	if err != nil {
		t.Fatalf("DescribeSchema() failed: %v", err)
	}

	for _, name := range []string{PropTitle, PropID, PropKind, PropStatus, PropFile, PropLine} {
		if _, ok := schema[name]; !ok {
			t.Errorf("schema missing property %q", name)
		}
	}
}
