package remote

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore implements Store on an embedded SQLite database. It backs
// the offline "sqlite" mode and the integration tests; the reconciliation
// engine sees exactly the same contract as with the Notion client.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// sqliteSchema mirrors DescribeSchema for the fixed table layout.
var sqliteSchema = map[string]string{
	PropTitle:  "text",
	PropID:     "text",
	PropKind:   "text",
	PropStatus: "text",
	PropFile:   "text",
	PropLine:   "number",
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. The caller must Close() the store when done.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	store := &SQLiteStore{conn: conn, path: path}

	// WAL keeps concurrent reads cheap while a pass writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := store.initSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	s.conn = nil
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key        TEXT PRIMARY KEY,
		marker_id  TEXT NOT NULL UNIQUE,
		text       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		status     TEXT NOT NULL,
		file       TEXT NOT NULL DEFAULT '',
		line       INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_marker_id ON records(marker_id);
	CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// ListRecords implements Store. Archived records are included: the pull
// direction needs to see them to remove their local lines.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]Record, error) {
	query := `
	SELECT key, marker_id, text, kind, status, file, line
	FROM records
	ORDER BY created_at ASC
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.ID, &rec.Text, &rec.Kind, &rec.Status, &rec.File, &rec.Line); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", ErrUnavailable, err)
	}

	return records, nil
}

// CreateRecord implements Store.
func (s *SQLiteStore) CreateRecord(ctx context.Context, fields Fields) (string, error) {
	key := uuid.NewString()
	now := time.Now().Format(time.RFC3339)

	status := fields.Status
	if status == "" {
		status = marker.StatusOpen
	}

	query := `
	INSERT INTO records (key, marker_id, text, kind, status, file, line, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, query,
		key, fields.ID, fields.Text, fields.Kind, status, fields.File, fields.Line, now, now)
	if err != nil {
		return "", fmt.Errorf("%w: create record %s: %v", ErrUnavailable, fields.ID, err)
	}

	return key, nil
}

// UpdateRecord implements Store. Status is not touched: the store owns
// lifecycle transitions.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, key string, fields Fields) error {
	query := `
	UPDATE records
	SET text = ?, kind = ?, file = ?, line = ?, updated_at = ?
	WHERE key = ?
	`

	res, err := s.conn.ExecContext(ctx, query,
		fields.Text, fields.Kind, fields.File, fields.Line, time.Now().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("%w: update record %s: %v", ErrUnavailable, key, err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: update record %s: no such key", ErrUnavailable, key)
	}
	return nil
}

// ArchiveRecord implements Store. Soft delete: the row stays, only its
// status moves to the terminal state.
func (s *SQLiteStore) ArchiveRecord(ctx context.Context, key string) error {
	query := `UPDATE records SET status = ?, updated_at = ? WHERE key = ?`

	_, err := s.conn.ExecContext(ctx, query,
		marker.StatusArchived, time.Now().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("%w: archive record %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// DescribeSchema implements Store.
func (s *SQLiteStore) DescribeSchema(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(sqliteSchema))
	for name, typ := range sqliteSchema {
		out[name] = typ
	}
	return out, nil
}

// SetStatus updates only the status of the record at key. It exists so
// tests and local tooling can simulate remote-side status edits.
func (s *SQLiteStore) SetStatus(ctx context.Context, key, status string) error {
	query := `UPDATE records SET status = ?, updated_at = ? WHERE key = ?`

	_, err := s.conn.ExecContext(ctx, query, status, time.Now().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("set status on %s: %w", key, err)
	}
	return nil
}

// Count returns the number of records in the store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}
