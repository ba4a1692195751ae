// Package history is the opt-in archive of extraction records. It is a plain
// append log for later review and export; session ledgers never read from it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// storedTimeFormat has a fixed width so timestamps sort as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists archived records in a SQLite database.
// When the database cannot be opened it falls back to a JSONL file beside it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) the archive database at path.
func NewSQLiteStore(path string) *SQLiteStore {
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	fallback := NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		timestamp TEXT,
		model TEXT,
		tier TEXT,
		fields TEXT,
		output_style TEXT,
		word_count_limit INTEGER,
		document_name TEXT,
		duration_ms INTEGER,
		result_text TEXT
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(ctx context.Context, record domain.ArchivedRecord) error {
	if s.db == nil {
		return s.fallback.Save(ctx, record)
	}
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO records
		(id, session_id, timestamp, model, tier, fields, output_style, word_count_limit, document_name, duration_ms, result_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SessionID,
		record.Timestamp.UTC().Format(storedTimeFormat),
		record.Model,
		record.Tier,
		string(fields),
		string(record.OutputStyle),
		record.WordCountLimit,
		record.DocumentName,
		record.Duration.Milliseconds(),
		record.ResultText,
	)
	return err
}

// Records returns archived records newest first (limit/search optional).
func (s *SQLiteStore) Records(ctx context.Context, limit int, search string) ([]domain.ArchivedRecord, error) {
	if s.db == nil {
		return s.fallback.Records(ctx, limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, session_id, timestamp, model, tier, fields, output_style, word_count_limit, document_name, duration_ms, result_text FROM records")
	var args []interface{}
	if search != "" {
		like := "%" + search + "%"
		builder.WriteString(" WHERE fields LIKE ? OR result_text LIKE ? OR document_name LIKE ? OR model LIKE ? OR tier LIKE ?")
		args = append(args, like, like, like, like, like)
	}
	builder.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ArchivedRecord
	for rows.Next() {
		var rec domain.ArchivedRecord
		var ts, fields, style string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &ts, &rec.Model, &rec.Tier, &fields, &style,
			&rec.WordCountLimit, &rec.DocumentName, &durationMS, &rec.ResultText); err != nil {
			return nil, err
		}
		if t, err := time.Parse(storedTimeFormat, ts); err == nil {
			rec.Timestamp = t
		}
		_ = json.Unmarshal([]byte(fields), &rec.Fields)
		rec.OutputStyle = domain.OutputStyle(style)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all archived records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return s.fallback.Clear(ctx)
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM records")
	return err
}

// Path returns the archive location.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ ports.ArchiveRepository = (*SQLiteStore)(nil)
