package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/smartstudy/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		content_id TEXT NOT NULL,
		summary_type TEXT NOT NULL,
		summary TEXT NOT NULL,
		questions TEXT,
		answers TEXT,
		keywords TEXT,
		video_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_content_id ON sessions(content_id);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `id, file_name, content_id, summary_type, summary, questions, answers, keywords, video_count, created_at`

// CreateRecord inserts a record. CreatedAt is set when zero.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *models.SessionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	questions, err := marshalList(rec.Questions)
	if err != nil {
		return err
	}
	answers, err := marshalList(rec.Answers)
	if err != nil {
		return err
	}
	keywords, err := marshalList(rec.Keywords)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.ContentID, string(rec.SummaryType), rec.Summary,
		questions, answers, keywords, rec.VideoCount, rec.CreatedAt,
	)
	return err
}

// GetRecord returns a record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns records newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, offset, limit int) ([]*models.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM sessions ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.SessionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var summaryType string
	var questions, answers, keywords sql.NullString
	if err := sc.Scan(&rec.ID, &rec.FileName, &rec.ContentID, &summaryType, &rec.Summary,
		&questions, &answers, &keywords, &rec.VideoCount, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.SummaryType = models.SummaryType(summaryType)
	for _, f := range []struct {
		raw sql.NullString
		dst *[]string
	}{{questions, &rec.Questions}, {answers, &rec.Answers}, {keywords, &rec.Keywords}} {
		if !f.raw.Valid || f.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw.String), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(b), nil
}
