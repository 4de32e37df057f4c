package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sheet_rows (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	sheet      TEXT NOT NULL,
	is_header  INTEGER NOT NULL DEFAULT 0,
	cells      TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS sheet_rows_header ON sheet_rows (sheet) WHERE is_header = 1;
`

// SQLiteStore keeps sheets as rows of a SQLite table. Several sheets can
// share one database file.
type SQLiteStore struct {
	db    *sqlx.DB
	sheet string
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path, sheet string) (*SQLiteStore, error) {
	if sheet == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers, so every append lands whole.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, sheet: sheet}, nil
}

// EnsureHeader inserts header unless the sheet already has one
func (s *SQLiteStore) EnsureHeader(ctx context.Context, header []string) error {
	cells, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sheet_rows (sheet, is_header, cells) VALUES (?, 1, ?)`,
		s.sheet, string(cells))
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// AppendRow inserts one data row
func (s *SQLiteStore) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet, is_header, cells) VALUES (?, 0, ?)`,
		s.sheet, string(cells))
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// Rows returns the sheet with its header first, then rows in append order
func (s *SQLiteStore) Rows(ctx context.Context) ([][]string, error) {
	var raw []string
	err := s.db.SelectContext(ctx, &raw,
		`SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY is_header DESC, id`, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	rows := make([][]string, 0, len(raw))
	for _, cells := range raw {
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
