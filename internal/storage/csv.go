package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CSVStore keeps a sheet as a CSV file, one file per sheet name
type CSVStore struct {
	mu   sync.Mutex
	file string
}

// NewCSVStore creates a CSV store. dir holds one <sheet>.csv per sheet;
// the file itself is created on first write.
func NewCSVStore(dir, sheet string) (*CSVStore, error) {
	if sheet == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	name := strings.ReplaceAll(sheet, string(filepath.Separator), "_") + ".csv"
	return &CSVStore{file: filepath.Join(dir, name)}, nil
}

// EnsureHeader writes header when the file is missing or empty
func (s *CSVStore) EnsureHeader(ctx context.Context, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.file)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat sheet: %w", err)
	}

	return s.append(header)
}

// AppendRow appends row to the end of the file
func (s *CSVStore) AppendRow(ctx context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.append(row)
}

// Rows reads the whole sheet
func (s *CSVStore) Rows(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet: %w", err)
	}
	return rows, nil
}

func (s *CSVStore) Close() error {
	return nil
}

// append writes a single record in one write call so a row is never split
func (s *CSVStore) append(row []string) error {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	w.Flush()

	f, err := os.OpenFile(s.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open sheet: %w", err)
	}
	if _, err := f.WriteString(buf.String()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	return f.Close()
}
