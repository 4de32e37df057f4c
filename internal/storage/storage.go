package storage

import (
	"context"
	"fmt"
)

// Store is an append-only sheet of string rows
type Store interface {
	// EnsureHeader writes header as the first row if the sheet has none yet
	EnsureHeader(ctx context.Context, header []string) error
	// AppendRow adds one row after all existing rows
	AppendRow(ctx context.Context, row []string) error
	// Rows returns every row, header first
	Rows(ctx context.Context) ([][]string, error)
	Close() error
}

// Open opens the store for sheet using the named driver
func Open(driver, path, sheet string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLiteStore(path, sheet)
	case "csv":
		return NewCSVStore(path, sheet)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
