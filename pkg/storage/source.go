package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"propindex/pkg/common"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMissingColumn     = errors.New("dataset is missing a required column")
)

// Source yields the raw listings an index is built from.
type Source interface {
	LoadAll() ([]common.Property, error)
	Close() error
}

// Columns every dataset must provide, in canonical order.
var Columns = []string{"city", "bedrooms", "bathrooms", "price", "surface_total"}

// Open picks a Source by file extension. table only applies to SQLite files.
func Open(path, table string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVSource(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteSource(path, table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Import copies every valid row of a CSV file into a SQLite table,
// replacing what the table held. It returns rows written and rows skipped.
func Import(csvPath, dbPath, table string) (int, int, error) {
	src := NewCSVSource(csvPath)
	defer src.Close()

	records, err := src.LoadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", csvPath, err)
	}

	dst, err := NewSQLiteSource(dbPath, table)
	if err != nil {
		return 0, src.Skipped(), err
	}
	defer dst.Close()

	if err := dst.Truncate(); err != nil {
		return 0, src.Skipped(), err
	}
	if err := dst.BatchWrite(records); err != nil {
		return 0, src.Skipped(), fmt.Errorf("write %s: %w", dbPath, err)
	}
	return len(records), src.Skipped(), nil
}
