package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"

	"propindex/pkg/common"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource keeps listings in one SQLite table.
type SQLiteSource struct {
	db    *sql.DB
	table string
	mu    sync.Mutex
}

func NewSQLiteSource(path, table string) (*SQLiteSource, error) {
	if table == "" {
		table = "properties"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL DEFAULT '',
		bedrooms INTEGER NOT NULL,
		bathrooms INTEGER NOT NULL,
		price REAL NOT NULL,
		surface_total REAL NOT NULL
	);`, table)
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init table %s: %w", table, err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}

	return &SQLiteSource{db: db, table: table}, nil
}

// BatchWrite appends records in a single transaction.
func (s *SQLiteSource) BatchWrite(records []common.Property) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (city, bedrooms, bathrooms, price, surface_total) VALUES (?, ?, ?, ?, ?)", s.table))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range records {
		if _, err := stmt.Exec(p.City, p.Bedrooms, p.Bathrooms, p.Price, p.SurfaceTotal); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LoadAll returns rows in insertion order.
func (s *SQLiteSource) LoadAll() ([]common.Property, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT city, bedrooms, bathrooms, price, surface_total FROM %s ORDER BY id ASC", s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []common.Property
	for rows.Next() {
		var p common.Property
		if err := rows.Scan(&p.City, &p.Bedrooms, &p.Bathrooms, &p.Price, &p.SurfaceTotal); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func (s *SQLiteSource) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", s.table))
	return err
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
