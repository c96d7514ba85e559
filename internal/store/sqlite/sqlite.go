// Package sqlite implements store.Repository on an embedded SQLite database.
// The whole application shares one Store; SQLite serializes writers, and the
// single-process local-first design needs nothing stronger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sql.DB
}

// New opens (creating if absent) the database file at path, enables foreign
// keys, and brings the schema up to date.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// One connection keeps the handle a process-wide singleton and avoids
	// SQLITE_BUSY between the pool's connections.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		uom TEXT NOT NULL DEFAULT '',
		buy_price REAL NOT NULL DEFAULT 0,
		sell_price REAL NOT NULL DEFAULT 0,
		default_number REAL NOT NULL DEFAULT 1,
		stock REAL NOT NULL DEFAULT 0,
		reorder_level REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		phone TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		dob TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Active',
		credit_limit REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_phone TEXT REFERENCES customers(phone),
		total REAL NOT NULL DEFAULT 0,
		paid REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT 'SYSTEM'
	)`,
	`CREATE TABLE IF NOT EXISTS sale_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		item_id INTEGER NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		method TEXT NOT NULL DEFAULT 'CASH',
		amount REAL NOT NULL DEFAULT 0,
		reference TEXT,
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT 'SYSTEM'
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'CASHIER',
		created_at TEXT NOT NULL
	)`,
}

// initialize creates missing tables and applies the additive column upgrades
// needed by database files written before created_by attribution existed.
func (s *Store) initialize(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err := s.ensureColumn(ctx, "sales", "created_by", "TEXT NOT NULL DEFAULT 'SYSTEM'"); err != nil {
		return err
	}
	if err := s.ensureColumn(ctx, "payments", "created_by", "TEXT NOT NULL DEFAULT 'SYSTEM'"); err != nil {
		return err
	}
	return nil
}

// ensureColumn adds a column to an existing table if it is not already
// present. "duplicate column name" is the expected steady-state outcome and
// is swallowed; any other failure is returned.
func (s *Store) ensureColumn(ctx context.Context, table string, column string, definition string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil && strings.Contains(err.Error(), "duplicate column name") {
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Monetary and quantity columns are REAL; decimals round-trip through
// float64 at the storage boundary and all arithmetic stays in decimal.

func toReal(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func fromReal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Timestamps are stored as 'YYYY-MM-DD HH:MM:SS' in UTC so that SQLite's
// date() and strftime() in the period filters compare them directly.
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.ParseInLocation(timeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
