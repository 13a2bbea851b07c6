package jobqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// SQLStore is a database/sql-backed Store, usable with either
// modernc.org/sqlite (pure Go, zero cgo) or the MySQL driver — the caller
// picks the driver name and DSN. One implementation covers both since
// they just need a single "jobs" table behind standard SQL.
//
// Offered as an alternative to FileStore for deployments that want
// queryable job history instead of a flat document; Queue is agnostic to
// which Store implementation it's given.
type SQLStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite-backed job store at path,
// with WAL mode and a busy timeout so concurrent readers don't fail.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite job store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configuring sqlite job store: %w", err)
		}
	}

	s := &SQLStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLStore opens a MySQL-backed job store via dsn (driver
// "mysql", github.com/go-sql-driver/mysql).
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql job store: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrating job store schema: %w", err)
	}
	return nil
}

// Load returns every persisted job. There is no meaningful "not found"
// state for a SQL-backed store with no rows — an empty table is simply
// zero jobs — so Load only returns ErrNotFound-free results or a real
// database error.
func (s *SQLStore) Load() ([]Job, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT document FROM jobs")
	if err != nil {
		return nil, fmt.Errorf("querying job store: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []Job
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		var j Job
		if err := json.Unmarshal([]byte(doc), &j); err != nil {
			return nil, fmt.Errorf("unmarshaling job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return jobs, nil
}

// Save replaces the entire jobs table contents with jobs, inside one
// transaction so a concurrent Load never observes a partial replace.
func (s *SQLStore) Save(jobs []Job) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning job store transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM jobs"); err != nil {
		return fmt.Errorf("clearing job store: %w", err)
	}
	for _, j := range jobs {
		data, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("marshaling job %s: %w", j.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO jobs (id, document) VALUES (?, ?)", j.ID, string(data)); err != nil {
			return fmt.Errorf("inserting job %s: %w", j.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing job store transaction: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error { return s.db.Close() }
