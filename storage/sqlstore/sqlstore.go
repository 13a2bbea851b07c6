// Package sqlstore is a database/sql-backed storage.Store usable against
// either SQLite or MySQL, with separate constructors per driver against
// one shared schema.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/dshills/agentflow/storage"
)

// Store is a shared database/sql implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed Store at path,
// with WAL mode and a busy timeout for safe concurrent access.
func NewSQLiteStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configuring sqlite: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLStore opens a MySQL-backed Store using dsn.
func NewMySQLStore(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_logs(activity_type, created_at)`,
		`CREATE TABLE IF NOT EXISTS weight_blobs (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// SaveInteraction implements storage.Store.
func (s *Store) SaveInteraction(ctx context.Context, in storage.Interaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, query, response, created_at) VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Query, in.Response, in.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving interaction: %w", err)
	}
	return nil
}

// ListInteractions implements storage.Store.
func (s *Store) ListInteractions(ctx context.Context, userID string, limit int) ([]storage.Interaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, query, response, created_at FROM interactions
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []storage.Interaction
	for rows.Next() {
		var in storage.Interaction
		var createdAt string
		if err := rows.Scan(&in.ID, &in.UserID, &in.Query, &in.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		in.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing interaction timestamp: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CreateActivityLog implements storage.Store.
func (s *Store) CreateActivityLog(ctx context.Context, log storage.ActivityLog) error {
	var metadataJSON []byte
	if log.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(log.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling activity log metadata: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, activity_type, message, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		log.ID, log.ActivityType, log.Message, string(metadataJSON), log.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving activity log: %w", err)
	}
	return nil
}

// ListActivityLogs implements storage.Store. An empty activityType matches
// all types.
func (s *Store) ListActivityLogs(ctx context.Context, activityType string, limit int) ([]storage.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if activityType == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, activity_type, message, metadata, created_at FROM activity_logs
			 ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, activity_type, message, metadata, created_at FROM activity_logs
			 WHERE activity_type = ? ORDER BY created_at DESC LIMIT ?`, activityType, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []storage.ActivityLog
	for rows.Next() {
		var log storage.ActivityLog
		var metadataJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&log.ID, &log.ActivityType, &log.Message, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &log.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling activity log metadata: %w", err)
			}
		}
		log.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing activity log timestamp: %w", err)
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

// SaveWeights implements storage.Store. Upsert is done as delete-then-insert
// inside a transaction rather than an ON CONFLICT clause, since the
// dialect-specific upsert syntax differs between sqlite and MySQL.
func (s *Store) SaveWeights(ctx context.Context, blob storage.WeightBlob) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning weight blob transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weight_blobs WHERE name = ?`, blob.Name); err != nil {
		return fmt.Errorf("clearing prior weight blob: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO weight_blobs (name, data, created_at) VALUES (?, ?, ?)`,
		blob.Name, blob.Data, blob.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving weight blob: %w", err)
	}
	return tx.Commit()
}

// LoadWeights implements storage.Store.
func (s *Store) LoadWeights(ctx context.Context, name string) (storage.WeightBlob, error) {
	var blob storage.WeightBlob
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, data, created_at FROM weight_blobs WHERE name = ?`, name).
		Scan(&blob.Name, &blob.Data, &createdAt)
	if err == sql.ErrNoRows {
		return storage.WeightBlob{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.WeightBlob{}, fmt.Errorf("loading weight blob: %w", err)
	}
	blob.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return storage.WeightBlob{}, fmt.Errorf("parsing weight blob timestamp: %w", err)
	}
	return blob, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
