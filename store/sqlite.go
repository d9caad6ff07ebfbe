package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/tunnel"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tunnels (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	config   TEXT NOT NULL
)`

// SQLiteStore keeps tunnels in a SQLite database, one row per tunnel
// keyed by position.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; keeps the file lock simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the stored tunnels ordered by position.
func (s *SQLiteStore) Load(ctx context.Context) ([]*tunnel.Configuration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, config FROM tunnels ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
	}
	defer rows.Close()

	var configs []*tunnel.Configuration
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
		}
		cfg, err := decodeEntry(name, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
	}
	return configs, nil
}

// Save replaces every row in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, configs []*tunnel.Configuration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tunnels`); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tunnels (position, name, config) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}
	defer stmt.Close()

	for i, cfg := range configs {
		if _, err := stmt.ExecContext(ctx, i, cfg.TunnelName(), string(cfg.MarshalPublic())); err != nil {
			return fmt.Errorf("%w: tunnel %s: %v", common.ErrStoreSave, cfg.TunnelName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
