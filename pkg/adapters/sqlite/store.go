// Package sqlite stores flows in a SQLite database, one row per flow.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flowfile"
	_ "modernc.org/sqlite"
)

// Store implements ports.FlowStore for SQLite.
type Store struct {
	db        *sql.DB
	tableName string
}

// Open opens the database at path (":memory:" for a private in-memory
// database) and creates the flows table.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. Call CreateTables before use.
func New(db *sql.DB) *Store {
	return &Store{
		db:        db,
		tableName: "flows",
	}
}

// WithTableName overrides the default table name.
// Only alphanumeric and underscore are permitted.
func (s *Store) WithTableName(name string) *Store {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// CreateTables creates the flows table.
func (s *Store) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			definition TEXT NOT NULL,
			cards INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Save stores the flow, replacing any previous version.
func (s *Store) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	data, err := flowfile.Marshal(flowfile.FormatJSON, defs)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, definition, cards, updated_at)
		VALUES (?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query, flowID, string(data), len(defs), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// Load retrieves the flow.
func (s *Store) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	query := fmt.Sprintf(`SELECT definition FROM %s WHERE id = ?`, s.tableName)

	var data string
	err := s.db.QueryRowContext(ctx, query, flowID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	return flowfile.Decode(bytes.NewReader([]byte(data)), flowfile.FormatJSON)
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, flowID); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// List returns the stored flow ids in alphabetical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	flows := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan flow id: %w", err)
		}
		flows = append(flows, id)
	}
	return flows, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
