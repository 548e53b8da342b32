// Package sqlite stores claims in a local SQLite file for single-machine use.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/drfirst/dental-claims/internal/domain/claim"
)

// ClaimStore stores submitted claims with the fields column holding JSON text.
type ClaimStore struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and ensures the table.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path, table string, logger *zap.Logger) (*ClaimStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer; keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	s := &ClaimStore{db: db, table: quoteIdent(table), logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *ClaimStore) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id           TEXT PRIMARY KEY,
			submitted_at TEXT NOT NULL,
			fields       TEXT NOT NULL
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create claims table: %w", err)
	}
	return nil
}

// Insert adds one row per call.
func (s *ClaimStore) Insert(ctx context.Context, rec claim.Record) (*claim.Submission, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}

	sub := &claim.Submission{
		ID:          uuid.New().String(),
		SubmittedAt: time.Now().UTC(),
		Fields:      rec,
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, submitted_at, fields) VALUES (?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, sub.ID, sub.SubmittedAt.Format(timeLayout), string(payload)); err != nil {
		return nil, fmt.Errorf("%w: insert claim: %w", claim.ErrStoreUnavailable, err)
	}

	s.logger.Debug("claim inserted", zap.String("id", sub.ID))
	return sub, nil
}

// List returns stored claims newest first.
func (s *ClaimStore) List(ctx context.Context, limit int) ([]claim.Submission, error) {
	query := fmt.Sprintf(`SELECT id, submitted_at, fields FROM %s ORDER BY submitted_at DESC, rowid DESC`, s.table)
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list claims: %w", claim.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []claim.Submission
	for rows.Next() {
		var (
			sub       claim.Submission
			submitted string
			raw       string
		)
		if err := rows.Scan(&sub.ID, &submitted, &raw); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		if sub.SubmittedAt, err = time.Parse(timeLayout, submitted); err != nil {
			return nil, fmt.Errorf("parse submitted_at of %s: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(raw), &sub.Fields); err != nil {
			return nil, fmt.Errorf("decode claim %s: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list claims: %w", claim.ErrStoreUnavailable, err)
	}
	return out, nil
}

// Ping checks the database handle.
func (s *ClaimStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *ClaimStore) Close() error {
	return s.db.Close()
}
