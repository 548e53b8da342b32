// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drfirst/dental-claims/internal/domain/claim"
)

// PoolConfig holds connection pool settings
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DefaultPoolConfig returns pool defaults for dsn.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		DialTimeout:     10 * time.Second,
	}
}

// Open creates a pgx pool and verifies the connection.
func Open(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.ConnConfig.RuntimeParams["application_name"] = "claim-assistant"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// ClaimStore stores submitted claims as JSONB rows.
type ClaimStore struct {
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
	tracer trace.Tracer
}

// NewClaimStore creates a store over the given table
func NewClaimStore(pool *pgxpool.Pool, table string, logger *zap.Logger) *ClaimStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimStore{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: logger,
		tracer: otel.Tracer("claim-store"),
	}
}

// EnsureSchema creates the claims table if it does not exist.
func (s *ClaimStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id           UUID PRIMARY KEY,
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			fields       JSONB NOT NULL
		)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create claims table: %w", err)
	}
	return nil
}

// Insert adds one row per call.
func (s *ClaimStore) Insert(ctx context.Context, rec claim.Record) (*claim.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "claims_insert")
	defer span.End()

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}

	sub := &claim.Submission{ID: uuid.New().String(), Fields: rec}
	span.SetAttributes(attribute.String("claim_id", sub.ID), attribute.Int("fields", len(rec)))

	query := fmt.Sprintf(`INSERT INTO %s (id, fields) VALUES ($1, $2) RETURNING submitted_at`, s.table)
	if err := s.pool.QueryRow(ctx, query, sub.ID, string(payload)).Scan(&sub.SubmittedAt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: insert claim: %w", claim.ErrStoreUnavailable, err)
	}
	sub.SubmittedAt = sub.SubmittedAt.UTC()

	s.logger.Debug("claim inserted", zap.String("id", sub.ID))
	return sub, nil
}

// List returns stored claims newest first.
func (s *ClaimStore) List(ctx context.Context, limit int) ([]claim.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "claims_list")
	defer span.End()

	query := fmt.Sprintf(`SELECT id::text, submitted_at, fields FROM %s ORDER BY submitted_at DESC`, s.table)
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: list claims: %w", claim.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []claim.Submission
	for rows.Next() {
		var (
			sub claim.Submission
			raw []byte
		)
		if err := rows.Scan(&sub.ID, &sub.SubmittedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		if err := json.Unmarshal(raw, &sub.Fields); err != nil {
			return nil, fmt.Errorf("decode claim %s: %w", sub.ID, err)
		}
		sub.SubmittedAt = sub.SubmittedAt.UTC()
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list claims: %w", claim.ErrStoreUnavailable, err)
	}
	return out, nil
}

// Ping checks the connection.
func (s *ClaimStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
