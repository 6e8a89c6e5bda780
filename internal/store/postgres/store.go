// Package postgres provides the Postgres-backed business store.
//
// Expected table shape (position preserves ingestion order):
//
//	CREATE TABLE businesses (
//	    id                    TEXT PRIMARY KEY,
//	    position              INTEGER NOT NULL,
//	    business_name         TEXT NOT NULL,
//	    industry              TEXT NOT NULL,
//	    industry_display_name TEXT NOT NULL,
//	    location              TEXT NOT NULL,
//	    city                  TEXT,
//	    state                 TEXT,
//	    website               TEXT,
//	    email                 TEXT
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool backing the store.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store keeps business records in Postgres. It satisfies the same interface
// as the memory store; filtering and pagination still happen over List
// snapshots, so both drivers share semantics.
type Store struct {
	pool  pgxPool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "businesses"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "businesses"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

var copyColumns = []string{
	"id", "position", "business_name", "industry", "industry_display_name",
	"location", "city", "state", "website", "email",
}

// ReplaceAll discards the table contents and installs the given records in
// one transaction; a failure leaves the previous contents untouched.
func (s *Store) ReplaceAll(ctx context.Context, records []lead.Business) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear businesses: %w", err)
	}
	if len(records) > 0 {
		rows := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			b := records[i]
			return []any{
				b.ID, i, b.BusinessName, b.Industry, b.IndustryDisplayName,
				b.Location, b.City, b.State, b.Website, b.Email,
			}, nil
		})
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, copyColumns, rows); err != nil {
			return fmt.Errorf("copy businesses: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

const selectColumns = "id, business_name, industry, industry_display_name, location, city, state, website, email"

// List returns all records in ingestion order.
func (s *Store) List(ctx context.Context) ([]lead.Business, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY position", selectColumns, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var out []lead.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return out, nil
}

// Get fetches one record by id.
func (s *Store) Get(ctx context.Context, id string) (lead.Business, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", selectColumns, s.table)
	b, err := scanBusiness(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	return b, err
}

// GetByIndex fetches one record by its position in the ingestion order.
func (s *Store) GetByIndex(ctx context.Context, index int) (lead.Business, error) {
	if index < 0 {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY position OFFSET $1 LIMIT 1", selectColumns, s.table)
	b, err := scanBusiness(s.pool.QueryRow(ctx, query, index))
	if errors.Is(err, pgx.ErrNoRows) {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	return b, err
}

// SetWebsite records a discovered website and returns the updated record.
func (s *Store) SetWebsite(ctx context.Context, id string, url string) (lead.Business, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET website = $2 WHERE id = $1 RETURNING %s", s.table, selectColumns)
	b, err := scanBusiness(s.pool.QueryRow(ctx, query, id, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return lead.Business{}, lead.NewNotFoundError("Business")
	}
	return b, err
}

// Count reports the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s", s.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	return n, nil
}

// Clear empties the table.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear businesses: %w", err)
	}
	return nil
}

func scanBusiness(row pgx.Row) (lead.Business, error) {
	var b lead.Business
	err := row.Scan(
		&b.ID, &b.BusinessName, &b.Industry, &b.IndustryDisplayName,
		&b.Location, &b.City, &b.State, &b.Website, &b.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lead.Business{}, err
		}
		return lead.Business{}, fmt.Errorf("scan business: %w", err)
	}
	return b, nil
}
