// Package postgres provides an airspace store on PostgreSQL for deployments
// that share one database between several service instances.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS airspace_restrictions (
	id              BIGSERIAL PRIMARY KEY,
	notice_id       TEXT UNIQUE,
	start_ts        TIMESTAMPTZ NOT NULL,
	end_ts          TIMESTAMPTZ,
	is_permanent    BOOLEAN NOT NULL DEFAULT FALSE,
	center_lat      DOUBLE PRECISION NOT NULL,
	center_lon      DOUBLE PRECISION NOT NULL,
	radius_nm       DOUBLE PRECISION,
	lower_limit     INTEGER NOT NULL DEFAULT 0,
	upper_limit     INTEGER NOT NULL DEFAULT 999,
	category        TEXT NOT NULL,
	source_name     TEXT NOT NULL,
	raw_text        TEXT NOT NULL,
	qualifier_line  TEXT NOT NULL DEFAULT '',
	fir             TEXT NOT NULL DEFAULT '',
	qualifier_codes TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_airspace_window ON airspace_restrictions(start_ts, end_ts);
CREATE INDEX IF NOT EXISTS idx_airspace_fir ON airspace_restrictions(fir);
`

const columns = `id, notice_id, start_ts, end_ts, is_permanent, center_lat, center_lon, radius_nm,
	lower_limit, upper_limit, category, source_name, raw_text, qualifier_line, fir,
	qualifier_codes, title, description, created_at, updated_at`

const insertSQL = `
INSERT INTO airspace_restrictions (
	notice_id, start_ts, end_ts, is_permanent, center_lat, center_lon, radius_nm,
	lower_limit, upper_limit, category, source_name, raw_text, qualifier_line, fir,
	qualifier_codes, title, description, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (notice_id) DO NOTHING
RETURNING id`

// Store implements domain.AirspaceStore on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ domain.AirspaceStore = (*Store)(nil)

// Open connects to PostgreSQL at databaseURL and creates the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InsertBatch writes records in a single transaction, skipping notice IDs
// that are already stored.
func (s *Store) InsertBatch(ctx context.Context, records []domain.AirspaceRestriction) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]int64, len(records))
	inserted := 0
	for i := range records {
		r := &records[i]
		err := tx.QueryRow(ctx, insertSQL,
			nullString(r.NoticeID), r.Window.Start, r.Window.End, r.Window.IsPermanent,
			r.Geometry.CenterLat, r.Geometry.CenterLon, r.Geometry.RadiusNM,
			r.Limits.Lower, r.Limits.Upper, string(r.Category),
			r.Provenance.SourceName, r.Provenance.RawText, r.Provenance.QualifierLine,
			r.Provenance.FIR, r.Provenance.QualifierCodes,
			r.Title, r.Description, r.CreatedAt, r.UpdatedAt,
		).Scan(&ids[i])
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("insert notice %q: %w", r.NoticeID, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	for i := range records {
		records[i].ID = ids[i]
	}
	return inserted, nil
}

// Active returns records whose window covers now, most recent start first.
func (s *Store) Active(ctx context.Context, now time.Time, fir string) ([]domain.AirspaceRestriction, error) {
	query := "SELECT " + columns + ` FROM airspace_restrictions
		WHERE start_ts <= $1 AND (is_permanent OR (end_ts IS NOT NULL AND end_ts >= $1))`
	args := []any{now}
	if fir != "" {
		query += " AND fir = $2"
		args = append(args, strings.ToUpper(fir))
	}
	query += " ORDER BY start_ts DESC, id DESC"
	return s.query(ctx, query, args...)
}

// List returns up to limit records by start descending.
func (s *Store) List(ctx context.Context, fir string, limit int) ([]domain.AirspaceRestriction, error) {
	query := "SELECT " + columns + " FROM airspace_restrictions"
	var args []any
	if fir != "" {
		query += " WHERE fir = $1"
		args = append(args, strings.ToUpper(fir))
	}
	query += " ORDER BY start_ts DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.query(ctx, query, args...)
}

// CleanupExpired deletes non-permanent records that ended before now.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM airspace_restrictions WHERE NOT is_permanent AND end_ts IS NOT NULL AND end_ts < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM airspace_restrictions`)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.AirspaceRestriction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restrictions: %w", err)
	}
	defer rows.Close()

	var out []domain.AirspaceRestriction
	for rows.Next() {
		r, err := scanRestriction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRestriction(row pgx.Row) (domain.AirspaceRestriction, error) {
	var (
		r        domain.AirspaceRestriction
		noticeID *string
		category string
	)
	err := row.Scan(&r.ID, &noticeID, &r.Window.Start, &r.Window.End, &r.Window.IsPermanent,
		&r.Geometry.CenterLat, &r.Geometry.CenterLon, &r.Geometry.RadiusNM,
		&r.Limits.Lower, &r.Limits.Upper, &category,
		&r.Provenance.SourceName, &r.Provenance.RawText, &r.Provenance.QualifierLine,
		&r.Provenance.FIR, &r.Provenance.QualifierCodes,
		&r.Title, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}

	if noticeID != nil {
		r.NoticeID = *noticeID
	}
	r.Category = domain.Category(category)
	r.Window.Start = r.Window.Start.UTC()
	if r.Window.End != nil {
		end := r.Window.End.UTC()
		r.Window.End = &end
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
