// Package sqlite provides the default airspace store on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS airspace_restrictions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	notice_id       TEXT UNIQUE,
	start_ts        INTEGER NOT NULL,
	end_ts          INTEGER,
	is_permanent    INTEGER NOT NULL DEFAULT 0,
	center_lat      REAL NOT NULL,
	center_lon      REAL NOT NULL,
	radius_nm       REAL,
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
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_airspace_window ON airspace_restrictions(start_ts, end_ts);
CREATE INDEX IF NOT EXISTS idx_airspace_fir ON airspace_restrictions(fir);
`

const columns = `id, notice_id, start_ts, end_ts, is_permanent, center_lat, center_lon, radius_nm,
	lower_limit, upper_limit, category, source_name, raw_text, qualifier_line, fir,
	qualifier_codes, title, description, created_at, updated_at`

// Store implements domain.AirspaceStore. Timestamps are stored as Unix
// seconds. Each batch is written in one transaction, so readers never see a
// partially written record.
type Store struct {
	db *sql.DB
}

var _ domain.AirspaceStore = (*Store)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets readers run while a batch is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBatch writes records in a single transaction. A record whose
// notice_id already exists is skipped and keeps ID 0.
func (s *Store) InsertBatch(ctx context.Context, records []domain.AirspaceRestriction) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airspace_restrictions (
			notice_id, start_ts, end_ts, is_permanent, center_lat, center_lon, radius_nm,
			lower_limit, upper_limit, category, source_name, raw_text, qualifier_line, fir,
			qualifier_codes, title, description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(notice_id) DO NOTHING
		RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]int64, len(records))
	inserted := 0
	for i := range records {
		r := &records[i]
		var endTS sql.NullInt64
		if r.Window.End != nil {
			endTS = sql.NullInt64{Int64: r.Window.End.Unix(), Valid: true}
		}
		var radius sql.NullFloat64
		if r.Geometry.RadiusNM != nil {
			radius = sql.NullFloat64{Float64: *r.Geometry.RadiusNM, Valid: true}
		}

		err := stmt.QueryRowContext(ctx,
			nullString(r.NoticeID), r.Window.Start.Unix(), endTS, r.Window.IsPermanent,
			r.Geometry.CenterLat, r.Geometry.CenterLon, radius,
			r.Limits.Lower, r.Limits.Upper, string(r.Category),
			r.Provenance.SourceName, r.Provenance.RawText, r.Provenance.QualifierLine,
			r.Provenance.FIR, r.Provenance.QualifierCodes,
			r.Title, r.Description, r.CreatedAt.Unix(), r.UpdatedAt.Unix(),
		).Scan(&ids[i])
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("insert notice %q: %w", r.NoticeID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	// IDs are only handed out once the batch is durable.
	for i := range records {
		records[i].ID = ids[i]
	}
	return inserted, nil
}

// Active returns records whose window covers now, most recent start first.
func (s *Store) Active(ctx context.Context, now time.Time, fir string) ([]domain.AirspaceRestriction, error) {
	conditions := []string{"start_ts <= ?", "(is_permanent = 1 OR (end_ts IS NOT NULL AND end_ts >= ?))"}
	args := []any{now.Unix(), now.Unix()}
	if fir != "" {
		conditions = append(conditions, "fir = ?")
		args = append(args, strings.ToUpper(fir))
	}

	query := "SELECT " + columns + " FROM airspace_restrictions WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY start_ts DESC, id DESC"
	return s.query(ctx, query, args...)
}

// List returns up to limit records by start descending.
func (s *Store) List(ctx context.Context, fir string, limit int) ([]domain.AirspaceRestriction, error) {
	query := "SELECT " + columns + " FROM airspace_restrictions"
	var args []any
	if fir != "" {
		query += " WHERE fir = ?"
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
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM airspace_restrictions WHERE is_permanent = 0 AND end_ts IS NOT NULL AND end_ts < ?`,
		now.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM airspace_restrictions`)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.AirspaceRestriction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restrictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func scanRestriction(rows *sql.Rows) (domain.AirspaceRestriction, error) {
	var (
		r                  domain.AirspaceRestriction
		noticeID           sql.NullString
		startTS            int64
		endTS              sql.NullInt64
		radius             sql.NullFloat64
		category           string
		createdAt, updated int64
	)
	err := rows.Scan(&r.ID, &noticeID, &startTS, &endTS, &r.Window.IsPermanent,
		&r.Geometry.CenterLat, &r.Geometry.CenterLon, &radius,
		&r.Limits.Lower, &r.Limits.Upper, &category,
		&r.Provenance.SourceName, &r.Provenance.RawText, &r.Provenance.QualifierLine,
		&r.Provenance.FIR, &r.Provenance.QualifierCodes,
		&r.Title, &r.Description, &createdAt, &updated)
	if err != nil {
		return r, err
	}

	r.NoticeID = noticeID.String
	r.Window.Start = time.Unix(startTS, 0).UTC()
	if endTS.Valid {
		end := time.Unix(endTS.Int64, 0).UTC()
		r.Window.End = &end
	}
	if radius.Valid {
		v := radius.Float64
		r.Geometry.RadiusNM = &v
	}
	r.Category = domain.Category(category)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	return r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
