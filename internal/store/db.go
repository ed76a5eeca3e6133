package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type SQLite struct {
	Pool *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Unavailable("open sqlite", err)
	}

	// one writer; MarkSeen relies on it together with the unique index
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pctx); err != nil {
		_ = pool.Close()
		return nil, errors.Unavailable("ping sqlite", err)
	}

	if err := migrateSQLite(pctx, pool); err != nil {
		_ = pool.Close()
		return nil, errors.Internal("migrate sqlite", err)
	}
	return &SQLite{Pool: pool}, nil
}

func (d *SQLite) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

func (d *SQLite) Ping(ctx context.Context) error {
	return d.Pool.PingContext(ctx)
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS saved_search (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  query TEXT NOT NULL,
  location TEXT,
  remote_only INTEGER NOT NULL DEFAULT 1,
  source TEXT NOT NULL DEFAULT 'remotive',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS seen_job (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  search_id INTEGER NOT NULL REFERENCES saved_search(id) ON DELETE CASCADE,
  job_unique_id TEXT NOT NULL,
  seen_at TEXT NOT NULL,
  UNIQUE(search_id, job_unique_id)
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_saved_search_user
ON saved_search(user_id, created_at);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *SQLite) CreateSavedSearch(ctx context.Context, s domain.SavedSearch) (domain.SavedSearch, error) {
	s, err := prepare(s)
	if err != nil {
		return s, err
	}
	s.CreatedAt = time.Now().UTC()

	var loc any
	if s.Location != "" {
		loc = s.Location
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO saved_search (user_id, query, location, remote_only, source, created_at)
VALUES (?, ?, ?, ?, ?, ?);`,
		s.UserID, s.Query, loc, s.RemoteOnly, s.Source, s.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return s, errors.Unavailable("insert saved search", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return s, errors.Unavailable("saved search id", err)
	}
	return s, nil
}

const selectSearch = `SELECT id, user_id, query, COALESCE(location, ''), remote_only, source, created_at FROM saved_search`

func (d *SQLite) ListSavedSearches(ctx context.Context, userID int64) ([]domain.SavedSearch, error) {
	rows, err := d.Pool.QueryContext(ctx, selectSearch+`
WHERE user_id = ?
ORDER BY created_at DESC, id DESC;`, userID)
	if err != nil {
		return nil, errors.Unavailable("list saved searches", err)
	}
	return scanSearches(rows)
}

func (d *SQLite) ListAllSavedSearches(ctx context.Context) ([]domain.SavedSearch, error) {
	rows, err := d.Pool.QueryContext(ctx, selectSearch+`
ORDER BY created_at ASC, id ASC;`)
	if err != nil {
		return nil, errors.Unavailable("list all saved searches", err)
	}
	return scanSearches(rows)
}

func scanSearches(rows *sql.Rows) ([]domain.SavedSearch, error) {
	defer rows.Close()

	out := []domain.SavedSearch{}
	for rows.Next() {
		var s domain.SavedSearch
		var created string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Query, &s.Location, &s.RemoteOnly, &s.Source, &created); err != nil {
			return nil, errors.Unavailable("scan saved search", err)
		}
		s.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable("iterate saved searches", err)
	}
	return out, nil
}

func (d *SQLite) DeleteSavedSearch(ctx context.Context, id, userID int64) (bool, error) {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM saved_search WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return false, errors.Unavailable("delete saved search", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Unavailable("delete saved search", err)
	}
	return n > 0, nil
}

func (d *SQLite) MarkSeen(ctx context.Context, searchID int64, jobUniqueID string) (bool, error) {
	if err := validSeen(searchID, jobUniqueID); err != nil {
		return false, err
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO seen_job (search_id, job_unique_id, seen_at)
VALUES (?, ?, ?)
ON CONFLICT (search_id, job_unique_id) DO NOTHING;`,
		searchID, jobUniqueID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return false, errors.Unavailable("mark seen", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Unavailable("mark seen", err)
	}
	return n == 1, nil
}

// CountSeen returns how many jobs are recorded for searchID.
func (d *SQLite) CountSeen(ctx context.Context, searchID int64) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_job WHERE search_id = ?;`, searchID).Scan(&n)
	return n, err
}
