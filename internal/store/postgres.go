package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Unavailable("open postgres", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, errors.Unavailable("ping postgres", err)
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(pctx); err != nil {
		pool.Close()
		return nil, errors.Internal("migrate postgres", err)
	}
	return p, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS saved_search (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  query TEXT NOT NULL,
  location TEXT,
  remote_only BOOLEAN NOT NULL DEFAULT TRUE,
  source TEXT NOT NULL DEFAULT 'remotive',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seen_job (
  id BIGSERIAL PRIMARY KEY,
  search_id BIGINT NOT NULL REFERENCES saved_search(id) ON DELETE CASCADE,
  job_unique_id TEXT NOT NULL,
  seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (search_id, job_unique_id)
);

CREATE INDEX IF NOT EXISTS idx_saved_search_user ON saved_search(user_id, created_at);
`)
	return err
}

func (p *Postgres) CreateSavedSearch(ctx context.Context, s domain.SavedSearch) (domain.SavedSearch, error) {
	s, err := prepare(s)
	if err != nil {
		return s, err
	}
	err = p.pool.QueryRow(ctx, `
INSERT INTO saved_search (user_id, query, location, remote_only, source)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id, created_at`,
		s.UserID, s.Query, s.Location, s.RemoteOnly, s.Source,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return s, errors.Unavailable("insert saved search", err)
	}
	return s, nil
}

const pgSelectSearch = `SELECT id, user_id, query, COALESCE(location, ''), remote_only, source, created_at FROM saved_search`

func (p *Postgres) ListSavedSearches(ctx context.Context, userID int64) ([]domain.SavedSearch, error) {
	rows, err := p.pool.Query(ctx, pgSelectSearch+` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, errors.Unavailable("list saved searches", err)
	}
	return pgScanSearches(rows)
}

func (p *Postgres) ListAllSavedSearches(ctx context.Context) ([]domain.SavedSearch, error) {
	rows, err := p.pool.Query(ctx, pgSelectSearch+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.Unavailable("list all saved searches", err)
	}
	return pgScanSearches(rows)
}

func pgScanSearches(rows pgx.Rows) ([]domain.SavedSearch, error) {
	defer rows.Close()

	out := []domain.SavedSearch{}
	for rows.Next() {
		var s domain.SavedSearch
		if err := rows.Scan(&s.ID, &s.UserID, &s.Query, &s.Location, &s.RemoteOnly, &s.Source, &s.CreatedAt); err != nil {
			return nil, errors.Unavailable("scan saved search", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Unavailable("iterate saved searches", err)
	}
	return out, nil
}

func (p *Postgres) DeleteSavedSearch(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM saved_search WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, errors.Unavailable("delete saved search", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) MarkSeen(ctx context.Context, searchID int64, jobUniqueID string) (bool, error) {
	if err := validSeen(searchID, jobUniqueID); err != nil {
		return false, err
	}
	tag, err := p.pool.Exec(ctx, `
INSERT INTO seen_job (search_id, job_unique_id)
VALUES ($1, $2)
ON CONFLICT (search_id, job_unique_id) DO NOTHING`, searchID, jobUniqueID)
	if err != nil {
		return false, errors.Unavailable("mark seen", err)
	}
	return tag.RowsAffected() == 1, nil
}
