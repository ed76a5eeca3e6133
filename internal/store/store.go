package store

import (
	"context"
	"strings"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
)

// Store persists saved searches and the per-search seen set.
type Store interface {
	CreateSavedSearch(ctx context.Context, s domain.SavedSearch) (domain.SavedSearch, error)
	// ListSavedSearches returns one user's searches, newest first.
	ListSavedSearches(ctx context.Context, userID int64) ([]domain.SavedSearch, error)
	// ListAllSavedSearches returns every search, oldest first.
	ListAllSavedSearches(ctx context.Context) ([]domain.SavedSearch, error)
	// DeleteSavedSearch removes id only if userID owns it, along with its
	// seen records. It reports whether a row was removed.
	DeleteSavedSearch(ctx context.Context, id, userID int64) (bool, error)
	// MarkSeen records jobUniqueID for searchID and reports whether it
	// was new. A duplicate is (false, nil).
	MarkSeen(ctx context.Context, searchID int64, jobUniqueID string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend from dsn: postgres:// and postgresql:// URLs go
// to Postgres, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

func prepare(s domain.SavedSearch) (domain.SavedSearch, error) {
	s.Query = strings.TrimSpace(s.Query)
	s.Location = strings.TrimSpace(s.Location)
	s.Source = strings.TrimSpace(s.Source)
	if s.UserID <= 0 {
		return s, errors.InvalidInput("user_id is required", nil)
	}
	if s.Query == "" {
		return s, errors.InvalidInput("query is required", nil)
	}
	if s.Source == "" {
		s.Source = domain.DefaultSource
	}
	return s, nil
}

func validSeen(searchID int64, jobUniqueID string) error {
	if searchID <= 0 || strings.TrimSpace(jobUniqueID) == "" {
		return errors.InvalidInput("search id and job id are required", nil)
	}
	return nil
}
