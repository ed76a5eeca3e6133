package httpapi

import (
	"context"

	"go.uber.org/zap"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/poll"
	"jobfinder-engine/internal/scrape"
)

// SavedSearchStore is the part of the store the API exposes.
type SavedSearchStore interface {
	CreateSavedSearch(ctx context.Context, s domain.SavedSearch) (domain.SavedSearch, error)
	ListSavedSearches(ctx context.Context, userID int64) ([]domain.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, id, userID int64) (bool, error)
	Ping(ctx context.Context) error
}

type PollRunner interface {
	RunOnce(ctx context.Context) (poll.Summary, error)
	Status() poll.Status
}

type Deps struct {
	Store    SavedSearchStore
	Searcher scrape.Searcher
	Poller   PollRunner
	Hub      *events.Hub
	Logger   *zap.Logger

	// Token guards every route except /health. An empty token disables auth.
	Token *APIToken

	// MaxResults caps interactive searches.
	MaxResults int

	Cfg         config.Config
	UserCfgPath string
}

func (d Deps) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
