// Package poll runs saved searches on a schedule and notifies users about
// jobs they have not seen yet.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/notify"
	"jobfinder-engine/internal/scrape"
)

// ErrCycleRunning is returned by RunOnce while another cycle is in flight.
var ErrCycleRunning = errors.Conflict("poll cycle already running", nil)

// DefaultLimit is the per-search result cap when none is configured.
const DefaultLimit = 10

// Store is the subset of the saved-search store a poll cycle needs.
type Store interface {
	ListAllSavedSearches(ctx context.Context) ([]domain.SavedSearch, error)
	MarkSeen(ctx context.Context, searchID int64, jobUniqueID string) (bool, error)
}

type Options struct {
	Limit int
	// Hub receives poll_started/poll_done events when set.
	Hub *events.Hub
}

// Status is the last-known state of the poller.
type Status struct {
	Running      bool      `json:"running"`
	LastRunAt    time.Time `json:"last_run_at"`
	LastOkAt     time.Time `json:"last_ok_at"`
	LastError    string    `json:"last_error,omitempty"`
	LastNotified int       `json:"last_notified"`
	LastSearches int       `json:"last_searches"`
}

// Summary describes one completed cycle.
type Summary struct {
	Searches int `json:"searches"`
	Failed   int `json:"failed"`
	Jobs     int `json:"jobs"`
	Notified int `json:"notified"`
}

type Poller struct {
	store    Store
	searcher scrape.Searcher
	notifier notify.Notifier
	log      *zap.Logger
	opts     Options

	running atomic.Bool
	mu      sync.Mutex
	status  Status
}

func New(st Store, searcher scrape.Searcher, notifier notify.Notifier, logger *zap.Logger, opts Options) *Poller {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if notifier == nil {
		notifier = notify.Multi{}
	}
	return &Poller{
		store:    st,
		searcher: searcher,
		notifier: notifier,
		log:      logger.Named("poll"),
		opts:     opts,
	}
}

func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) update(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

func (p *Poller) publish(typ string, data any) {
	if p.opts.Hub != nil {
		p.opts.Hub.Publish(events.MakeEvent("", typ, 0, data))
	}
}
