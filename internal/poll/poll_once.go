package poll

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/telemetry"
)

// RunOnce polls every saved search in creation order. A failing search is
// logged and skipped; the returned error is reserved for the cycle itself
// (listing searches, or ErrCycleRunning).
func (p *Poller) RunOnce(ctx context.Context) (Summary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Summary{}, ErrCycleRunning
	}
	defer p.running.Store(false)

	ctx, span := telemetry.GetTracer().Start(ctx, "poll.cycle")
	defer span.End()

	start := time.Now().UTC()
	p.update(func(s *Status) {
		s.Running = true
		s.LastRunAt = start
	})
	p.publish(events.TypePollStarted, nil)

	var sum Summary
	searches, err := p.store.ListAllSavedSearches(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Error("list saved searches", zap.Error(err))
		p.finish(sum, err)
		return sum, err
	}
	sum.Searches = len(searches)

	for _, s := range searches {
		if ctx.Err() != nil {
			break
		}
		jobs, notified, err := p.pollSearch(ctx, s)
		sum.Jobs += jobs
		sum.Notified += notified
		if err != nil {
			sum.Failed++
			p.log.Error("poll search failed",
				zap.Int64("search_id", s.ID),
				zap.Int64("user_id", s.UserID),
				zap.String("query", s.Query),
				zap.Error(err))
		}
	}

	var cycleErr error
	if sum.Failed > 0 {
		cycleErr = fmt.Errorf("%d of %d searches failed", sum.Failed, sum.Searches)
	}
	if err := ctx.Err(); err != nil {
		cycleErr = err
	}

	span.SetAttributes(
		telemetry.Int("searches", sum.Searches),
		telemetry.Int("failed", sum.Failed),
		telemetry.Int("notified", sum.Notified),
	)
	p.log.Info("poll cycle done",
		zap.Int("searches", sum.Searches),
		zap.Int("failed", sum.Failed),
		zap.Int("jobs", sum.Jobs),
		zap.Int("notified", sum.Notified),
		zap.Duration("took", time.Since(start)))
	p.finish(sum, cycleErr)
	return sum, nil
}

func (p *Poller) finish(sum Summary, err error) {
	p.update(func(s *Status) {
		s.Running = false
		s.LastNotified = sum.Notified
		s.LastSearches = sum.Searches
		if err != nil {
			s.LastError = err.Error()
			return
		}
		s.LastError = ""
		s.LastOkAt = time.Now().UTC()
	})
	p.publish(events.TypePollDone, sum)
}

// pollSearch runs one saved search and notifies its owner of unseen jobs.
// A panic anywhere below is turned into an error for this search only.
func (p *Poller) pollSearch(ctx context.Context, s domain.SavedSearch) (jobs, notified int, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("poll search panicked", zap.Int64("search_id", s.ID), zap.Any("panic", r), zap.Stack("stack"))
			err = errors.Internal(fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	sel := scrape.ParseSelector(s.Source)
	res := p.searcher.Search(ctx, sel, types.Query{
		Text:       s.Query,
		Limit:      p.opts.Limit,
		Location:   s.Location,
		RemoteOnly: s.RemoteOnly,
		Tier:       types.TierEntry,
	})
	jobs = len(res.Jobs)

	var firstErr error
	for _, job := range res.Jobs {
		if !job.Valid() {
			p.log.Debug("skipping incomplete job", zap.Int64("search_id", s.ID), zap.String("source", job.Source))
			continue
		}
		isNew, err := p.store.MarkSeen(ctx, s.ID, job.UniqueID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !isNew {
			continue
		}
		notified++

		n := domain.Notification{
			UserID:   s.UserID,
			SearchID: s.ID,
			Job:      job,
			Source:   sel.String(),
			Query:    s.Query,
		}
		if err := p.safeNotify(ctx, n); err != nil {
			p.log.Warn("notify failed",
				zap.Int64("user_id", s.UserID),
				zap.String("job_id", job.UniqueID),
				zap.Error(err))
		}
	}
	return jobs, notified, firstErr
}

// safeNotify delivers one notification, turning a notifier panic into an
// error so the remaining jobs of the search still go out.
func (p *Poller) safeNotify(ctx context.Context, n domain.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Sprintf("notifier panic: %v", r), nil)
		}
	}()
	return p.notifier.Notify(ctx, n)
}
