package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/telemetry"
)

// Policy is the fallback table: which adapters run, and in what order,
// for a selector.
type Policy struct {
	Auto      []string
	Fallbacks map[string][]string
}

func DefaultPolicy() Policy {
	return Policy{
		Auto: []string{SourceRemotive, SourceRemoteOK, SourceWeWorkRemotely, SourceOnlineJobs},
		Fallbacks: map[string][]string{
			SourceRemotive:   {SourceRemoteOK},
			SourceOnlineJobs: {SourceRemoteOK},
		},
	}
}

// Chain returns the ordered adapter names tried for sel.
func (p Policy) Chain(sel Selector) []string {
	switch sel.Source {
	case SourceRSS:
		return []string{SourceRSS}
	case "", SourceAuto:
		return append([]string(nil), p.Auto...)
	}
	return append([]string{sel.Source}, p.Fallbacks[sel.Source]...)
}

// Result is the outcome of one aggregated search.
type Result struct {
	Jobs   []domain.Job `json:"jobs"`
	Source string       `json:"source,omitempty"` // adapter that produced Jobs
	Tried  []string     `json:"tried"`
}

func (r Result) Found() bool { return len(r.Jobs) > 0 }

func (r Result) MarshalBinary() ([]byte, error) { return json.Marshal(r) }

func (r *Result) UnmarshalBinary(b []byte) error { return json.Unmarshal(b, r) }

// Searcher is what the poller and the HTTP API call.
type Searcher interface {
	Search(ctx context.Context, sel Selector, q types.Query) Result
}

// Aggregator walks a Policy chain and returns the first non-empty
// adapter result. It never fails: adapter errors and panics count as
// empty results.
type Aggregator struct {
	adapters map[string]types.Adapter
	policy   Policy
	log      *zap.Logger
}

func NewAggregator(logger *zap.Logger, policy Policy, adapters ...types.Adapter) *Aggregator {
	m := make(map[string]types.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Aggregator{adapters: m, policy: policy, log: logger.Named("aggregator")}
}

// Adapters lists the registered adapter names.
func (a *Aggregator) Adapters() []string {
	out := make([]string, 0, len(a.adapters))
	for name := range a.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (a *Aggregator) Search(ctx context.Context, sel Selector, q types.Query) Result {
	q = q.WithDefaults()
	if sel.Source == SourceRSS {
		q.FeedURL = sel.FeedURL
	}

	ctx, span := telemetry.GetTracer().Start(ctx, "aggregator.search")
	defer span.End()
	span.SetAttributes(telemetry.String("selector", sel.String()), telemetry.String("query", q.Text))

	res := Result{Tried: []string{}, Jobs: []domain.Job{}}
	if q.Text == "" {
		a.log.Debug("empty query, skipping adapters", zap.String("selector", sel.String()))
		return res
	}

	for _, name := range a.policy.Chain(sel) {
		res.Tried = append(res.Tried, name)
		jobs := a.invoke(ctx, name, q)
		if len(jobs) > 0 {
			res.Jobs = jobs
			res.Source = name
			break
		}
	}

	span.SetAttributes(telemetry.Int("jobs", len(res.Jobs)), telemetry.String("source", res.Source))
	a.log.Info("search",
		zap.String("selector", sel.String()),
		zap.String("query", q.Text),
		zap.Strings("tried", res.Tried),
		zap.String("source", res.Source),
		zap.Int("jobs", len(res.Jobs)),
	)
	return res
}

func (a *Aggregator) invoke(ctx context.Context, name string, q types.Query) (jobs []domain.Job) {
	ad, ok := a.adapters[name]
	if !ok {
		a.log.Warn("adapter not registered", zap.String("source", name))
		return nil
	}

	ctx, span := telemetry.GetTracer().Start(ctx, "adapter."+name)
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("adapter panicked", zap.String("source", name), zap.Any("panic", r), zap.Stack("stack"))
			span.SetStatus(codes.Error, fmt.Sprint(r))
			jobs = nil
		}
	}()

	out, err := ad.Fetch(ctx, q)
	if err != nil {
		a.log.Error("adapter failed", zap.String("source", name), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	span.SetAttributes(telemetry.Int("jobs", len(out)))
	a.log.Debug("adapter done", zap.String("source", name), zap.Int("jobs", len(out)), zap.Duration("took", time.Since(start)))
	return out
}
