package scrape_test

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/cache"
	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/scrape/types"
)

// fakeAdapter returns n jobs, an error, or panics, and records calls.
type fakeAdapter struct {
	name    string
	n       int
	err     error
	panics  bool
	calls   *[]string
	lastQry types.Query
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(_ context.Context, q types.Query) ([]domain.Job, error) {
	*f.calls = append(*f.calls, f.name)
	f.lastQry = q
	if f.panics {
		panic("markup exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Job, 0, f.n)
	for i := 0; i < f.n; i++ {
		id := f.name + "-" + strconv.Itoa(i)
		out = append(out, domain.Job{UniqueID: id, Title: id, URL: "https://x.test/" + id, Source: f.name})
	}
	return out, nil
}

func newAggregator(t *testing.T, adapters ...*fakeAdapter) *scrape.Aggregator {
	t.Helper()
	list := make([]types.Adapter, 0, len(adapters))
	for _, a := range adapters {
		list = append(list, a)
	}
	return scrape.NewAggregator(zaptest.NewLogger(t), scrape.DefaultPolicy(), list...)
}

// ── ParseSelector ──────────────────────────────────────────────────────────

func TestParseSelector(t *testing.T) {
	cases := []struct {
		in   string
		want scrape.Selector
	}{
		{"", scrape.Selector{Source: scrape.SourceAuto}},
		{"auto", scrape.Selector{Source: scrape.SourceAuto}},
		{"nonsense", scrape.Selector{Source: scrape.SourceAuto}},
		{"RemoteOK", scrape.Selector{Source: scrape.SourceRemoteOK}},
		{" upwork ", scrape.Selector{Source: scrape.SourceUpwork}},
		{"rss:https://feeds.test/jobs.xml", scrape.Selector{Source: scrape.SourceRSS, FeedURL: "https://feeds.test/jobs.xml"}},
		{"RSS: https://feeds.test/a", scrape.Selector{Source: scrape.SourceRSS, FeedURL: "https://feeds.test/a"}},
	}
	for _, tc := range cases {
		if got := scrape.ParseSelector(tc.in); got != tc.want {
			t.Errorf("ParseSelector(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	if s := scrape.ParseSelector("rss:https://a.test/f").String(); s != "rss:https://a.test/f" {
		t.Errorf("String = %q", s)
	}
}

// ── fallback order ─────────────────────────────────────────────────────────

func TestSearch_AutoCascadeOrder(t *testing.T) {
	var calls []string
	remotive := &fakeAdapter{name: "remotive", calls: &calls}
	remoteok := &fakeAdapter{name: "remoteok", calls: &calls}
	wwr := &fakeAdapter{name: "weworkremotely", n: 2, calls: &calls}
	oj := &fakeAdapter{name: "onlinejobs", n: 5, calls: &calls}
	agg := newAggregator(t, remotive, remoteok, wwr, oj)

	res := agg.Search(context.Background(), scrape.ParseSelector(""), types.Query{Text: "go"})

	if want := []string{"remotive", "remoteok", "weworkremotely"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if res.Source != "weworkremotely" || len(res.Jobs) != 2 || !res.Found() {
		t.Errorf("result = %+v", res)
	}
}

func TestSearch_AutoAllEmpty(t *testing.T) {
	var calls []string
	agg := newAggregator(t,
		&fakeAdapter{name: "remotive", calls: &calls},
		&fakeAdapter{name: "remoteok", calls: &calls},
		&fakeAdapter{name: "weworkremotely", calls: &calls},
		&fakeAdapter{name: "onlinejobs", calls: &calls},
	)
	res := agg.Search(context.Background(), scrape.Selector{}, types.Query{Text: "go"})
	if res.Found() || res.Jobs == nil {
		t.Errorf("expected empty non-nil jobs, got %+v", res)
	}
	if len(calls) != 4 {
		t.Errorf("calls = %v", calls)
	}
}

func TestSearch_NamedFallbacks(t *testing.T) {
	cases := []struct {
		selector string
		want     []string
	}{
		{"remotive", []string{"remotive", "remoteok"}},
		{"onlinejobs", []string{"onlinejobs", "remoteok"}},
		{"weworkremotely", []string{"weworkremotely"}},
		{"flexjobs", []string{"flexjobs"}},
	}
	for _, tc := range cases {
		t.Run(tc.selector, func(t *testing.T) {
			var calls []string
			agg := newAggregator(t,
				&fakeAdapter{name: "remotive", calls: &calls},
				&fakeAdapter{name: "remoteok", n: 1, calls: &calls},
				&fakeAdapter{name: "weworkremotely", calls: &calls},
				&fakeAdapter{name: "onlinejobs", calls: &calls},
				&fakeAdapter{name: "flexjobs", calls: &calls},
			)
			agg.Search(context.Background(), scrape.ParseSelector(tc.selector), types.Query{Text: "go"})
			if !reflect.DeepEqual(calls, tc.want) {
				t.Errorf("calls = %v, want %v", calls, tc.want)
			}
		})
	}
}

func TestSearch_RSSCarriesFeedURL(t *testing.T) {
	var calls []string
	feed := &fakeAdapter{name: "rss", n: 1, calls: &calls}
	agg := newAggregator(t, feed)

	res := agg.Search(context.Background(), scrape.ParseSelector("rss:https://feeds.test/x"), types.Query{Text: "go"})
	if feed.lastQry.FeedURL != "https://feeds.test/x" || res.Source != "rss" {
		t.Errorf("feed query = %+v, result = %+v", feed.lastQry, res)
	}
}

// ── isolation ──────────────────────────────────────────────────────────────

func TestSearch_ErrorsAndPanicsAreEmpty(t *testing.T) {
	var calls []string
	agg := newAggregator(t,
		&fakeAdapter{name: "remotive", panics: true, calls: &calls},
		&fakeAdapter{name: "remoteok", err: errors.New("boom"), calls: &calls},
		&fakeAdapter{name: "weworkremotely", n: 1, calls: &calls},
		&fakeAdapter{name: "onlinejobs", calls: &calls},
	)
	res := agg.Search(context.Background(), scrape.Selector{}, types.Query{Text: "go"})
	if res.Source != "weworkremotely" || len(res.Jobs) != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSearch_EmptyQuerySkipsAdapters(t *testing.T) {
	var calls []string
	agg := newAggregator(t, &fakeAdapter{name: "remotive", n: 3, calls: &calls})
	res := agg.Search(context.Background(), scrape.ParseSelector("remotive"), types.Query{Text: "   "})
	if len(calls) != 0 || res.Found() {
		t.Fatalf("calls = %v, result = %+v", calls, res)
	}
}

func TestSearch_EnforcesLimit(t *testing.T) {
	var calls []string
	agg := newAggregator(t, &fakeAdapter{name: "remotive", n: 25, calls: &calls})
	res := agg.Search(context.Background(), scrape.ParseSelector("remotive"), types.Query{Text: "go", Limit: 4})
	if len(res.Jobs) != 4 {
		t.Fatalf("jobs = %d, want 4", len(res.Jobs))
	}
}

func TestSearch_CustomPolicy(t *testing.T) {
	var calls []string
	agg := scrape.NewAggregator(zaptest.NewLogger(t), scrape.Policy{Auto: []string{"upwork", "remoteok"}},
		&fakeAdapter{name: "upwork", calls: &calls},
		&fakeAdapter{name: "remoteok", n: 1, calls: &calls},
	)
	agg.Search(context.Background(), scrape.Selector{}, types.Query{Text: "go"})
	if want := []string{"upwork", "remoteok"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

// ── caching ────────────────────────────────────────────────────────────────

type memCache struct {
	mu      sync.Mutex
	m       map[string][]byte
	deleted int
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := value.(scrape.Result).MarshalBinary()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
	return nil
}

func (c *memCache) Get(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	b, ok := c.m[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrNotFound
	}
	return value.(*scrape.Result).UnmarshalBinary(b)
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	c.deleted++
	return nil
}

func (c *memCache) Close() error { return nil }

func TestCachedSearcher(t *testing.T) {
	var calls []string
	agg := newAggregator(t,
		&fakeAdapter{name: "remotive", n: 2, calls: &calls},
		&fakeAdapter{name: "upwork", calls: &calls},
	)
	c := &memCache{m: map[string][]byte{}}
	s := scrape.NewCachedSearcher(agg, c, time.Minute, zaptest.NewLogger(t))

	first := s.Search(context.Background(), scrape.ParseSelector("remotive"), types.Query{Text: "Go"})
	second := s.Search(context.Background(), scrape.ParseSelector("remotive"), types.Query{Text: "go"})
	if len(calls) != 1 {
		t.Errorf("adapter calls = %v, want one", calls)
	}
	if len(second.Jobs) != len(first.Jobs) || second.Source != "remotive" {
		t.Errorf("cached result = %+v", second)
	}

	// empty results are not cached
	s.Search(context.Background(), scrape.ParseSelector("upwork"), types.Query{Text: "go"})
	s.Search(context.Background(), scrape.ParseSelector("upwork"), types.Query{Text: "go"})
	if len(calls) != 3 {
		t.Errorf("adapter calls = %v, want 3", calls)
	}
}

func TestCachedSearcher_DropsUndecodableEntry(t *testing.T) {
	var calls []string
	agg := newAggregator(t, &fakeAdapter{name: "remotive", n: 1, calls: &calls})
	c := &memCache{m: map[string][]byte{}}
	s := scrape.NewCachedSearcher(agg, c, time.Minute, zaptest.NewLogger(t))
	sel := scrape.ParseSelector("remotive")

	s.Search(context.Background(), sel, types.Query{Text: "go"})
	for k := range c.m {
		c.m[k] = []byte("{not json")
	}

	res := s.Search(context.Background(), sel, types.Query{Text: "go"})
	if len(calls) != 2 || !res.Found() {
		t.Fatalf("calls = %v, result = %+v", calls, res)
	}
	if c.deleted != 1 {
		t.Errorf("deleted = %d, want 1", c.deleted)
	}

	// the refetched result replaced the bad entry
	s.Search(context.Background(), sel, types.Query{Text: "go"})
	if len(calls) != 2 {
		t.Errorf("calls = %v, want cache hit", calls)
	}
}
