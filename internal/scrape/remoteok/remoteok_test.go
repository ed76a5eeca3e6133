package remoteok_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/scrape/remoteok"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const fixture = `[
 {"legal": "API terms of service"},
 "not-an-object",
 {"id": "9001", "position": "Senior Go Engineer", "company": "Gopher Inc", "url": "/remote-jobs/9001",
  "location": "", "salary_min": 90000, "salary_max": 120000, "description": "<b>Go</b> all day"},
 {"id": 9002, "title": "Designer", "company": "Pixel Co", "url": "https://remoteok.com/remote-jobs/9002"},
 {"id": 9003, "position": "Support", "company": "Golang Shop", "url": "/remote-jobs/9003", "location": "Europe"},
 {"position": "No id at all", "company": "Go Nowhere"}
]`

func newScraper(t *testing.T, h http.HandlerFunc) *remoteok.Scraper {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := util.NewClient(srv.Client(), util.NewHostLimiter(100, 100))
	return remoteok.New(remoteok.Config{BaseURL: srv.URL}, client, zaptest.NewLogger(t))
}

func TestFetch_FiltersLocally(t *testing.T) {
	var ua string
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(fixture))
	})

	jobs, err := s.Fetch(context.Background(), types.Query{Text: "GO", Limit: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ua != util.BotUserAgent {
		t.Errorf("user agent = %q", ua)
	}
	// title match on 9001, company match on 9003; designer and id-less rows dropped
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2: %+v", len(jobs), jobs)
	}
	j := jobs[0]
	if j.UniqueID != "9001" || j.Title != "Senior Go Engineer" || j.Location != "Remote" {
		t.Errorf("job = %+v", j)
	}
	if j.Salary != "$90000 - $120000" {
		t.Errorf("salary = %q", j.Salary)
	}
	if j.URL == "" || j.URL[0] == '/' {
		t.Errorf("url should be absolute, got %q", j.URL)
	}
	if jobs[1].Location != "Europe" {
		t.Errorf("location = %q", jobs[1].Location)
	}
}

func TestFetch_StopsAtLimit(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixture))
	})
	jobs, _ := s.Fetch(context.Background(), types.Query{Text: "go", Limit: 1})
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
}

func TestFetch_UpstreamErrorIsEmpty(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "go"})
	if err != nil || len(jobs) != 0 {
		t.Fatalf("jobs=%d err=%v", len(jobs), err)
	}
}
