package remotive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/scrape/remotive"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const fixture = `{"job-count": 3, "jobs": [
 {"id": 101, "url": "https://remotive.com/remote-jobs/dev/101", "title": "Go Developer", "company_name": "Acme",
  "candidate_required_location": "Worldwide", "salary": "$80k", "description": "<p>Build &amp; ship</p>"},
 {"id": 102, "url": "https://remotive.com/remote-jobs/dev/102", "title": "", "company_name": "Beta"},
 {"url": "https://remotive.com/remote-jobs/dev/103?utm_source=x", "title": "Backend", "company_name": "Gamma",
  "description": "` + "%s" + `"}
]}`

func newScraper(t *testing.T, h http.HandlerFunc) *remotive.Scraper {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := util.NewClient(srv.Client(), util.NewHostLimiter(100, 100))
	return remotive.New(remotive.Config{BaseURL: srv.URL}, client, zaptest.NewLogger(t))
}

func TestFetch_NormalizesJobs(t *testing.T) {
	var gotQuery string
	body := strings.Replace(fixture, "%s", strings.Repeat("a", 300), 1)
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/remote-jobs" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(body))
	})

	jobs, err := s.Fetch(context.Background(), types.Query{Text: "go dev", Limit: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(gotQuery, "search=go+dev") || !strings.Contains(gotQuery, "limit=10") {
		t.Errorf("query string = %q", gotQuery)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}

	first := jobs[0]
	if first.UniqueID != "101" || first.Title != "Go Developer" || first.Company != "Acme" {
		t.Errorf("first job = %+v", first)
	}
	if first.Location != "Worldwide" || first.Description != "Build & ship" || first.Source != "remotive" {
		t.Errorf("first job fields = %+v", first)
	}
	if jobs[1].Title != "Untitled" {
		t.Errorf("missing title should become Untitled, got %q", jobs[1].Title)
	}
	if jobs[2].UniqueID != "https://remotive.com/remote-jobs/dev/103" {
		t.Errorf("id should fall back to canonical url, got %q", jobs[2].UniqueID)
	}
	if !strings.HasSuffix(jobs[2].Description, "...") || len([]rune(jobs[2].Description)) != 203 {
		t.Errorf("description not truncated: %d", len(jobs[2].Description))
	}
}

func TestFetch_RespectsLimit(t *testing.T) {
	body := strings.Replace(fixture, "%s", "x", 1)
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "go", Limit: 2})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
}

func TestFetch_RateLimitedIsEmpty(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "go"})
	if err != nil {
		t.Fatalf("429 must not be an error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("got %d jobs, want 0", len(jobs))
	}
}

func TestFetch_MalformedIsEmpty(t *testing.T) {
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "go"})
	if err != nil || len(jobs) != 0 {
		t.Fatalf("malformed payload: jobs=%d err=%v", len(jobs), err)
	}
}

func TestFetch_StableIdentity(t *testing.T) {
	body := strings.Replace(fixture, "%s", "x", 1)
	s := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	a, _ := s.Fetch(context.Background(), types.Query{Text: "go"})
	b, _ := s.Fetch(context.Background(), types.Query{Text: "go"})
	for i := range a {
		if a[i].UniqueID != b[i].UniqueID {
			t.Errorf("job %d identity changed: %q vs %q", i, a[i].UniqueID, b[i].UniqueID)
		}
	}
}
