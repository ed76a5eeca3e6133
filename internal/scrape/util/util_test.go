package util_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape/util"
)

// ── identity ───────────────────────────────────────────────────────────────

func TestUniqueID_Precedence(t *testing.T) {
	if got := util.UniqueID("42", "https://x.test/a", "T", "C"); got != "42" {
		t.Errorf("native id should win, got %q", got)
	}
	if got := util.UniqueID("", "https://X.test/a?utm_source=mail#top", "T", "C"); got != "https://x.test/a" {
		t.Errorf("canonical url fallback, got %q", got)
	}
	a := util.UniqueID("", "", "Title", "Company")
	b := util.UniqueID("", "", "Title", "Company")
	if a == "" || a != b {
		t.Errorf("hash fallback must be stable and non-empty: %q vs %q", a, b)
	}
	if a != util.HashString("TitleCompany") {
		t.Errorf("hash fallback should digest title+company")
	}
}

func TestCanonicalURL_SortsAndStripsTracking(t *testing.T) {
	got := util.CanonicalURL("HTTPS://Example.COM/jobs?b=2&utm_medium=x&a=1")
	if got != "https://example.com/jobs?a=1&b=2" {
		t.Errorf("CanonicalURL = %q", got)
	}
}

func TestResolve(t *testing.T) {
	if got := util.Resolve("https://remoteok.com", "/remote-jobs/1"); got != "https://remoteok.com/remote-jobs/1" {
		t.Errorf("relative: %q", got)
	}
	if got := util.Resolve("https://remoteok.com", "https://other.test/x"); got != "https://other.test/x" {
		t.Errorf("absolute: %q", got)
	}
	if got := util.Resolve("https://remoteok.com", ""); got != "" {
		t.Errorf("empty: %q", got)
	}
}

func TestSlug(t *testing.T) {
	if got := util.Slug("  Virtual Assistant / Admin "); got != "virtual-assistant-admin" {
		t.Errorf("Slug = %q", got)
	}
}

// ── text ───────────────────────────────────────────────────────────────────

func TestStripTags(t *testing.T) {
	got := util.StripTags("<p>Hello&nbsp;<b>world</b> &amp; friends</p><br>Bye")
	if got != "Hello world & friends Bye" {
		t.Errorf("StripTags = %q", got)
	}
	if got := util.StripTags("plain   text"); got != "plain text" {
		t.Errorf("plain passthrough = %q", got)
	}
	if got := util.StripTags("<script>alert(1)</script><style>p{}</style>Title"); got != "Title" {
		t.Errorf("script/style bodies leaked: %q", got)
	}
}

// ── markup ─────────────────────────────────────────────────────────────────

func TestSegmentsAndPatterns(t *testing.T) {
	page := `<ul><li class="card">one</li><li class="card">two</li></ul>`
	open := regexp.MustCompile(`<li class="card">`)
	segs := util.Segments(page, open)
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}

	empty := util.Pattern{Name: "empty", Extract: func(string) []util.Listing { return nil }}
	cards := util.Pattern{Name: "cards", Extract: func(p string) []util.Listing {
		var out []util.Listing
		for range util.Segments(p, open) {
			out = append(out, util.Listing{Title: "x"})
		}
		return out
	}}
	name, got := util.TryPatterns(page, []util.Pattern{empty, cards})
	if name != "cards" || len(got) != 2 {
		t.Errorf("TryPatterns = %q/%d", name, len(got))
	}
}

// ── client ─────────────────────────────────────────────────────────────────

func TestClient_StatusClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	c := util.NewClient(srv.Client(), util.NewHostLimiter(100, 100))
	ctx := context.Background()

	res, err := c.Get(ctx, srv.URL+"/limited", time.Second, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := util.CheckStatus(res); !errors.IsType(err, errors.ErrTypeRateLimit) {
		t.Errorf("429 should be rate limit, got %v", err)
	}

	res, _ = c.Get(ctx, srv.URL+"/down", time.Second, nil)
	if err := util.CheckStatus(res); !errors.IsType(err, errors.ErrTypeUnavailable) {
		t.Errorf("502 should be unavailable, got %v", err)
	}

	res, _ = c.Get(ctx, srv.URL+"/ok", time.Second, nil)
	var body struct{ OK bool }
	if err := util.DecodeJSON(res.Body, &body); err != nil || !body.OK {
		t.Errorf("decode: %v %+v", err, body)
	}
}

func TestClient_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := util.NewClient(srv.Client(), nil)
	_, err := c.Get(context.Background(), srv.URL, 50*time.Millisecond, nil)
	if !errors.IsType(err, errors.ErrTypeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSettle(t *testing.T) {
	logger := zaptest.NewLogger(t)

	jobs, err := util.Settle(logger, "remotive", nil, errors.RateLimit("429", nil))
	if err != nil || jobs == nil || len(jobs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v %v", jobs, err)
	}

	_, err = util.Settle(logger, "remotive", nil, errors.Internal("bug", nil))
	if err == nil {
		t.Error("internal errors must propagate")
	}
}
