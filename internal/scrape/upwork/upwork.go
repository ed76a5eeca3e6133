package upwork

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const (
	DefaultBaseURL     = "https://www.upwork.com"
	placeholderCompany = "Upwork Client"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Scraper struct {
	cfg    Config
	client *util.Client
	log    *zap.Logger
}

func New(cfg Config, client *util.Client, logger *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Scraper{cfg: cfg, client: client, log: logger.Named("upwork")}
}

func (s *Scraper) Name() string { return "upwork" }

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

// The RSS feed is tried first. A 403 from either endpoint means the
// client is blocked and no further request is made.
func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	jobs, err := s.fromFeed(ctx, q)
	switch {
	case errors.IsType(err, errors.ErrTypeUnauthorized):
		return nil, err
	case err != nil:
		s.log.Info("feed unavailable, trying search page", zap.Error(err))
	case len(jobs) > 0:
		return jobs, nil
	}
	return s.fromPage(ctx, q)
}

func (s *Scraper) get(ctx context.Context, u string) (*util.Response, error) {
	res, err := s.client.Get(ctx, u, s.cfg.Timeout, map[string]string{
		"User-Agent": util.BrowserUserAgent,
	})
	if err != nil {
		return nil, err
	}
	if res.Status == http.StatusForbidden {
		return nil, errors.Unauthorized("upwork refused the request (403)", nil)
	}
	if err := util.CheckStatus(res); err != nil {
		return nil, err
	}
	return res, nil
}

// FeedURL is the public job search feed for q at tier.
func FeedURL(base string, q types.Query) string {
	v := url.Values{}
	v.Set("q", q.Text)
	v.Set("contractor_tier", strconv.Itoa(int(q.Tier)))
	v.Set("sort", "recency")
	v.Set("paging", "0;"+strconv.Itoa(q.Limit))
	return strings.TrimRight(base, "/") + "/ab/feed/jobs/rss?" + v.Encode()
}

// SearchURL is the HTML search page for q at tier.
func SearchURL(base string, q types.Query) string {
	v := url.Values{}
	v.Set("q", q.Text)
	v.Set("contractor_tier", strconv.Itoa(int(q.Tier)))
	v.Set("sort", "recency")
	return strings.TrimRight(base, "/") + "/nx/search/jobs/?" + v.Encode()
}

var (
	reCipher = regexp.MustCompile(`(?i)(?:~|%7E)([0-9a-z]{10,})`)
	reBudget = regexp.MustCompile(`(?is)<b>\s*(Budget|Hourly Range)\s*</b>\s*:\s*([^<]+)`)
)

func (s *Scraper) fromFeed(ctx context.Context, q types.Query) ([]domain.Job, error) {
	res, err := s.get(ctx, FeedURL(s.cfg.BaseURL, q))
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(res.Body))
	if err != nil {
		return nil, errors.Malformed("parse upwork feed", err)
	}

	out := make([]domain.Job, 0, q.Limit)
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		title := strings.TrimSuffix(util.StripTags(it.Title), " - Upwork")
		link := util.CanonicalURL(it.Link)
		native := ""
		if m := reCipher.FindStringSubmatch(it.Link); m != nil {
			native = "~" + strings.ToLower(m[1])
		}
		salary := ""
		if m := reBudget.FindStringSubmatch(it.Description); m != nil {
			salary = util.CleanText(m[2])
		}

		out = util.Keep(out, domain.Job{
			UniqueID:    util.UniqueID(util.OrDefault(native, it.GUID), link, title, ""),
			Title:       util.OrDefault(title, domain.UntitledJob),
			Company:     placeholderCompany,
			URL:         link,
			Location:    "Remote",
			Salary:      salary,
			Experience:  q.Tier.Label(),
			Description: domain.ShortDescription(util.StripTags(it.Description)),
			Source:      s.Name(),
			Raw:         map[string]any{"guid": it.GUID, "link": it.Link, "via": "feed"},
		}, q.Limit)
	}
	return out, nil
}

func (s *Scraper) fromPage(ctx context.Context, q types.Query) ([]domain.Job, error) {
	res, err := s.get(ctx, SearchURL(s.cfg.BaseURL, q))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body)))
	if err != nil {
		return nil, errors.Malformed("parse upwork page", err)
	}

	var postings []map[string]any
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if len(postings) > 0 {
			return
		}
		if id, _ := sel.Attr("id"); id == "__NUXT_DATA__" {
			var flat []any
			if json.Unmarshal([]byte(sel.Text()), &flat) == nil {
				postings = collectPostings(resolveFlat(flat), nil)
			}
			return
		}
		if blob := embeddedJSON(sel.Text()); blob != nil {
			postings = collectPostings(blob, nil)
		}
	})
	if len(postings) == 0 {
		s.log.Info("no embedded postings on search page", zap.String("query", q.Text))
		return []domain.Job{}, nil
	}

	out := make([]domain.Job, 0, q.Limit)
	seen := map[string]bool{}
	for _, p := range postings {
		cipher := util.Field(p, "ciphertext", "cipherText")
		title := util.Field(p, "title")
		var link string
		if cipher != "" {
			link = strings.TrimRight(s.cfg.BaseURL, "/") + "/jobs/" + cipher
		} else {
			link = util.Resolve(s.cfg.BaseURL, util.Field(p, "url", "jobUrl"))
		}
		id := util.UniqueID(util.OrDefault(cipher, util.Field(p, "uid", "id")), link, title, "")
		if seen[id] {
			continue
		}
		seen[id] = true

		out = util.Keep(out, domain.Job{
			UniqueID:    id,
			Title:       util.OrDefault(util.StripTags(title), domain.UntitledJob),
			Company:     placeholderCompany,
			URL:         util.CanonicalURL(link),
			Location:    "Remote",
			Salary:      pageBudget(p),
			Experience:  q.Tier.Label(),
			Description: domain.ShortDescription(util.StripTags(util.Field(p, "description", "snippet"))),
			Source:      s.Name(),
			Raw:         p,
		}, q.Limit)
	}
	return out, nil
}

var reAssignedState = regexp.MustCompile(`(?s)window\.__[A-Za-z_]+__\s*=\s*(\{.*\})\s*;?\s*$`)

// embeddedJSON returns the decoded object of a script that is either a
// JSON document or a window.__STATE__ = {...} assignment.
func embeddedJSON(script string) any {
	script = strings.TrimSpace(script)
	candidate := ""
	switch {
	case strings.HasPrefix(script, "{"):
		candidate = script
	default:
		if m := reAssignedState.FindStringSubmatch(script); m != nil {
			candidate = m[1]
		}
	}
	if candidate == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil
	}
	return v
}

// resolveFlat dereferences the index-based payload Nuxt serializes into
// __NUXT_DATA__: objects hold array indices instead of values. Only
// scalar fields are resolved, which is all a posting needs.
func resolveFlat(flat []any) []any {
	out := make([]any, 0, len(flat))
	for _, v := range flat {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		resolved := make(map[string]any, len(obj))
		for k, ref := range obj {
			idx, ok := ref.(float64)
			if !ok || idx < 0 || int(idx) >= len(flat) {
				continue
			}
			switch target := flat[int(idx)].(type) {
			case string, float64, bool:
				resolved[k] = target
			case map[string]any:
				inner := make(map[string]any, len(target))
				for ik, iref := range target {
					if j, ok := iref.(float64); ok && j >= 0 && int(j) < len(flat) {
						inner[ik] = flat[int(j)]
					}
				}
				resolved[k] = inner
			}
		}
		out = append(out, resolved)
	}
	return out
}

// collectPostings walks decoded JSON and gathers objects that look like
// job postings: a title plus some form of identity.
func collectPostings(v any, out []map[string]any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["title"].(string); ok {
			if util.Field(t, "ciphertext", "cipherText", "uid") != "" {
				return append(out, t)
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = collectPostings(t[k], out)
		}
	case []any:
		for _, child := range t {
			out = collectPostings(child, out)
		}
	}
	return out
}

func pageBudget(p map[string]any) string {
	if amt, ok := p["amount"].(map[string]any); ok {
		if v := util.Field(amt, "amount"); v != "" && v != "0" {
			return "$" + v
		}
	}
	if hr, ok := p["hourlyBudget"].(map[string]any); ok {
		lo, hi := util.Field(hr, "min"), util.Field(hr, "max")
		if lo != "" && hi != "" {
			return "$" + lo + "-$" + hi + "/hr"
		}
	}
	return ""
}
