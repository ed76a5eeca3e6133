package onlinejobs

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://www.onlinejobs.ph"
	searchPath     = "/jobseekers/jobsearch"

	placeholderCompany = "OnlineJobs.ph Employer"
	fixedLocation      = "Philippines (Remote)"
)

// Employment type filters accepted by Config.Types.
const (
	TypesAll       = "all"
	TypesFullTime  = "fulltime"
	TypesPartTime  = "parttime"
	TypesFreelance = "freelance"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	Types   string
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
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Types == "" {
		cfg.Types = TypesAll
	}
	return &Scraper{cfg: cfg, client: client, log: logger.Named("onlinejobs")}
}

func (s *Scraper) Name() string { return "onlinejobs" }

// SearchURL builds the search page address for query and an employment
// type filter.
func SearchURL(base, query, employment string) (string, error) {
	v := url.Values{}
	v.Set("jobkeyword", query)
	switch strings.ToLower(strings.TrimSpace(employment)) {
	case "", TypesAll:
		v.Set("fullTime", "on")
		v.Set("partTime", "on")
		v.Set("Freelance", "on")
	case TypesFullTime:
		v.Set("fullTime", "on")
	case TypesPartTime:
		v.Set("partTime", "on")
	case TypesFreelance:
		v.Set("Freelance", "on")
	default:
		return "", errors.InvalidInput("unknown employment types "+employment+" (want all|fulltime|parttime|freelance)", nil)
	}
	return strings.TrimRight(base, "/") + searchPath + "?" + v.Encode(), nil
}

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	u, err := SearchURL(s.cfg.BaseURL, q.Text, s.cfg.Types)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Get(ctx, u, s.cfg.Timeout, map[string]string{
		"User-Agent": util.BrowserUserAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, err
	}
	if err := util.CheckStatus(res); err != nil {
		return nil, err
	}

	pattern, listings := util.TryPatterns(string(res.Body), patterns)
	if len(listings) == 0 {
		s.log.Info("no listings matched", zap.String("query", q.Text), zap.Int("bytes", len(res.Body)))
		return []domain.Job{}, nil
	}

	out := make([]domain.Job, 0, q.Limit)
	seen := map[string]bool{}
	for _, l := range listings {
		link := util.Resolve(s.cfg.BaseURL, l.Href)
		id := util.UniqueID(l.NativeID, link, l.Title, l.Company)
		if seen[id] {
			continue
		}
		seen[id] = true

		out = util.Keep(out, domain.Job{
			UniqueID:    id,
			Title:       util.OrDefault(l.Title, domain.UntitledJob),
			Company:     util.OrDefault(l.Company, placeholderCompany),
			URL:         link,
			Location:    fixedLocation,
			Salary:      l.Salary,
			Description: domain.ShortDescription(l.Snippet),
			Source:      s.Name(),
			Raw:         map[string]any{"path": l.Href, "pattern": pattern},
		}, q.Limit)
	}

	s.log.Debug("fetched", zap.String("query", q.Text), zap.String("pattern", pattern), zap.Int("jobs", len(out)))
	return out, nil
}

var (
	reWrappedCard = regexp.MustCompile(`(?is)<a[^>]*href="(/jobseekers/job/[^"]+)"[^>]*>\s*<div[^>]*class="[^"]*jobpost-cat-box[^"]*"[^>]*>(.*?)</div>\s*</a>`)
	reCardOpen    = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*jobpost-cat-box[^"]*"[^>]*>`)
	reJobHref     = regexp.MustCompile(`(?is)href="(/jobseekers/job/[^"]+)"`)
	reJobLink     = regexp.MustCompile(`(?is)<a[^>]*href="(/jobseekers/job/[^"]+)"[^>]*>(.*?)</a>`)
	reTitle       = regexp.MustCompile(`(?is)<h[34][^>]*>(.*?)</h[34]>`)
	reCompany     = regexp.MustCompile(`(?is)<p[^>]*>\s*(.*?)\s*<em`)
	reSalary      = regexp.MustCompile(`(?is)<dd[^>]*>(.*?)</dd>`)
	reSnippet     = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*desc[^"]*"[^>]*>(.*?)</div>`)
	reNativeID    = regexp.MustCompile(`-(\d+)/?$`)
)

// Ordered from the current markup to the loosest fallback.
var patterns = []util.Pattern{
	{Name: "wrapped-card", Extract: extractWrapped},
	{Name: "card-segments", Extract: extractSegments},
	{Name: "job-links", Extract: extractLinks},
}

func extractWrapped(page string) []util.Listing {
	var out []util.Listing
	for _, m := range reWrappedCard.FindAllStringSubmatch(page, -1) {
		out = append(out, card(m[1], m[2]))
	}
	return out
}

func extractSegments(page string) []util.Listing {
	var out []util.Listing
	for _, seg := range util.Segments(page, reCardOpen) {
		href := util.RawSubmatch(reJobHref, seg)
		if href == "" {
			continue
		}
		out = append(out, card(href, seg))
	}
	return out
}

func extractLinks(page string) []util.Listing {
	var out []util.Listing
	for _, m := range reJobLink.FindAllStringSubmatch(page, -1) {
		title := util.StripTags(m[2])
		if title == "" || strings.EqualFold(title, "apply") || strings.EqualFold(title, "see more") {
			continue
		}
		out = append(out, util.Listing{Href: m[1], NativeID: nativeID(m[1]), Title: title})
	}
	return out
}

func card(href, inner string) util.Listing {
	return util.Listing{
		Href:     href,
		NativeID: nativeID(href),
		Title:    util.Submatch(reTitle, inner),
		Company:  strings.Trim(util.Submatch(reCompany, inner), " •-|·"),
		Salary:   util.Submatch(reSalary, inner),
		Snippet:  util.Submatch(reSnippet, inner),
	}
}

func nativeID(href string) string {
	path := href
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return util.RawSubmatch(reNativeID, path)
}
