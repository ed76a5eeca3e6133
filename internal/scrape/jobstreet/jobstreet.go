package jobstreet

import (
	"context"
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
	DefaultBaseURL     = "https://www.jobstreet.com.ph"
	placeholderCompany = "JobStreet Employer"
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
	return &Scraper{cfg: cfg, client: client, log: logger.Named("jobstreet")}
}

func (s *Scraper) Name() string { return "jobstreet" }

// SearchURL renders the path-style search address, e.g.
// /virtual-assistant-jobs/in-Manila.
func SearchURL(base, query, location string) (string, error) {
	slug := util.Slug(query)
	if slug == "" {
		return "", errors.InvalidInput("query has no searchable words", nil)
	}
	u := strings.TrimRight(base, "/") + "/" + slug + "-jobs"
	if loc := util.Slug(location); loc != "" {
		u += "/in-" + loc
	}
	return u, nil
}

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	u, err := SearchURL(s.cfg.BaseURL, q.Text, q.Location)
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
			Location:    util.NormalizeLocation(l.Location),
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
	reArticleOpen = regexp.MustCompile(`(?is)<article[^>]*data-automation="normalJob"[^>]*>`)
	reJobID       = regexp.MustCompile(`(?is)data-job-id="([^"]+)"`)
	reTitleAnchor = regexp.MustCompile(`(?is)<a([^>]*data-automation="jobTitle"[^>]*)>(.*?)</a>`)
	reHrefAttr    = regexp.MustCompile(`(?is)href="([^"]+)"`)
	reCompany     = regexp.MustCompile(`(?is)<a[^>]*data-automation="jobCompany"[^>]*>(.*?)</a>`)
	reLocation    = regexp.MustCompile(`(?is)<a[^>]*data-automation="jobLocation"[^>]*>(.*?)</a>`)
	reSalary      = regexp.MustCompile(`(?is)<span[^>]*data-automation="jobSalary"[^>]*>(.*?)</span>`)
	reSnippet     = regexp.MustCompile(`(?is)<span[^>]*data-automation="jobShortDescription"[^>]*>(.*?)</span>`)

	reLegacyOpen    = regexp.MustCompile(`(?is)<div[^>]*data-search-sol-meta=[^>]*>`)
	reLegacyTitle   = regexp.MustCompile(`(?is)<a[^>]*href="(/en/job/[^"]+)"[^>]*>(.*?)</a>`)
	reLegacyCompany = regexp.MustCompile(`(?is)<a[^>]*data-automation="jobCardCompanyLink"[^>]*>(.*?)</a>`)
	reLegacyLoc     = regexp.MustCompile(`(?is)<span[^>]*class="[^"]*job-location[^"]*"[^>]*>(.*?)</span>`)
	reLegacyID      = regexp.MustCompile(`-(\d+)(?:[?#].*)?$`)
)

var patterns = []util.Pattern{
	{Name: "normal-job", Extract: extractArticles},
	{Name: "sol-meta", Extract: extractLegacy},
}

func extractArticles(page string) []util.Listing {
	var out []util.Listing
	for _, seg := range util.Segments(page, reArticleOpen) {
		m := reTitleAnchor.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		href := util.RawSubmatch(reHrefAttr, m[1])
		if href == "" {
			continue
		}
		out = append(out, util.Listing{
			Href:     href,
			NativeID: util.RawSubmatch(reJobID, seg),
			Title:    util.StripTags(m[2]),
			Company:  util.Submatch(reCompany, seg),
			Location: util.Submatch(reLocation, seg),
			Salary:   util.Submatch(reSalary, seg),
			Snippet:  util.Submatch(reSnippet, seg),
		})
	}
	return out
}

func extractLegacy(page string) []util.Listing {
	var out []util.Listing
	for _, seg := range util.Segments(page, reLegacyOpen) {
		m := reLegacyTitle.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		out = append(out, util.Listing{
			Href:     m[1],
			NativeID: util.RawSubmatch(reLegacyID, m[1]),
			Title:    util.StripTags(m[2]),
			Company:  util.Submatch(reLegacyCompany, seg),
			Location: util.Submatch(reLegacyLoc, seg),
		})
	}
	return out
}
