package weworkremotely

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const (
	DefaultBaseURL     = "https://weworkremotely.com"
	placeholderCompany = "We Work Remotely Employer"
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
	return &Scraper{cfg: cfg, client: client, log: logger.Named("weworkremotely")}
}

func (s *Scraper) Name() string { return "weworkremotely" }

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	u := strings.TrimRight(s.cfg.BaseURL, "/") + "/remote-jobs/search?" + url.Values{"term": {q.Text}}.Encode()
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
			Location:    util.OrDefault(util.NormalizeLocation(l.Location), "Remote"),
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
	reListingOpen = regexp.MustCompile(`(?is)<li[^>]*class="[^"]*new-listing-container[^"]*"[^>]*>`)
	reListingHref = regexp.MustCompile(`(?is)href="(/remote-jobs/[^"]+)"`)
	reNewTitle    = regexp.MustCompile(`(?is)<h[34][^>]*class="[^"]*new-listing__header__title[^"]*"[^>]*>(.*?)</h[34]>`)
	reNewCompany  = regexp.MustCompile(`(?is)<p[^>]*class="[^"]*new-listing__company-name[^"]*"[^>]*>(.*?)</p>`)
	reNewHQ       = regexp.MustCompile(`(?is)<p[^>]*class="[^"]*new-listing__company-headquarters[^"]*"[^>]*>(.*?)</p>`)
	reNewCategory = regexp.MustCompile(`(?is)<p[^>]*class="[^"]*new-listing__categories__category[^"]*"[^>]*>(.*?)</p>`)

	reLegacyLink    = regexp.MustCompile(`(?is)<a[^>]*href="(/remote-jobs/[^"]+)"[^>]*>(.*?)</a>`)
	reLegacyTitle   = regexp.MustCompile(`(?is)<span[^>]*class="[^"]*\btitle\b[^"]*"[^>]*>(.*?)</span>`)
	reLegacyCompany = regexp.MustCompile(`(?is)<span[^>]*class="company"[^>]*>(.*?)</span>`)
	reLegacyRegion  = regexp.MustCompile(`(?is)<span[^>]*class="[^"]*\bregion\b[^"]*"[^>]*>(.*?)</span>`)
)

var patterns = []util.Pattern{
	{Name: "new-listing", Extract: extractNewListing},
	{Name: "legacy-spans", Extract: extractLegacy},
}

func extractNewListing(page string) []util.Listing {
	var out []util.Listing
	for _, seg := range util.Segments(page, reListingOpen) {
		href := util.RawSubmatch(reListingHref, seg)
		title := util.Submatch(reNewTitle, seg)
		if href == "" || title == "" {
			continue
		}
		l := util.Listing{
			Href:     href,
			Title:    title,
			Company:  util.Submatch(reNewCompany, seg),
			Location: util.Submatch(reNewHQ, seg),
		}
		for _, m := range reNewCategory.FindAllStringSubmatch(seg, -1) {
			if c := util.StripTags(m[1]); strings.Contains(c, "$") {
				l.Salary = c
				break
			}
		}
		out = append(out, l)
	}
	return out
}

func extractLegacy(page string) []util.Listing {
	var out []util.Listing
	for _, m := range reLegacyLink.FindAllStringSubmatch(page, -1) {
		href, inner := m[1], m[2]
		if strings.HasPrefix(href, "/remote-jobs/search") {
			continue
		}
		title := util.Submatch(reLegacyTitle, inner)
		if title == "" {
			continue
		}
		out = append(out, util.Listing{
			Href:     href,
			Title:    title,
			Company:  util.Submatch(reLegacyCompany, inner),
			Location: util.Submatch(reLegacyRegion, inner),
		})
	}
	return out
}
