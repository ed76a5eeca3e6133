package flexjobs

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
	DefaultBaseURL = "https://www.flexjobs.com"

	// FlexJobs hides employers from anonymous visitors.
	placeholderCompany = "FlexJobs Employer"
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
	return &Scraper{cfg: cfg, client: client, log: logger.Named("flexjobs")}
}

func (s *Scraper) Name() string { return "flexjobs" }

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	v := url.Values{"search": {q.Text}}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	u := strings.TrimRight(s.cfg.BaseURL, "/") + "/search?" + v.Encode()

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
	for _, l := range listings {
		link := util.Resolve(s.cfg.BaseURL, l.Href)
		out = util.Keep(out, domain.Job{
			UniqueID:    util.UniqueID(l.NativeID, link, l.Title, l.Company),
			Title:       util.OrDefault(l.Title, domain.UntitledJob),
			Company:     util.OrDefault(l.Company, placeholderCompany),
			URL:         link,
			Location:    util.NormalizeLocation(l.Location),
			Salary:      l.Salary,
			Description: domain.ShortDescription(l.Snippet),
			Source:      s.Name(),
			Raw:         map[string]any{"path": l.Href, "pattern": pattern, "native_id": l.NativeID},
		}, q.Limit)
	}

	s.log.Debug("fetched", zap.String("query", q.Text), zap.String("pattern", pattern), zap.Int("jobs", len(out)))
	return out, nil
}

var (
	reCardOpen   = regexp.MustCompile(`(?is)<div[^>]*data-testid="job-card"[^>]*>`)
	reCardLink   = regexp.MustCompile(`(?is)<a[^>]*id="job-name-([^"]+)"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	reCardLinkRv = regexp.MustCompile(`(?is)<a[^>]*href="([^"]+)"[^>]*id="job-name-([^"]+)"[^>]*>(.*?)</a>`)
	reCardLoc    = regexp.MustCompile(`(?is)<span[^>]*id="allowedJobLocation-[^"]*"[^>]*>(.*?)</span>`)
	reCardSalary = regexp.MustCompile(`(?is)<li[^>]*id="salartRange-[^"]*"[^>]*>(.*?)</li>`)
	reCardDesc   = regexp.MustCompile(`(?is)<p[^>]*id="description-[^"]*"[^>]*>(.*?)</p>`)

	reLegacyOpen  = regexp.MustCompile(`(?is)<li[^>]*class="[^"]*\bjob\b[^"]*"[^>]*>`)
	reLegacyID    = regexp.MustCompile(`(?is)data-job="([^"]+)"`)
	reLegacyTitle = regexp.MustCompile(`(?is)<a[^>]*class="[^"]*job-title[^"]*"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	reLegacyLoc   = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*job-locations[^"]*"[^>]*>(.*?)</div>`)
	reLegacyDesc  = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*job-description[^"]*"[^>]*>(.*?)</div>`)
)

var patterns = []util.Pattern{
	{Name: "job-card", Extract: extractCards},
	{Name: "legacy-list", Extract: extractLegacy},
}

func extractCards(page string) []util.Listing {
	var out []util.Listing
	for _, seg := range util.Segments(page, reCardOpen) {
		var id, href, title string
		if m := reCardLink.FindStringSubmatch(seg); m != nil {
			id, href, title = m[1], m[2], m[3]
		} else if m := reCardLinkRv.FindStringSubmatch(seg); m != nil {
			href, id, title = m[1], m[2], m[3]
		} else {
			continue
		}
		out = append(out, util.Listing{
			Href:     strings.TrimSpace(href),
			NativeID: strings.TrimSpace(id),
			Title:    util.StripTags(title),
			Location: util.Submatch(reCardLoc, seg),
			Salary:   util.Submatch(reCardSalary, seg),
			Snippet:  util.Submatch(reCardDesc, seg),
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
			Href:     strings.TrimSpace(m[1]),
			NativeID: util.RawSubmatch(reLegacyID, seg),
			Title:    util.StripTags(m[2]),
			Location: util.Submatch(reLegacyLoc, seg),
			Snippet:  util.Submatch(reLegacyDesc, seg),
		})
	}
	return out
}
