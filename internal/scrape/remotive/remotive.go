package remotive

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://remotive.com"

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
		cfg.Timeout = 20 * time.Second
	}
	return &Scraper{cfg: cfg, client: client, log: logger.Named("remotive")}
}

func (s *Scraper) Name() string { return "remotive" }

type listing struct {
	Jobs []map[string]any `json:"jobs"`
}

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

// Location is not sent upstream; remotive's search has no location
// parameter and its own region field is free text.
func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	u, err := url.Parse(s.cfg.BaseURL + "/api/remote-jobs")
	if err != nil {
		return nil, errors.Internal("remotive base url", err)
	}
	v := url.Values{}
	v.Set("search", q.Text)
	v.Set("limit", strconv.Itoa(q.Limit))
	u.RawQuery = v.Encode()

	res, err := s.client.Get(ctx, u.String(), s.cfg.Timeout, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	if err := util.CheckStatus(res); err != nil {
		return nil, err
	}

	var payload listing
	if err := util.DecodeJSON(res.Body, &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Job, 0, q.Limit)
	for _, raw := range payload.Jobs {
		title := util.Field(raw, "title")
		company := util.Field(raw, "company_name")
		link := util.Field(raw, "url")

		out = util.Keep(out, domain.Job{
			UniqueID:    util.UniqueID(util.Field(raw, "id"), link, title, company),
			Title:       util.OrDefault(title, domain.UntitledJob),
			Company:     util.OrDefault(company, "Unknown company"),
			URL:         util.CanonicalURL(link),
			Location:    util.NormalizeLocation(util.Field(raw, "candidate_required_location", "location")),
			Salary:      util.CleanText(util.Field(raw, "salary")),
			Description: domain.ShortDescription(util.StripTags(util.Field(raw, "description"))),
			Source:      s.Name(),
			Raw:         raw,
		}, q.Limit)
	}

	s.log.Debug("fetched", zap.String("query", q.Text), zap.Int("jobs", len(out)))
	return out, nil
}
