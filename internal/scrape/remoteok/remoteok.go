package remoteok

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://remoteok.com"

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
	return &Scraper{cfg: cfg, client: client, log: logger.Named("remoteok")}
}

func (s *Scraper) Name() string { return "remoteok" }

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

// The feed is unfiltered: the first element is a legal notice and
// matching happens locally on title and company.
func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	res, err := s.client.Get(ctx, s.cfg.BaseURL+"/api", s.cfg.Timeout, map[string]string{
		"Accept":     "application/json",
		"User-Agent": util.BotUserAgent,
	})
	if err != nil {
		return nil, err
	}
	if err := util.CheckStatus(res); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := util.DecodeJSON(res.Body, &items); err != nil {
		return nil, err
	}

	needle := strings.ToLower(q.Text)
	out := make([]domain.Job, 0, q.Limit)
	for _, item := range items {
		if len(out) >= q.Limit {
			break
		}
		var raw map[string]any
		if err := util.DecodeJSON(item, &raw); err != nil || raw == nil {
			continue
		}
		id := util.Field(raw, "id")
		if id == "" {
			continue
		}

		title := util.Field(raw, "position", "title")
		company := util.Field(raw, "company")
		if needle != "" &&
			!strings.Contains(strings.ToLower(title), needle) &&
			!strings.Contains(strings.ToLower(company), needle) {
			continue
		}

		link := util.Resolve(s.cfg.BaseURL, util.Field(raw, "url", "apply_url"))
		out = util.Keep(out, domain.Job{
			UniqueID:    id,
			Title:       util.OrDefault(title, domain.UntitledJob),
			Company:     util.OrDefault(company, "Unknown company"),
			URL:         link,
			Location:    util.OrDefault(util.NormalizeLocation(util.Field(raw, "location")), "Remote"),
			Salary:      salaryRange(util.Field(raw, "salary_min"), util.Field(raw, "salary_max")),
			Description: domain.ShortDescription(util.StripTags(util.Field(raw, "description"))),
			Source:      s.Name(),
			Raw:         raw,
		}, q.Limit)
	}

	s.log.Debug("fetched", zap.String("query", q.Text), zap.Int("jobs", len(out)))
	return out, nil
}

func salaryRange(lo, hi string) string {
	if lo == "0" {
		lo = ""
	}
	if hi == "0" {
		hi = ""
	}
	switch {
	case lo != "" && hi != "":
		return "$" + lo + " - $" + hi
	case lo != "":
		return "$" + lo + "+"
	case hi != "":
		return "up to $" + hi
	}
	return ""
}
