package rss

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

type Config struct {
	Timeout time.Duration
}

// Scraper reads any RSS or Atom feed of job postings. The feed URL
// travels on the query, not the config.
type Scraper struct {
	cfg    Config
	client *util.Client
	log    *zap.Logger
}

func New(cfg Config, client *util.Client, logger *zap.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Scraper{cfg: cfg, client: client, log: logger.Named("rss")}
}

func (s *Scraper) Name() string { return "rss" }

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	q = q.WithDefaults()
	jobs, err := s.fetch(ctx, q)
	return util.Settle(s.log, s.Name(), jobs, err)
}

func (s *Scraper) fetch(ctx context.Context, q types.Query) ([]domain.Job, error) {
	if !util.HTTPURL(q.FeedURL) {
		return nil, errors.InvalidInput("feed url must be http(s): "+q.FeedURL, nil)
	}

	res, err := s.client.Get(ctx, q.FeedURL, s.cfg.Timeout, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, err
	}
	if err := util.CheckStatus(res); err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(res.Body))
	if err != nil {
		return nil, errors.Malformed("parse feed", err)
	}
	return ItemsToJobs(feed.Items, s.Name(), q.Limit), nil
}

// ItemsToJobs normalizes feed items. Shared with sources that publish an
// RSS endpoint of their own.
func ItemsToJobs(items []*gofeed.Item, source string, limit int) []domain.Job {
	out := make([]domain.Job, 0, limit)
	for _, it := range items {
		if it == nil {
			continue
		}
		title := util.StripTags(it.Title)
		link := strings.TrimSpace(it.Link)
		company := author(it)

		out = util.Keep(out, domain.Job{
			UniqueID:    util.UniqueID(it.GUID, link, title, link),
			Title:       util.OrDefault(title, domain.UntitledJob),
			Company:     company,
			URL:         util.CanonicalURL(link),
			Location:    util.NormalizeLocation(location(it)),
			Description: domain.ShortDescription(util.StripTags(util.OrDefault(it.Description, it.Content))),
			Source:      source,
			Raw:         rawItem(it),
		}, limit)
	}
	return out
}

func author(it *gofeed.Item) string {
	if it.Author != nil && strings.TrimSpace(it.Author.Name) != "" {
		return util.CleanText(it.Author.Name)
	}
	for _, a := range it.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return util.CleanText(a.Name)
		}
	}
	return ""
}

func location(it *gofeed.Item) string {
	if v := it.Custom["location"]; v != "" {
		return v
	}
	for _, ns := range it.Extensions {
		for _, key := range []string{"location", "region"} {
			if exts := ns[key]; len(exts) > 0 && exts[0].Value != "" {
				return exts[0].Value
			}
		}
	}
	return ""
}

func rawItem(it *gofeed.Item) map[string]any {
	raw := map[string]any{
		"guid":  it.GUID,
		"link":  it.Link,
		"title": it.Title,
	}
	if it.PublishedParsed != nil {
		raw["published"] = it.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if len(it.Categories) > 0 {
		raw["categories"] = it.Categories
	}
	return raw
}
