package scrape

import (
	"go.uber.org/zap"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/scrape/flexjobs"
	"jobfinder-engine/internal/scrape/jobstreet"
	"jobfinder-engine/internal/scrape/onlinejobs"
	"jobfinder-engine/internal/scrape/remoteok"
	"jobfinder-engine/internal/scrape/remotive"
	"jobfinder-engine/internal/scrape/rss"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/upwork"
	"jobfinder-engine/internal/scrape/util"
	"jobfinder-engine/internal/scrape/weworkremotely"
)

// NewAdapters builds every enabled adapter from cfg, sharing one client.
func NewAdapters(cfg config.Config, client *util.Client, logger *zap.Logger) []types.Adapter {
	src := cfg.Sources
	var out []types.Adapter

	if src.Remotive.Enabled {
		out = append(out, remotive.New(remotive.Config{BaseURL: src.Remotive.BaseURL, Timeout: src.Remotive.Timeout()}, client, logger))
	}
	if src.RemoteOK.Enabled {
		out = append(out, remoteok.New(remoteok.Config{BaseURL: src.RemoteOK.BaseURL, Timeout: src.RemoteOK.Timeout()}, client, logger))
	}
	if src.RSS.Enabled {
		out = append(out, rss.New(rss.Config{Timeout: src.RSS.Timeout()}, client, logger))
	}
	if src.WeWorkRemotely.Enabled {
		out = append(out, weworkremotely.New(weworkremotely.Config{BaseURL: src.WeWorkRemotely.BaseURL, Timeout: src.WeWorkRemotely.Timeout()}, client, logger))
	}
	if src.OnlineJobs.Enabled {
		out = append(out, onlinejobs.New(onlinejobs.Config{
			BaseURL: src.OnlineJobs.BaseURL,
			Timeout: src.OnlineJobs.Timeout(),
			Types:   src.OnlineJobs.Types,
		}, client, logger))
	}
	if src.FlexJobs.Enabled {
		out = append(out, flexjobs.New(flexjobs.Config{BaseURL: src.FlexJobs.BaseURL, Timeout: src.FlexJobs.Timeout()}, client, logger))
	}
	if src.JobStreet.Enabled {
		out = append(out, jobstreet.New(jobstreet.Config{BaseURL: src.JobStreet.BaseURL, Timeout: src.JobStreet.Timeout()}, client, logger))
	}
	if src.Upwork.Enabled {
		out = append(out, upwork.New(upwork.Config{BaseURL: src.Upwork.BaseURL, Timeout: src.Upwork.Timeout()}, client, logger))
	}
	return out
}
