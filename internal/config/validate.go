package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong
// with it. Errors are fatal at startup; warnings are logged.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.App.Addr = strings.TrimSpace(out.App.Addr)
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.Store.DSN = strings.TrimSpace(out.Store.DSN)
	out.Sources.OnlineJobs.Types = strings.ToLower(strings.TrimSpace(out.Sources.OnlineJobs.Types))

	if out.App.Addr == "" {
		res.addErr("app.addr is required")
	}
	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}
	switch out.App.LogLevel {
	case "":
		out.App.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level %q is not one of debug|info|warn|error", out.App.LogLevel)
	}

	if out.Store.DSN == "" {
		res.addErr("store.dsn is required")
	}

	if out.Polling.IntervalMinutes <= 0 {
		res.addErr("polling.interval_minutes must be > 0")
	} else if out.Polling.IntervalMinutes < 5 {
		res.addWarn("polling.interval_minutes is very low (%d) and may cause rate limits.", out.Polling.IntervalMinutes)
	}
	if out.Polling.ResultsLimit <= 0 || out.Polling.ResultsLimit > 50 {
		res.addErr("polling.results_limit must be 1..50")
	}
	if out.Search.MaxResults <= 0 || out.Search.MaxResults > 50 {
		res.addErr("search.max_results must be 1..50")
	}
	if out.Search.CacheTTLSeconds < 0 {
		res.addErr("search.cache_ttl_seconds must be >= 0")
	}

	if out.Sources.RequestsPerSecond <= 0 {
		res.addErr("sources.requests_per_second must be > 0")
	}
	if out.Sources.Burst <= 0 {
		out.Sources.Burst = 1
	}

	checkSource := func(name string, s *Source) {
		if s.TimeoutSeconds <= 0 {
			res.addErr("sources.%s.timeout_seconds must be > 0", name)
		} else if s.TimeoutSeconds < 15 || s.TimeoutSeconds > 60 {
			res.addWarn("sources.%s.timeout_seconds=%d is outside 15..60", name, s.TimeoutSeconds)
		}
		s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
		if s.BaseURL != "" {
			if u, err := url.Parse(s.BaseURL); err != nil || u.Host == "" {
				res.addErr("sources.%s.base_url %q is not an absolute URL", name, s.BaseURL)
			}
		}
	}
	checkSource("remotive", &out.Sources.Remotive)
	checkSource("remoteok", &out.Sources.RemoteOK)
	checkSource("rss", &out.Sources.RSS)
	checkSource("weworkremotely", &out.Sources.WeWorkRemotely)
	checkSource("flexjobs", &out.Sources.FlexJobs)
	checkSource("jobstreet", &out.Sources.JobStreet)
	checkSource("upwork", &out.Sources.Upwork)
	checkSource("onlinejobs", &out.Sources.OnlineJobs.Source)

	switch out.Sources.OnlineJobs.Types {
	case "":
		out.Sources.OnlineJobs.Types = "all"
	case "all", "fulltime", "parttime", "freelance":
	default:
		res.addErr("sources.onlinejobs.types %q is not one of all|fulltime|parttime|freelance", out.Sources.OnlineJobs.Types)
	}

	if !out.Sources.Remotive.Enabled && !out.Sources.RemoteOK.Enabled &&
		!out.Sources.WeWorkRemotely.Enabled && !out.Sources.OnlineJobs.Enabled {
		res.addWarn("every source in the auto chain is disabled; searches without a source will find nothing.")
	}

	if out.NATS.URL != "" && strings.TrimSpace(out.NATS.Subject) == "" {
		res.addErr("nats.subject is required when nats.url is set")
	}
	if out.Telemetry.Endpoint != "" && out.Telemetry.ServiceName == "" {
		out.Telemetry.ServiceName = "jobfinder-engine"
	}

	return out, res
}
