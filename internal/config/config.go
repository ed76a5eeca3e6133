package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is the per-adapter block under sources.
type Source struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (s Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type Config struct {
	App struct {
		Addr     string `yaml:"addr"`
		DataDir  string `yaml:"data_dir"`
		LogLevel string `yaml:"log_level"`
		Dev      bool   `yaml:"dev"`
	} `yaml:"app"`

	Store struct {
		// DSN is a SQLite file path or a postgres:// URL.
		DSN string `yaml:"dsn"`
	} `yaml:"store"`

	Polling struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		ResultsLimit    int `yaml:"results_limit"`
	} `yaml:"polling"`

	Search struct {
		MaxResults      int `yaml:"max_results"`
		CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	} `yaml:"search"`

	Sources struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`

		Remotive       Source `yaml:"remotive"`
		RemoteOK       Source `yaml:"remoteok"`
		RSS            Source `yaml:"rss"`
		WeWorkRemotely Source `yaml:"weworkremotely"`
		FlexJobs       Source `yaml:"flexjobs"`
		JobStreet      Source `yaml:"jobstreet"`
		Upwork         Source `yaml:"upwork"`
		OnlineJobs     struct {
			Source `yaml:",inline"`
			Types  string `yaml:"types"`
		} `yaml:"onlinejobs"`
	} `yaml:"sources"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	Telemetry struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"telemetry"`
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMinutes) * time.Minute
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSeconds) * time.Second
}

// Default is the configuration used for anything a file leaves unset.
func Default() Config {
	var c Config
	c.App.Addr = "127.0.0.1:38471"
	c.App.DataDir = "data"
	c.App.LogLevel = "info"

	c.Store.DSN = "jobfinder.db"

	c.Polling.IntervalMinutes = 15
	c.Polling.ResultsLimit = 10

	c.Search.MaxResults = 10
	c.Search.CacheTTLSeconds = 300

	c.Sources.RequestsPerSecond = 1
	c.Sources.Burst = 2
	c.Sources.Remotive = Source{Enabled: true, TimeoutSeconds: 20}
	c.Sources.RemoteOK = Source{Enabled: true, TimeoutSeconds: 20}
	c.Sources.RSS = Source{Enabled: true, TimeoutSeconds: 20}
	c.Sources.WeWorkRemotely = Source{Enabled: true, TimeoutSeconds: 30}
	c.Sources.FlexJobs = Source{Enabled: true, TimeoutSeconds: 30}
	c.Sources.JobStreet = Source{Enabled: true, TimeoutSeconds: 30}
	c.Sources.Upwork = Source{Enabled: true, TimeoutSeconds: 30}
	c.Sources.OnlineJobs.Source = Source{Enabled: true, TimeoutSeconds: 60}
	c.Sources.OnlineJobs.Types = "all"

	c.NATS.Subject = "jobs.notify"
	c.Telemetry.ServiceName = "jobfinder-engine"
	return c
}

// Load reads path over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
