package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from files into the environment
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// OverlayEnv applies environment overrides on top of cfg.
func OverlayEnv(cfg *Config) {
	setString(&cfg.App.Addr, "JOBFINDER_ADDR")
	setString(&cfg.App.DataDir, "JOBFINDER_DATA_DIR")
	setString(&cfg.App.LogLevel, "JOBFINDER_LOG_LEVEL")
	setBool(&cfg.App.Dev, "JOBFINDER_DEV")

	setString(&cfg.Store.DSN, "JOBFINDER_DSN")
	setString(&cfg.Store.DSN, "DATABASE_URL")

	setInt(&cfg.Polling.IntervalMinutes, "JOBFINDER_POLL_MINUTES")
	setInt(&cfg.Polling.ResultsLimit, "JOBFINDER_POLL_LIMIT")
	setInt(&cfg.Search.MaxResults, "JOBFINDER_MAX_RESULTS")

	setString(&cfg.Sources.OnlineJobs.Types, "JOBFINDER_ONLINEJOBS_TYPES")

	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "JOBFINDER_NATS_SUBJECT")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}
