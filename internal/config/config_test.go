package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"jobfinder-engine/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	_, v := config.NormalizeAndValidate(config.Default())
	if !v.OK() {
		t.Fatalf("default config invalid: %v", v.Errors)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
app:
  addr: "0.0.0.0:9000"
polling:
  interval_minutes: 30
sources:
  onlinejobs:
    enabled: true
    timeout_seconds: 45
    types: freelance
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr != "0.0.0.0:9000" || cfg.Polling.IntervalMinutes != 30 {
		t.Errorf("file values not applied: %+v", cfg.App)
	}
	if cfg.Polling.ResultsLimit != 10 || cfg.Search.MaxResults != 10 {
		t.Errorf("defaults lost: %+v %+v", cfg.Polling, cfg.Search)
	}
	if cfg.Sources.OnlineJobs.Types != "freelance" || cfg.Sources.OnlineJobs.TimeoutSeconds != 45 {
		t.Errorf("onlinejobs = %+v", cfg.Sources.OnlineJobs)
	}
	if cfg.PollInterval().Minutes() != 30 {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
}

func TestNormalizeAndValidate_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Polling.IntervalMinutes = 0
	cfg.Sources.OnlineJobs.Types = "weekends"
	cfg.Sources.Remotive.TimeoutSeconds = 0
	cfg.Sources.FlexJobs.BaseURL = "not a url"

	_, v := config.NormalizeAndValidate(cfg)
	if v.OK() {
		t.Fatal("expected errors")
	}
	if len(v.Errors) != 4 {
		t.Errorf("errors = %v", v.Errors)
	}
}

func TestNormalizeAndValidate_Warnings(t *testing.T) {
	cfg := config.Default()
	cfg.Polling.IntervalMinutes = 1
	cfg.Sources.Upwork.TimeoutSeconds = 90

	out, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		t.Fatalf("unexpected errors: %v", v.Errors)
	}
	if len(v.Warnings) != 2 {
		t.Errorf("warnings = %v", v.Warnings)
	}
	if out.Sources.OnlineJobs.Types != "all" {
		t.Errorf("types = %q", out.Sources.OnlineJobs.Types)
	}
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/jobs")
	t.Setenv("JOBFINDER_POLL_MINUTES", "20")
	t.Setenv("JOBFINDER_DEV", "true")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg := config.Default()
	config.OverlayEnv(&cfg)

	if cfg.Store.DSN != "postgres://u:p@localhost/jobs" || cfg.Polling.IntervalMinutes != 20 || !cfg.App.Dev {
		t.Errorf("overlay not applied: %+v %+v", cfg.Store, cfg.Polling)
	}
	if cfg.NATS.URL != "nats://localhost:4222" || cfg.NATS.Subject != "jobs.notify" {
		t.Errorf("nats = %+v", cfg.NATS)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("JOBFINDER_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBFINDER_TEST_DOTENV", "")
	os.Unsetenv("JOBFINDER_TEST_DOTENV")

	if err := config.LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("JOBFINDER_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q", got)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := config.EnsureUserConfig(dir, filepath.Join(dir, "no-default.yml"))
	if err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load written default: %v", err)
	}
	if cfg.Polling.IntervalMinutes != 15 {
		t.Errorf("written default = %+v", cfg.Polling)
	}

	again, err := config.EnsureUserConfig(dir, "")
	if err != nil || again != path {
		t.Errorf("second call = %q %v", again, err)
	}
}
