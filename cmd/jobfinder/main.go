package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/httpapi"
	"jobfinder-engine/internal/scheduler"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/secrets"
)

// bootstrap carries what was resolved before the container starts.
type bootstrap struct {
	UserCfgPath string
}

func main() {
	var (
		defaultCfgPath = flag.String("config", filepath.Join("config", "config.yml"), "default config copied into the data dir on first run")
		dataDirFlag    = flag.String("data-dir", "", "data directory (overrides JOBFINDER_DATA_DIR)")
		setToken       = flag.String("set-token", "", "store the API token in the OS keychain and exit")
	)
	flag.Parse()

	if *setToken != "" {
		if err := secrets.SetAPIToken(*setToken); err != nil {
			log.Fatalf("store token: %v", err)
		}
		fmt.Println("API token stored in keychain")
		return
	}

	cfg, boot, err := loadConfig(*defaultCfgPath, *dataDirFlag)
	if err != nil {
		log.Fatal(err)
	}

	token, err := secrets.APIToken()
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	app := fx.New(
		fx.Supply(cfg, boot, httpapi.NewAPIToken(token)),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			newLogger,
			newInstanceLock,
			newStore,
			newHTTPClient,
			newAggregator,
			newInteractiveSearcher,
			events.NewHub,
			newNotifier,
			newPoller,
			newScheduler,
			newAPIDeps,
			newServer,
		),
		fx.Invoke(
			startTracing,
			func(*scheduler.Scheduler) {},
			func(*http.Server) {},
		),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves the data dir, bootstraps config.yml into it and
// applies .env and environment overrides. Validation errors are fatal.
func loadConfig(defaultCfgPath, dataDirFlag string) (config.Config, bootstrap, error) {
	_ = config.LoadDotEnv(".env")

	dataDir := strings.TrimSpace(dataDirFlag)
	if dataDir == "" {
		dataDir = os.Getenv("JOBFINDER_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = config.Default().App.DataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, bootstrap{}, fmt.Errorf("data dir: %w", err)
	}
	if err := config.LoadDotEnv(filepath.Join(dataDir, ".env")); err != nil {
		return config.Config{}, bootstrap{}, fmt.Errorf("load .env: %w", err)
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return config.Config{}, bootstrap{}, fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		return config.Config{}, bootstrap{}, fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	config.OverlayEnv(&cfg)
	cfg.App.DataDir = dataDir

	normalized, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("config warning: %s", w)
	}
	if !vr.OK() {
		return config.Config{}, bootstrap{}, fmt.Errorf("invalid config (%s):\n- %s", userCfgPath, strings.Join(vr.Errors, "\n- "))
	}
	return normalized, bootstrap{UserCfgPath: userCfgPath}, nil
}

// interactiveSearcher is the cache-wrapped searcher behind POST /search.
// The poller uses the bare Aggregator.
type interactiveSearcher struct {
	scrape.Searcher
}
