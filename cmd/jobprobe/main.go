// Command jobprobe runs one query against every adapter concurrently and
// prints what each returned. It is a diagnostic for broken extractors.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/scrape/onlinejobs"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

type outcome struct {
	source string
	jobs   []domain.Job
	err    error
	took   time.Duration
}

func main() {
	var (
		query    = flag.String("query", "golang", "search text")
		source   = flag.String("source", "all", "adapter name, rss:<url>, auto, or all")
		limit    = flag.Int("limit", 5, "results per adapter")
		jobTypes = flag.String("types", onlinejobs.TypesAll, "onlinejobs employment types: all|fulltime|parttime|freelance")
		tier     = flag.String("tier", "entry", "upwork experience tier")
		location = flag.String("location", "", "location filter")
		timeout  = flag.Duration("timeout", 90*time.Second, "overall deadline")
		printURL = flag.Bool("print-url", false, "print the onlinejobs search URL and exit")
		verbose  = flag.Bool("v", false, "log adapter internals")
	)
	flag.Parse()

	if *printURL {
		u, err := onlinejobs.SearchURL(onlinejobs.DefaultBaseURL, *query, *jobTypes)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(u)
		return
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Default()
	config.OverlayEnv(&cfg)
	cfg.Sources.OnlineJobs.Types = *jobTypes

	client := util.NewClient(&http.Client{}, util.NewHostLimiter(cfg.Sources.RequestsPerSecond, cfg.Sources.Burst))
	adapters := scrape.NewAdapters(cfg, client, logger)
	agg := scrape.NewAggregator(logger, scrape.DefaultPolicy(), adapters...)

	q := types.Query{Text: *query, Limit: *limit, Location: *location, Tier: types.ParseTier(*tier)}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if !strings.EqualFold(*source, "all") {
		sel := scrape.ParseSelector(*source)
		start := time.Now()
		res := agg.Search(ctx, sel, q)
		fmt.Printf("selector=%s tried=%v source=%s\n", sel, res.Tried, res.Source)
		report([]outcome{{source: res.Source, jobs: res.Jobs, took: time.Since(start)}})
		return
	}

	var (
		mu  sync.Mutex
		out []outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		if a.Name() == scrape.SourceRSS {
			continue
		}
		a := a
		g.Go(func() error {
			start := time.Now()
			jobs, err := a.Fetch(gctx, q)
			mu.Lock()
			out = append(out, outcome{source: a.Name(), jobs: jobs, err: err, took: time.Since(start)})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].source < out[j].source })
	report(out)
}

func report(out []outcome) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tJOBS\tTOOK\tFIRST")
	for _, o := range out {
		first := "-"
		if len(o.jobs) > 0 {
			first = o.jobs[0].Title + " @ " + o.jobs[0].Company
		}
		if o.err != nil {
			first = "error: " + o.err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", o.source, len(o.jobs), o.took.Round(time.Millisecond), first)
	}
	_ = tw.Flush()

	for _, o := range out {
		for i, j := range o.jobs {
			fmt.Printf("[%s #%d] %s | %s | %s | %s\n", o.source, i+1, j.Title, j.Company, util.OrDefault(j.Location, "-"), j.URL)
		}
	}
}
