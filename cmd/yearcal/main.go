package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"yearcal/internal/capture"
	"yearcal/internal/config"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/store"
	"yearcal/internal/web"
)

const defaultCacheDir = "/var/lib/yearcal/ics-cache"

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	debug      bool
}

func main() {
	appLog.Info("yearcal starting", "version", "0.1.0-dev")

	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"title", conf.Title,
		"year", conf.Year,
		"event_count", len(conf.Events),
		"ics_count", len(conf.ICS),
		"refresh", conf.RefreshCron,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	cacheDir := defaultCacheDir
	if flags.debug {
		cacheDir = "./cache/ics-cache"
	}
	fetcher := ics.NewFetcher(cacheDir)

	// Static config events must be valid or we refuse to start; broken ICS
	// sources only cost their own events.
	st, err := buildStore(ctx, conf, fetcher)
	if err != nil {
		appLog.Error("failed to build event store", err)
		os.Exit(1)
	}
	appLog.Info("event store loaded", "event_count", st.Len())

	server, err := web.NewServer(conf, st)
	if err != nil {
		appLog.Error("failed to initialize web server", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	if !flags.once && len(conf.ICS) > 0 {
		c := cron.New()
		_, err := c.AddFunc(conf.RefreshCron, func() {
			refresh(ctx, conf, fetcher, server)
		})
		if err != nil {
			appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		appLog.Info("ics refresh scheduled", "refresh", conf.RefreshCron)
	}

	if flags.snapshot {
		runSnapshot(ctx, conf)
	}

	// Single-shot mode: one fetch+build(+snapshot) cycle, then exit instead
	// of staying up to serve.
	if flags.once {
		appLog.Info("single-shot run complete")
		cancel()
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("yearcal exiting")
}

// buildStore assembles the immutable store from the static config events
// plus whatever the configured ICS sources currently serve.
func buildStore(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher) (*store.Store, error) {
	events := make([]model.Event, 0, len(conf.Events))
	events = append(events, conf.Events...)
	events = append(events, importICS(ctx, conf, fetcher)...)
	return store.New(events)
}

// importICS fetches and parses every configured ICS source. Failures are
// logged per source; the plan keeps rendering with what it has.
func importICS(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher) []model.Event {
	if len(conf.ICS) == 0 {
		return nil
	}

	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL, Color: c.Color})
	}

	results, errs := fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("one or more ICS fetches failed", errorsAggregate(errs), "error_count", len(errs))
	}

	var events []model.Event
	for _, res := range results {
		parsed, err := ics.Parse(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics parse failed for source", err, "id", res.Source.ID)
			continue
		}
		events = append(events, parsed...)
	}
	return events
}

// refresh rebuilds the store and swaps it into the server. On error the
// previous store stays in place.
func refresh(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher, server *web.Server) {
	appLog.Info("ics refresh starting")
	st, err := buildStore(ctx, conf, fetcher)
	if err != nil {
		appLog.Error("ics refresh failed; keeping previous store", err)
		return
	}
	server.SwapStore(st)
	appLog.Info("ics refresh completed", "event_count", st.Len())
}

// runSnapshot captures the served year page to the configured PNG path.
func runSnapshot(ctx context.Context, conf *config.Config) {
	// Give the listener a moment to come up.
	time.Sleep(300 * time.Millisecond)

	err := capture.SnapshotPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/",
		OutputPath: conf.SnapshotPath,
	})
	if err != nil {
		appLog.Error("snapshot failed", err)
		return
	}
	appLog.Info("snapshot written", "path", conf.SnapshotPath)
}

func parseFlags(args []string) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("yearcal", flag.ContinueOnError)
	fs.StringVar(&cfg.configPath, "config", "/etc/yearcal/config.yaml", "Path to config file")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.BoolVar(&cfg.once, "once", false, "Run one fetch+build(+snapshot) cycle and exit")
	fs.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the year page to a PNG")
	fs.BoolVar(&cfg.debug, "debug", false, "Verbose logging and local cache paths")

	if err := fs.Parse(args); err != nil {
		return flagConfig{}, err
	}
	return cfg, nil
}

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
