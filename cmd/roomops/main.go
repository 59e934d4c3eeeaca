package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"roomops/internal/config"
	appLog "roomops/internal/log"
	"roomops/internal/ops"
	"roomops/internal/report"
	"roomops/internal/scrape"
	"roomops/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	replay     string
	dump       bool
}

func main() {
	appLog.Info("roomops starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dump && conf.DumpDir == "" {
		conf.DumpDir = "./cache/dumps"
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "timezone", conf.Timezone)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"site", conf.Site.BaseURL,
		"headless", conf.Browser.Headless,
		"once", flags.once,
		"replay", flags.replay,
		"dump_dir", conf.DumpDir,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	src, err := newSource(conf, flags.replay)
	if err != nil {
		appLog.Error("failed to build event source", err)
		os.Exit(1)
	}

	latest := &ops.Latest{}
	run := func(ctx context.Context) (*ops.Snapshot, error) {
		return runPipeline(ctx, conf, loc, src, latest)
	}

	if flags.once {
		if _, err := run(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		_, _ = run(ctx)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	srv := web.NewServer(conf, latest, run)
	if err := srv.Serve(ctx); err != nil {
		appLog.Error("HTTP server stopped", err)
	}

	appLog.Info("roomops exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/roomops/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one scrape+generate cycle, print the schedule and exit")
	flag.StringVar(&cfg.replay, "replay", "", "Replay captured panels from a JSON dump instead of scraping")
	flag.BoolVar(&cfg.dump, "dump", false, "Dump captured panels as JSON for later -replay")

	flag.Parse()

	return cfg
}

func newSource(conf *config.Config, replay string) (ops.Source, error) {
	if replay != "" {
		frags, err := ops.LoadFragments(replay)
		if err != nil {
			return nil, err
		}
		appLog.Info("replaying captured panels", "path", replay, "events", len(frags))
		return frags, nil
	}
	return scrape.New(scrape.Options{
		BaseURL:      conf.Site.BaseURL,
		Username:     conf.Site.Username,
		Password:     conf.Site.Password,
		Headless:     conf.Browser.Headless,
		NavTimeout:   conf.Browser.NavTimeout(),
		FieldTimeout: conf.Browser.FieldTimeout(),
		SettleDelay:  conf.Browser.SettleDelay(),
	}), nil
}

// runPipeline performs one run for today's operating day, prints it and
// optionally dumps the captured panels.
func runPipeline(ctx context.Context, conf *config.Config, loc *time.Location, src ops.Source, latest *ops.Latest) (*ops.Snapshot, error) {
	day := time.Now().In(loc)

	var rec *ops.Recorder
	if conf.DumpDir != "" {
		rec = &ops.Recorder{Source: src}
		src = rec
	}

	snap, err := latest.RunAndStore(ctx, src, day)
	if err != nil {
		appLog.Error("run failed", err, "day", day.Format("2006-01-02"))
	}

	if rec != nil {
		path := filepath.Join(conf.DumpDir, fmt.Sprintf("panels-%s.json", day.Format("20060102-150405")))
		if dumpErr := ops.SaveFragments(path, rec.Captured()); dumpErr != nil {
			appLog.Error("panel dump failed", dumpErr, "path", path)
		} else {
			appLog.Info("panels dumped", "path", path, "events", len(rec.Captured()))
		}
	}

	if renderErr := report.Render(os.Stdout, snap.Store, snap.Report); renderErr != nil {
		appLog.Error("report render failed", renderErr)
	}
	return snap, err
}
