package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/phuslu/log"

	"github.com/mackresearch/tickersent/internal/config"
	"github.com/mackresearch/tickersent/internal/scheduler"
	"github.com/mackresearch/tickersent/internal/store"
	"github.com/mackresearch/tickersent/pkg/alert"
	"github.com/mackresearch/tickersent/pkg/sentiment"
	"github.com/mackresearch/tickersent/pkg/series"
	"github.com/mackresearch/tickersent/pkg/server"
	"github.com/mackresearch/tickersent/pkg/source"
)

var logger = log.Logger{
	Level:      log.InfoLevel,
	TimeFormat: "15:04:05",
	Writer:     &log.ConsoleWriter{Writer: os.Stderr},
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildSources(cfg *config.Config) []source.Adapter {
	filter := source.NewFilter(cfg.Sources.Aliases, cfg.Sources.Exclude)

	available := map[string]source.Adapter{}
	if cfg.Sources.News.Enabled && cfg.Sources.News.APIKey != "" {
		available["news"] = source.NewEODHD(cfg.Sources.News.APIKey, cfg.Sources.News.Limit)
	}
	if cfg.Sources.StockTwits.Enabled {
		available["stocktwits"] = source.NewStockTwits(cfg.Sources.StockTwits.Limit)
	}
	if cfg.Sources.Reddit.Enabled && cfg.Sources.Reddit.ClientID != "" {
		available["reddit"] = source.NewReddit(
			cfg.Sources.Reddit.ClientID,
			cfg.Sources.Reddit.ClientSecret,
			cfg.Sources.Reddit.Limit,
			filter,
		)
	}
	if cfg.Sources.RSS.Enabled {
		feeds := make([]source.RSSFeed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = source.RSSFeed{Name: f.Name, URL: f.URL}
		}
		available["rss"] = source.NewRSS(feeds, filter)
	}

	// Fallback order follows the configured priority list.
	var sources []source.Adapter
	for _, name := range cfg.Sources.Priority {
		if adapter, ok := available[name]; ok {
			sources = append(sources, adapter)
		}
	}
	return sources
}

func pipelineOptions(cfg *config.Config) (series.Options, error) {
	policy, err := series.ParsePolicy(cfg.Pipeline.Policy)
	if err != nil {
		return series.Options{}, err
	}
	return series.Options{
		Policy:        policy,
		LookbackDays:  cfg.Pipeline.LookbackDays,
		IntervalDays:  cfg.Pipeline.IntervalDays,
		Rescale:       cfg.Pipeline.Rescale,
		SourceTimeout: cfg.Pipeline.ParseSourceTimeout(),
	}, nil
}

func buildCoordinator(cfg *config.Config, db store.Store) *series.Coordinator {
	var cache series.RecordCache
	if db != nil {
		cache = db
	}
	return series.NewCoordinator(sentiment.NewVADER(), buildSources(cfg), cache, &logger)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runSeries(ticker, period, policy string, rescale, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	opts.LookbackDays = server.ParsePeriod(period)
	opts.Rescale = rescale
	if policy != "" {
		p, err := series.ParsePolicy(policy)
		if err != nil {
			return err
		}
		opts.Policy = p
	}

	coord := buildCoordinator(cfg, db)
	result, err := coord.SeriesFor(context.Background(), ticker, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Labels) == 0 {
		fmt.Println("no sentiment data in the requested window")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tAVG SCORE")
	for i := range result.Labels {
		fmt.Fprintf(w, "%s\t%.2f\n", result.Labels[i], result.Values[i])
	}
	return w.Flush()
}

func runScore(ticker, src, period string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	opts.LookbackDays = server.ParsePeriod(period)

	var want source.SourceType
	if src != "" {
		st, ok := source.ParseSourceType(src)
		if !ok {
			return fmt.Errorf("unknown source %q", src)
		}
		want = st
	}

	coord := buildCoordinator(cfg, db)
	score, err := coord.ScoreFor(context.Background(), ticker, want, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%.2f\n", score)
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	coord := buildCoordinator(cfg, db)
	srv := server.New(coord, db, opts, port, &logger)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	coord := buildCoordinator(cfg, db)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(coord, alertMgr,
		cfg.Watchlist.Tickers,
		cfg.Watchlist.ParseRefreshInterval(),
		opts,
		cfg.Watchlist.BullishThreshold,
		cfg.Watchlist.BearishThreshold,
		&logger,
	)

	// Watchlist refresh in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("scheduler error")
		}
	}()

	srv := server.New(coord, db, opts, port, &logger)
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
	}()

	return srv.ListenAndServe()
}
