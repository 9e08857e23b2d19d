package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notebot/config"
	"notebot/line"
	"notebot/notestore"
	"notebot/remind"
	"notebot/scheduler"
	"notebot/storage"
	"notebot/telegram"
	"notebot/weather"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	once := flag.Int("once", -1, "run a single window offset immediately and exit (0, 1 or 2)")
	flag.Parse()

	// Structured JSON logging to stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "notify_times", cfg.NotifyTimes, "offsets", cfg.WindowOffsets, "timezone", cfg.Timezone)

	// Set log level
	switch cfg.LogLevel {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("dispatch ledger initialized", "db_path", cfg.DBPath)

	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	httpClient := &http.Client{Timeout: timeout}

	noteClient := notestore.NewClient(httpClient, cfg.StoreURL)
	weatherSvc := weather.NewService(cfg.OpenWeatherAPIKey, httpClient)
	enricher := weather.NewEnricher(weatherSvc, timeout)
	lineClient := line.NewClient(cfg.LineToken, httpClient)

	var mirror remind.Mirror
	if cfg.TelegramToken != "" {
		notifier, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("telegram mirror unavailable, continuing without it", "error", err)
		} else {
			mirror = notifier
			slog.Info("telegram mirror enabled", "chat_id", cfg.TelegramChatID)
		}
	}

	collector := remind.NewCollector(&noteSourceAdapter{client: noteClient}, cfg.NoteTag, cfg.QueryLimit)
	runner := remind.NewRunner(
		collector,
		&enricherAdapter{enricher: enricher},
		lineClient,
		mirror,
		store,
		cfg.LineTargetIDs,
	)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	runOffset := func(offset int) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := runner.Run(ctx, offset); err != nil {
			slog.Error("reminder run failed", "offset", offset, "error", err)
		}

		cutoff := time.Now().In(loc).AddDate(0, 0, -cfg.RetentionDays).Format("2006-01-02")
		if n, err := store.Prune(cutoff); err != nil {
			slog.Error("failed to prune dispatch ledger", "error", err)
		} else if n > 0 {
			slog.Info("pruned dispatch ledger", "removed", n, "before", cutoff)
		}
	}

	if *once >= 0 {
		runOffset(*once)
		return
	}

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	if err := sched.Schedule(cfg.NotifyTimes, cfg.WindowOffsets, runOffset); err != nil {
		slog.Error("failed to schedule reminder runs", "error", err)
		os.Exit(1)
	}
	sched.Start()
	slog.Info("scheduler started", "notify_times", cfg.NotifyTimes, "entries", sched.EntryCount())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	slog.Info("shutdown complete")
}

// --- Adapters to bridge package types ---

// noteSourceAdapter bridges notestore.Client to remind.NoteSource
type noteSourceAdapter struct {
	client notestore.Client
}

func (a *noteSourceAdapter) Query(ctx context.Context, text string, limit int) ([]remind.Note, error) {
	notes, err := a.client.Query(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	out := make([]remind.Note, len(notes))
	for i, n := range notes {
		out[i] = remind.Note{
			Content:    n.Content,
			Author:     n.Author,
			IngestedAt: n.IngestedAt,
		}
	}
	return out, nil
}

// enricherAdapter bridges weather.Enricher to remind.Enricher
type enricherAdapter struct {
	enricher *weather.Enricher
}

func (a *enricherAdapter) Enrich(ctx context.Context, content string, daysUntil int) *remind.Weather {
	snap := a.enricher.Enrich(ctx, content, daysUntil)
	if snap == nil {
		return nil
	}
	return &remind.Weather{
		Location:     snap.Location,
		Venue:        snap.Venue,
		Temperature:  snap.Temperature,
		Humidity:     snap.Humidity,
		PrecipChance: snap.PrecipChance,
		Description:  snap.Description,
	}
}
