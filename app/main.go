package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yknsg/ainews-digest/app/api"
	"github.com/yknsg/ainews-digest/app/cfg"
	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/line"
	"github.com/yknsg/ainews-digest/app/scoring"
	"github.com/yknsg/ainews-digest/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting AI News Digest server", "version", cfg.GetVersion())

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	sources, err := collector.LoadSources(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded", "file", appCfg.SourcesFile, "count", len(sources))

	subscriberRepo := database.NewSubscriberRepository(db)
	articleRepo := database.NewArticleRepository(db)

	collectClient := &http.Client{
		Timeout: time.Duration(appCfg.CollectTimeout) * time.Second,
	}
	signalClient := &http.Client{
		Timeout: time.Duration(appCfg.SignalTimeout) * time.Second,
	}

	hackerNews := collector.NewHackerNewsClient(appCfg.HackerNewsURL, collectClient)
	articleCollector := collector.New(sources, hackerNews, collectClient,
		time.Duration(appCfg.LookbackHours)*time.Hour, appCfg.UserAgent)

	hatena := scoring.NewHatenaClient(appCfg.HatenaCountURL, signalClient)
	hnSearch := scoring.NewHNSearchClient(appCfg.HNSearchURL, signalClient)
	scorer := scoring.NewScorer(hatena, hnSearch)

	lineClient := line.NewClient(appCfg.LineAPIURL, appCfg.LineChannelToken, signalClient)
	extractor := collector.NewSummaryExtractor(collectClient, appCfg.UserAgent)

	scheduler := tasks.NewScheduler(subscriberRepo, articleRepo, articleCollector, scorer, lineClient, extractor)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	apiHandler := api.NewHandler(subscriberRepo, articleRepo, scheduler)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
