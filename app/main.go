package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/puteus/puteus/app/api"
	"github.com/puteus/puteus/app/cfg"
	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/fetch"
	"github.com/puteus/puteus/app/scraper"
	"github.com/puteus/puteus/app/tasks"
	"github.com/puteus/puteus/app/watch"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Printf("Starting Puteus server (version %s)...", appCfg.Version)

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()
	log.Println("Connected to database successfully")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database schema at version %d (dirty: %v)", version, dirty)

	// Repositories
	sourceRepo := database.NewSourceRepository(db)
	entryRepo := database.NewWatchLogRepository(db)
	articleRepo := database.NewArticleRepository(db)

	// Core components
	fetchClient := fetch.NewClient(&http.Client{}, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)
	watchService := watch.NewService(sourceRepo, entryRepo, articleRepo, fetchClient)

	// Scraper rulesets
	log.Printf("Loading scraper rulesets from %s...", appCfg.RulesetsDir)
	rulesets, err := scraper.LoadRulesets(appCfg.RulesetsDir)
	if err != nil {
		log.Fatal("Failed to load scraper rulesets: ", err)
	}
	log.Printf("Loaded %d scraper rulesets", len(rulesets))

	scraperConfig := scraper.Config{
		MaxRetries:      appCfg.MaxRetries,
		ScrollTimeoutMs: appCfg.ScrollTimeoutMs,
		LoadTimeoutMs:   appCfg.LoadTimeoutMs,
		DefaultMaxPosts: appCfg.DefaultMaxPosts,
	}
	scraperRunner := scraper.NewRunner(rulesets, scraperConfig, appCfg.Headless, appCfg.BrowserUserAgent)

	// Background scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(watchService, sourceRepo, articleRepo, fetchClient)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(watchService, sourceRepo, entryRepo, articleRepo, scheduler, scraperRunner)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Puteus server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Puteus server shutdown complete")
}
