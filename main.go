package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"flixvault/api"
	"flixvault/config"
	"flixvault/handlers"
	"flixvault/services/catalog"
	"flixvault/services/mylist"
	"flixvault/services/player"
	"flixvault/services/progress"
	"flixvault/store"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 flixvault Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("FLIXVAULT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Open the record store
	var (
		recordStore store.Client
		closeStore  func() error
	)
	switch settings.Store.Backend {
	case "remote":
		remote, err := store.NewRemote(settings.Store.BaseURL, settings.Store.APIKey)
		if err != nil {
			log.Fatalf("failed to init remote record store: %v", err)
		}
		recordStore = remote
	default:
		if dir := filepath.Dir(settings.Store.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("failed to create store directory: %v", err)
			}
		}
		db, err := store.OpenSQLite(settings.Store.Path)
		if err != nil {
			log.Fatalf("failed to open record store: %v", err)
		}
		recordStore = db
		closeStore = db.Close
	}

	// Construct services
	catalogService, err := catalog.NewService(recordStore)
	if err != nil {
		log.Fatalf("failed to init catalog service: %v", err)
	}
	progressService, err := progress.NewService(recordStore)
	if err != nil {
		log.Fatalf("failed to init progress service: %v", err)
	}
	listService, err := mylist.NewService(recordStore)
	if err != nil {
		log.Fatalf("failed to init list service: %v", err)
	}

	// Seed the catalog when a seed file is present
	if settings.Catalog.SeedPath != "" {
		osFs := afero.NewOsFs()
		if exists, _ := afero.Exists(osFs, settings.Catalog.SeedPath); exists {
			if err := catalogService.Seed(context.Background(), osFs, settings.Catalog.SeedPath); err != nil {
				log.Printf("Warning: catalog seed failed: %v", err)
			}
		}
	}

	hideDelay := time.Duration(settings.Playback.ControlsHideSeconds) * time.Second
	playerManager := player.NewManager(progressService, player.WithControlsHideDelay(hideDelay))

	// Construct router and register API routes
	r := mux.NewRouter()
	api.Register(r,
		handlers.NewCatalogHandler(catalogService, listService),
		handlers.NewMyListHandler(listService, catalogService),
		handlers.NewProgressHandler(progressService, catalogService),
		handlers.NewPlayerHandler(playerManager),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	playerManager.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Printf("Record store close error: %v", err)
		}
	}

	log.Println("✅ Shutdown complete")
}
