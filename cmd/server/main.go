package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drive-merger/backend/internal/api"
	"github.com/drive-merger/backend/internal/config"
	"github.com/drive-merger/backend/internal/dataset"
	"github.com/drive-merger/backend/internal/importer"
	"github.com/drive-merger/backend/internal/runs"
	"github.com/drive-merger/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	configPath := filepath.Join(exeDir, "drive-merger.yaml")
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Storage backend for the raw/archive/extract locations
	store, err := storage.NewLocalStore(cfg.Storage.DataDirectory)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	locs := importer.Locations{
		Raw:     cfg.Locations.Raw,
		Archive: cfg.Locations.Archive,
		Extract: cfg.Locations.Extract,
	}

	cache := importer.NewSnapshotCache()
	imp := importer.New(store, cfg.Storage.ScratchDirectory, cache)
	runsMgr := runs.NewManager(imp)

	// Background cleanup of aged run records
	go func() {
		interval := time.Duration(cfg.Import.CleanupIntervalMinutes) * time.Minute
		maxAge := time.Duration(cfg.Import.RunMaxAgeMinutes) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			runsMgr.CleanupOldRuns(maxAge)
		}
	}()

	// DuckDB mirror for paged dataset queries
	query, err := dataset.NewQueryStore(cfg.Storage.ScratchDirectory)
	if err != nil {
		fmt.Printf("Warning: dataset query mirror unavailable: %v\n", err)
		query = nil
	}

	h := api.NewHandler(store, imp, runsMgr, locs, query, Version)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Server.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// msgpack payloads are already compact
			return c.QueryParam("format") == "msgpack"
		},
	}))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	h.RegisterRoutes(e)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("drive-merger %s (built %s)\n", Version, BuildTime)
	fmt.Printf("  config:  %s\n", configPath)
	fmt.Printf("  data:    %s\n", cfg.Storage.DataDirectory)
	fmt.Printf("  listen:  http://%s\n", cfg.GetServerAddr())
	fmt.Printf("  folders: raw=%s archive=%s extract=%s\n", locs.Raw, locs.Archive, locs.Extract)

	e.Logger.Fatal(e.StartServer(s))
}
