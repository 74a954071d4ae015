package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/factory-dashboard/backend/internal/api"
	"github.com/factory-dashboard/backend/internal/chartdata"
	"github.com/factory-dashboard/backend/internal/config"
	"github.com/factory-dashboard/backend/internal/dashboard"
	"github.com/factory-dashboard/backend/internal/feed"
	"github.com/factory-dashboard/backend/internal/history"
	"github.com/factory-dashboard/backend/internal/metrics"
	"github.com/factory-dashboard/backend/internal/persist"
	"github.com/factory-dashboard/backend/internal/registry"
	"github.com/factory-dashboard/backend/internal/store"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Advanced.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.WithError(err).Fatal("failed to create data directories")
	}

	// Dashboard persistence: the gateway keeps dashboards in gateway
	// mode, local JSON files otherwise.
	var persistStore persist.Store
	if cfg.Feed.Mode == config.FeedModeGateway {
		persistStore = persist.NewGatewayStore(cfg.Feed.GatewayURL)
	} else {
		local, err := persist.NewLocalStore(cfg.Storage.DashboardDirectory)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize dashboard store")
		}
		persistStore = local
	}

	// Sample store
	samples := store.NewWithWindow(cfg.Feed.LiveWindowSize)

	// Tag catalog and feed sources per mode
	reg := registry.New()
	var (
		source   feed.Source
		histSrc  feed.HistoricalSource
		archive  *history.Archive
		feedName = cfg.Feed.Mode
	)
	switch cfg.Feed.Mode {
	case config.FeedModeGateway:
		refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := reg.RefreshFromGateway(refreshCtx, cfg.Feed.GatewayURL); err != nil {
			log.WithError(err).Warn("failed to load tag catalog from gateway")
		}
		cancel()
		client := feed.NewGatewayClient(cfg.Feed.GatewayURL)
		source = client
		histSrc = client
	default: // demo
		reg = registry.NewDemo()
		source = feed.NewSimulator(reg.Lookup)
		archive, err = history.Open(cfg.Storage.ArchiveDirectory, log)
		if err != nil {
			log.WithError(err).Fatal("failed to open sample archive")
		}
		histSrc = archive
	}

	coordinator := feed.NewCoordinator(histSrc, samples, log)
	coordinator.SetPendingRetry(cfg.HistoryPendingRetry())

	// Dashboard manager; resume the default saved dashboard if one
	// exists.
	manager := dashboard.NewManagerWithDelay(persistStore, log, cfg.SaveDebounce())
	manager.SetOnSaved(metrics.RecordSave)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if saved, err := persistStore.List(loadCtx); err == nil && len(saved) > 0 {
		selected := saved[0]
		for _, s := range saved {
			if s.IsDefault {
				selected = s
				break
			}
		}
		manager.Load(selected)
		log.WithField("dashboard", selected.Name).Info("resumed saved dashboard")
	}
	cancelLoad()

	builder := chartdata.NewBuilder(samples, reg.Lookup)
	hub := api.NewHub(log)

	// Live poller
	poller := feed.NewPoller(source, samples, cfg.PollInterval(), feedName, log)
	poller.SetTags(reg.TagIDs())
	poller.AddSink(hub.Broadcast)
	if archive != nil {
		poller.AddSink(archive.Record)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go poller.Run(ctx)

	// Gauge refresher
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.TrackedTags.Set(float64(samples.TrackedTags()))
				metrics.ActiveWidgets.Set(float64(manager.WidgetCount()))
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics" ||
				strings.HasPrefix(path, "/api/data/current")
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

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
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Samples: samples,
		Catalog: reg,
		Manager: manager,
		Builder: builder,
		Persist: persistStore,
		History: coordinator,
		Hub:     hub,
		Version: Version,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Factory Dashboard Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Feed Mode:  %-45s║\n", cfg.Feed.Mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", *configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}

	hub.Close()
	manager.Flush()
	manager.Close()
	if archive != nil {
		if err := archive.Close(); err != nil {
			log.WithError(err).Warn("archive close error")
		}
	}
	log.Info("goodbye")
}
