package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardledger/pricefeed-go/pkg/config"
	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/cache"
	"github.com/cardledger/pricefeed-go/pkg/pricing/refresh"
	"github.com/cardledger/pricefeed-go/pkg/pricing/sources"
	"github.com/cardledger/pricefeed-go/pkg/server/api"
	"github.com/cardledger/pricefeed-go/pkg/store"
	"github.com/cardledger/pricefeed-go/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
	runOnce    = flag.Bool("once", false, "Run a single inventory refresh and exit")
	force      = flag.Bool("force", false, "Bypass the skip window and result cache (with -once)")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("pricefeed-go version %s\n", version.Version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("Starting pricefeed-go", "version", version.Version)

	// Initialize metrics
	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.ServeHTTP(cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the inventory store
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer pool.Close()

	itemStore := store.NewItemStore(pool, logger)

	// Initialize source adapters in trust-priority order
	adapters := buildAdapters(cfg, logger)
	if len(adapters) == 0 {
		logger.Fatal("No price sources available")
	}

	// Build the refresh engine
	resultCache := cache.New(cfg.Refresh.CacheTTL.ToDuration())
	refresher := refresh.NewRefresher(adapters, resultCache, itemStore, itemStore, logger)

	// Start WebSocket progress stream if enabled
	var wsServer *api.WebSocketServer
	progress := refresh.ProgressFunc(nil)
	if cfg.Server.WebSocket.Enabled {
		wsServer = api.NewWebSocketServer(cfg.Server.WebSocket.Addr, logger)
		progress = wsServer.SendProgress
		go func() {
			if err := wsServer.Start(ctx); err != nil {
				logger.Error("WebSocket server error", "error", err)
			}
		}()
	}

	orchestrator := refresh.NewOrchestrator(refresher, refresh.OrchestratorConfig{
		GroupSize:  cfg.Refresh.GroupSize,
		GroupDelay: cfg.Refresh.GroupDelay.ToDuration(),
		SkipWindow: cfg.Refresh.SkipWindow.ToDuration(),
		Progress:   progress,
	}, logger)

	if *runOnce {
		runSingleRefresh(ctx, itemStore, orchestrator, logger, *force)
		return
	}

	// Periodic inventory-wide refresh
	if cfg.Refresh.Auto.Enabled {
		go autoRefreshLoop(ctx, cfg.Refresh.Auto.Interval.ToDuration(), itemStore, orchestrator, logger)
	}

	// Start HTTP server
	server := api.NewServer(cfg.Server.HTTP.Addr, itemStore, refresher, orchestrator, logger)
	if wsServer != nil {
		server.SetWebSocketServer(wsServer)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	// Wait for shutdown signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if wsServer != nil {
		wsServer.Stop()
	}

	logger.Info("Shutdown complete")
}

// buildAdapters creates the enabled source adapters, ordered from most
// to least trusted so selection tiebreaks stay deterministic.
func buildAdapters(cfg *config.Config, logger *logging.Logger) []sources.Adapter {
	configured := make(map[sources.Source]config.SourceConfig, len(cfg.Sources))
	for _, sourceCfg := range cfg.Sources {
		if sourceCfg.Enabled {
			configured[sources.Source(sourceCfg.Name)] = sourceCfg
		}
	}

	var adapters []sources.Adapter
	for _, name := range sources.ByPriority() {
		sourceCfg, ok := configured[name]
		if !ok {
			continue
		}

		// Hand the process logger down to the adapter
		if sourceCfg.Config == nil {
			sourceCfg.Config = make(map[string]interface{})
		}
		sourceCfg.Config["logger"] = logger
		if _, ok := sourceCfg.Config["timeout"]; !ok {
			sourceCfg.Config["timeout"] = cfg.Refresh.AdapterTimeout.ToDuration().String()
		}

		adapter, err := sources.Create(name, sourceCfg.Config)
		if err != nil {
			logger.Warn("Failed to create source", "source", name, "error", err)
			continue
		}

		adapters = append(adapters, adapter)
		logger.Info("Source initialized", "source", name, "weight", sources.Weight(name))
	}

	return adapters
}

// runSingleRefresh performs one inventory-wide refresh and prints the summary.
func runSingleRefresh(ctx context.Context, itemStore *store.ItemStore, orchestrator *refresh.Orchestrator, logger *logging.Logger, force bool) {
	items, err := itemStore.ListItems(ctx)
	if err != nil {
		logger.Fatal("Failed to list items", "error", err)
	}

	summary := orchestrator.RefreshAll(ctx, items, force)
	fmt.Printf("refreshed %d items: %d success, %d failed, %d skipped\n",
		summary.Total, summary.Success, summary.Failed, summary.Skipped)
}

// autoRefreshLoop periodically refreshes the whole inventory.
func autoRefreshLoop(ctx context.Context, interval time.Duration, itemStore *store.ItemStore, orchestrator *refresh.Orchestrator, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, err := itemStore.ListItems(ctx)
			if err != nil {
				logger.Error("Auto refresh: failed to list items", "error", err)
				continue
			}
			summary := orchestrator.RefreshAll(ctx, items, false)
			logger.Info("Auto refresh complete",
				"total", summary.Total,
				"success", summary.Success,
				"failed", summary.Failed,
				"skipped", summary.Skipped)
		}
	}
}
