package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"oiscan/config"
	"oiscan/internal/channel/oistream"
	"oiscan/internal/dashboard"
	"oiscan/internal/market"
	"oiscan/internal/models"
	"oiscan/internal/render"
	"oiscan/internal/scan"
	"oiscan/internal/watch"
	"oiscan/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	concurrency := flag.Int("concurrency", 0, "Override the configured open-interest worker count")
	top := flag.Int("top", 0, "Limit the rendered table to the top N rows")
	serve := flag.Bool("serve", false, "Run the web dashboard instead of a one-shot scan")
	watchN := flag.Int("watch", 0, "After the scan, follow the top N symbols on the live stream")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Oiscan.Name,
		"version": cfg.Oiscan.Version,
	}).Info("starting oiscan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.CloudWatchEnabled {
		logger.InitCloudWatch(cfg.Metrics.Region, cfg.Metrics.Namespace)
	}

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	client := market.NewBinance(cfg.Exchange)
	scanner := scan.NewScanner(cfg, client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *serve {
		runServe(ctx, cancel, cfg, scanner, sigChan, log)
		return
	}

	result := runScan(ctx, scanner, *concurrency, *top, log)

	if *watchN > 0 {
		runWatch(ctx, cancel, cfg, result, *watchN, sigChan, log)
	}

	log.Info("oiscan stopped")
}

func runScan(ctx context.Context, scanner *scan.Scanner, concurrency, top int, log *logger.Log) *models.ScanResult {
	progress := render.NewProgressPrinter(os.Stderr)

	result, err := scanner.Run(ctx, scan.Options{
		Concurrency: concurrency,
		OnProgress:  progress.Update,
	})
	if err != nil {
		progress.Clear()
		log.WithError(err).Error("scan failed")
		os.Exit(1)
	}

	if top > 0 && len(result.Rows) > top {
		result.Rows = result.Rows[:top]
	}

	if err := render.NewTableRenderer(os.Stdout).Render(result); err != nil {
		log.WithError(err).Error("failed to render scan result")
		os.Exit(1)
	}

	return result
}

func runServe(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, scanner *scan.Scanner, sigChan chan os.Signal, log *logger.Log) {
	dashCfg := cfg.Dashboard
	dashCfg.Enabled = true

	server := dashboard.NewServer(dashCfg, scanner.Run, log)

	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("dashboard server failed")
		os.Exit(1)
	}

	log.Info("oiscan stopped")
}

func runWatch(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, result *models.ScanResult, n int, sigChan chan os.Signal, log *logger.Log) {
	if n > len(result.Rows) {
		n = len(result.Rows)
	}
	if n == 0 {
		log.Warn("no symbols to watch")
		return
	}

	symbols := make([]string, 0, n)
	for _, row := range result.Rows[:n] {
		symbols = append(symbols, market.UnifiedSymbol(row.Symbol, cfg.Exchange.QuoteAsset))
	}

	channels := oistream.NewChannels(cfg.Watch.Buffer)
	defer channels.Close()

	watcher := watch.NewWatcher(cfg, channels, symbols)
	if err := watcher.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start open-interest watcher")
		os.Exit(1)
	}

	go func() {
		for update := range channels.Updates {
			fmt.Printf("%s  %-12s  oi=%.3f  value=$%.0f\n",
				update.Timestamp.Local().Format("15:04:05"),
				update.Symbol,
				update.Amount,
				update.ValueUSD,
			)
		}
	}()

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()
	watcher.Stop()
}
