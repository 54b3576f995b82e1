package scan

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"oiscan/config"
	"oiscan/internal/assemble"
	"oiscan/internal/harvest"
	"oiscan/internal/market"
	"oiscan/internal/models"
	"oiscan/logger"
)

// Options tune a single scan without touching the configuration.
type Options struct {
	// Concurrency overrides the configured worker ceiling when positive.
	Concurrency int
	// OnProgress receives harvest completion updates.
	OnProgress harvest.Progress
}

// Scanner runs full-market scans: ticker baseline, funding snapshot, bounded
// open-interest harvest, then assembly into the ordered row set. Scanners
// hold no state between runs; every result is built from scratch.
type Scanner struct {
	cfg       *config.Config
	client    market.Client
	assembler *assemble.Assembler
	log       *logger.Log
}

// NewScanner wires a scanner over the given snapshot client.
func NewScanner(cfg *config.Config, client market.Client) *Scanner {
	return &Scanner{
		cfg:       cfg,
		client:    client,
		assembler: assemble.NewAssembler(cfg.Scanner, cfg.Exchange.QuoteAsset),
		log:       logger.GetLogger(),
	}
}

// Run executes one scan. Only a ticker-snapshot failure aborts it; funding
// and per-symbol open-interest failures degrade to zeros in the result.
func (s *Scanner) Run(ctx context.Context, opts Options) (*models.ScanResult, error) {
	start := time.Now()
	scanID := uuid.New().String()

	log := s.log.WithComponent("scanner").WithFields(logger.Fields{"scan_id": scanID})
	log.Info("starting market scan")

	tickers, err := s.client.FetchAllTickers(ctx)
	if err != nil {
		log.WithError(err).Error("ticker snapshot failed, aborting scan")
		return nil, err
	}

	funding := s.client.FetchFundingSnapshot(ctx)

	symbols := make([]string, 0, len(tickers))
	for symbol := range tickers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	concurrency := s.cfg.Scanner.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	harvester := harvest.NewHarvester(s.client, concurrency)
	oi := harvester.Harvest(ctx, symbols, opts.OnProgress)

	rows, stats := s.assembler.Assemble(tickers, funding, oi)

	duration := time.Since(start)
	result := &models.ScanResult{
		ScanID:        scanID,
		StartedAt:     start.UTC(),
		Duration:      duration,
		Rows:          rows,
		SymbolsTotal:  len(symbols),
		SymbolsFailed: len(symbols) - len(oi),
		FundingMisses: stats.FundingMisses,
	}

	logger.IncrementScanCompleted()
	log.LogMetric("scanner", "scan_rows", int64(len(rows)), "gauge", logger.Fields{})
	logger.LogPerformanceEntry(log, "scanner", "scan", duration, logger.Fields{
		"symbols":        result.SymbolsTotal,
		"failed":         result.SymbolsFailed,
		"rows":           len(rows),
		"funding_misses": stats.FundingMisses,
		"concurrency":    concurrency,
	})

	if stats.FundingMisses > 0 && len(funding) > 0 {
		// Misses against a healthy funding snapshot usually mean a symbol
		// normalization mismatch rather than genuinely absent data.
		log.WithFields(logger.Fields{"funding_misses": stats.FundingMisses}).
			Debug("funding keys missing for some tickers")
	}

	log.WithFields(logger.Fields{
		"rows":     len(rows),
		"duration": duration.String(),
	}).Info("market scan completed")

	return result, nil
}
