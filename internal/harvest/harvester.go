package harvest

import (
	"context"
	"sync"
	"time"

	"oiscan/internal/market"
	"oiscan/logger"
)

// Progress is invoked once per symbol as lookups complete, in completion
// order. completed increases monotonically and the final call observes
// completed == total.
type Progress func(completed, total int)

// Harvester fans per-symbol open-interest lookups out over a bounded worker
// pool. There is no single-shot endpoint for open interest, so a full-market
// scan is O(N) round trips; the pool bound keeps the burst inside the
// exchange's abuse limits.
type Harvester struct {
	client      market.Client
	concurrency int
	log         *logger.Log
}

// NewHarvester creates a harvester with the given concurrency ceiling.
func NewHarvester(client market.Client, concurrency int) *Harvester {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Harvester{
		client:      client,
		concurrency: concurrency,
		log:         logger.GetLogger(),
	}
}

// Harvest fetches open interest for every symbol and returns the successful
// amounts keyed by symbol. Per-symbol failures are dropped at the task
// boundary: partial results are the normal outcome, never an error. The pool
// is created for this call and fully drained before it returns.
func (h *Harvester) Harvest(ctx context.Context, symbols []string, onProgress Progress) map[string]float64 {
	total := len(symbols)
	results := make(map[string]float64, total)
	if total == 0 {
		return results
	}

	log := h.log.WithComponent("harvester")

	workers := h.concurrency
	if workers > total {
		workers = total
	}

	start := time.Now()

	jobs := make(chan string)
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
		failed    int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				record, err := h.client.FetchOpenInterest(ctx, symbol)

				// The mutex serializes the result merge and the
				// progress callback, which keeps the reported count
				// strictly monotonic.
				mu.Lock()
				if err != nil {
					failed++
					log.WithError(err).WithFields(logger.Fields{
						"symbol": symbol,
					}).Debug("open-interest lookup dropped")
				} else {
					results[symbol] = record.Amount
				}
				completed++
				if onProgress != nil {
					onProgress(completed, total)
				}
				mu.Unlock()
			}
		}()
	}

	// Workers drain the channel even when the context is cancelled: the
	// client fails fast in that case and the failures still count toward
	// completion, so feeding never blocks indefinitely.
	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start)
	fetched := len(results)

	logger.IncrementSymbolsFetched(fetched)
	logger.IncrementSymbolsFailed(failed)
	log.LogMetric("harvester", "symbols_fetched", int64(fetched), "counter", logger.Fields{})
	log.LogMetric("harvester", "symbols_failed", int64(failed), "counter", logger.Fields{})
	logger.LogPerformanceEntry(log, "harvester", "harvest", duration, logger.Fields{
		"symbols": total,
		"workers": workers,
	})

	return results
}
