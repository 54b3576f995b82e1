package harvest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"oiscan/internal/market"
	"oiscan/internal/models"
)

// fakeClient implements market.Client with configurable per-symbol failures
// and an artificial delay, instrumenting how many lookups run at once.
type fakeClient struct {
	failing map[string]bool
	delay   time.Duration

	inFlight    int64
	maxInFlight int64
}

func (f *fakeClient) FetchAllTickers(context.Context) (map[string]models.TickerRecord, error) {
	return nil, nil
}

func (f *fakeClient) FetchFundingSnapshot(context.Context) map[string]float64 {
	return map[string]float64{}
}

func (f *fakeClient) FetchOpenInterest(ctx context.Context, symbol string) (models.OpenInterestRecord, error) {
	current := atomic.AddInt64(&f.inFlight, 1)
	for {
		max := atomic.LoadInt64(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt64(&f.maxInFlight, max, current) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	atomic.AddInt64(&f.inFlight, -1)

	if ctx.Err() != nil {
		return models.OpenInterestRecord{}, &market.LookupError{Symbol: symbol, Err: ctx.Err()}
	}
	if f.failing[symbol] {
		return models.OpenInterestRecord{}, &market.LookupError{Symbol: symbol, Err: fmt.Errorf("unknown symbol")}
	}
	return models.OpenInterestRecord{Symbol: symbol, Amount: 100, Time: time.Now()}, nil
}

func symbolList(n int) []string {
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%03d/USDT:USDT", i)
	}
	return symbols
}

func TestHarvestPartialFailure(t *testing.T) {
	symbols := symbolList(30)
	failing := map[string]bool{
		symbols[3]:  true,
		symbols[11]: true,
		symbols[29]: true,
	}
	client := &fakeClient{failing: failing}

	var (
		mu    sync.Mutex
		calls []int
	)
	h := NewHarvester(client, 8)
	results := h.Harvest(context.Background(), symbols, func(completed, total int) {
		if total != len(symbols) {
			t.Errorf("progress total = %d, want %d", total, len(symbols))
		}
		mu.Lock()
		calls = append(calls, completed)
		mu.Unlock()
	})

	if len(results) != len(symbols)-len(failing) {
		t.Fatalf("got %d results, want %d", len(results), len(symbols)-len(failing))
	}
	for s := range failing {
		if _, ok := results[s]; ok {
			t.Errorf("failed symbol %s present in results", s)
		}
	}

	if len(calls) != len(symbols) {
		t.Fatalf("progress fired %d times, want %d", len(calls), len(symbols))
	}
	for i, c := range calls {
		if c != i+1 {
			t.Fatalf("progress not monotonic at call %d: got %d", i, c)
		}
	}
	if calls[len(calls)-1] != len(symbols) {
		t.Fatalf("final progress = %d, want %d", calls[len(calls)-1], len(symbols))
	}
}

func TestHarvestConcurrencyBound(t *testing.T) {
	for _, concurrency := range []int{1, 5, 20} {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			client := &fakeClient{delay: 2 * time.Millisecond}
			h := NewHarvester(client, concurrency)

			results := h.Harvest(context.Background(), symbolList(60), nil)

			if len(results) != 60 {
				t.Fatalf("got %d results, want 60", len(results))
			}
			if max := atomic.LoadInt64(&client.maxInFlight); max > int64(concurrency) {
				t.Fatalf("observed %d concurrent lookups, ceiling is %d", max, concurrency)
			}
		})
	}
}

func TestHarvestEmptyInput(t *testing.T) {
	h := NewHarvester(&fakeClient{}, 20)

	done := make(chan map[string]float64, 1)
	go func() {
		done <- h.Harvest(context.Background(), nil, func(int, int) {
			t.Error("progress fired for empty input")
		})
	}()

	select {
	case results := <-done:
		if results == nil || len(results) != 0 {
			t.Fatalf("want empty non-nil map, got %v", results)
		}
	case <-time.After(time.Second):
		t.Fatal("harvest of empty input did not return")
	}
}

func TestHarvestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{}
	h := NewHarvester(client, 4)

	var calls int64
	results := h.Harvest(ctx, symbolList(10), func(completed, total int) {
		atomic.AddInt64(&calls, 1)
	})

	// every job still completes (as a failure), keeping the progress
	// invariant intact
	if got := atomic.LoadInt64(&calls); got != 10 {
		t.Fatalf("progress fired %d times, want 10", got)
	}
	if len(results) != 0 {
		t.Fatalf("cancelled harvest returned %d results", len(results))
	}
}

func TestNewHarvesterClampsConcurrency(t *testing.T) {
	h := NewHarvester(&fakeClient{}, 0)
	if h.concurrency != 1 {
		t.Fatalf("concurrency = %d, want 1", h.concurrency)
	}
}
