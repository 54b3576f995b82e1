package market

import (
	"context"
	"fmt"

	"oiscan/internal/models"
)

// Client is the read-only market snapshot capability a scan consumes. All
// three operations hit the exchange REST surface; none of them retries
// internally.
type Client interface {
	// FetchAllTickers returns the 24h snapshot for every eligible perpetual,
	// keyed by unified symbol. A failure here is fatal to the scan and is
	// reported as a *TransportError.
	FetchAllTickers(ctx context.Context) (map[string]models.TickerRecord, error)

	// FetchFundingSnapshot returns last funding rates keyed by the raw
	// exchange symbol form. Funding is best effort: any failure yields an
	// empty map, never an error.
	FetchFundingSnapshot(ctx context.Context) map[string]float64

	// FetchOpenInterest looks up current open interest for one unified
	// symbol. Failures are reported as a *LookupError.
	FetchOpenInterest(ctx context.Context, symbol string) (models.OpenInterestRecord, error)
}

// TransportError marks a failure of a baseline snapshot call. Without the
// ticker baseline no partial scan result is meaningful, so callers abort.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LookupError marks a failed per-symbol lookup. Harvest tasks drop these and
// carry on; one dead symbol must not void the other 299.
type LookupError struct {
	Symbol string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed for %s: %v", e.Symbol, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
