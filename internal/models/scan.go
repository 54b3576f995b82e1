package models

import "time"

// ScanResult bundles the ordered rows of one completed market scan together
// with bookkeeping about how the scan went. Results are never cached; every
// scan produces a fresh one.
type ScanResult struct {
	ScanID        string        `json:"scan_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Rows          []MarketRow   `json:"rows"`
	SymbolsTotal  int           `json:"symbols_total"`
	SymbolsFailed int           `json:"symbols_failed"`
	FundingMisses int           `json:"funding_misses"`
}

// OpenInterestUpdate is a single live open-interest observation delivered by
// the websocket watcher.
type OpenInterestUpdate struct {
	Symbol    string
	Amount    float64
	ValueUSD  float64
	Timestamp time.Time
}
