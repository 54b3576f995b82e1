package models

import "time"

// TickerRecord is the per-symbol 24h market snapshot used as the baseline of a
// scan. Keys in the ticker map use the unified symbol form (e.g.
// "BTC/USDT:USDT"); records are read-only once fetched.
type TickerRecord struct {
	Symbol string
	// LastPrice is the most recent trade price in the quote currency.
	LastPrice float64
	// PriceChangePercent is the 24h change, already percent scaled.
	PriceChangePercent float64
	// QuoteVolume is the 24h traded volume expressed in the quote currency.
	QuoteVolume float64
}

// OpenInterestRecord holds one successful open-interest lookup. Amount is in
// base-asset units; multiply by price for the notional value.
type OpenInterestRecord struct {
	Symbol string
	Amount float64
	Time   time.Time
}

// MarketRow is one assembled output row. All monetary fields are in the quote
// currency and FundingRate is percent scaled (0.0001 -> 0.01).
type MarketRow struct {
	Symbol             string  `json:"symbol"`
	Price              float64 `json:"price"`
	PriceChangePercent float64 `json:"change_percent"`
	QuoteVolume        float64 `json:"volume_24h"`
	OpenInterestValue  float64 `json:"open_interest_value"`
	OIVolumeRatio      float64 `json:"oi_volume_ratio"`
	FundingRate        float64 `json:"funding_rate"`
}
