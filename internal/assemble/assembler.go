package assemble

import (
	"sort"

	"oiscan/config"
	"oiscan/internal/market"
	"oiscan/internal/models"
)

// Stats describes what the assembler left out of the result set.
type Stats struct {
	// FundingMisses counts tickers whose funding-lookup key had no entry in
	// the funding snapshot. A nonzero count with a healthy funding fetch
	// points at symbol-normalization drift.
	FundingMisses int
	// Filtered counts tickers rejected by the activity filter.
	Filtered int
}

// Assembler joins the three scan inputs into the ordered row set. It performs
// no I/O; everything it needs arrives as arguments.
type Assembler struct {
	quoteAsset string
	minVolume  float64
	minOIValue float64
}

// NewAssembler builds an assembler using the scanner thresholds.
func NewAssembler(cfg config.ScannerConfig, quoteAsset string) *Assembler {
	return &Assembler{
		quoteAsset: quoteAsset,
		minVolume:  cfg.MinQuoteVolume,
		minOIValue: cfg.MinOpenInterestValue,
	}
}

// Assemble produces one row per ticker symbol that passes the activity
// filter, sorted by OI/Vol ratio descending. Missing open interest counts as
// zero and missing funding defaults to zero; neither is an error.
func (a *Assembler) Assemble(
	tickers map[string]models.TickerRecord,
	funding map[string]float64,
	oi map[string]float64,
) ([]models.MarketRow, Stats) {
	var stats Stats

	// Ticker maps have no iteration order; walking the keys sorted makes
	// the output, including tie ordering after the stable sort, identical
	// across runs on the same input.
	symbols := make([]string, 0, len(tickers))
	for symbol := range tickers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	rows := make([]models.MarketRow, 0, len(symbols))
	for _, symbol := range symbols {
		ticker := tickers[symbol]

		price := ticker.LastPrice
		volume := ticker.QuoteVolume

		oiValue := oi[symbol] * price

		ratio := 0.0
		if volume > 0 {
			ratio = oiValue / volume
		}

		rate, ok := funding[market.RawSymbol(symbol, a.quoteAsset)]
		if !ok {
			stats.FundingMisses++
		}

		if volume <= a.minVolume && oiValue <= a.minOIValue {
			stats.Filtered++
			continue
		}

		rows = append(rows, models.MarketRow{
			Symbol:             market.DisplaySymbol(symbol, a.quoteAsset),
			Price:              price,
			PriceChangePercent: ticker.PriceChangePercent,
			QuoteVolume:        volume,
			OpenInterestValue:  oiValue,
			OIVolumeRatio:      ratio,
			FundingRate:        rate * 100,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OIVolumeRatio > rows[j].OIVolumeRatio
	})

	return rows, stats
}
