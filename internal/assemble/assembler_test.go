package assemble

import (
	"reflect"
	"testing"

	"oiscan/config"
	"oiscan/internal/models"
)

func newTestAssembler() *Assembler {
	return NewAssembler(config.ScannerConfig{
		Concurrency:          20,
		MinQuoteVolume:       10000,
		MinOpenInterestValue: 10000,
	}, "USDT")
}

func ticker(symbol string, price, change, volume float64) models.TickerRecord {
	return models.TickerRecord{
		Symbol:             symbol,
		LastPrice:          price,
		PriceChangePercent: change,
		QuoteVolume:        volume,
	}
}

func TestAssembleExampleRow(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"BTC/USDT": ticker("BTC/USDT", 50000, 2.5, 2000000),
	}
	funding := map[string]float64{"BTCUSDT": 0.0001}
	oi := map[string]float64{"BTC/USDT": 100}

	rows, stats := a.Assemble(tickers, funding, oi)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", row.Symbol)
	}
	if row.Price != 50000 || row.PriceChangePercent != 2.5 || row.QuoteVolume != 2000000 {
		t.Errorf("unexpected ticker fields: %+v", row)
	}
	if row.OpenInterestValue != 5000000 {
		t.Errorf("OpenInterestValue = %v, want 5000000", row.OpenInterestValue)
	}
	if row.OIVolumeRatio != 2.5 {
		t.Errorf("OIVolumeRatio = %v, want 2.5", row.OIVolumeRatio)
	}
	if row.FundingRate != 0.01 {
		t.Errorf("FundingRate = %v, want 0.01", row.FundingRate)
	}
	if stats.FundingMisses != 0 {
		t.Errorf("FundingMisses = %d, want 0", stats.FundingMisses)
	}
}

func TestAssembleActivityFilter(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"BIG/USDT:USDT":   ticker("BIG/USDT:USDT", 1, 0, 50000), // volume passes
		"HELD/USDT:USDT":  ticker("HELD/USDT:USDT", 10, 0, 100), // OI value passes
		"DEAD/USDT:USDT":  ticker("DEAD/USDT:USDT", 1, 0, 100),  // neither passes
		"EDGE/USDT:USDT":  ticker("EDGE/USDT:USDT", 1, 0, 10000), // exactly at threshold: excluded
	}
	oi := map[string]float64{
		"HELD/USDT:USDT": 2000, // 20000 quote value
		"DEAD/USDT:USDT": 50,
	}

	rows, stats := a.Assemble(tickers, nil, oi)

	got := map[string]bool{}
	for _, r := range rows {
		got[r.Symbol] = true
		if !(r.QuoteVolume > 10000 || r.OpenInterestValue > 10000) {
			t.Errorf("row %s fails the inclusion invariant: %+v", r.Symbol, r)
		}
	}
	if !got["BIG"] || !got["HELD"] {
		t.Errorf("expected BIG and HELD in output, got %v", got)
	}
	if got["DEAD"] || got["EDGE"] {
		t.Errorf("low-activity rows leaked through: %v", got)
	}
	if stats.Filtered != 2 {
		t.Errorf("Filtered = %d, want 2", stats.Filtered)
	}
}

func TestAssembleZeroVolumeRatio(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"IDLE/USDT:USDT": ticker("IDLE/USDT:USDT", 5, 0, 0),
	}
	oi := map[string]float64{"IDLE/USDT:USDT": 100000} // 500000 quote value

	rows, _ := a.Assemble(tickers, nil, oi)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].OIVolumeRatio != 0 {
		t.Fatalf("ratio with zero volume = %v, want exactly 0", rows[0].OIVolumeRatio)
	}
}

func TestAssembleSortedAndDeterministic(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"AAA/USDT:USDT": ticker("AAA/USDT:USDT", 1, 0, 100000),
		"BBB/USDT:USDT": ticker("BBB/USDT:USDT", 1, 0, 100000),
		"CCC/USDT:USDT": ticker("CCC/USDT:USDT", 1, 0, 100000),
		"DDD/USDT:USDT": ticker("DDD/USDT:USDT", 1, 0, 100000),
	}
	oi := map[string]float64{
		"AAA/USDT:USDT": 50000,
		"BBB/USDT:USDT": 200000,
		"CCC/USDT:USDT": 50000, // ties with AAA
		"DDD/USDT:USDT": 300000,
	}

	first, _ := a.Assemble(tickers, nil, oi)

	for i := 1; i < len(first); i++ {
		if first[i-1].OIVolumeRatio < first[i].OIVolumeRatio {
			t.Fatalf("rows not sorted by ratio descending: %v then %v",
				first[i-1].OIVolumeRatio, first[i].OIVolumeRatio)
		}
	}
	if first[0].Symbol != "DDD" || first[1].Symbol != "BBB" {
		t.Fatalf("unexpected leaders: %s, %s", first[0].Symbol, first[1].Symbol)
	}
	// AAA and CCC tie; stable sort over sorted keys puts AAA first
	if first[2].Symbol != "AAA" || first[3].Symbol != "CCC" {
		t.Fatalf("tie order not deterministic: %s, %s", first[2].Symbol, first[3].Symbol)
	}

	for i := 0; i < 5; i++ {
		again, _ := a.Assemble(tickers, nil, oi)
		if !reflect.DeepEqual(first, again) {
			t.Fatal("repeated assembly produced different output")
		}
	}
}

func TestAssembleFundingDefaultsToZero(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"BTC/USDT:USDT": ticker("BTC/USDT:USDT", 50000, 1, 2000000),
		"ETH/USDT:USDT": ticker("ETH/USDT:USDT", 3000, 1, 1000000),
	}

	// simulated funding-endpoint failure: empty map
	rows, stats := a.Assemble(tickers, map[string]float64{}, nil)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.FundingRate != 0 {
			t.Errorf("row %s funding = %v, want 0", r.Symbol, r.FundingRate)
		}
	}
	if stats.FundingMisses != 2 {
		t.Errorf("FundingMisses = %d, want 2", stats.FundingMisses)
	}
}

func TestAssembleMissingOpenInterest(t *testing.T) {
	a := newTestAssembler()

	tickers := map[string]models.TickerRecord{
		"BTC/USDT:USDT": ticker("BTC/USDT:USDT", 50000, 1, 2000000),
	}

	rows, _ := a.Assemble(tickers, nil, nil)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].OpenInterestValue != 0 || rows[0].OIVolumeRatio != 0 {
		t.Fatalf("missing OI should zero the derived fields: %+v", rows[0])
	}
}
