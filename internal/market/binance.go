package market

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	futures "github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"oiscan/config"
	"oiscan/internal/models"
	"oiscan/logger"
)

const contractTypePerpetual = "PERPETUAL"

// Binance implements Client against the Binance USDT-margined futures API
// using the binance-go client.
type Binance struct {
	cfg     config.ExchangeConfig
	client  *futures.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// NewBinance creates a snapshot client. All per-symbol lookups share one rate
// limiter so a harvest cannot exceed the configured request budget no matter
// how many workers run.
func NewBinance(cfg config.ExchangeConfig) *Binance {
	transport := &http.Transport{
		MaxIdleConns:        cfg.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.ConnectionPool.IdleConnTimeout(),
		DisableCompression:  false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout(),
	}

	client := futures.NewClient("", "")
	client.HTTPClient = httpClient
	if base := strings.TrimRight(strings.TrimSpace(cfg.RestURL), "/"); base != "" {
		client.SetApiEndpoint(base)
	}

	burst := cfg.RateLimit.BurstSize
	if burst < 1 {
		burst = 1
	}

	b := &Binance{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst),
		log:     logger.GetLogger(),
	}

	b.log.WithComponent("binance_client").WithFields(logger.Fields{
		"quote_asset":         cfg.QuoteAsset,
		"timeout":             cfg.Timeout().String(),
		"requests_per_second": cfg.RateLimit.RequestsPerSecond,
	}).Info("binance snapshot client initialized")

	return b
}

// FetchAllTickers pulls exchange info and the 24h price-change snapshot, then
// joins them into a unified-symbol keyed map restricted to TRADING perpetuals
// in the configured quote asset.
func (b *Binance) FetchAllTickers(ctx context.Context) (map[string]models.TickerRecord, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, &TransportError{Op: "exchange_info", Err: err}
	}

	// raw exchange symbol -> unified symbol, perpetuals only
	unified := make(map[string]string, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.ContractType != contractTypePerpetual || s.Status != "TRADING" {
			continue
		}
		if s.QuoteAsset != b.cfg.QuoteAsset {
			continue
		}
		unified[s.Symbol] = UnifiedSymbol(s.BaseAsset, s.QuoteAsset)
	}

	stats, err := b.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, &TransportError{Op: "ticker_snapshot", Err: err}
	}

	tickers := make(map[string]models.TickerRecord, len(unified))
	for _, st := range stats {
		key, ok := unified[st.Symbol]
		if !ok {
			continue
		}
		tickers[key] = models.TickerRecord{
			Symbol:             key,
			LastPrice:          parseFloat(st.LastPrice),
			PriceChangePercent: parseFloat(st.PriceChangePercent),
			QuoteVolume:        parseFloat(st.QuoteVolume),
		}
	}

	b.log.WithComponent("binance_client").WithFields(logger.Fields{
		"symbols": len(tickers),
	}).Info("fetched ticker snapshot")

	return tickers, nil
}

// FetchFundingSnapshot pulls the premium index for all symbols. Funding is
// best effort; any failure degrades to an empty map and the scan proceeds
// with zeroed rates.
func (b *Binance) FetchFundingSnapshot(ctx context.Context) map[string]float64 {
	funding := make(map[string]float64)

	premiums, err := b.client.NewPremiumIndexService().Do(ctx)
	if err != nil {
		b.log.WithComponent("binance_client").WithError(err).Warn("funding snapshot unavailable, rates default to zero")
		return funding
	}

	for _, p := range premiums {
		funding[p.Symbol] = parseFloat(p.LastFundingRate)
	}
	return funding
}

// FetchOpenInterest looks up current open interest for one unified symbol.
func (b *Binance) FetchOpenInterest(ctx context.Context, symbol string) (models.OpenInterestRecord, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return models.OpenInterestRecord{}, &LookupError{Symbol: symbol, Err: err}
	}

	raw := RawSymbol(symbol, b.cfg.QuoteAsset)
	oi, err := b.client.NewGetOpenInterestService().Symbol(raw).Do(ctx)
	if err != nil {
		return models.OpenInterestRecord{}, &LookupError{Symbol: symbol, Err: err}
	}

	measured := time.UnixMilli(oi.Time)
	if oi.Time == 0 {
		measured = time.Now().UTC()
	}

	return models.OpenInterestRecord{
		Symbol: symbol,
		Amount: parseFloat(oi.OpenInterest),
		Time:   measured,
	}, nil
}

// parseFloat coerces exchange-reported numeric strings, treating anything
// malformed as zero per the partial-data-is-normal policy.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
