package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	futures "github.com/adshao/go-binance/v2/futures"
	"github.com/gorilla/websocket"

	"oiscan/config"
	"oiscan/internal/channel/oistream"
	"oiscan/internal/market"
	"oiscan/internal/models"
	"oiscan/logger"
)

// Watcher follows live open-interest updates for a fixed set of symbols over
// the futures websocket, typically the top symbols of a completed scan.
type Watcher struct {
	cfg      *config.Config
	channels *oistream.Channels
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log
	symbols  []string
}

// NewWatcher constructs a watcher for the given unified symbols.
func NewWatcher(cfg *config.Config, ch *oistream.Channels, symbols []string) *Watcher {
	return &Watcher{
		cfg:      cfg,
		channels: ch,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
		symbols:  symbols,
	}
}

// Start launches one websocket subscription per symbol.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("open-interest watcher already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	if len(w.symbols) == 0 {
		return fmt.Errorf("no symbols to watch")
	}

	for _, symbol := range w.symbols {
		raw := market.RawSymbol(symbol, w.cfg.Exchange.QuoteAsset)
		w.wg.Add(1)
		go w.streamSymbol(raw)
	}

	w.log.WithComponent("oi_watcher").WithFields(logger.Fields{
		"symbols": strings.Join(w.symbols, ","),
	}).Info("open-interest watcher started")
	return nil
}

// Stop waits for all websocket workers to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.WithComponent("oi_watcher").Info("stopping open-interest watcher")
	w.wg.Wait()
	w.log.WithComponent("oi_watcher").Info("open-interest watcher stopped")
}

type openInterestEvent struct {
	Event        string `json:"e"`
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	OpenInterest string `json:"o"`
	HoldValue    string `json:"h"`
}

func (w *Watcher) streamSymbol(symbol string) {
	defer w.wg.Done()

	baseURL := strings.TrimSpace(w.cfg.Exchange.WsURL)
	if baseURL == "" {
		baseURL = futures.BaseWsMainUrl
	}
	baseURL = strings.TrimRight(baseURL, "/")

	reconnect := w.cfg.Watch.ReconnectDelay()
	if reconnect <= 0 {
		reconnect = 5 * time.Second
	}

	intervalSuffix := ""
	if interval := w.cfg.Watch.StreamInterval(); interval >= time.Second {
		intervalSuffix = fmt.Sprintf("@%ds", int(interval/time.Second))
	}

	endpoint := fmt.Sprintf("%s/%s@openInterest%s", baseURL, strings.ToLower(symbol), intervalSuffix)

	dialer := websocket.Dialer{}

	log := w.log.WithComponent("oi_watcher").WithFields(logger.Fields{
		"symbol":   symbol,
		"endpoint": endpoint,
	})

	for {
		if w.ctx.Err() != nil {
			return
		}

		conn, _, err := dialer.Dial(endpoint, nil)
		if err != nil {
			log.WithError(err).Warn("failed to connect to open-interest stream")
			select {
			case <-time.After(reconnect):
				continue
			case <-w.ctx.Done():
				return
			}
		}

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				conn.Close()
				log.WithError(err).Warn("open-interest stream error, reconnecting")
				break
			}
			w.handleMessage(raw, symbol)
		}

		select {
		case <-time.After(reconnect):
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleMessage(raw []byte, symbol string) {
	var evt openInterestEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		w.log.WithComponent("oi_watcher").WithError(err).Debug("failed to decode open-interest payload")
		return
	}

	amount, _ := strconv.ParseFloat(evt.OpenInterest, 64)
	valueUSD, _ := strconv.ParseFloat(evt.HoldValue, 64)
	eventTime := time.UnixMilli(evt.EventTime)
	if evt.EventTime == 0 {
		eventTime = time.Now().UTC()
	}

	update := models.OpenInterestUpdate{
		Symbol:    strings.ToUpper(symbol),
		Amount:    amount,
		ValueUSD:  valueUSD,
		Timestamp: eventTime,
	}

	if w.channels.SendUpdate(w.ctx, update) {
		logger.IncrementStreamUpdate(len(raw))
	} else if w.ctx.Err() == nil {
		w.log.WithComponent("oi_watcher").WithFields(logger.Fields{
			"symbol": update.Symbol,
		}).Warn("dropping open-interest update due to backpressure")
	}
}
