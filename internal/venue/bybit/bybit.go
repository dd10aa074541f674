// Package bybit implements the market-data collaborator for Bybit spot using
// the v5 REST market endpoints and the public spot ticker websocket.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmorales/arbiscan/internal/domain"
)

const (
	restHost = "https://api.bybit.com"
	wsHost   = "wss://stream.bybit.com/v5/public/spot"

	// pingPeriod keeps the v5 public stream alive; Bybit closes idle
	// connections that do not ping within ~20s.
	pingPeriod = 20 * time.Second

	readWait = 60 * time.Second
)

// Client talks to Bybit v5 spot market data endpoints.
type Client struct {
	restHost string
	wsHost   string
	http     *http.Client
	logger   *slog.Logger

	mu        sync.RWMutex
	toNative  map[string]string // "BTC/USDT" -> "BTCUSDT"
	toUnified map[string]string // "BTCUSDT" -> "BTC/USDT"
}

// NewClient creates a Bybit client with default endpoints.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		restHost:  restHost,
		wsHost:    wsHost,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger.With(slog.String("component", "bybit")),
		toNative:  make(map[string]string),
		toUnified: make(map[string]string),
	}
}

// Venue returns "bybit".
func (c *Client) Venue() string { return "bybit" }

// instrumentsResponse is the subset of GET /v5/market/instruments-info.
type instrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			BaseCoin  string `json:"baseCoin"`
			QuoteCoin string `json:"quoteCoin"`
			Status    string `json:"status"`
		} `json:"list"`
	} `json:"result"`
}

// LoadMarkets fetches the spot instrument catalog and builds the symbol
// translation tables.
func (c *Client) LoadMarkets(ctx context.Context) ([]domain.Market, error) {
	var resp instrumentsResponse
	if err := c.getJSON(ctx, "/v5/market/instruments-info?category=spot", &resp); err != nil {
		return nil, fmt.Errorf("bybit: load markets: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit: load markets: retCode %d: %s", resp.RetCode, resp.RetMsg)
	}

	markets := make([]domain.Market, 0, len(resp.Result.List))
	toNative := make(map[string]string, len(resp.Result.List))
	toUnified := make(map[string]string, len(resp.Result.List))
	for _, inst := range resp.Result.List {
		if inst.Status != "Trading" {
			continue
		}
		unified := inst.BaseCoin + "/" + inst.QuoteCoin
		toNative[unified] = inst.Symbol
		toUnified[inst.Symbol] = unified
		markets = append(markets, domain.Market{
			Venue:  "bybit",
			Symbol: unified,
			Base:   inst.BaseCoin,
			Quote:  inst.QuoteCoin,
		})
	}

	c.mu.Lock()
	c.toNative = toNative
	c.toUnified = toUnified
	c.mu.Unlock()

	return markets, nil
}

// tickersResponse is the subset of GET /v5/market/tickers.
type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol     string `json:"symbol"`
			Bid1Price  string `json:"bid1Price"`
			Ask1Price  string `json:"ask1Price"`
			Turnover24 string `json:"turnover24h"`
		} `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

// FetchTickers returns the current spot tickers keyed by unified symbol.
func (c *Client) FetchTickers(ctx context.Context) (map[string]domain.TickerSnapshot, error) {
	var resp tickersResponse
	if err := c.getJSON(ctx, "/v5/market/tickers?category=spot", &resp); err != nil {
		return nil, fmt.Errorf("bybit: fetch tickers: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit: fetch tickers: retCode %d: %s", resp.RetCode, resp.RetMsg)
	}

	ts := time.UnixMilli(resp.Time)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.TickerSnapshot, len(resp.Result.List))
	for _, t := range resp.Result.List {
		unified, ok := c.toUnified[t.Symbol]
		if !ok {
			continue
		}
		bid, err1 := strconv.ParseFloat(t.Bid1Price, 64)
		ask, err2 := strconv.ParseFloat(t.Ask1Price, 64)
		vol, err3 := strconv.ParseFloat(t.Turnover24, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out[unified] = domain.TickerSnapshot{
			Symbol:      unified,
			Bid:         bid,
			Ask:         ask,
			QuoteVolume: vol,
			Timestamp:   ts,
		}
	}
	return out, nil
}

// tickerMessage is one frame from the tickers.{symbol} topic.
type tickerMessage struct {
	Topic string `json:"topic"`
	Data  struct {
		Symbol    string `json:"symbol"`
		Bid1Price string `json:"bid1Price"`
		Bid1Size  string `json:"bid1Size"`
		Ask1Price string `json:"ask1Price"`
		Ask1Size  string `json:"ask1Size"`
	} `json:"data"`
	Ts int64 `json:"ts"`
}

// SubscribeOrderBook opens a tickers.{symbol} stream for one unified symbol.
// The returned channel closes when the connection drops or ctx is cancelled.
func (c *Client) SubscribeOrderBook(ctx context.Context, symbol string) (<-chan domain.OrderBookSnapshot, error) {
	c.mu.RLock()
	native, ok := c.toNative[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bybit: symbol %s: %w", symbol, domain.ErrNotFound)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsHost, nil)
	if err != nil {
		return nil, fmt.Errorf("bybit: dial: %w", err)
	}

	sub := map[string]any{"op": "subscribe", "args": []string{"tickers." + native}}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bybit: subscribe %s: %w", native, err)
	}

	out := make(chan domain.OrderBookSnapshot, 16)
	go c.pingLoop(ctx, conn)
	go c.readLoop(ctx, conn, symbol, out)
	return out, nil
}

// pingLoop sends the Bybit application-level ping until the stream ends.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"op": "ping"}); err != nil {
				return
			}
		}
	}
}

// readLoop pumps ticker frames into out until the stream dies. Spot ticker
// frames are full snapshots, so partial-field deltas never occur; frames
// with unparseable prices are dropped.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, symbol string, out chan<- domain.OrderBookSnapshot) {
	defer close(out)
	defer conn.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var tm tickerMessage
		if err := json.Unmarshal(msg, &tm); err != nil || tm.Data.Symbol == "" {
			continue
		}
		bid, err1 := strconv.ParseFloat(tm.Data.Bid1Price, 64)
		bidQty, err2 := strconv.ParseFloat(tm.Data.Bid1Size, 64)
		ask, err3 := strconv.ParseFloat(tm.Data.Ask1Price, 64)
		askQty, err4 := strconv.ParseFloat(tm.Data.Ask1Size, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		snap := domain.OrderBookSnapshot{
			Venue:     "bybit",
			Symbol:    symbol,
			BestBid:   domain.PriceLevel{Price: bid, Qty: bidQty},
			BestAsk:   domain.PriceLevel{Price: ask, Qty: askQty},
			UpdatedAt: time.UnixMilli(tm.Ts),
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}
	}
}

// getJSON performs a GET against the REST host and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restHost+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Compile-time interface check.
var _ domain.MarketDataClient = (*Client)(nil)
