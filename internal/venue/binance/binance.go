// Package binance implements the market-data collaborator for Binance spot:
// REST catalog and 24h tickers plus a per-symbol bookTicker websocket stream.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmorales/arbiscan/internal/domain"
)

const (
	restHost = "https://api.binance.com"
	wsHost   = "wss://stream.binance.com:9443/ws"

	// pongWait bounds how long a stream may stay silent before the read
	// loop treats the connection as dead.
	pongWait = 90 * time.Second
)

// Client talks to Binance spot market data endpoints.
type Client struct {
	restHost string
	wsHost   string
	http     *http.Client
	logger   *slog.Logger

	mu        sync.RWMutex
	toNative  map[string]string // "BTC/USDT" -> "BTCUSDT"
	toUnified map[string]string // "BTCUSDT" -> "BTC/USDT"
}

// NewClient creates a Binance client with default endpoints.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		restHost:  restHost,
		wsHost:    wsHost,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger.With(slog.String("component", "binance")),
		toNative:  make(map[string]string),
		toUnified: make(map[string]string),
	}
}

// Venue returns "binance".
func (c *Client) Venue() string { return "binance" }

// exchangeInfo is the subset of GET /api/v3/exchangeInfo we decode.
type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// LoadMarkets fetches the spot catalog and builds the symbol translation
// tables used by FetchTickers and SubscribeOrderBook.
func (c *Client) LoadMarkets(ctx context.Context) ([]domain.Market, error) {
	var info exchangeInfo
	if err := c.getJSON(ctx, "/api/v3/exchangeInfo", &info); err != nil {
		return nil, fmt.Errorf("binance: load markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(info.Symbols))
	toNative := make(map[string]string, len(info.Symbols))
	toUnified := make(map[string]string, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		unified := s.BaseAsset + "/" + s.QuoteAsset
		toNative[unified] = s.Symbol
		toUnified[s.Symbol] = unified
		markets = append(markets, domain.Market{
			Venue:  "binance",
			Symbol: unified,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
		})
	}

	c.mu.Lock()
	c.toNative = toNative
	c.toUnified = toUnified
	c.mu.Unlock()

	return markets, nil
}

// ticker24h is one element of GET /api/v3/ticker/24hr.
type ticker24h struct {
	Symbol      string `json:"symbol"`
	BidPrice    string `json:"bidPrice"`
	AskPrice    string `json:"askPrice"`
	QuoteVolume string `json:"quoteVolume"`
	CloseTime   int64  `json:"closeTime"`
}

// FetchTickers returns the current 24h tickers keyed by unified symbol.
// Symbols outside the loaded catalog are dropped.
func (c *Client) FetchTickers(ctx context.Context) (map[string]domain.TickerSnapshot, error) {
	var raw []ticker24h
	if err := c.getJSON(ctx, "/api/v3/ticker/24hr", &raw); err != nil {
		return nil, fmt.Errorf("binance: fetch tickers: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.TickerSnapshot, len(raw))
	for _, t := range raw {
		unified, ok := c.toUnified[t.Symbol]
		if !ok {
			continue
		}
		bid, err1 := strconv.ParseFloat(t.BidPrice, 64)
		ask, err2 := strconv.ParseFloat(t.AskPrice, 64)
		vol, err3 := strconv.ParseFloat(t.QuoteVolume, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out[unified] = domain.TickerSnapshot{
			Symbol:      unified,
			Bid:         bid,
			Ask:         ask,
			QuoteVolume: vol,
			Timestamp:   time.UnixMilli(t.CloseTime),
		}
	}
	return out, nil
}

// bookTicker is the payload of the <symbol>@bookTicker stream.
type bookTicker struct {
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// SubscribeOrderBook opens a bookTicker stream for one unified symbol. The
// returned channel closes when the connection drops or ctx is cancelled; the
// caller owns reconnection.
func (c *Client) SubscribeOrderBook(ctx context.Context, symbol string) (<-chan domain.OrderBookSnapshot, error) {
	c.mu.RLock()
	native, ok := c.toNative[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("binance: symbol %s: %w", symbol, domain.ErrNotFound)
	}

	url := c.wsHost + "/" + strings.ToLower(native) + "@bookTicker"
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: dial %s: %w", url, err)
	}

	out := make(chan domain.OrderBookSnapshot, 16)
	go c.readLoop(ctx, conn, symbol, out)
	return out, nil
}

// readLoop pumps bookTicker frames into out until the stream dies. Binance
// pings the client; the ping handler answers with a pong and refreshes the
// read deadline.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, symbol string, out chan<- domain.OrderBookSnapshot) {
	defer close(out)
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var bt bookTicker
		if err := json.Unmarshal(msg, &bt); err != nil || bt.Symbol == "" {
			continue
		}
		snap, ok := c.toSnapshot(symbol, bt)
		if !ok {
			continue
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}
	}
}

// toSnapshot converts a bookTicker frame. Malformed fields drop the frame.
func (c *Client) toSnapshot(symbol string, bt bookTicker) (domain.OrderBookSnapshot, bool) {
	bid, err1 := strconv.ParseFloat(bt.BidPrice, 64)
	bidQty, err2 := strconv.ParseFloat(bt.BidQty, 64)
	ask, err3 := strconv.ParseFloat(bt.AskPrice, 64)
	askQty, err4 := strconv.ParseFloat(bt.AskQty, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return domain.OrderBookSnapshot{}, false
	}
	return domain.OrderBookSnapshot{
		Venue:     "binance",
		Symbol:    symbol,
		BestBid:   domain.PriceLevel{Price: bid, Qty: bidQty},
		BestAsk:   domain.PriceLevel{Price: ask, Qty: askQty},
		UpdatedAt: time.Now().UTC(),
	}, true
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
