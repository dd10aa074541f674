package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmorales/arbiscan/internal/book"
	"github.com/jmorales/arbiscan/internal/detector"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/filter"
	"github.com/jmorales/arbiscan/internal/profit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient serves canned snapshots for subscribed symbols and records which
// symbols were subscribed.
type fakeClient struct {
	venue string
	snaps map[string][]domain.OrderBookSnapshot

	mu         sync.Mutex
	subscribed map[string]int
}

func newFakeClient(venue string) *fakeClient {
	return &fakeClient{
		venue:      venue,
		snaps:      make(map[string][]domain.OrderBookSnapshot),
		subscribed: make(map[string]int),
	}
}

func (f *fakeClient) Venue() string { return f.venue }

func (f *fakeClient) LoadMarkets(ctx context.Context) ([]domain.Market, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) FetchTickers(ctx context.Context) (map[string]domain.TickerSnapshot, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) SubscribeOrderBook(ctx context.Context, symbol string) (<-chan domain.OrderBookSnapshot, error) {
	f.mu.Lock()
	f.subscribed[symbol]++
	f.mu.Unlock()

	out := make(chan domain.OrderBookSnapshot, len(f.snaps[symbol]))
	for _, s := range f.snaps[symbol] {
		out <- s
	}
	// Keep the stream open until the context ends so the watcher does not
	// spin through reconnects during the test.
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func (f *fakeClient) subscribeCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed[symbol]
}

var _ domain.MarketDataClient = (*fakeClient)(nil)

func validSnap(venue, symbol string, bid, ask float64) domain.OrderBookSnapshot {
	return domain.OrderBookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		BestBid:   domain.PriceLevel{Price: bid, Qty: 1},
		BestAsk:   domain.PriceLevel{Price: ask, Qty: 1},
		UpdatedAt: time.Now(),
	}
}

func newTestManager(client *fakeClient, universe *filter.Universe, store *book.Store) *Manager {
	pairwise := detector.NewPairwise(store, profit.NewModel(nil, 0.001, 1), 0.2,
		func(ctx context.Context, opp domain.Opportunity) {}, testLogger())
	return NewManager(
		map[string]domain.MarketDataClient{client.venue: client},
		map[string]map[string]bool{client.venue: {"BTC/USDT": true, "ETH/USDT": true}},
		universe, store, pairwise,
		8, 10*time.Millisecond, 20*time.Millisecond,
		testLogger(),
	)
}

func TestManagerStopsOnCancel(t *testing.T) {
	client := newFakeClient("fake")
	universe := filter.NewUniverse()
	universe.Replace("fake", []string{"BTC/USDT"})

	m := newTestManager(client, universe, book.NewStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop after cancel")
	}
}

func TestManagerAppliesStreamUpdates(t *testing.T) {
	client := newFakeClient("fake")
	client.snaps["BTC/USDT"] = []domain.OrderBookSnapshot{
		validSnap("fake", "BTC/USDT", 100, 101),
		{Venue: "fake", Symbol: "BTC/USDT", UpdatedAt: time.Now()}, // malformed, dropped
	}
	universe := filter.NewUniverse()
	universe.Replace("fake", []string{"BTC/USDT"})

	store := book.NewStore()
	m := newTestManager(client, universe, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if got, ok := store.Get("fake", "BTC/USDT"); ok && got.BestBid.Price == 100 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestManagerSkipsUncatalogedSymbols(t *testing.T) {
	client := newFakeClient("fake")
	universe := filter.NewUniverse()
	// DOGE/USDT passed the filter but is not in the loaded catalog.
	universe.Replace("fake", []string{"BTC/USDT", "DOGE/USDT"})

	m := newTestManager(client, universe, book.NewStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got := client.subscribeCount("DOGE/USDT"); got != 0 {
		t.Fatalf("uncataloged symbol subscribed %d times", got)
	}
	if got := client.subscribeCount("BTC/USDT"); got == 0 {
		t.Fatal("cataloged symbol never subscribed")
	}
}

func TestManagerSubscribesOncePerSymbol(t *testing.T) {
	client := newFakeClient("fake")
	universe := filter.NewUniverse()
	universe.Replace("fake", []string{"BTC/USDT", "ETH/USDT"})

	m := newTestManager(client, universe, book.NewStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Cover several reconcile passes; streams stay open, so no symbol
	// should gain a second subscription.
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	for _, sym := range []string{"BTC/USDT", "ETH/USDT"} {
		if got := client.subscribeCount(sym); got != 1 {
			t.Fatalf("%s subscribed %d times, want 1", sym, got)
		}
	}
}
