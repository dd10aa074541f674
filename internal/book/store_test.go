package book

import (
	"sync"
	"testing"
	"time"

	"github.com/jmorales/arbiscan/internal/domain"
)

func snap(venue, symbol string, bid, ask float64, at time.Time) domain.OrderBookSnapshot {
	return domain.OrderBookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		BestBid:   domain.PriceLevel{Price: bid, Qty: 1},
		BestAsk:   domain.PriceLevel{Price: ask, Qty: 1},
		UpdatedAt: at,
	}
}

func TestUpdateAndGet(t *testing.T) {
	s := NewStore()
	now := time.Now()

	if _, ok := s.Get("binance", "BTC/USDT"); ok {
		t.Fatal("unwritten key should not be found")
	}
	if !s.Update(snap("binance", "BTC/USDT", 100, 101, now)) {
		t.Fatal("first update should apply")
	}
	got, ok := s.Get("binance", "BTC/USDT")
	if !ok {
		t.Fatal("expected snapshot after update")
	}
	if got.BestBid.Price != 100 || got.BestAsk.Price != 101 {
		t.Fatalf("got bid=%v ask=%v, want 100/101", got.BestBid.Price, got.BestAsk.Price)
	}
}

func TestUpdateRejectsOlder(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Update(snap("binance", "BTC/USDT", 100, 101, now))
	if s.Update(snap("binance", "BTC/USDT", 90, 91, now.Add(-time.Second))) {
		t.Fatal("older snapshot should be rejected")
	}
	got, _ := s.Get("binance", "BTC/USDT")
	if got.BestBid.Price != 100 {
		t.Fatalf("stale write leaked through: bid=%v", got.BestBid.Price)
	}

	// Same timestamp is not older and must apply.
	if !s.Update(snap("binance", "BTC/USDT", 102, 103, now)) {
		t.Fatal("equal-timestamp snapshot should apply")
	}
}

func TestUpdateRejectsInvalid(t *testing.T) {
	s := NewStore()
	bad := snap("binance", "BTC/USDT", 0, 101, time.Now())
	if s.Update(bad) {
		t.Fatal("invalid snapshot should be rejected")
	}
	if _, ok := s.Get("binance", "BTC/USDT"); ok {
		t.Fatal("invalid snapshot must not be readable")
	}
	if s.Len() != 0 {
		t.Fatalf("invalid snapshot must not create a key, Len=%d", s.Len())
	}
}

func TestAllForSymbolSorted(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Update(snap("bybit", "BTC/USDT", 100, 101, now))
	s.Update(snap("binance", "BTC/USDT", 99, 100, now))
	s.Update(snap("binance", "ETH/USDT", 50, 51, now))

	books := s.AllForSymbol("BTC/USDT")
	if len(books) != 2 {
		t.Fatalf("got %d books, want 2", len(books))
	}
	if books[0].Venue != "binance" || books[1].Venue != "bybit" {
		t.Fatalf("venues not sorted: %s, %s", books[0].Venue, books[1].Venue)
	}
}

func TestAllForVenueSorted(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Update(snap("binance", "ETH/USDT", 50, 51, now))
	s.Update(snap("binance", "BTC/USDT", 100, 101, now))
	s.Update(snap("bybit", "BTC/USDT", 100, 101, now))

	snaps := s.AllForVenue("binance")
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].Symbol != "BTC/USDT" || snaps[1].Symbol != "ETH/USDT" {
		t.Fatalf("symbols not sorted: %s, %s", snaps[0].Symbol, snaps[1].Symbol)
	}
}

// TestConcurrentReadersNeverSeeTornSnapshot hammers one key from several
// writers while readers verify that bid and ask always come from the same
// write (every writer keeps ask = bid + 1).
func TestConcurrentReadersNeverSeeTornSnapshot(t *testing.T) {
	s := NewStore()
	base := time.Now()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				bid := float64(1 + i*4 + w)
				s.Update(snap("binance", "BTC/USDT", bid, bid+1, base.Add(time.Duration(i)*time.Millisecond)))
			}
		}(w)
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, ok := s.Get("binance", "BTC/USDT")
				if ok && got.BestAsk.Price != got.BestBid.Price+1 {
					t.Errorf("torn read: bid=%v ask=%v", got.BestBid.Price, got.BestAsk.Price)
					return
				}
				for _, vb := range s.AllForSymbol("BTC/USDT") {
					if vb.Snapshot.BestAsk.Price != vb.Snapshot.BestBid.Price+1 {
						t.Errorf("torn read via AllForSymbol: bid=%v ask=%v",
							vb.Snapshot.BestBid.Price, vb.Snapshot.BestAsk.Price)
						return
					}
				}
			}
		}()
	}

	// Let writers finish, then release the readers.
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	time.Sleep(50 * time.Millisecond)
	close(stop)
	<-done
}
