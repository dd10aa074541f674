package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmorales/arbiscan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBus struct {
	channels []string
	payloads [][]byte
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

type fakeStore struct {
	inserted []domain.Opportunity
	err      error
}

func (s *fakeStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, opp)
	return nil
}

func (s *fakeStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	return s.inserted, nil
}

type fakeExec struct {
	placed  []domain.Leg
	failFor string // venue whose legs fail
}

func (e *fakeExec) PlaceOrder(ctx context.Context, leg domain.Leg, typ domain.OrderType) (domain.OrderResult, error) {
	if leg.Venue == e.failFor {
		return domain.OrderResult{}, errors.New("exchange rejected order")
	}
	e.placed = append(e.placed, leg)
	return domain.OrderResult{OrderID: "o-1", Venue: leg.Venue, Side: leg.Side, Status: "filled"}, nil
}

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		ID:     "opp-1",
		Type:   domain.OpportunityPairwise,
		Symbol: "BTC/USDT",
		Legs: []domain.Leg{
			{Venue: "binance", Symbol: "BTC/USDT", Side: domain.SideBuy, Price: 100, Amount: 1},
			{Venue: "bybit", Symbol: "BTC/USDT", Side: domain.SideSell, Price: 101, Amount: 1},
		},
		Venues:     []string{"binance", "bybit"},
		GrossPct:   1.0,
		NetPct:     0.8,
		DetectedAt: time.Now().UTC(),
	}
}

func TestDispatchPublishesAndStores(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeStore{}
	d := New(bus, store, nil, nil, testLogger())

	opp := testOpportunity()
	d.Dispatch(context.Background(), opp)

	if len(bus.payloads) != 1 || bus.channels[0] != Channel {
		t.Fatalf("bus: got %d publishes on %v", len(bus.payloads), bus.channels)
	}
	var decoded domain.Opportunity
	if err := json.Unmarshal(bus.payloads[0], &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.ID != opp.ID || decoded.NetPct != opp.NetPct {
		t.Fatalf("payload round trip lost data: %+v", decoded)
	}

	if len(store.inserted) != 1 || store.inserted[0].ID != opp.ID {
		t.Fatalf("store: got %+v", store.inserted)
	}
}

func TestDispatchAllSinksNil(t *testing.T) {
	d := New(nil, nil, nil, nil, testLogger())
	// Must not panic; the log line is the only sink.
	d.Dispatch(context.Background(), testOpportunity())
}

func TestDispatchStoreFailureDoesNotStopExecution(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	exec := &fakeExec{}
	d := New(nil, store, nil, exec, testLogger())

	d.Dispatch(context.Background(), testOpportunity())
	if len(exec.placed) != 2 {
		t.Fatalf("exec: got %d legs, want 2", len(exec.placed))
	}
}

func TestDispatchContinuesAfterFailedLeg(t *testing.T) {
	exec := &fakeExec{failFor: "binance"}
	d := New(nil, nil, nil, exec, testLogger())

	d.Dispatch(context.Background(), testOpportunity())
	if len(exec.placed) != 1 {
		t.Fatalf("exec: got %d legs, want 1", len(exec.placed))
	}
	if exec.placed[0].Venue != "bybit" {
		t.Fatalf("surviving leg: got %s, want bybit", exec.placed[0].Venue)
	}
}

// Compile-time checks that the fakes satisfy the domain interfaces.
var (
	_ domain.SignalBus        = (*fakeBus)(nil)
	_ domain.OpportunityStore = (*fakeStore)(nil)
	_ domain.ExecutionClient  = (*fakeExec)(nil)
)
