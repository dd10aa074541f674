package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	name string
	sent []string
	fail bool
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.fail {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, title+": "+message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyEventFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{"opportunity_pairwise"}, 0, testLogger())

	if err := n.Notify(context.Background(), "opportunity_pairwise", "t", "m"); err != nil {
		t.Fatalf("allowed event: %v", err)
	}
	if err := n.Notify(context.Background(), "opportunity_triangular", "t", "m"); err != nil {
		t.Fatalf("filtered event should not error: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(s.sent))
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, 0, testLogger())

	_ = n.Notify(context.Background(), "anything", "t", "m")
	if len(s.sent) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(s.sent))
	}
}

func TestNotifyCooldown(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, time.Hour, testLogger())

	_ = n.Notify(context.Background(), "opportunity_pairwise", "t", "m")
	_ = n.Notify(context.Background(), "opportunity_pairwise", "t", "m")
	if len(s.sent) != 1 {
		t.Fatalf("repeat within cooldown delivered %d times, want 1", len(s.sent))
	}

	// Different events have independent windows.
	_ = n.Notify(context.Background(), "opportunity_triangular", "t", "m")
	if len(s.sent) != 2 {
		t.Fatalf("independent event suppressed, got %d deliveries", len(s.sent))
	}
}

func TestDispatchCollectsSenderFailures(t *testing.T) {
	good := &fakeSender{name: "good"}
	bad := &fakeSender{name: "bad", fail: true}
	n := NewNotifier([]Sender{bad, good}, nil, 0, testLogger())

	err := n.Notify(context.Background(), "e", "t", "m")
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected combined error naming the failed sender, got %v", err)
	}
	if len(good.sent) != 1 {
		t.Fatal("failure of one sender must not block the others")
	}
}
