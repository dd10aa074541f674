// Package dispatch forwards detected opportunities to their consumers: the
// structured log, the signal bus, the audit store, notification channels, and
// the external execution collaborator.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/notify"
)

// Channel is the signal bus channel opportunities are published on.
const Channel = "opportunities"

// Dispatcher records each opportunity and hands its legs to the execution
// collaborator. It does not wait for joint completion of the legs, does not
// retry, and does not roll back a partially filled leg; all such risk
// handling belongs to the execution collaborator.
type Dispatcher struct {
	bus      domain.SignalBus        // optional
	store    domain.OpportunityStore // optional
	notifier *notify.Notifier        // optional
	exec     domain.ExecutionClient  // nil in scan mode
	logger   *slog.Logger
}

// New creates a Dispatcher. bus, store, notifier, and exec may each be nil;
// the corresponding sink is skipped.
func New(bus domain.SignalBus, store domain.OpportunityStore, notifier *notify.Notifier, exec domain.ExecutionClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		bus:      bus,
		store:    store,
		notifier: notifier,
		exec:     exec,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch consumes one opportunity. Sink failures are logged and do not
// prevent delivery to the remaining sinks.
func (d *Dispatcher) Dispatch(ctx context.Context, opp domain.Opportunity) {
	d.logger.Info("opportunity dispatched",
		slog.String("id", opp.ID),
		slog.String("type", string(opp.Type)),
		slog.String("symbol", opp.Symbol),
		slog.Any("venues", opp.Venues),
		slog.Float64("gross_pct", opp.GrossPct),
		slog.Float64("net_pct", opp.NetPct),
	)

	if d.bus != nil {
		if payload, err := json.Marshal(opp); err == nil {
			if err := d.bus.Publish(ctx, Channel, payload); err != nil {
				d.logger.Warn("publish failed", slog.String("id", opp.ID), slog.String("error", err.Error()))
			}
		}
	}

	if d.store != nil {
		if err := d.store.Insert(ctx, opp); err != nil {
			d.logger.Warn("audit record failed", slog.String("id", opp.ID), slog.String("error", err.Error()))
		}
	}

	if d.notifier != nil {
		event := "opportunity_" + string(opp.Type)
		if err := d.notifier.Notify(ctx, event, "Arbitrage opportunity", summarize(opp)); err != nil {
			d.logger.Warn("notify failed", slog.String("id", opp.ID), slog.String("error", err.Error()))
		}
	}

	if d.exec != nil {
		d.execute(ctx, opp)
	}
}

// execute forwards the legs one by one. A failed leg is logged and the
// remaining legs are still attempted; there is no rollback.
func (d *Dispatcher) execute(ctx context.Context, opp domain.Opportunity) {
	for _, leg := range opp.Legs {
		res, err := d.exec.PlaceOrder(ctx, leg, domain.OrderTypeLimit)
		if err != nil {
			d.logger.Error("leg placement failed",
				slog.String("id", opp.ID),
				slog.String("venue", leg.Venue),
				slog.String("symbol", leg.Symbol),
				slog.String("side", string(leg.Side)),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.logger.Info("leg placed",
			slog.String("id", opp.ID),
			slog.String("order_id", res.OrderID),
			slog.String("venue", res.Venue),
			slog.String("side", string(res.Side)),
			slog.Float64("price", res.Price),
			slog.Float64("amount", res.Amount),
			slog.Bool("simulated", res.Simulated),
		)
	}
}

// summarize renders a short human-readable description for notifications.
func summarize(opp domain.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s net %.3f%% (gross %.3f%%)\n", opp.Type, opp.Symbol, opp.NetPct, opp.GrossPct)
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "%s %s %s @ %.8f x %.6f\n", leg.Venue, leg.Side, leg.Symbol, leg.Price, leg.Amount)
	}
	return b.String()
}
