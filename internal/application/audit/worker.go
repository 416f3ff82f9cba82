// Package audit records every marketplace domain event as a structured log
// line and a counter sample.
package audit

import (
	"context"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

const workerService = "audit-worker"

type Worker struct {
	log    observability.Logger
	events observability.Counter // market_events_total{event}
}

func New(tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		log:    tel.Logger().With(observability.F("service", workerService)),
		events: tel.Metrics().Counter(observability.MMarketEvents),
	}
}

// Start subscribes the worker to every marketplace event. Each middleware
// wraps the handler, outermost first.
func (w *Worker) Start(sub domoutbox.Subscriber, mw ...func(domoutbox.Handler) domoutbox.Handler) {
	if sub == nil {
		return
	}
	h := domoutbox.Handler(w.Handle)
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	for _, name := range market.EventNames() {
		sub.Subscribe(name, h)
	}
}

func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) error {
	name := e.EventName()
	w.events.Add(1, observability.L("event", name))
	logctx.FromOr(ctx, w.log).Info("market_event",
		append([]observability.Field{observability.F("event", name)}, describe(e)...)...,
	)
	return nil
}

func describe(e domoutbox.Event) []observability.Field {
	switch evt := e.(type) {
	case market.UserRegisteredEvent:
		return []observability.Field{
			observability.F("account_id", string(evt.AccountID)),
			observability.F("role", evt.Role.String()),
		}
	case market.RoleChangedEvent:
		return []observability.Field{
			observability.F("account_id", string(evt.AccountID)),
			observability.F("role_from", evt.From.String()),
			observability.F("role_to", evt.To.String()),
		}
	case market.ProductLoadedEvent:
		return []observability.Field{
			observability.F("product_id", uint32(evt.ProductID)),
			observability.F("seller", string(evt.Seller)),
			observability.F("stock", evt.Stock),
		}
	case market.ListingCreatedEvent:
		return []observability.Field{
			observability.F("listing_id", uint32(evt.ListingID)),
			observability.F("seller", string(evt.Seller)),
			observability.F("total_price", evt.TotalPrice),
		}
	case market.ListingSoldOutEvent:
		return []observability.Field{observability.F("listing_id", uint32(evt.ListingID))}
	case market.ListingRestoredEvent:
		return []observability.Field{
			observability.F("listing_id", uint32(evt.ListingID)),
			observability.F("order_id", uint32(evt.OrderID)),
		}
	case market.OrderCreatedEvent:
		return []observability.Field{
			observability.F("order_id", uint32(evt.OrderID)),
			observability.F("listing_id", uint32(evt.ListingID)),
			observability.F("buyer", string(evt.Buyer)),
			observability.F("seller", string(evt.Seller)),
			observability.F("total_price", evt.TotalPrice),
		}
	case market.OrderShippedEvent:
		return []observability.Field{observability.F("order_id", uint32(evt.OrderID))}
	case market.OrderReceivedEvent:
		return []observability.Field{observability.F("order_id", uint32(evt.OrderID))}
	case market.OrderCancelRequestedEvent:
		return []observability.Field{
			observability.F("order_id", uint32(evt.OrderID)),
			observability.F("party", evt.Party.String()),
		}
	case market.OrderCancelledEvent:
		return []observability.Field{
			observability.F("order_id", uint32(evt.OrderID)),
			observability.F("restock", evt.Restock),
		}
	case market.OrderRatedEvent:
		return []observability.Field{
			observability.F("order_id", uint32(evt.OrderID)),
			observability.F("party", evt.Party.String()),
			observability.F("score", uint8(evt.Score)),
		}
	default:
		return nil
	}
}
