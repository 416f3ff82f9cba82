package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const useCaseRate = "reputation.rate"

// Rate lets each party of a received order score the other side once. The
// score lands on the counter-party's reputation: a buyer rates the seller's
// seller reputation and the seller rates the buyer's buyer reputation.
func (s *Service) Rate(ctx context.Context, caller market.AccountID, id market.OrderID, score int) (*market.Order, error) {
	var out *market.Order
	err := s.execute(ctx, useCaseRate, "Rate", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		sc, err := market.NewScore(score)
		if err != nil {
			return nil, err
		}
		o, err := s.store.Order(ctx, id)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		if o.Status != market.StatusReceived {
			return nil, market.ErrOrderNotReceived
		}
		party, err := o.PartyOf(caller)
		if err != nil {
			return nil, err
		}
		if err := o.Rate(party, sc); err != nil {
			return nil, err
		}

		rated := o.Listing.Seller
		if party == market.PartySeller {
			rated = o.Buyer
		}
		u, err := s.user(ctx, rated)
		if err != nil {
			return nil, err
		}
		if party == market.PartyBuyer {
			u.ReceiveSellerScore(sc)
		} else {
			u.ReceiveBuyerScore(sc)
		}

		if err := s.commit(ctx, func(b market.Batch) {
			b.PutOrder(o)
			b.PutUser(u)
		}); err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.String("order.party", party.String()),
			attribute.Int("rating.score", int(sc)),
		)
		out = o
		return []domoutbox.Event{market.NewOrderRatedEvent(o, party, sc)}, nil
	}, attribute.String("account.id", string(caller)), attribute.Int64("order.id", int64(id)))
	return out, err
}
