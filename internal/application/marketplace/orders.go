package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const (
	useCaseCreateOrder   = "order.create"
	useCaseShip          = "order.ship"
	useCaseReceive       = "order.receive"
	useCaseRequestCancel = "order.request_cancel"
	useCaseViewOrder     = "order.view"
)

// CreateOrder places the caller's order against an available listing. The
// listing then tries to reserve a fresh copy of its lines from stock so it
// can serve the next buyer; when stock falls short it is marked sold out.
func (s *Service) CreateOrder(ctx context.Context, caller market.AccountID, listingID market.ListingID) (*market.Order, error) {
	var out *market.Order
	err := s.execute(ctx, useCaseCreateOrder, "CreateOrder", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		buyer, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		l, err := s.store.Listing(ctx, listingID)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		if !l.Available {
			return nil, market.ErrListingUnavailable
		}
		if l.Seller == caller {
			return nil, market.ErrSelfPurchase
		}
		seller, err := s.user(ctx, l.Seller)
		if err != nil {
			return nil, err
		}
		if !seller.IsSeller() {
			return nil, market.ErrSellerRoleChanged
		}
		if !buyer.IsBuyer() {
			return nil, market.ErrNotBuyer
		}

		st, err := s.loadStock(ctx, l.Lines)
		if err != nil {
			return nil, err
		}
		soldOut := st.check(l.Lines) != nil
		if soldOut {
			l.Available = false
		} else if err := st.decrement(l.Lines); err != nil {
			return nil, err
		}

		seq, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		o := market.NewOrder(seq.Order, caller, l)
		buyer.AddOrder(o.ID)

		if err := s.commit(ctx, func(b market.Batch) {
			b.PutOrder(o)
			b.PutUser(buyer)
			if soldOut {
				b.PutListing(l)
			} else {
				st.stage(b)
			}
		}); err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.Int64("order.id", int64(o.ID)),
			attribute.Bool("listing.sold_out", soldOut),
		)
		out = o
		events := []domoutbox.Event{market.NewOrderCreatedEvent(o)}
		if soldOut {
			events = append(events, market.NewListingSoldOutEvent(l.ID))
		}
		return events, nil
	}, attribute.String("account.id", string(caller)), attribute.Int64("listing.id", int64(listingID)))
	return out, err
}

// Ship moves a pending order to shipped. Only the seller who published the
// listing may ship it.
func (s *Service) Ship(ctx context.Context, caller market.AccountID, id market.OrderID) (*market.Order, error) {
	return s.transition(ctx, useCaseShip, "Ship", caller, id, func(u *market.User, o *market.Order) (domoutbox.Event, error) {
		if o.Status != market.StatusPending {
			return nil, market.ErrWrongState
		}
		if !u.PublishedListing(o.Listing.ListingID) {
			return nil, market.ErrNotListingOwner
		}
		if err := o.Ship(); err != nil {
			return nil, err
		}
		return market.NewOrderShippedEvent(o), nil
	})
}

// Receive moves a shipped order to received. Only the buyer who placed it
// may confirm it.
func (s *Service) Receive(ctx context.Context, caller market.AccountID, id market.OrderID) (*market.Order, error) {
	return s.transition(ctx, useCaseReceive, "Receive", caller, id, func(u *market.User, o *market.Order) (domoutbox.Event, error) {
		if o.Status != market.StatusShipped {
			return nil, market.ErrWrongState
		}
		if !u.PlacedOrder(o.ID) {
			return nil, market.ErrNotBuyerOnOrder
		}
		if err := o.Receive(); err != nil {
			return nil, err
		}
		return market.NewOrderReceivedEvent(o), nil
	})
}

func (s *Service) transition(
	ctx context.Context,
	useCase, spanName string,
	caller market.AccountID,
	id market.OrderID,
	step func(u *market.User, o *market.Order) (domoutbox.Event, error),
) (*market.Order, error) {
	var out *market.Order
	err := s.execute(ctx, useCase, spanName, func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		o, err := s.store.Order(ctx, id)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		e, err := step(u, o)
		if err != nil {
			return nil, err
		}
		if err := s.commit(ctx, func(b market.Batch) { b.PutOrder(o) }); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("order.status", string(o.Status)))
		out = o
		return []domoutbox.Event{e}, nil
	}, attribute.String("account.id", string(caller)), attribute.Int64("order.id", int64(id)))
	return out, err
}

// RequestCancel records the caller's side of a cancellation. The buyer
// opens it; the seller's confirmation cancels the order and gives the goods
// back: to stock while the listing is still on sale, otherwise by putting the
// sold-out listing back on sale.
func (s *Service) RequestCancel(ctx context.Context, caller market.AccountID, id market.OrderID) (*market.Order, error) {
	var out *market.Order
	err := s.execute(ctx, useCaseRequestCancel, "RequestCancel", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		o, err := s.store.Order(ctx, id)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		if o.Status != market.StatusPending {
			return nil, market.ErrNotCancellable
		}
		party, err := o.PartyOf(caller)
		if err != nil {
			return nil, err
		}
		cancelled, err := o.RequestCancel(party)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("order.party", party.String()))

		events := []domoutbox.Event{market.NewOrderCancelRequestedEvent(o, party)}
		if !cancelled {
			if err := s.commit(ctx, func(b market.Batch) { b.PutOrder(o) }); err != nil {
				return nil, err
			}
			out = o
			return events, nil
		}

		l, err := s.store.Listing(ctx, o.Listing.ListingID)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		var st *stock
		restock := market.RestockListing
		if l.Available {
			restock = market.RestockStock
			if st, err = s.loadStock(ctx, o.Listing.Lines); err != nil {
				return nil, err
			}
			if err := st.increment(o.Listing.Lines); err != nil {
				return nil, err
			}
		} else {
			l.Available = true
		}

		if err := s.commit(ctx, func(b market.Batch) {
			b.PutOrder(o)
			if st != nil {
				st.stage(b)
			} else {
				b.PutListing(l)
			}
		}); err != nil {
			return nil, err
		}

		span.SetAttributes(attribute.String("order.restock", restock))
		out = o
		events = append(events, market.NewOrderCancelledEvent(o, restock))
		if st == nil {
			events = append(events, market.NewListingRestoredEvent(l.ID, o.ID))
		}
		return events, nil
	}, attribute.String("account.id", string(caller)), attribute.Int64("order.id", int64(id)))
	return out, err
}

func (s *Service) ViewOrder(ctx context.Context, id market.OrderID) (*market.Order, error) {
	var out *market.Order
	err := s.execute(ctx, useCaseViewOrder, "ViewOrder", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		o, err := s.store.Order(ctx, id)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		out = o
		return nil, nil
	}, attribute.Int64("order.id", int64(id)))
	return out, err
}
