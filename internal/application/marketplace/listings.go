package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const (
	useCaseCreateListing = "listing.create"
	useCaseViewListing   = "listing.view"
)

// CreateListing reserves stock for lines and publishes them at a total price
// fixed now. Every check runs before any stock moves.
func (s *Service) CreateListing(ctx context.Context, caller market.AccountID, lines []market.Line) (*market.Listing, error) {
	var out *market.Listing
	err := s.execute(ctx, useCaseCreateListing, "CreateListing", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !u.IsSeller() {
			return nil, market.ErrNotSeller
		}
		if err := market.ValidateLines(lines); err != nil {
			return nil, err
		}
		for _, l := range lines {
			if !u.OwnsProduct(l.ProductID) {
				return nil, market.ErrNotOwner
			}
		}

		st, err := s.loadStock(ctx, lines)
		if err != nil {
			return nil, err
		}
		if err := st.check(lines); err != nil {
			return nil, err
		}
		total, err := market.TotalPrice(lines, st.price)
		if err != nil {
			return nil, err
		}
		if err := st.decrement(lines); err != nil {
			return nil, err
		}

		seq, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		l := market.NewListing(seq.Listing, caller, lines, total)
		u.AddListing(l.ID)

		if err := s.commit(ctx, func(b market.Batch) {
			st.stage(b)
			b.PutListing(l)
			b.PutUser(u)
		}); err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.Int64("listing.id", int64(l.ID)),
			attribute.Int64("listing.total_price", int64(total)),
		)
		out = l
		return []domoutbox.Event{market.NewListingCreatedEvent(l)}, nil
	}, attribute.String("account.id", string(caller)), attribute.Int("lines", len(lines)))
	return out, err
}

func (s *Service) ViewListing(ctx context.Context, id market.ListingID) (*market.Listing, error) {
	var out *market.Listing
	err := s.execute(ctx, useCaseViewListing, "ViewListing", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		l, err := s.store.Listing(ctx, id)
		if err != nil {
			return nil, wrapStoreError(err)
		}
		out = l
		return nil, nil
	}, attribute.Int64("listing.id", int64(id)))
	return out, err
}
